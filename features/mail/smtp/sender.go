// Package smtp delivers executor mail through a single configured SMTP
// account.
package smtp

import (
	"context"
	"errors"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Sender implements nodes.MailSender.
type Sender struct {
	host     string
	port     int
	username string
	password string
}

// Options configures New. Host and Username are required; Port defaults
// to 587.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
}

// New validates the options and builds a sender.
func New(opts Options) (*Sender, error) {
	if opts.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if opts.Username == "" {
		return nil, errors.New("smtp: username is required")
	}
	if opts.Port == 0 {
		opts.Port = 587
	}
	return &Sender{
		host:     opts.Host,
		port:     opts.Port,
		username: opts.Username,
		password: opts.Password,
	}, nil
}

// Send implements nodes.MailSender. The context deadline set by the
// executor bounds the SMTP dialogue.
func (s *Sender) Send(ctx context.Context, msg nodes.MailMessage) error {
	m := gomail.NewMsg()
	if err := m.From(s.username); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return fmt.Errorf("set cc: %w", err)
		}
	}
	if len(msg.BCC) > 0 {
		if err := m.Bcc(msg.BCC...); err != nil {
			return fmt.Errorf("set bcc: %w", err)
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	for _, path := range msg.Attachments {
		m.AttachFile(path)
	}

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
