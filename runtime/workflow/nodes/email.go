package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// emailExecutor assembles and sends one message per node. Predecessor
// results enrich the body: parsed documents are summarised and
// attached, reports and images attached, upload URLs linked, and AI
// free text appended under its own section.
type emailExecutor struct {
	mail MailSender
}

const documentSummaryLimit = 5000

func (e *emailExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.mail == nil {
		return result.Errorf("Email credentials not configured")
	}
	to := strings.TrimSpace(req.Node.String("to"))
	if to == "" {
		return result.Errorf("Recipient email address is required")
	}

	var (
		body        strings.Builder
		attachments []string
	)
	body.WriteString(req.Node.String("body"))

	for _, d := range Documents(req.Inputs) {
		body.WriteString("\n\n--- Parsed Document Content ---\n")
		body.WriteString("Summary of ")
		body.WriteString(d.Doc.Metadata.FileName)
		body.WriteString(":\n")
		body.WriteString(result.Truncate(d.Doc.Content, documentSummaryLimit))
		attachments = append(attachments, d.Path)
	}
	attachments = append(attachments, Reports(req.Inputs)...)
	attachments = append(attachments, Images(req.Inputs)...)
	if urls := Uploads(req.Inputs); len(urls) > 0 {
		body.WriteString("\n\nFile Links from Workflow:\n")
		for _, u := range urls {
			body.WriteString("- ")
			body.WriteString(u)
			body.WriteString("\n")
		}
	}
	if texts := AITexts(req.Inputs); len(texts) > 0 {
		body.WriteString("\n\n--- AI Generated Content ---\n")
		for _, t := range texts {
			body.WriteString(t.Text)
			body.WriteString("\n")
		}
		body.WriteString(fmt.Sprintf("\n(Generated at %s)", time.Now().Format(time.RFC1123)))
	}
	attachments = append(attachments, configuredAttachments(req.Node.Config["attachments"])...)

	ctx, cancel := context.WithTimeout(ctx, SMTPTimeout)
	defer cancel()
	err := e.mail.Send(ctx, MailMessage{
		To:          splitAddresses(to),
		CC:          splitAddresses(req.Node.String("cc")),
		BCC:         splitAddresses(req.Node.String("bcc")),
		Subject:     req.Node.StringOr("subject", "AutoFlow Notification"),
		Body:        body.String(),
		Attachments: attachments,
	})
	if err != nil {
		return result.Errorf(fmt.Sprintf("Failed to send email: %v", err))
	}
	msg := "Email sent successfully to " + to
	if len(attachments) > 0 {
		msg += fmt.Sprintf(" with %d attachment(s)", len(attachments))
	}
	return result.Notify(msg)
}

// splitAddresses parses a comma-separated address list, dropping empty
// entries.
func splitAddresses(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// configuredAttachments accepts both a single path and a list of paths
// from node config.
func configuredAttachments(v any) []string {
	switch t := v.(type) {
	case string:
		if t != "" {
			return []string{t}
		}
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
