package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// courierExecutor serves the sms/whatsapp/twilio kinds. Absorption
// matches the email executor: document summaries and AI free text are
// prepended to the configured message.
type courierExecutor struct {
	courier Courier
}

const courierMessageLimit = 1600

func (e *courierExecutor) Execute(ctx context.Context, req Request) result.Result {
	if e.courier == nil {
		return result.Errorf("Twilio adapter not configured")
	}
	to := strings.TrimSpace(req.Node.String("to"))
	if to == "" {
		return result.Errorf("Recipient phone number is required")
	}
	mode := courierMode(req.Node)
	if mode != "sms" && mode != "whatsapp" {
		return result.Errorf(fmt.Sprintf("Unsupported mode '%s'. Use 'sms' or 'whatsapp'", mode))
	}

	var parts []string
	for _, d := range Documents(req.Inputs) {
		parts = append(parts, fmt.Sprintf("Summary of %s:\n%s",
			d.Doc.Metadata.FileName, result.Truncate(d.Doc.Content, documentSummaryLimit)))
	}
	for _, t := range AITexts(req.Inputs) {
		parts = append(parts, t.Text)
	}
	if m := req.Node.String("message"); m != "" {
		parts = append(parts, m)
	}
	message := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if message == "" {
		return result.Errorf("Message content is required")
	}
	if len(message) > courierMessageLimit {
		return result.Errorf("Message too long. Maximum length is 1600 characters.")
	}

	number, err := normalizePhone(to)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Invalid phone number format: %s", to))
	}
	tw := req.Creds.Twilio(ctx)
	if tw.SID == "" || tw.Token == "" {
		return result.Errorf("Twilio credentials not configured")
	}
	dest := number
	if mode == "whatsapp" {
		dest = "whatsapp:" + number
	} else if tw.Phone == "" {
		return result.Errorf("Twilio phone number not configured for SMS")
	}

	if err := e.courier.Send(ctx, CourierMessage{
		Creds:    tw,
		To:       dest,
		Body:     message,
		WhatsApp: mode == "whatsapp",
	}); err != nil {
		return result.Errorf(fmt.Sprintf("Twilio API error: %v", err))
	}
	return result.Notify(fmt.Sprintf("%s sent successfully to %s", strings.ToUpper(mode), number))
}

// courierMode derives the delivery mode: explicit config wins, then the
// node kind for the sms/whatsapp shorthand kinds, defaulting to
// whatsapp.
func courierMode(n workflow.Node) string {
	if m := strings.ToLower(n.String("mode")); m != "" {
		return m
	}
	switch n.Kind {
	case workflow.KindSMS:
		return "sms"
	default:
		return "whatsapp"
	}
}

// normalizePhone strips formatting characters and applies the default
// US country code when none is present.
func normalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", fmt.Errorf("unexpected character %q", r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "+" {
		return "", fmt.Errorf("empty number")
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned, nil
	}
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "1") {
		return "+" + cleaned, nil
	}
	return "+1" + cleaned, nil
}
