// Package twilio delivers SMS and WhatsApp messages through the Twilio
// REST API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"os"

	twiliogo "github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Courier implements nodes.Courier. Clients are built per call because
// credentials are resolved per user.
type Courier struct {
	// whatsappFrom is the WhatsApp sender, defaulting to the Twilio
	// sandbox number.
	whatsappFrom string
}

// Options configures New.
type Options struct {
	// WhatsAppFrom overrides the WhatsApp sender number. Falls back to
	// TWILIO_WHATSAPP_NUMBER, then the sandbox number.
	WhatsAppFrom string
}

const sandboxWhatsApp = "whatsapp:+14155238886"

// New builds a courier.
func New(opts Options) *Courier {
	from := opts.WhatsAppFrom
	if from == "" {
		from = os.Getenv("TWILIO_WHATSAPP_NUMBER")
	}
	if from == "" {
		from = sandboxWhatsApp
	}
	return &Courier{whatsappFrom: from}
}

// Send implements nodes.Courier.
func (c *Courier) Send(ctx context.Context, msg nodes.CourierMessage) error {
	from := msg.Creds.Phone
	if msg.WhatsApp {
		from = c.whatsappFrom
	}
	if from == "" {
		return errors.New("no sender number configured")
	}

	client := twiliogo.NewRestClientWithParams(twiliogo.ClientParams{
		Username: msg.Creds.SID,
		Password: msg.Creds.Token,
	})
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(from)
	params.SetBody(msg.Body)

	resp, err := client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		reason := ""
		if resp.ErrorMessage != nil {
			reason = *resp.ErrorMessage
		}
		return fmt.Errorf("delivery rejected (code %d): %s", *resp.ErrorCode, reason)
	}
	return nil
}
