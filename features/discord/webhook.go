// Package discord executes Discord webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Poster implements nodes.DiscordPoster.
type Poster struct {
	client *http.Client
}

// New builds a poster. A nil client uses http.DefaultClient semantics;
// the executor's context deadline bounds each call.
func New(client *http.Client) *Poster {
	if client == nil {
		client = &http.Client{}
	}
	return &Poster{client: client}
}

// Post implements nodes.DiscordPoster.
func (p *Poster) Post(ctx context.Context, webhookURL string, msg nodes.DiscordMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("webhook not found (404), check the webhook URL")
	case resp.StatusCode == http.StatusBadRequest:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("payload rejected (400): %s", strings.TrimSpace(string(snippet)))
	default:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
