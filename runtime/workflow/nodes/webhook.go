package nodes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/result"
)

// webhookExecutor makes one outbound HTTP request per node. An empty
// webhook_url is a benign no-op so local-only flows can use the node
// purely as a trigger point.
type webhookExecutor struct {
	client *http.Client
}

const (
	webhookUserAgent   = "AutoFlow-Webhook/1.0"
	webhookBodySnippet = 200
)

var webhookMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodHead: true,
	http.MethodOptions: true,
}

func (e *webhookExecutor) Execute(ctx context.Context, req Request) result.Result {
	url := strings.TrimSpace(req.Node.String("webhook_url"))
	if url == "" {
		return result.Notify(result.TagWebhookNoURL)
	}
	method := strings.ToUpper(req.Node.StringOr("method", http.MethodPost))
	if !webhookMethods[method] {
		return result.Errorf(fmt.Sprintf("Unsupported HTTP method: %s", method))
	}

	timeout := WebhookTimeout
	if secs := configSeconds(req.Node.Config["timeout"]); secs > 0 {
		timeout = time.Duration(secs * float64(time.Second))
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if method != http.MethodGet && method != http.MethodHead {
		body = bytes.NewReader(webhookBody(req.Node))
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Invalid webhook request: %v", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", webhookUserAgent)
	httpReq.Header.Set("X-AutoFlow-Timestamp", time.Now().UTC().Format(time.RFC3339))
	if hdrs, ok := req.Node.Config["headers"].(map[string]any); ok {
		for k, v := range hdrs {
			if s, ok := v.(string); ok {
				httpReq.Header.Set(k, s)
			}
		}
	}
	if token := req.Node.String("auth_token"); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return result.Errorf(fmt.Sprintf("Webhook request failed: %v", err))
	}
	defer resp.Body.Close()
	snippet := readSnippet(resp.Body, webhookBodySnippet)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return result.Notify(fmt.Sprintf("Webhook triggered successfully (status %d): %s", resp.StatusCode, snippet))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return result.Errorf(fmt.Sprintf("Webhook client error (status %d): %s", resp.StatusCode, snippet))
	case resp.StatusCode >= 500:
		return result.Errorf(fmt.Sprintf("Webhook server error (status %d): %s", resp.StatusCode, snippet))
	default:
		return result.Notify(fmt.Sprintf("Webhook responded with status %d: %s", resp.StatusCode, snippet))
	}
}

// webhookBody builds the outbound JSON. The configured body wins; when
// it is empty, a webhook_payload injected by the trigger router becomes
// the body, so triggered workflows forward the inbound payload.
func webhookBody(n workflow.Node) []byte {
	body := n.String("body")
	if strings.TrimSpace(body) == "" {
		if payload, ok := n.Config["webhook_payload"]; ok && payload != nil {
			if b, err := json.Marshal(payload); err == nil {
				return b
			}
		}
	}
	return encodeWebhookBody(body)
}

// encodeWebhookBody sends valid JSON as-is and wraps everything else in
// {"data": <string>}.
func encodeWebhookBody(body string) []byte {
	trimmed := strings.TrimSpace(body)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return []byte(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]string{"data": body})
	return wrapped
}

// configSeconds reads a numeric config value that may arrive as a JSON
// number, a float or a string.
func configSeconds(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}

func readSnippet(r io.Reader, limit int) string {
	b, _ := io.ReadAll(io.LimitReader(r, int64(limit)))
	return strings.TrimSpace(string(b))
}
