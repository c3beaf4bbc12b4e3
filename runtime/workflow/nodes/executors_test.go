package nodes_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoflow/autoflow/runtime/workflow"
	"github.com/autoflow/autoflow/runtime/workflow/document"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
	"github.com/autoflow/autoflow/runtime/workflow/result"
)

func TestWebhookExecutorNoURL(t *testing.T) {
	r := nodes.NewRegistry(nodes.Deps{})
	res := r.Execute(context.Background(), nodes.Request{
		Node:  workflow.Node{ID: "w", Kind: workflow.KindWebhook},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("Webhook triggered (no URL provided)"), res)
}

func TestWebhookExecutorPostsJSON(t *testing.T) {
	var (
		gotMethod string
		gotBody   []byte
		gotHeader http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		gotHeader = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	r := nodes.NewRegistry(nodes.Deps{HTTP: srv.Client()})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url": srv.URL,
			"body":        "plain text payload",
			"auth_token":  "tok-123",
			"headers":     map[string]any{"X-Custom": "yes"},
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify(`Webhook triggered successfully (status 200): {"ok":true}`), res)
	require.Equal(t, http.MethodPost, gotMethod)
	require.JSONEq(t, `{"data":"plain text payload"}`, string(gotBody))
	require.Equal(t, "AutoFlow-Webhook/1.0", gotHeader.Get("User-Agent"))
	require.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	require.Equal(t, "Bearer tok-123", gotHeader.Get("Authorization"))
	require.Equal(t, "yes", gotHeader.Get("X-Custom"))
	require.NotEmpty(t, gotHeader.Get("X-AutoFlow-Timestamp"))
}

func TestWebhookExecutorPassesValidJSONUnwrapped(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	r := nodes.NewRegistry(nodes.Deps{HTTP: srv.Client()})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url": srv.URL,
			"body":        `{"event":"deploy"}`,
		}},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.JSONEq(t, `{"event":"deploy"}`, string(gotBody))
}

func TestWebhookExecutorForwardsInjectedPayload(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	r := nodes.NewRegistry(nodes.Deps{HTTP: srv.Client()})

	// With no configured body, the trigger-injected payload is the body.
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url":     srv.URL,
			"webhook_payload": map[string]any{"x": 1, "y": "z"},
		}},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.JSONEq(t, `{"x":1,"y":"z"}`, string(gotBody))

	// A configured body still wins over the injected payload.
	res = r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url":     srv.URL,
			"webhook_payload": map[string]any{"x": 1},
			"body":            "plain note",
		}},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.JSONEq(t, `{"data":"plain note"}`, string(gotBody))
}

func TestWebhookExecutorStatusClasses(t *testing.T) {
	status := 200
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte("detail"))
	}))
	defer srv.Close()

	r := nodes.NewRegistry(nodes.Deps{HTTP: srv.Client()})
	run := func() result.Result {
		return r.Execute(context.Background(), nodes.Request{
			Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
				"webhook_url": srv.URL,
			}},
			Creds: anonBroker(),
		})
	}

	status = 404
	res := run()
	require.True(t, res.IsError())
	require.Equal(t, "Error: Webhook client error (status 404): detail", res.Text)

	status = 503
	res = run()
	require.True(t, res.IsError())
	require.Equal(t, "Error: Webhook server error (status 503): detail", res.Text)

	status = 204
	res = run()
	require.False(t, res.IsError())
	require.Contains(t, res.Text, "Webhook triggered successfully (status 204)")
}

func TestWebhookExecutorGETSendsNoBody(t *testing.T) {
	var gotBody []byte
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	r := nodes.NewRegistry(nodes.Deps{HTTP: srv.Client()})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url": srv.URL,
			"method":      "get",
			"body":        "ignored",
		}},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.Equal(t, http.MethodGet, gotMethod)
	require.Empty(t, gotBody)
}

func TestWebhookExecutorRejectsUnknownMethod(t *testing.T) {
	r := nodes.NewRegistry(nodes.Deps{})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "w", Kind: workflow.KindWebhook, Config: map[string]any{
			"webhook_url": "https://example.test",
			"method":      "BREW",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Unsupported HTTP method: BREW"), res)
}

func TestCourierExecutorSMS(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550100")

	courier := &fakeCourier{}
	r := nodes.NewRegistry(nodes.Deps{Courier: courier})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSMS, Config: map[string]any{
			"to":      "(555) 123-4567",
			"message": "build green",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("SMS sent successfully to +15551234567"), res)
	require.Equal(t, "+15551234567", courier.msg.To)
	require.Equal(t, "build green", courier.msg.Body)
	require.False(t, courier.msg.WhatsApp)
}

func TestCourierExecutorWhatsAppPrefixesDestination(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "")

	courier := &fakeCourier{}
	r := nodes.NewRegistry(nodes.Deps{Courier: courier})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindWhatsApp, Config: map[string]any{
			"to":      "+447911123456",
			"message": "hola",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("WHATSAPP sent successfully to +447911123456"), res)
	require.Equal(t, "whatsapp:+447911123456", courier.msg.To)
	require.True(t, courier.msg.WhatsApp)
}

func TestCourierExecutorAbsorbsUpstreamText(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550100")
	dir := t.TempDir()
	docPath := writeParsedDoc(t, dir, document.Document{
		Content:  "doc body",
		Metadata: document.Metadata{FileName: "a.txt"},
	})

	courier := &fakeCourier{}
	r := nodes.NewRegistry(nodes.Deps{Courier: courier})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSMS, Config: map[string]any{
			"to":      "5551234567",
			"message": "configured tail",
		}},
		Inputs: []nodes.Input{
			{NodeID: "d", Result: result.Document(docPath)},
			{NodeID: "a", Result: result.Textf("model output")},
		},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.Equal(t, "Summary of a.txt:\ndoc body\n\nmodel output\n\nconfigured tail", courier.msg.Body)
}

func TestCourierExecutorValidation(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	r := nodes.NewRegistry(nodes.Deps{Courier: &fakeCourier{}})
	ctx := context.Background()

	res := r.Execute(ctx, nodes.Request{
		Node:  workflow.Node{ID: "s", Kind: workflow.KindSMS},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Recipient phone number is required"), res)

	res = r.Execute(ctx, nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSMS, Config: map[string]any{
			"to": "+15551234567", "message": strings.Repeat("x", 1601),
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Message too long. Maximum length is 1600 characters."), res)

	res = r.Execute(ctx, nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSMS, Config: map[string]any{
			"to": "+1555#bad", "message": "hi",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Invalid phone number format: +1555#bad"), res)

	res = r.Execute(ctx, nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSMS, Config: map[string]any{
			"to": "+15551234567", "message": "hi",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Twilio credentials not configured"), res)
}

func TestDiscordExecutorRendersEmbeds(t *testing.T) {
	poster := &fakeDiscord{}
	r := nodes.NewRegistry(nodes.Deps{Discord: poster})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "d", Kind: workflow.KindDiscord, Config: map[string]any{
			"webhook_url": "https://discord.test/hook",
			"message":     "run finished",
		}},
		Inputs: []nodes.Input{
			{NodeID: "a", Result: result.Textf("some model text")},
			{NodeID: "r", Result: result.Report("generated_reports/r.pdf")},
			{NodeID: "e", Result: result.Errorf("boom")},
		},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("Discord message sent successfully"), res)
	require.Equal(t, "https://discord.test/hook", poster.url)
	require.Equal(t, "AutoFlow Bot", poster.msg.Username)
	require.Len(t, poster.msg.Embeds, 4)
	require.Equal(t, "AutoFlow Notification", poster.msg.Embeds[0].Title)
	require.Equal(t, "run finished", poster.msg.Embeds[0].Description)
	require.Equal(t, "Sent via AutoFlow", poster.msg.Embeds[0].Footer.Text)
	require.Equal(t, "AI Generated Content", poster.msg.Embeds[1].Title)
	require.Equal(t, "Report Generated", poster.msg.Embeds[2].Title)
	require.Equal(t, "r.pdf", poster.msg.Embeds[2].Description)
	require.Equal(t, "Error", poster.msg.Embeds[3].Title)
	require.Equal(t, 15158332, poster.msg.Embeds[3].Color)
}

func TestDiscordExecutorDefaultEmbedAndEnvURL(t *testing.T) {
	t.Setenv("SOCIAL_MEDIA_TEST_WEBHOOK", "https://discord.test/env-hook")
	poster := &fakeDiscord{}
	r := nodes.NewRegistry(nodes.Deps{Discord: poster})
	res := r.Execute(context.Background(), nodes.Request{
		Node:  workflow.Node{ID: "d", Kind: workflow.KindDiscord},
		Creds: anonBroker(),
	})
	require.False(t, res.IsError())
	require.Equal(t, "https://discord.test/env-hook", poster.url)
	require.Len(t, poster.msg.Embeds, 1)
	require.Equal(t, "Workflow executed", poster.msg.Embeds[0].Description)
}

func TestDiscordExecutorCapsEmbeds(t *testing.T) {
	poster := &fakeDiscord{}
	r := nodes.NewRegistry(nodes.Deps{Discord: poster})
	var inputs []nodes.Input
	for i := 0; i < 15; i++ {
		inputs = append(inputs, nodes.Input{NodeID: "n", Result: result.Textf("text block number "+string(rune('a'+i)))})
	}
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "d", Kind: workflow.KindDiscord, Config: map[string]any{
			"webhook_url": "https://discord.test/hook",
		}},
		Inputs: inputs,
		Creds:  anonBroker(),
	})
	require.False(t, res.IsError())
	require.Len(t, poster.msg.Embeds, 10)
}

func TestDiscordExecutorMissingURL(t *testing.T) {
	t.Setenv("SOCIAL_MEDIA_TEST_WEBHOOK", "")
	r := nodes.NewRegistry(nodes.Deps{Discord: &fakeDiscord{}})
	res := r.Execute(context.Background(), nodes.Request{
		Node:  workflow.Node{ID: "d", Kind: workflow.KindDiscord},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Discord webhook URL not configured"), res)
}

func TestSheetsExecutorWritesConfiguredValues(t *testing.T) {
	writer := &fakeSheets{cells: 4}
	r := nodes.NewRegistry(nodes.Deps{Sheets: writer})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "g", Kind: workflow.KindGoogleSheets, Config: map[string]any{
			"spreadsheet_id": "sheet-1",
			"values":         []any{[]any{"a", "b"}, []any{"c", "d"}},
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("4 cells updated."), res)
	require.Equal(t, "sheet-1", writer.spreadsheetID)
	require.Equal(t, "Sheet1!A1", writer.readRange)
	require.Equal(t, [][]any{{"a", "b"}, {"c", "d"}}, writer.values)
}

func TestSheetsExecutorSpreadsheetPredecessorWins(t *testing.T) {
	dir := t.TempDir()
	docPath := writeParsedDoc(t, dir, document.Document{
		Metadata: document.Metadata{FileName: "sales.xlsx"},
		Sheets: map[string]document.Sheet{
			"Q1": {
				Columns: []string{"region", "total"},
				Data:    [][]any{{"west", json.Number("12")}},
				Shape:   [2]int{1, 2},
			},
		},
	})

	writer := &fakeSheets{cells: 4}
	r := nodes.NewRegistry(nodes.Deps{Sheets: writer})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "g", Kind: workflow.KindGoogleSheets, Config: map[string]any{
			"spreadsheet_id": "sheet-1",
			"values":         []any{[]any{"ignored"}},
		}},
		Inputs: []nodes.Input{{NodeID: "d", Result: result.Document(docPath)}},
		Creds:  anonBroker(),
	})
	require.False(t, res.IsError())
	require.Len(t, writer.values, 2)
	require.Equal(t, []any{"region", "total"}, writer.values[0])
}

func TestSheetsExecutorValidation(t *testing.T) {
	r := nodes.NewRegistry(nodes.Deps{Sheets: &fakeSheets{}})
	res := r.Execute(context.Background(), nodes.Request{
		Node:  workflow.Node{ID: "g", Kind: workflow.KindGoogleSheets},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("Spreadsheet ID is required"), res)

	res = r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "g", Kind: workflow.KindGoogleSheets, Config: map[string]any{
			"spreadsheet_id": "sheet-1",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Errorf("No values to write"), res)
}

func TestSheetsExecutorAppendError(t *testing.T) {
	writer := &fakeSheets{err: errors.New("quota exceeded")}
	r := nodes.NewRegistry(nodes.Deps{Sheets: writer})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "g", Kind: workflow.KindGoogleSheets, Config: map[string]any{
			"spreadsheet_id": "sheet-1",
			"values":         []any{[]any{"a"}},
		}},
		Creds: anonBroker(),
	})
	require.True(t, res.IsError())
	require.Contains(t, res.Text, "Google Sheets write failed")
}

func TestScheduleExecutor(t *testing.T) {
	r := nodes.NewRegistry(nodes.Deps{})
	res := r.Execute(context.Background(), nodes.Request{
		Node: workflow.Node{ID: "s", Kind: workflow.KindSchedule, Config: map[string]any{
			"cron": "*/5 * * * *",
		}},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("Schedule set: */5 * * * *"), res)

	// A missing cron falls back to the every-minute default.
	res = r.Execute(context.Background(), nodes.Request{
		Node:  workflow.Node{ID: "s", Kind: workflow.KindSchedule},
		Creds: anonBroker(),
	})
	require.Equal(t, result.Notify("Schedule set: */1 * * * *"), res)
}
