package discord_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoflow/autoflow/features/discord"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

func TestPostEncodesEmbeds(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := discord.New(srv.Client())
	err := p.Post(context.Background(), srv.URL, nodes.DiscordMessage{
		Username: "AutoFlow Bot",
		Embeds: []nodes.DiscordEmbed{{
			Title:       "Report Generated",
			Description: "report_1.pdf",
			Color:       3066993,
			Footer:      &nodes.DiscordEmbedFooter{Text: "Sent via AutoFlow"},
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "AutoFlow Bot", got["username"])
	embeds := got["embeds"].([]any)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	require.Equal(t, "Report Generated", embed["title"])
	require.Equal(t, float64(3066993), embed["color"])
	require.Equal(t, map[string]any{"text": "Sent via AutoFlow"}, embed["footer"])
	// Empty content is omitted from the payload.
	require.NotContains(t, got, "content")
}

func TestPostStatusHandling(t *testing.T) {
	status := http.StatusNotFound
	body := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	p := discord.New(srv.Client())
	err := p.Post(context.Background(), srv.URL, nodes.DiscordMessage{Content: "x"})
	require.ErrorContains(t, err, "webhook not found (404)")

	status, body = http.StatusBadRequest, `{"embeds":["0"]}`
	err = p.Post(context.Background(), srv.URL, nodes.DiscordMessage{Content: "x"})
	require.ErrorContains(t, err, "payload rejected (400)")

	status, body = http.StatusInternalServerError, ""
	err = p.Post(context.Background(), srv.URL, nodes.DiscordMessage{Content: "x"})
	require.ErrorContains(t, err, "unexpected status 500")
}
