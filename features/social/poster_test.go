package social_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/autoflow/autoflow/features/social"
	"github.com/autoflow/autoflow/runtime/workflow/creds"
	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

func TestPostTweet(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotBody = body["text"]
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "42"}})
	}))
	defer srv.Close()

	p := social.New(social.Options{HTTP: srv.Client(), TweetURL: srv.URL})
	detail, err := p.Post(context.Background(), nodes.SocialPost{
		Platform: "twitter",
		Content:  "release day",
		Twitter:  creds.Twitter{APIKey: "k", APISecret: "s", AccessToken: "at", AccessSecret: "as"},
	})
	require.NoError(t, err)
	require.Equal(t, "(ID: 42) - https://twitter.com/user/status/42", detail)
	require.Equal(t, "release day", gotBody)
	require.True(t, strings.HasPrefix(gotAuth, "OAuth "))
	require.Contains(t, gotAuth, `oauth_consumer_key="k"`)
}

func TestPostTweetErrorStatuses(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	p := social.New(social.Options{HTTP: srv.Client(), TweetURL: srv.URL})
	post := nodes.SocialPost{Platform: "twitter", Content: "x"}

	_, err := p.Post(context.Background(), post)
	require.ErrorContains(t, err, "rate limit")

	status = http.StatusForbidden
	_, err = p.Post(context.Background(), post)
	require.ErrorContains(t, err, "forbidden")

	status = http.StatusBadRequest
	_, err = p.Post(context.Background(), post)
	require.ErrorContains(t, err, "status 400")
}

func TestPostLinkedIn(t *testing.T) {
	var gotPost map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer li-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"sub": "member-9"})
	})
	mux.HandleFunc("/ugcPosts", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPost))
		w.WriteHeader(http.StatusCreated)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := social.New(social.Options{
		HTTP:        srv.Client(),
		UserinfoURL: srv.URL + "/userinfo",
		UGCPostURL:  srv.URL + "/ugcPosts",
	})
	detail, err := p.Post(context.Background(), nodes.SocialPost{
		Platform: "linkedin",
		Content:  "hello network",
		LinkedIn: "li-token",
	})
	require.NoError(t, err)
	require.Empty(t, detail)
	require.Equal(t, "urn:li:person:member-9", gotPost["author"])
}

func TestPostInstagramUnsupported(t *testing.T) {
	p := social.New(social.Options{})
	_, err := p.Post(context.Background(), nodes.SocialPost{Platform: "instagram", Content: "x"})
	require.ErrorContains(t, err, "Instagram Business API")
}

func TestPostWebhookInlinesImage(t *testing.T) {
	imgPath := filepath.Join(t.TempDir(), "dalle_1.png")
	require.NoError(t, os.WriteFile(imgPath, []byte("png-bytes"), 0o644))

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	p := social.New(social.Options{HTTP: srv.Client()})
	detail, err := p.Post(context.Background(), nodes.SocialPost{
		Platform:   "webhook",
		Content:    "cross-post",
		ImagePath:  imgPath,
		WebhookURL: srv.URL,
	})
	require.NoError(t, err)
	require.Equal(t, "accepted", detail)
	require.Equal(t, "cross-post", got["content"])
	require.Equal(t, "AutoFlow", got["source"])

	img, ok := got["image"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "dalle_1.png", img["filename"])
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("png-bytes")), img["data"])
}
