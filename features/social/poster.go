// Package social publishes workflow content to social platforms:
// Twitter through its v2 API with OAuth1 signing, custom webhooks with
// a JSON payload, and LinkedIn through the ugcPosts API. Instagram
// requires the Business API and is reported as unconfigured.
package social

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/autoflow/autoflow/runtime/workflow/nodes"
)

// Poster implements nodes.SocialPoster.
type Poster struct {
	client      *http.Client
	tweetURL    string
	userinfoURL string
	ugcPostURL  string
}

// Options configures New. The URL overrides exist for tests.
type Options struct {
	HTTP        *http.Client
	TweetURL    string
	UserinfoURL string
	UGCPostURL  string
}

const (
	defaultTweetURL    = "https://api.twitter.com/2/tweets"
	defaultUserinfoURL = "https://api.linkedin.com/v2/userinfo"
	defaultUGCPostURL  = "https://api.linkedin.com/v2/ugcPosts"
)

// New builds a poster.
func New(opts Options) *Poster {
	p := &Poster{
		client:      opts.HTTP,
		tweetURL:    opts.TweetURL,
		userinfoURL: opts.UserinfoURL,
		ugcPostURL:  opts.UGCPostURL,
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 30 * time.Second}
	}
	if p.tweetURL == "" {
		p.tweetURL = defaultTweetURL
	}
	if p.userinfoURL == "" {
		p.userinfoURL = defaultUserinfoURL
	}
	if p.ugcPostURL == "" {
		p.ugcPostURL = defaultUGCPostURL
	}
	return p
}

// Post implements nodes.SocialPoster. The returned string is appended
// to the executor's confirmation message.
func (p *Poster) Post(ctx context.Context, post nodes.SocialPost) (string, error) {
	switch post.Platform {
	case "twitter":
		return p.postTweet(ctx, post)
	case "linkedin":
		return p.postLinkedIn(ctx, post)
	case "instagram":
		return "", errors.New("Instagram posting requires Instagram Business API setup")
	case "webhook":
		return p.postWebhook(ctx, post)
	default:
		return "", fmt.Errorf("platform %q not supported", post.Platform)
	}
}

func (p *Poster) postTweet(ctx context.Context, post nodes.SocialPost) (string, error) {
	config := oauth1.NewConfig(post.Twitter.APIKey, post.Twitter.APISecret)
	token := oauth1.NewToken(post.Twitter.AccessToken, post.Twitter.AccessSecret)
	client := config.Client(ctx, token)

	payload, _ := json.Marshal(map[string]string{"text": post.Content})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tweetURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tweet request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", errors.New("Twitter API rate limit exceeded")
	}
	if resp.StatusCode == http.StatusForbidden {
		return "", errors.New("Twitter API access forbidden")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("Twitter API returned status %d", resp.StatusCode)
	}

	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Data.ID == "" {
		return "", nil
	}
	return fmt.Sprintf("(ID: %s) - https://twitter.com/user/status/%s", body.Data.ID, body.Data.ID), nil
}

func (p *Poster) postLinkedIn(ctx context.Context, post nodes.SocialPost) (string, error) {
	sub, err := p.linkedInSubject(ctx, post.LinkedIn)
	if err != nil {
		return "", err
	}
	payload, _ := json.Marshal(map[string]any{
		"author":         "urn:li:person:" + sub,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": post.Content},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.ugcPostURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+post.LinkedIn)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("LinkedIn API returned status %d", resp.StatusCode)
	}
	return "", nil
}

// linkedInSubject resolves the member id the post is authored as.
func (p *Poster) linkedInSubject(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userinfoURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LinkedIn userinfo returned status %d", resp.StatusCode)
	}
	var body struct {
		Sub string `json:"sub"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Sub == "" {
		return "", errors.New("LinkedIn userinfo response missing subject")
	}
	return body.Sub, nil
}

// postWebhook delivers the content to a relay webhook (Zapier, IFTTT)
// with the image inlined as base64 when present.
func (p *Poster) postWebhook(ctx context.Context, post nodes.SocialPost) (string, error) {
	payload := map[string]any{
		"platform":  post.Platform,
		"content":   post.Content,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"source":    "AutoFlow",
	}
	if post.ImagePath != "" {
		if raw, err := os.ReadFile(post.ImagePath); err == nil {
			payload["image"] = map[string]string{
				"data":      base64.StdEncoding.EncodeToString(raw),
				"filename":  filepath.Base(post.ImagePath),
				"mime_type": "image/png",
			}
		}
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, post.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
	if s := strings.TrimSpace(string(snippet)); s != "" {
		return s, nil
	}
	return "", nil
}
