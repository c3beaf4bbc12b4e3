// Package creds resolves per-user service credentials for executors.
// Resolution order is user vault, then process environment, then empty;
// resolved values are cached for the lifetime of one engine run.
package creds

import (
	"context"
	"os"
	"sync"
)

type (
	// Source supplies a user's encrypted credential map, keyed by
	// service tag ("openai", "twilio_sid", ...).
	Source interface {
		Keys(ctx context.Context, userID string) (map[string]string, error)
	}

	// Cipher decrypts vault blobs. Decrypt returns an error for blobs
	// that fail authentication; the broker treats that as absent.
	Cipher interface {
		Decrypt(blob string) (string, error)
	}

	// Broker resolves credentials for a single engine run. Safe for
	// concurrent use by executors within the run.
	Broker struct {
		userID string
		source Source
		cipher Cipher

		mu     sync.Mutex
		vault  map[string]string // encrypted, fetched once
		cache  map[string]string // resolved plaintext
		loaded bool
	}

	// Twilio bundles the three Twilio credentials.
	Twilio struct {
		SID   string
		Token string
		Phone string
	}

	// Twitter bundles the OAuth1 credential quad.
	Twitter struct {
		APIKey       string
		APISecret    string
		AccessToken  string
		AccessSecret string
	}
)

// envFallback maps service tags to the environment variables consulted
// when the user vault has no value.
var envFallback = map[string]string{
	"openai":                "OPENAI_API_KEY",
	"openrouter":            "OPENROUTER_API_KEY",
	"google":                "GOOGLE_API_KEY",
	"discord":               "SOCIAL_MEDIA_TEST_WEBHOOK",
	"github":                "GITHUB_TOKEN",
	"twilio_sid":            "TWILIO_ACCOUNT_SID",
	"twilio_token":          "TWILIO_AUTH_TOKEN",
	"twilio_phone":          "TWILIO_PHONE_NUMBER",
	"stability":             "STABILITY_API_KEY",
	"twitter_api_key":       "TWITTER_API_KEY",
	"twitter_api_secret":    "TWITTER_API_SECRET",
	"twitter_access_token":  "TWITTER_ACCESS_TOKEN",
	"twitter_access_secret": "TWITTER_ACCESS_TOKEN_SECRET",
	"linkedin":              "LINKEDIN_ACCESS_TOKEN",
	"instagram":             "INSTAGRAM_ACCESS_TOKEN",
}

// NewBroker builds a run-scoped broker. Source and cipher may be nil,
// in which case only the environment fallback applies (anonymous runs).
func NewBroker(userID string, source Source, cipher Cipher) *Broker {
	return &Broker{
		userID: userID,
		source: source,
		cipher: cipher,
		cache:  make(map[string]string),
	}
}

// Get resolves the credential for a service tag. Empty string means no
// credential is available anywhere.
func (b *Broker) Get(ctx context.Context, service string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v, ok := b.cache[service]; ok {
		return v
	}
	v := b.resolve(ctx, service)
	b.cache[service] = v
	return v
}

func (b *Broker) resolve(ctx context.Context, service string) string {
	if !b.loaded {
		b.loaded = true
		if b.source != nil && b.userID != "" {
			if vault, err := b.source.Keys(ctx, b.userID); err == nil {
				b.vault = vault
			}
		}
	}
	if blob, ok := b.vault[service]; ok && blob != "" && b.cipher != nil {
		if v, err := b.cipher.Decrypt(blob); err == nil && v != "" {
			return v
		}
	}
	if env, ok := envFallback[service]; ok {
		return os.Getenv(env)
	}
	return ""
}

// Typed accessors for the services the executors use.

func (b *Broker) OpenAI(ctx context.Context) string     { return b.Get(ctx, "openai") }
func (b *Broker) OpenRouter(ctx context.Context) string { return b.Get(ctx, "openrouter") }
func (b *Broker) Google(ctx context.Context) string     { return b.Get(ctx, "google") }
func (b *Broker) Discord(ctx context.Context) string    { return b.Get(ctx, "discord") }
func (b *Broker) Stability(ctx context.Context) string  { return b.Get(ctx, "stability") }
func (b *Broker) GitHub(ctx context.Context) string     { return b.Get(ctx, "github") }
func (b *Broker) LinkedIn(ctx context.Context) string   { return b.Get(ctx, "linkedin") }
func (b *Broker) Instagram(ctx context.Context) string  { return b.Get(ctx, "instagram") }

// Twilio resolves the Twilio credential triple.
func (b *Broker) Twilio(ctx context.Context) Twilio {
	return Twilio{
		SID:   b.Get(ctx, "twilio_sid"),
		Token: b.Get(ctx, "twilio_token"),
		Phone: b.Get(ctx, "twilio_phone"),
	}
}

// Twitter resolves the OAuth1 quad.
func (b *Broker) Twitter(ctx context.Context) Twitter {
	return Twitter{
		APIKey:       b.Get(ctx, "twitter_api_key"),
		APISecret:    b.Get(ctx, "twitter_api_secret"),
		AccessToken:  b.Get(ctx, "twitter_access_token"),
		AccessSecret: b.Get(ctx, "twitter_access_secret"),
	}
}
