package creds_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/require"

	"github.com/autoflow/autoflow/runtime/workflow/creds"
)

type fakeSource struct {
	keys  map[string]string
	err   error
	calls int
}

func (s *fakeSource) Keys(_ context.Context, _ string) (map[string]string, error) {
	s.calls++
	return s.keys, s.err
}

// reverseCipher "decrypts" by reversing, so vault hits are visible in
// the resolved value.
type reverseCipher struct{}

func (reverseCipher) Decrypt(blob string) (string, error) {
	if blob == "bad" {
		return "", errors.New("authentication failed")
	}
	r := []rune(blob)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r), nil
}

func TestBrokerPrefersVaultOverEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	src := &fakeSource{keys: map[string]string{"openai": "tlua-vk"}}
	b := creds.NewBroker("u1", src, reverseCipher{})
	require.Equal(t, "kv-ault", b.OpenAI(context.Background()))
}

func TestBrokerFallsBackToEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-router")
	src := &fakeSource{keys: map[string]string{}}
	b := creds.NewBroker("u1", src, reverseCipher{})
	require.Equal(t, "env-router", b.OpenRouter(context.Background()))
}

func TestBrokerUndecryptableBlobFallsThrough(t *testing.T) {
	t.Setenv("STABILITY_API_KEY", "env-stability")
	src := &fakeSource{keys: map[string]string{"stability": "bad"}}
	b := creds.NewBroker("u1", src, reverseCipher{})
	require.Equal(t, "env-stability", b.Stability(context.Background()))
}

func TestBrokerUnknownServiceIsEmpty(t *testing.T) {
	b := creds.NewBroker("u1", nil, nil)
	require.Empty(t, b.Get(context.Background(), "never_heard_of_it"))
}

func TestBrokerLoadsVaultOnce(t *testing.T) {
	src := &fakeSource{keys: map[string]string{"openai": "eno"}}
	b := creds.NewBroker("u1", src, reverseCipher{})
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		b.OpenAI(ctx)
		b.Discord(ctx)
		b.GitHub(ctx)
	}
	require.Equal(t, 1, src.calls)
}

func TestBrokerAnonymousRunSkipsSource(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "env-gh")
	src := &fakeSource{keys: map[string]string{"github": "hguolav"}}
	b := creds.NewBroker("", src, reverseCipher{})
	require.Equal(t, "env-gh", b.GitHub(context.Background()))
	require.Zero(t, src.calls)
}

func TestBrokerSourceErrorFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "env-google")
	src := &fakeSource{err: errors.New("connection refused")}
	b := creds.NewBroker("u1", src, reverseCipher{})
	require.Equal(t, "env-google", b.Google(context.Background()))
}

func TestBrokerTwilioTriple(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+15550100")
	b := creds.NewBroker("", nil, nil)
	tw := b.Twilio(context.Background())
	require.Equal(t, creds.Twilio{SID: "AC123", Token: "tok", Phone: "+15550100"}, tw)
}

func TestBrokerTwitterQuad(t *testing.T) {
	t.Setenv("TWITTER_API_KEY", "k")
	t.Setenv("TWITTER_API_SECRET", "s")
	t.Setenv("TWITTER_ACCESS_TOKEN", "at")
	t.Setenv("TWITTER_ACCESS_TOKEN_SECRET", "as")
	b := creds.NewBroker("", nil, nil)
	tw := b.Twitter(context.Background())
	require.Equal(t, creds.Twitter{APIKey: "k", APISecret: "s", AccessToken: "at", AccessSecret: "as"}, tw)
}

func TestFernetCipherRoundTrip(t *testing.T) {
	c, err := creds.NewFernetCipher("unit-test-secret")
	require.NoError(t, err)

	blob, err := c.Encrypt("sk-plaintext")
	require.NoError(t, err)
	require.NotEqual(t, "sk-plaintext", blob)

	plain, err := c.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, "sk-plaintext", plain)
}

func TestFernetCipherRejectsGarbage(t *testing.T) {
	c, err := creds.NewFernetCipher("unit-test-secret")
	require.NoError(t, err)
	_, err = c.Decrypt("not a fernet token")
	require.ErrorIs(t, err, creds.ErrBadBlob)
}

// TestFernetCipherReadsVaultBlobs seals a value with the vault's own
// key derivation ('0'-padded secret, token wrapped in an extra url-safe
// base64 layer) and checks the cipher can open it.
func TestFernetCipherReadsVaultBlobs(t *testing.T) {
	secret := "short-secret"
	padded := []byte(secret)
	for len(padded) < 32 {
		padded = append(padded, '0')
	}
	key, err := fernet.DecodeKey(base64.URLEncoding.EncodeToString(padded))
	require.NoError(t, err)
	tok, err := fernet.EncryptAndSign([]byte("sk-from-vault"), key)
	require.NoError(t, err)
	blob := base64.URLEncoding.EncodeToString(tok)

	c, err := creds.NewFernetCipher(secret)
	require.NoError(t, err)
	plain, err := c.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, "sk-from-vault", plain)

	// A bare token without the outer layer still decrypts.
	plain, err = c.Decrypt(string(tok))
	require.NoError(t, err)
	require.Equal(t, "sk-from-vault", plain)
}

func TestFernetCipherKeysDifferPerSecret(t *testing.T) {
	a, err := creds.NewFernetCipher("secret-a")
	require.NoError(t, err)
	b, err := creds.NewFernetCipher("secret-b")
	require.NoError(t, err)

	blob, err := a.Encrypt("value")
	require.NoError(t, err)
	_, err = b.Decrypt(blob)
	require.ErrorIs(t, err, creds.ErrBadBlob)
}
