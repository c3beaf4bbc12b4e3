package creds

import (
	"encoding/base64"
	"errors"

	"github.com/fernet/fernet-go"
)

// FernetCipher decrypts vault blobs produced with a Fernet key derived
// from the API_KEY_ENCRYPTION_KEY environment value: the raw secret is
// right-padded with '0' characters (or truncated) to 32 bytes and
// url-safe base64 encoded. Stored blobs carry the fernet token wrapped
// in one extra url-safe base64 layer.
type FernetCipher struct {
	key *fernet.Key
}

// ErrBadBlob is returned for blobs that fail Fernet authentication.
var ErrBadBlob = errors.New("credential blob failed authentication")

// NewFernetCipher derives the Fernet key from secret.
func NewFernetCipher(secret string) (*FernetCipher, error) {
	raw := []byte(secret)
	if len(raw) > 32 {
		raw = raw[:32]
	}
	for len(raw) < 32 {
		raw = append(raw, '0')
	}
	key, err := fernet.DecodeKey(base64.URLEncoding.EncodeToString(raw))
	if err != nil {
		return nil, err
	}
	return &FernetCipher{key: key}, nil
}

// Decrypt implements Cipher. The outer base64 layer is removed before
// verification; a blob that is a bare fernet token still decrypts.
// Tokens never expire; rotation happens by re-encrypting the vault,
// not by TTL.
func (c *FernetCipher) Decrypt(blob string) (string, error) {
	if decoded, err := base64.URLEncoding.DecodeString(blob); err == nil {
		if msg := fernet.VerifyAndDecrypt(decoded, 0, []*fernet.Key{c.key}); msg != nil {
			return string(msg), nil
		}
	}
	if msg := fernet.VerifyAndDecrypt([]byte(blob), 0, []*fernet.Key{c.key}); msg != nil {
		return string(msg), nil
	}
	return "", ErrBadBlob
}

// Encrypt seals a plaintext credential in the stored blob form: a
// fernet token wrapped in one extra url-safe base64 layer.
func (c *FernetCipher) Encrypt(plain string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plain), c.key)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(tok), nil
}
