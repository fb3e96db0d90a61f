// Package fieldcrypt provides a reversible AES-256-GCM codec for single
// text fields, applied at the persistence boundary. Values are stored as
// base64(nonce ‖ tag ‖ ciphertext) so rows written by earlier versions
// of the system remain readable.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

var ErrKeyMissing = errors.New("fieldcrypt: encryption key is not configured")
var ErrKeySize = errors.New("fieldcrypt: encryption key must decode to 32 bytes")
var ErrCiphertext = errors.New("fieldcrypt: malformed ciphertext")

// Codec encrypts and decrypts field values under a fixed 256-bit key.
type Codec struct {
	aead cipher.AEAD
}

// New builds a Codec from a base64-encoded 256-bit key. It fails fast
// when the key is absent or does not decode to exactly 32 bytes.
func New(base64Key string) (*Codec, error) {
	if base64Key == "" {
		return nil, ErrKeyMissing
	}
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeySize, err)
	}
	if len(key) != keySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random nonce. A new nonce is
// drawn for every call; reusing one under the same key would break the
// confidentiality of GCM. Empty input passes through unchanged.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("fieldcrypt: nonce: %w", err)
	}

	// Seal returns ciphertext ‖ tag; the stored layout is nonce ‖ tag ‖
	// ciphertext, so the tag is moved in front.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+tagSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a stored value and verifies its authentication tag.
// Tampered or truncated input fails without returning partial
// plaintext. Empty input passes through unchanged.
func (c *Codec) Decrypt(stored string) (string, error) {
	if stored == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCiphertext, err)
	}
	if len(data) < nonceSize+tagSize {
		return "", ErrCiphertext
	}

	nonce := data[:nonceSize]
	tag := data[nonceSize : nonceSize+tagSize]
	ct := data[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("fieldcrypt: integrity check failed: %w", err)
	}
	return string(plain), nil
}
