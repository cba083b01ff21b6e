// AngelaMos | 2026
// sealer.go

package integration

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrSealed = errors.New("sealed credentials cannot be opened")

// Sealer encrypts credential blobs with XChaCha20-Poly1305. The tenant and
// provider are bound as associated data so a blob cannot be moved between
// rows.
type Sealer struct {
	key []byte
}

// NewSealer takes a base64 encoded 32-byte key.
func NewSealer(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode integration key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("integration key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Sealer{key: key}, nil
}

// GenerateKey returns a fresh base64 key for NewSealer.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate integration key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (s *Sealer) Seal(plaintext []byte, tenantID, provider string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, associatedData(tenantID, provider)), nil
}

func (s *Sealer) Open(sealed []byte, tenantID, provider string) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealed
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, associatedData(tenantID, provider))
	if err != nil {
		return nil, ErrSealed
	}
	return plaintext, nil
}

func associatedData(tenantID, provider string) []byte {
	return []byte(tenantID + "/" + provider)
}
