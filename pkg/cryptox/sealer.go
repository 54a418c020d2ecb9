package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrSealedTooShort = errors.New("sealed payload too short")

// Sealer encrypts small records at rest with XChaCha20-Poly1305.
// Output layout: [24-byte nonce][ciphertext+tag].
type Sealer struct {
	key []byte
}

// NewSealer derives a 256-bit key from secret with HKDF-SHA256. info binds
// the key to one purpose so the same secret can safely seal different
// record kinds. An empty secret yields a random key which does not survive a
// restart.
func NewSealer(secret []byte, info string) (*Sealer, error) {
	if len(secret) == 0 {
		secret = make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral secret: %w", err)
		}
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext. additionalData is authenticated but not encrypted;
// callers pass the record key so a sealed blob cannot be moved between records.
func (s *Sealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealedTooShort
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}
