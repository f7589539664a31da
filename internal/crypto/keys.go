package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/axonibyte/ddwill/pkg/deliverable"
)

// GenerateKey produces a fresh random key pair sized for the AEAD.
func GenerateKey() (deliverable.Key, error) {
	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return deliverable.Key{}, fmt.Errorf("failed to generate key: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return deliverable.Key{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return deliverable.Key{Secret: secret, Nonce: nonce}, nil
}
