// Package crypto provides the AEAD primitives for ddwill.
package crypto

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/axonibyte/ddwill/pkg/deliverable"
)

const (
	// KeySize is the ChaCha20-Poly1305 key size
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the ChaCha20-Poly1305 nonce size
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the Poly1305 authentication tag size
	TagSize = chacha20poly1305.Overhead
)

var (
	// ErrInvalidKeySize indicates the key is not 32 bytes
	ErrInvalidKeySize = errors.New("invalid key size: must be 32 bytes")
	// ErrInvalidNonceSize indicates the nonce is not 12 bytes
	ErrInvalidNonceSize = errors.New("invalid nonce size: must be 12 bytes")
	// ErrDecryptionFailed indicates decryption or authentication failed
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
)

// Cipher provides ChaCha20-Poly1305 encryption and decryption under
// caller-supplied nonces.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext under the given nonce.
func (c *Cipher) Seal(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	return c.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts ciphertext under the given nonce.
func (c *Cipher) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonceSize
	}
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// SealWithKey encrypts plaintext under a key pair's secret and nonce.
func SealWithKey(k deliverable.Key, plaintext []byte) ([]byte, error) {
	c, err := NewCipher(k.Secret)
	if err != nil {
		return nil, err
	}
	return c.Seal(k.Nonce, plaintext)
}

// OpenWithKey decrypts ciphertext under a key pair's secret and nonce.
func OpenWithKey(k deliverable.Key, ciphertext []byte) ([]byte, error) {
	c, err := NewCipher(k.Secret)
	if err != nil {
		return nil, err
	}
	return c.Open(k.Nonce, ciphertext)
}
