// Package canary implements the layered wrapping of the primary key.
// Each layer belongs to an independent canary party; unwrapping requires
// every layer's key, so each canary holds unilateral veto power.
package canary

import (
	"errors"
	"fmt"
	"sort"

	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

var (
	// ErrCanaryMismatch indicates a layer failed to decrypt: a canary is
	// wrong, missing, or supplied out of a different run
	ErrCanaryMismatch = errors.New("canary mismatch: wrong or missing canary key")
)

// Wrap encrypts primaryKey through count onion layers, ascending. Each
// layer gets a fresh key pair and a unique nonce. Returns the fully
// wrapped key and the canaries, one per layer.
func Wrap(primaryKey []byte, count int) ([]byte, []deliverable.Canary, error) {
	wrapped := append([]byte(nil), primaryKey...)
	canaries := make([]deliverable.Canary, 0, count)

	for layer := 0; layer < count; layer++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate canary key: %w", err)
		}

		sealed, err := crypto.SealWithKey(key, wrapped)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to wrap layer %d: %w", layer, err)
		}

		wrapped = sealed
		canaries = append(canaries, deliverable.Canary{Key: key, Layer: uint8(layer)})
	}

	return wrapped, canaries, nil
}

// Unwrap peels the onion layers off in descending layer order. The
// canaries may be supplied in any order.
func Unwrap(wrapped []byte, canaries []deliverable.Canary) ([]byte, error) {
	ordered := append([]deliverable.Canary(nil), canaries...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Layer > ordered[j].Layer
	})

	key := append([]byte(nil), wrapped...)
	for _, c := range ordered {
		opened, err := crypto.OpenWithKey(c.Key, key)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", c.Layer, ErrCanaryMismatch)
		}
		key = opened
	}

	// If an inner canary is missing, every supplied layer still peels
	// cleanly and leaves a partially wrapped key behind. A fully peeled
	// onion is exactly one AEAD key.
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("%d layers still wrapped: %w",
			(len(key)-crypto.KeySize)/crypto.TagSize, ErrCanaryMismatch)
	}
	return key, nil
}
