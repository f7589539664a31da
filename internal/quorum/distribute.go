// Package quorum implements the threshold scheme at the core of ddwill:
// any quorum of trustees can jointly rebuild the wrapped primary key and
// the full ciphertext, while any smaller group recovers nothing.
package quorum

import (
	"errors"
	"fmt"
	"sync"

	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/internal/split"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

const (
	// MaxTrustees keeps trustee ordinals within the u8 range
	MaxTrustees = 254
	// MaxFragmentsPerShard bounds C(T-1, Q-1) per shard
	MaxFragmentsPerShard = 1 << 17
)

var (
	// ErrInvalidParams indicates an unusable trustee/quorum configuration
	ErrInvalidParams = errors.New("invalid quorum parameters")
)

// ProgressFunc is invoked once per completed trustee during Distribute.
type ProgressFunc func(trustee int)

// emptyComboKey is the identity of the XOR key algebra, sized for the AEAD.
func emptyComboKey() deliverable.Key {
	return deliverable.Key{
		Secret: make([]byte, crypto.KeySize),
		Nonce:  make([]byte, crypto.NonceSize),
	}
}

// Distribute allocates one shard per trustee. Each shard carries a fresh
// trustee key, the shared primary nonce, and one fragment per (Q-1)-subset
// of the other trustees, enumerated in ascending order. A fragment holds
// the ciphertext and wrapped key with the part at the outer trustee's rank
// elided, the key portion sealed under the subset's XOR-combined key.
//
// Shard construction is independent per trustee, so the per-trustee work
// runs concurrently; fragment order within a shard stays deterministic.
func Distribute(ciphertext, wrappedKey, priNonce []byte, trustees, quorum int, progress ProgressFunc) ([]deliverable.Shard, error) {
	if trustees < 1 || trustees > MaxTrustees {
		return nil, fmt.Errorf("%w: trustee count must be in [1, %d]", ErrInvalidParams, MaxTrustees)
	}
	if quorum < 1 || quorum > trustees {
		return nil, fmt.Errorf("%w: quorum must be in [1, trustees]", ErrInvalidParams)
	}
	if binomial(trustees-1, quorum-1, MaxFragmentsPerShard) > MaxFragmentsPerShard {
		return nil, fmt.Errorf("%w: configuration needs more than %d fragments per shard",
			ErrInvalidParams, MaxFragmentsPerShard)
	}

	keys := make([]deliverable.Key, trustees)
	for t := range keys {
		k, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate trustee key: %w", err)
		}
		keys[t] = k
	}

	shards := make([]deliverable.Shard, trustees)
	errs := make([]error, trustees)

	var wg sync.WaitGroup
	for t := 0; t < trustees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()

			fragments, err := buildFragments(ciphertext, wrappedKey, keys, t, quorum)
			if err != nil {
				errs[t] = fmt.Errorf("trustee %d: %w", t, err)
				return
			}

			shards[t] = deliverable.Shard{
				Owner:     uint8(t),
				Key:       keys[t],
				PriNonce:  append([]byte(nil), priNonce...),
				Fragments: fragments,
			}
			if progress != nil {
				progress(t)
			}
		}(t)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return shards, nil
}

// buildFragments constructs the fragment list for one outer trustee.
func buildFragments(ciphertext, wrappedKey []byte, keys []deliverable.Key, t, quorum int) ([]deliverable.Fragment, error) {
	// A quorum of one means the trustee recovers alone: the fragment
	// carries the full ciphertext, and the wrapped key sealed under the
	// empty combination.
	if quorum == 1 {
		sealed, err := crypto.SealWithKey(emptyComboKey(), wrappedKey)
		if err != nil {
			return nil, err
		}
		return []deliverable.Fragment{{
			Ciphertext: append([]byte(nil), ciphertext...),
			Key:        sealed,
			Owners:     []uint8{},
		}}, nil
	}

	others := make([]uint8, 0, len(keys)-1)
	for i := range keys {
		if i != t {
			others = append(others, uint8(i))
		}
	}

	fragments := make([]deliverable.Fragment, 0, binomial(len(others), quorum-1, MaxFragmentsPerShard))
	var buildErr error

	combinations(others, quorum-1, func(combo []uint8) {
		if buildErr != nil {
			return
		}

		group := make([]deliverable.Key, len(combo))
		for i, owner := range combo {
			group[i] = keys[owner]
		}
		comboKey := deliverable.Combine(group)

		// The part at the outer trustee's rank belongs conceptually to the
		// outer trustee; the fragment carries everything else.
		rank := insertRank(combo, uint8(t))

		ctSlice, err := split.Elide(ciphertext, quorum, rank)
		if err != nil {
			buildErr = err
			return
		}
		wkSlice, err := split.Elide(wrappedKey, quorum, rank)
		if err != nil {
			buildErr = err
			return
		}
		sealedKey, err := crypto.SealWithKey(comboKey, wkSlice)
		if err != nil {
			buildErr = err
			return
		}

		fragments = append(fragments, deliverable.Fragment{
			Ciphertext: ctSlice,
			Key:        sealedKey,
			Owners:     append([]uint8(nil), combo...),
		})
	})

	if buildErr != nil {
		return nil, buildErr
	}
	return fragments, nil
}
