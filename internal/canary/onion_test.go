package canary

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

func randomPrimary(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, crypto.KeySize)
	rand.Read(key)
	return key
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	for _, count := range []int{0, 1, 2, 5, 8} {
		primary := randomPrimary(t)

		wrapped, canaries, err := Wrap(primary, count)
		if err != nil {
			t.Fatalf("Wrap(%d layers) failed: %v", count, err)
		}

		if len(canaries) != count {
			t.Fatalf("Wrap produced %d canaries, want %d", len(canaries), count)
		}
		// Each layer adds one AEAD tag.
		if len(wrapped) != len(primary)+count*crypto.TagSize {
			t.Errorf("wrapped len = %d, want %d", len(wrapped), len(primary)+count*crypto.TagSize)
		}

		got, err := Unwrap(wrapped, canaries)
		if err != nil {
			t.Fatalf("Unwrap(%d layers) failed: %v", count, err)
		}
		if !bytes.Equal(got, primary) {
			t.Errorf("Unwrap(%d layers) did not recover the primary key", count)
		}
	}
}

func TestWrapZeroLayersIsIdentity(t *testing.T) {
	primary := randomPrimary(t)

	wrapped, canaries, err := Wrap(primary, 0)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if len(canaries) != 0 {
		t.Errorf("canaries = %d, want 0", len(canaries))
	}
	if !bytes.Equal(wrapped, primary) {
		t.Error("zero layers should leave the key unchanged")
	}
}

func TestWrapAssignsAscendingLayers(t *testing.T) {
	_, canaries, err := Wrap(randomPrimary(t), 4)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	for i, c := range canaries {
		if c.Layer != uint8(i) {
			t.Errorf("canary %d has layer %d", i, c.Layer)
		}
	}
}

func TestUnwrapShuffledOrder(t *testing.T) {
	primary := randomPrimary(t)
	wrapped, canaries, err := Wrap(primary, 4)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	// Unwrap sorts by layer, so presentation order must not matter.
	shuffled := []deliverable.Canary{canaries[2], canaries[0], canaries[3], canaries[1]}

	got, err := Unwrap(wrapped, shuffled)
	if err != nil {
		t.Fatalf("Unwrap with shuffled canaries failed: %v", err)
	}
	if !bytes.Equal(got, primary) {
		t.Error("shuffled unwrap did not recover the primary key")
	}
}

func TestUnwrapMissingCanary(t *testing.T) {
	for drop := 0; drop < 3; drop++ {
		primary := randomPrimary(t)
		wrapped, canaries, err := Wrap(primary, 3)
		if err != nil {
			t.Fatalf("Wrap failed: %v", err)
		}

		partial := make([]deliverable.Canary, 0, 2)
		for i, c := range canaries {
			if i != drop {
				partial = append(partial, c)
			}
		}

		if _, err := Unwrap(wrapped, partial); !errors.Is(err, ErrCanaryMismatch) {
			t.Errorf("Unwrap missing layer %d error = %v, want ErrCanaryMismatch", drop, err)
		}
	}
}

func TestUnwrapWrongCanary(t *testing.T) {
	primary := randomPrimary(t)
	wrapped, canaries, err := Wrap(primary, 2)
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	intruder, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	canaries[1].Key = intruder

	if _, err := Unwrap(wrapped, canaries); !errors.Is(err, ErrCanaryMismatch) {
		t.Errorf("Unwrap with wrong canary error = %v, want ErrCanaryMismatch", err)
	}
}

func TestWrapDoesNotMutateInput(t *testing.T) {
	primary := randomPrimary(t)
	original := append([]byte(nil), primary...)

	if _, _, err := Wrap(primary, 3); err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}
	if !bytes.Equal(primary, original) {
		t.Error("Wrap mutated the primary key buffer")
	}
}
