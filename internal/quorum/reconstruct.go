package quorum

import (
	"errors"
	"fmt"
	"sort"

	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/internal/split"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

var (
	// ErrQuorumUnavailable indicates the provided shards cannot cover any
	// fragment's owner combination
	ErrQuorumUnavailable = errors.New("quorum unavailable: not enough shards to satisfy any combination")
	// ErrQuorumDecryptFailure indicates a fragment key failed to decrypt
	ErrQuorumDecryptFailure = errors.New("quorum decrypt failure: fragment key could not be opened")
)

// Reconstruct rebuilds the wrapped primary key, the full ciphertext, and
// the primary nonce from any satisfying subset of the provided shards.
// Callers may supply more shards than the quorum requires; duplicates by
// owner are ignored.
func Reconstruct(shards []deliverable.Shard) (wrappedKey, ciphertext, priNonce []byte, err error) {
	members := dedupeByOwner(shards)
	if len(members) == 0 {
		return nil, nil, nil, ErrQuorumUnavailable
	}

	present := make(map[uint8]bool, len(members))
	for _, s := range members {
		present[s.Owner] = true
	}

	// Scan the lowest-owner shard for a fragment whose owners are all
	// present. That fragment fixes the quorum we reconstruct with.
	first := members[0]
	var chosen *deliverable.Fragment
	for i := range first.Fragments {
		if coveredBy(first.Fragments[i].Owners, present) {
			chosen = &first.Fragments[i]
			break
		}
	}
	if chosen == nil {
		return nil, nil, nil, ErrQuorumUnavailable
	}

	// first.Owner is the lowest owner present and every chosen owner is
	// present, so prepending keeps the list sorted.
	quorumOwners := append([]uint8{first.Owner}, chosen.Owners...)
	q := len(quorumOwners)

	group := make([]deliverable.Shard, 0, q)
	for _, s := range members {
		if containsOwner(quorumOwners, s.Owner) {
			group = append(group, s)
		}
	}
	if len(group) != q {
		return nil, nil, nil, ErrQuorumUnavailable
	}

	priNonce = append([]byte(nil), group[0].PriNonce...)

	if q == 1 {
		wrapped, err := crypto.OpenWithKey(emptyComboKey(), chosen.Key)
		if err != nil {
			return nil, nil, nil, ErrQuorumDecryptFailure
		}
		return wrapped, append([]byte(nil), chosen.Ciphertext...), priNonce, nil
	}

	// Each group member holds exactly one fragment addressed to the rest
	// of this quorum. Two of them suffice: the lowest owner's fragment
	// lacks the conceptual first part, the second-lowest owner's fragment
	// supplies it.
	f0, ok := fragmentFor(group[0], quorumOwners)
	if !ok {
		return nil, nil, nil, ErrQuorumUnavailable
	}
	f1, ok := fragmentFor(group[1], quorumOwners)
	if !ok {
		return nil, nil, nil, ErrQuorumUnavailable
	}

	wk0, err := crypto.OpenWithKey(combineExcept(group, 0), f0.Key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fragment of trustee %d: %w", group[0].Owner, ErrQuorumDecryptFailure)
	}
	wk1, err := crypto.OpenWithKey(combineExcept(group, 1), f1.Key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fragment of trustee %d: %w", group[1].Owner, ErrQuorumDecryptFailure)
	}

	wrappedKey, err = reassembleElided(wk0, wk1, q-1)
	if err != nil {
		return nil, nil, nil, err
	}
	ciphertext, err = reassembleElided(f0.Ciphertext, f1.Ciphertext, q-1)
	if err != nil {
		return nil, nil, nil, err
	}

	return wrappedKey, ciphertext, priNonce, nil
}

// reassembleElided rebuilds a buffer from two elided views of it:
// without0 lacks the conceptual first part, without1 lacks the second.
// The split rule makes the first parts the longest, so the first part of
// without1 is exactly the part without0 is missing. Taking any other
// part, or reassembling from a single view, misaligns whenever the
// buffer length is not a multiple of the quorum size.
func reassembleElided(without0, without1 []byte, partCount int) ([]byte, error) {
	parts, err := split.Split(without1, partCount)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(parts[0])+len(without0))
	out = append(out, parts[0]...)
	return append(out, without0...), nil
}

// dedupeByOwner drops repeated owners (first occurrence wins) and sorts
// the remainder by owner ascending.
func dedupeByOwner(shards []deliverable.Shard) []deliverable.Shard {
	seen := make(map[uint8]bool, len(shards))
	unique := make([]deliverable.Shard, 0, len(shards))
	for _, s := range shards {
		if !seen[s.Owner] {
			seen[s.Owner] = true
			unique = append(unique, s)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Owner < unique[j].Owner })
	return unique
}

func coveredBy(owners []uint8, present map[uint8]bool) bool {
	for _, o := range owners {
		if !present[o] {
			return false
		}
	}
	return true
}

func containsOwner(owners []uint8, owner uint8) bool {
	for _, o := range owners {
		if o == owner {
			return true
		}
	}
	return false
}

// fragmentFor selects the shard's fragment addressed to the rest of the
// quorum, i.e. whose owners equal quorumOwners minus the shard's owner.
func fragmentFor(s deliverable.Shard, quorumOwners []uint8) (deliverable.Fragment, bool) {
	expected := make([]uint8, 0, len(quorumOwners)-1)
	for _, o := range quorumOwners {
		if o != s.Owner {
			expected = append(expected, o)
		}
	}

	for _, f := range s.Fragments {
		if ownersEqual(f.Owners, expected) {
			return f, true
		}
	}
	return deliverable.Fragment{}, false
}

func ownersEqual(a, b []uint8) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// combineExcept derives the combination key the encryption side used for
// group[skip] as the outer trustee: the XOR of every other member's key.
func combineExcept(group []deliverable.Shard, skip int) deliverable.Key {
	keys := make([]deliverable.Key, 0, len(group)-1)
	for i, s := range group {
		if i != skip {
			keys = append(keys, s.Key)
		}
	}
	return deliverable.Combine(keys)
}
