// Package deliverable defines the data model for everything ddwill hands
// to an external party, along with the binary codec that persists it.
package deliverable

// CurrentVersion is the tool version stamped into every payload. Files
// whose recorded version disagrees are skipped on import.
const CurrentVersion = "1.0.0"

// Canary is one onion layer around the primary key. Every canary must be
// presented at decryption time; each holder has unilateral veto power.
type Canary struct {
	// Key is the canary's AEAD key and nonce.
	Key Key
	// Layer is the order in which this canary encrypted the primary key.
	Layer uint8
}

// Fragment ties a piece of the ciphertext and a piece of the wrapped
// primary key to one specific quorum combination.
type Fragment struct {
	// Ciphertext is the ciphertext with the holder's conceptual part elided.
	Ciphertext []byte
	// Key is the wrapped-key slice, sealed under the owners' combined key.
	Key []byte
	// Owners lists, in ascending order, the trustees whose keys decrypt Key.
	// The holding shard's owner never appears here.
	Owners []uint8
}

// Shard is the container delivered to a single trustee.
type Shard struct {
	// Owner is this trustee's ordinal.
	Owner uint8
	// Key is this trustee's key, referenced by fragments in other shards.
	Key Key
	// PriNonce is the nonce the primary key encrypts the plaintext under.
	// Identical across all shards of a run.
	PriNonce []byte
	// Fragments holds one entry per quorum combination this trustee can
	// complete, in a stable order.
	Fragments []Fragment
}

// Meta describes the run that produced a deliverable.
type Meta struct {
	// Ver is the version of the software that generated the deliverable.
	Ver string
	// Desc is plaintext guidance for the receiving party.
	Desc string
}

// NewMeta stamps the current version onto a description.
func NewMeta(desc string) Meta {
	return Meta{Ver: CurrentVersion, Desc: desc}
}

// Compatible reports whether a deliverable produced under this Meta may
// be consumed by the given tool version.
func (m Meta) Compatible(version string) bool {
	return m.Ver == version
}

// Deliverable is the tagged union of everything exportable to a party:
// exactly a Canary or a Shard.
type Deliverable interface {
	tag() uint8
}

func (*Canary) tag() uint8 { return TagCanary }
func (*Shard) tag() uint8  { return TagShard }
