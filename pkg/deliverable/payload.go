package deliverable

import (
	"fmt"
	"os"
	"path/filepath"
)

// Payload is the self-describing envelope written to disk. The
// deliverable is serialized independently so the envelope can be read
// and version-checked without understanding the inner encoding.
type Payload struct {
	Meta        Meta
	Deliverable []byte
}

// NewPayload wraps a deliverable in an envelope carrying the given meta.
func NewPayload(meta Meta, del Deliverable) Payload {
	return Payload{
		Meta:        meta,
		Deliverable: EncodeDeliverable(del),
	}
}

// Decode parses the inner deliverable.
func (p Payload) Decode() (Deliverable, error) {
	return DecodeDeliverable(p.Deliverable)
}

// Encode serializes the payload envelope.
func (p Payload) Encode() []byte {
	var buf []byte
	buf = appendString(buf, p.Meta.Ver)
	buf = appendString(buf, p.Meta.Desc)
	return appendBytes(buf, p.Deliverable)
}

// DecodePayload parses a payload envelope.
func DecodePayload(data []byte) (Payload, error) {
	d := &decoder{data: data}
	ver, err := d.string()
	if err != nil {
		return Payload{}, err
	}
	desc, err := d.string()
	if err != nil {
		return Payload{}, err
	}
	del, err := d.bytes()
	if err != nil {
		return Payload{}, err
	}
	return Payload{Meta: Meta{Ver: ver, Desc: desc}, Deliverable: del}, nil
}

// Export writes the payload to dir/name. Key material never leaves the
// envelope unencoded, but the file still carries trustee secrets, so it
// is written owner-readable only.
func (p Payload) Export(dir, name string) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, p.Encode(), 0o600); err != nil {
		return fmt.Errorf("failed to write payload to %s: %w", path, err)
	}
	return nil
}

// ImportPayload reads and parses a payload file.
func ImportPayload(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to read payload from %s: %w", path, err)
	}
	p, err := DecodePayload(data)
	if err != nil {
		return Payload{}, fmt.Errorf("failed to decode payload from %s: %w", path, err)
	}
	return p, nil
}
