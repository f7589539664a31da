package deliverable

import (
	"encoding/binary"
	"errors"
)

// Deliverable tags. Stable across versions once fixed.
const (
	TagCanary uint8 = 0x01
	TagShard  uint8 = 0x02
)

// MaxFieldSize caps any single length-prefixed field.
const MaxFieldSize = 1 << 28 // 256 MB

var (
	// ErrTruncated indicates the buffer ended before a declared field
	ErrTruncated = errors.New("truncated deliverable data")
	// ErrFieldTooLarge indicates a declared length exceeds MaxFieldSize
	ErrFieldTooLarge = errors.New("field length exceeds maximum")
	// ErrBadTag indicates an unknown deliverable tag
	ErrBadTag = errors.New("unknown deliverable tag")
)

// All fields are little-endian. Byte strings and lists carry a u32
// length prefix; ordinals and tags are raw u8.

func appendUint32(buf []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(buf, v)
}

func appendBytes(buf, field []byte) []byte {
	buf = appendUint32(buf, uint32(len(field)))
	return append(buf, field...)
}

func appendString(buf []byte, s string) []byte {
	return appendBytes(buf, []byte(s))
}

// decoder walks a byte buffer, tracking the read offset.
type decoder struct {
	data []byte
	off  int
}

func (d *decoder) uint8() (uint8, error) {
	if d.off+1 > len(d.data) {
		return 0, ErrTruncated
	}
	v := d.data[d.off]
	d.off++
	return v, nil
}

func (d *decoder) uint32() (uint32, error) {
	if d.off+4 > len(d.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(d.data[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) bytes() ([]byte, error) {
	n, err := d.uint32()
	if err != nil {
		return nil, err
	}
	if n > MaxFieldSize {
		return nil, ErrFieldTooLarge
	}
	if d.off+int(n) > len(d.data) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, d.data[d.off:])
	d.off += int(n)
	return out, nil
}

func (d *decoder) string() (string, error) {
	b, err := d.bytes()
	return string(b), err
}

func (d *decoder) remaining() int {
	return len(d.data) - d.off
}

func appendKey(buf []byte, k Key) []byte {
	buf = appendBytes(buf, k.Secret)
	return appendBytes(buf, k.Nonce)
}

func (d *decoder) key() (Key, error) {
	secret, err := d.bytes()
	if err != nil {
		return Key{}, err
	}
	nonce, err := d.bytes()
	if err != nil {
		return Key{}, err
	}
	return Key{Secret: secret, Nonce: nonce}, nil
}

func appendFragment(buf []byte, f Fragment) []byte {
	buf = appendBytes(buf, f.Ciphertext)
	buf = appendBytes(buf, f.Key)
	return appendBytes(buf, f.Owners)
}

func (d *decoder) fragment() (Fragment, error) {
	ciphertext, err := d.bytes()
	if err != nil {
		return Fragment{}, err
	}
	key, err := d.bytes()
	if err != nil {
		return Fragment{}, err
	}
	owners, err := d.bytes()
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{Ciphertext: ciphertext, Key: key, Owners: owners}, nil
}

// EncodeDeliverable serializes a deliverable with its leading tag byte.
func EncodeDeliverable(del Deliverable) []byte {
	buf := []byte{del.tag()}
	switch v := del.(type) {
	case *Canary:
		buf = appendKey(buf, v.Key)
		buf = append(buf, v.Layer)
	case *Shard:
		buf = append(buf, v.Owner)
		buf = appendKey(buf, v.Key)
		buf = appendBytes(buf, v.PriNonce)
		buf = appendUint32(buf, uint32(len(v.Fragments)))
		for _, f := range v.Fragments {
			buf = appendFragment(buf, f)
		}
	}
	return buf
}

// DecodeDeliverable parses a tagged deliverable.
func DecodeDeliverable(data []byte) (Deliverable, error) {
	d := &decoder{data: data}
	tag, err := d.uint8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case TagCanary:
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		layer, err := d.uint8()
		if err != nil {
			return nil, err
		}
		return &Canary{Key: key, Layer: layer}, nil

	case TagShard:
		owner, err := d.uint8()
		if err != nil {
			return nil, err
		}
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		priNonce, err := d.bytes()
		if err != nil {
			return nil, err
		}
		count, err := d.uint32()
		if err != nil {
			return nil, err
		}
		if int(count) > d.remaining() {
			return nil, ErrTruncated
		}
		fragments := make([]Fragment, 0, count)
		for i := uint32(0); i < count; i++ {
			f, err := d.fragment()
			if err != nil {
				return nil, err
			}
			fragments = append(fragments, f)
		}
		return &Shard{Owner: owner, Key: key, PriNonce: priNonce, Fragments: fragments}, nil

	default:
		return nil, ErrBadTag
	}
}
