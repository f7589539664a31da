package deliverable

// Key holds an AEAD secret together with the nonce it is used under.
// The same shape serves primary, trustee, and canary keys.
type Key struct {
	Secret []byte
	Nonce  []byte
}

// Clone returns a deep copy of the key.
func (k Key) Clone() Key {
	return Key{
		Secret: append([]byte(nil), k.Secret...),
		Nonce:  append([]byte(nil), k.Nonce...),
	}
}

// Zero overwrites the key material in place.
func (k Key) Zero() {
	for i := range k.Secret {
		k.Secret[i] = 0
	}
	for i := range k.Nonce {
		k.Nonce[i] = 0
	}
}

// Combine fuses a set of keys into a single derived key by bytewise XOR
// of the secrets and bytewise XOR of the nonces. XOR is associative and
// commutative, so the result does not depend on input order. Inputs
// shorter than the longest are treated as zero-padded on the right; an
// empty input yields a zero-length pair.
func Combine(keys []Key) Key {
	var secret, nonce []byte
	for _, k := range keys {
		secret = xorBytes(secret, k.Secret)
		nonce = xorBytes(nonce, k.Nonce)
	}
	return Key{Secret: secret, Nonce: nonce}
}

func xorBytes(a, b []byte) []byte {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = x ^ y
	}
	return out
}
