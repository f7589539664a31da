package split

import (
	"bytes"
	"testing"
)

func sequentialBytes(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	return buf
}

func TestSplitPartitionLaw(t *testing.T) {
	// Every residue of len(buf) mod n must reassemble exactly.
	for _, n := range []int{1, 2, 3, 4, 5, 7, 16} {
		for size := 0; size < 3*n+1; size++ {
			buf := sequentialBytes(size)

			parts, err := Split(buf, n)
			if err != nil {
				t.Fatalf("Split(%d bytes, %d) failed: %v", size, n, err)
			}
			if len(parts) != n {
				t.Fatalf("Split(%d bytes, %d) = %d parts, want %d", size, n, len(parts), n)
			}

			if got := Reassemble(parts); !bytes.Equal(got, buf) {
				t.Errorf("Reassemble(Split(%d bytes, %d)) != original", size, n)
			}
		}
	}
}

func TestSplitAsymmetry(t *testing.T) {
	// 17 bytes into 4 parts: first 17%4=1 part gets 5 bytes, rest get 4.
	parts, err := Split(sequentialBytes(17), 4)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	wantLens := []int{5, 4, 4, 4}
	for i, p := range parts {
		if len(p) != wantLens[i] {
			t.Errorf("part %d len = %d, want %d", i, len(p), wantLens[i])
		}
	}
}

func TestSplitInvalidCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := Split([]byte("abc"), n); err != ErrOutOfRange {
			t.Errorf("Split(_, %d) error = %v, want ErrOutOfRange", n, err)
		}
	}
}

func TestElide(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		for size := 0; size < 2*n+3; size++ {
			buf := sequentialBytes(size)
			parts, _ := Split(buf, n)

			for i := 0; i < n; i++ {
				got, err := Elide(buf, n, i)
				if err != nil {
					t.Fatalf("Elide(%d bytes, %d, %d) failed: %v", size, n, i, err)
				}

				if len(got) != len(buf)-len(parts[i]) {
					t.Errorf("Elide(%d bytes, %d, %d) len = %d, want %d",
						size, n, i, len(got), len(buf)-len(parts[i]))
				}

				var want []byte
				for j, p := range parts {
					if j != i {
						want = append(want, p...)
					}
				}
				if !bytes.Equal(got, want) {
					t.Errorf("Elide(%d bytes, %d, %d) content mismatch", size, n, i)
				}
			}
		}
	}
}

func TestElideOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		n, i int
	}{
		{"index equals count", 3, 3},
		{"index beyond count", 3, 7},
		{"negative index", 3, -1},
		{"zero parts", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Elide([]byte("hello world"), tt.n, tt.i); err != ErrOutOfRange {
				t.Errorf("Elide(_, %d, %d) error = %v, want ErrOutOfRange", tt.n, tt.i, err)
			}
		})
	}
}

func TestReassembleEmpty(t *testing.T) {
	if got := Reassemble(nil); len(got) != 0 {
		t.Errorf("Reassemble(nil) = %d bytes, want 0", len(got))
	}
}
