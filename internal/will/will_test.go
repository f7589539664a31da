package will

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/axonibyte/ddwill/internal/canary"
	"github.com/axonibyte/ddwill/internal/quorum"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "will.txt")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func encryptRun(t *testing.T, plaintext []byte, trustees, quorum, canaries int) string {
	t.Helper()
	outDir := t.TempDir()

	enc, err := NewEncryptor(EncryptorConfig{
		InFile:      writeInput(t, plaintext),
		OutDir:      outDir,
		Canaries:    canaries,
		Trustees:    trustees,
		Quorum:      quorum,
		Description: "test run",
	}, nil)
	if err != nil {
		t.Fatalf("NewEncryptor failed: %v", err)
	}
	if err := enc.Run(); err != nil {
		t.Fatalf("Encryptor.Run failed: %v", err)
	}
	return outDir
}

func decryptRun(t *testing.T, inDir string) ([]byte, error) {
	t.Helper()
	outFile := filepath.Join(t.TempDir(), "recovered.txt")

	dec, err := NewDecryptor(DecryptorConfig{InDir: inDir, OutFile: outFile}, nil)
	if err != nil {
		t.Fatalf("NewDecryptor failed: %v", err)
	}
	if err := dec.Run(); err != nil {
		return nil, err
	}
	return os.ReadFile(outFile)
}

// copyFiles stages a subset of deliverables into a fresh directory.
func copyFiles(t *testing.T, srcDir string, names ...string) string {
	t.Helper()
	dstDir := t.TempDir()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(srcDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dstDir, name), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dstDir
}

func TestRoundTripAllDeliverables(t *testing.T) {
	tests := []struct {
		name                       string
		trustees, quorum, canaries int
		plaintext                  []byte
	}{
		{"hello three of two", 3, 2, 0, []byte("hello")},
		{"five of three with canary", 5, 3, 1, sequential(256)},
		{"all hands", 4, 4, 0, []byte("all-hands")},
		{"two canaries", 3, 2, 2, []byte("top-secret")},
		{"single trustee", 1, 1, 0, []byte("just me")},
		{"empty plaintext", 3, 2, 1, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outDir := encryptRun(t, tt.plaintext, tt.trustees, tt.quorum, tt.canaries)

			entries, err := os.ReadDir(outDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != tt.trustees+tt.canaries {
				t.Fatalf("%d deliverables written, want %d", len(entries), tt.trustees+tt.canaries)
			}

			got, err := decryptRun(t, outDir)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if !bytes.Equal(got, tt.plaintext) {
				t.Error("recovered plaintext does not match")
			}
		})
	}
}

func TestQuorumSubsetSuffices(t *testing.T) {
	// T=5, Q=3, C=1: shards {0,2,4} plus the canary recover the original.
	plaintext := sequential(256)
	outDir := encryptRun(t, plaintext, 5, 3, 1)

	subset := copyFiles(t, outDir, "shard_0.will", "shard_2.will", "shard_4.will", "canary_0.will")
	got, err := decryptRun(t, subset)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("recovered plaintext does not match")
	}
}

func TestDifferentSubsetsAgree(t *testing.T) {
	// 17 bytes exercises the uneven split; two disjoint quorums must
	// recover identical plaintext.
	plaintext := sequential(17)
	outDir := encryptRun(t, plaintext, 4, 2, 0)

	a, err := decryptRun(t, copyFiles(t, outDir, "shard_1.will", "shard_3.will"))
	if err != nil {
		t.Fatalf("decrypt {1,3} failed: %v", err)
	}
	b, err := decryptRun(t, copyFiles(t, outDir, "shard_0.will", "shard_2.will"))
	if err != nil {
		t.Fatalf("decrypt {0,2} failed: %v", err)
	}

	if !bytes.Equal(a, plaintext) || !bytes.Equal(b, plaintext) {
		t.Error("recovered plaintext does not match")
	}
}

func TestInsufficientShards(t *testing.T) {
	outDir := encryptRun(t, []byte("all-hands"), 4, 4, 0)

	subset := copyFiles(t, outDir, "shard_0.will", "shard_1.will", "shard_2.will")
	_, err := decryptRun(t, subset)
	if !errors.Is(err, quorum.ErrQuorumUnavailable) {
		t.Errorf("error = %v, want ErrQuorumUnavailable", err)
	}
}

func TestMissingCanaryVetoes(t *testing.T) {
	outDir := encryptRun(t, []byte("top-secret"), 3, 2, 2)

	subset := copyFiles(t, outDir, "shard_0.will", "shard_1.will", "canary_0.will")
	_, err := decryptRun(t, subset)
	if !errors.Is(err, canary.ErrCanaryMismatch) {
		t.Errorf("error = %v, want ErrCanaryMismatch", err)
	}
}

func TestVersionIncompatibleFilesSkipped(t *testing.T) {
	outDir := encryptRun(t, []byte("hello"), 3, 2, 0)

	// Rewrite every deliverable as if produced by an older tool.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		payload, err := deliverable.ImportPayload(filepath.Join(outDir, entry.Name()))
		if err != nil {
			t.Fatal(err)
		}
		payload.Meta.Ver = "0.9.0"
		if err := payload.Export(outDir, entry.Name()); err != nil {
			t.Fatal(err)
		}
	}

	// Every file is skipped with a warning, leaving nothing to quorum.
	_, err = decryptRun(t, outDir)
	if !errors.Is(err, quorum.ErrQuorumUnavailable) {
		t.Errorf("error = %v, want ErrQuorumUnavailable", err)
	}
}

func TestForeignFilesSkipped(t *testing.T) {
	plaintext := []byte("hello")
	outDir := encryptRun(t, plaintext, 3, 2, 0)

	// Drop junk into the directory; the scan must warn and move on.
	if err := os.WriteFile(filepath.Join(outDir, "README"), []byte("not a payload"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := decryptRun(t, outDir)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Error("recovered plaintext does not match")
	}
}

func TestMetaCarriesDescription(t *testing.T) {
	outDir := encryptRun(t, []byte("hello"), 2, 2, 1)

	payload, err := deliverable.ImportPayload(filepath.Join(outDir, "shard_0.will"))
	if err != nil {
		t.Fatal(err)
	}
	if payload.Meta.Desc != "test run" {
		t.Errorf("desc = %q, want %q", payload.Meta.Desc, "test run")
	}
	if payload.Meta.Ver != deliverable.CurrentVersion {
		t.Errorf("ver = %q, want %q", payload.Meta.Ver, deliverable.CurrentVersion)
	}
}

func TestEncryptorConfigValidation(t *testing.T) {
	inFile := writeInput(t, []byte("x"))

	tests := []struct {
		name string
		cfg  EncryptorConfig
	}{
		{"quorum exceeds trustees", EncryptorConfig{InFile: inFile, OutDir: t.TempDir(), Trustees: 2, Quorum: 3}},
		{"zero quorum", EncryptorConfig{InFile: inFile, OutDir: t.TempDir(), Trustees: 2, Quorum: 0}},
		{"negative canaries", EncryptorConfig{InFile: inFile, OutDir: t.TempDir(), Trustees: 2, Quorum: 2, Canaries: -1}},
		{"missing input", EncryptorConfig{InFile: "/nonexistent/will.txt", OutDir: t.TempDir(), Trustees: 2, Quorum: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEncryptor(tt.cfg, nil); !errors.Is(err, ErrConfig) {
				t.Errorf("error = %v, want ErrConfig", err)
			}
		})
	}
}

func TestDecryptorConfigValidation(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewDecryptor(DecryptorConfig{InDir: "/nonexistent", OutFile: "out"}, nil)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("error = %v, want ErrConfig", err)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		_, err := NewDecryptor(DecryptorConfig{InDir: writeInput(t, []byte("x")), OutFile: "out"}, nil)
		if !errors.Is(err, ErrConfig) {
			t.Errorf("error = %v, want ErrConfig", err)
		}
	})
}

func sequential(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 256)
	}
	return buf
}
