package will

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/axonibyte/ddwill/internal/canary"
	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/internal/logging"
	"github.com/axonibyte/ddwill/internal/quorum"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

// DecryptorConfig configures a single decryption run.
type DecryptorConfig struct {
	InDir   string
	OutFile string
}

// Decryptor drives one decrypt workflow: scan the deliverable directory,
// reconstruct the wrapped key and ciphertext from a satisfying quorum,
// unwrap the canary onion, and open the ciphertext.
type Decryptor struct {
	cfg DecryptorConfig
	log *logging.Logger
}

// NewDecryptor validates the configuration and returns a Decryptor.
func NewDecryptor(cfg DecryptorConfig, log *logging.Logger) (*Decryptor, error) {
	if log == nil {
		log = logging.Nop()
	}
	info, err := os.Stat(cfg.InDir)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot access input directory: %v", ErrConfig, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrConfig, cfg.InDir)
	}
	if cfg.OutFile == "" {
		return nil, fmt.Errorf("%w: no output file given", ErrConfig)
	}
	if dir := filepath.Dir(cfg.OutFile); dir != "" {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("%w: cannot access output directory: %v", ErrConfig, err)
		}
	}

	return &Decryptor{cfg: cfg, log: log.WithComponent("decryptor")}, nil
}

// Run executes the decrypt workflow and writes the recovered plaintext.
func (d *Decryptor) Run() error {
	canaries, shards, err := d.scanDeliverables()
	if err != nil {
		return err
	}
	d.log.Info().Int("canaries", len(canaries)).Int("shards", len(shards)).
		Msg("loaded deliverables")

	wrapped, ciphertext, priNonce, err := quorum.Reconstruct(shards)
	if err != nil {
		return err
	}
	d.log.Debug().Int("wrapped_bytes", len(wrapped)).Msg("recovered wrapped key")

	secret, err := canary.Unwrap(wrapped, canaries)
	if err != nil {
		return err
	}
	defer zero(secret)

	primary := deliverable.Key{Secret: secret, Nonce: priNonce}
	plaintext, err := crypto.OpenWithKey(primary, ciphertext)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrimaryDecryptFailure, err)
	}

	if err := os.WriteFile(d.cfg.OutFile, plaintext, 0o600); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	d.log.Info().Str("file", d.cfg.OutFile).Int("bytes", len(plaintext)).
		Msg("recovered plaintext")

	return nil
}

// scanDeliverables reads every regular file in the input directory and
// classifies what it can. Unreadable, malformed, or version-incompatible
// files are skipped with a warning; the quorum check downstream decides
// whether what remains is enough.
func (d *Decryptor) scanDeliverables() ([]deliverable.Canary, []deliverable.Shard, error) {
	entries, err := os.ReadDir(d.cfg.InDir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot read input directory: %v", ErrConfig, err)
	}

	var canaries []deliverable.Canary
	var shards []deliverable.Shard

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(d.cfg.InDir, entry.Name())

		payload, err := deliverable.ImportPayload(path)
		if err != nil {
			d.log.Warn().Str("file", entry.Name()).Err(err).Msg("skipping unreadable deliverable")
			continue
		}

		if !payload.Meta.Compatible(deliverable.CurrentVersion) {
			d.log.Warn().Str("file", entry.Name()).
				Str("file_version", payload.Meta.Ver).
				Str("tool_version", deliverable.CurrentVersion).
				Msg("skipping version-incompatible deliverable")
			continue
		}

		del, err := payload.Decode()
		if err != nil {
			d.log.Warn().Str("file", entry.Name()).Err(err).Msg("skipping malformed deliverable")
			continue
		}

		switch v := del.(type) {
		case *deliverable.Canary:
			d.log.Debug().Str("file", entry.Name()).Uint8("layer", v.Layer).
				Str("fingerprint", crypto.Fingerprint(payload.Deliverable)).
				Msg("loaded canary")
			canaries = append(canaries, *v)
		case *deliverable.Shard:
			d.log.Debug().Str("file", entry.Name()).Uint8("owner", v.Owner).
				Int("fragments", len(v.Fragments)).
				Str("fingerprint", crypto.Fingerprint(payload.Deliverable)).
				Msg("loaded shard")
			shards = append(shards, *v)
		}
	}

	return canaries, shards, nil
}
