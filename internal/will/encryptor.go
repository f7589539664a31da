// Package will orchestrates the end-to-end encrypt and decrypt workflows.
package will

import (
	"errors"
	"fmt"
	"os"

	"github.com/axonibyte/ddwill/internal/canary"
	"github.com/axonibyte/ddwill/internal/crypto"
	"github.com/axonibyte/ddwill/internal/logging"
	"github.com/axonibyte/ddwill/internal/quorum"
	"github.com/axonibyte/ddwill/pkg/deliverable"
)

var (
	// ErrConfig indicates an invalid configuration; callers map it to a
	// usage-style exit
	ErrConfig = errors.New("configuration error")
	// ErrPrimaryDecryptFailure indicates the recovered primary key failed
	// to open the ciphertext
	ErrPrimaryDecryptFailure = errors.New("primary decrypt failure: ciphertext could not be opened")
)

// EncryptorConfig configures a single encryption run.
type EncryptorConfig struct {
	InFile      string
	OutDir      string
	Canaries    int
	Trustees    int
	Quorum      int
	Description string
}

// Encryptor drives one encrypt workflow: seal the plaintext under a
// fresh primary key, wrap the key through the canary onion, distribute
// shards across trustees, and export every deliverable.
type Encryptor struct {
	cfg      EncryptorConfig
	log      *logging.Logger
	progress quorum.ProgressFunc
}

// NewEncryptor validates the configuration and returns an Encryptor.
func NewEncryptor(cfg EncryptorConfig, log *logging.Logger) (*Encryptor, error) {
	if log == nil {
		log = logging.Nop()
	}
	if cfg.Quorum < 1 {
		return nil, fmt.Errorf("%w: quorum must be at least 1", ErrConfig)
	}
	if cfg.Quorum > cfg.Trustees {
		return nil, fmt.Errorf("%w: quorum cannot be greater than number of trustees", ErrConfig)
	}
	if cfg.Trustees > quorum.MaxTrustees {
		return nil, fmt.Errorf("%w: at most %d trustees supported", ErrConfig, quorum.MaxTrustees)
	}
	if cfg.Canaries < 0 {
		return nil, fmt.Errorf("%w: canary count cannot be negative", ErrConfig)
	}
	if _, err := os.Stat(cfg.InFile); err != nil {
		return nil, fmt.Errorf("%w: cannot access input file: %v", ErrConfig, err)
	}

	return &Encryptor{cfg: cfg, log: log.WithComponent("encryptor")}, nil
}

// SetProgress installs a callback fired once per completed trustee shard.
func (e *Encryptor) SetProgress(fn quorum.ProgressFunc) {
	e.progress = fn
}

// Run executes the encrypt workflow and writes one .will file per
// deliverable into the output directory.
func (e *Encryptor) Run() error {
	plaintext, err := os.ReadFile(e.cfg.InFile)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err := os.MkdirAll(e.cfg.OutDir, 0o700); err != nil {
		return fmt.Errorf("%w: cannot create output directory: %v", ErrConfig, err)
	}

	primary, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	defer primary.Zero()

	ciphertext, err := crypto.SealWithKey(primary, plaintext)
	if err != nil {
		return err
	}
	e.log.Debug().Int("plaintext_bytes", len(plaintext)).Int("ciphertext_bytes", len(ciphertext)).
		Msg("sealed plaintext under primary key")

	wrapped, canaries, err := canary.Wrap(primary.Secret, e.cfg.Canaries)
	if err != nil {
		return err
	}
	defer zero(wrapped)
	e.log.Debug().Int("layers", len(canaries)).Msg("wrapped primary key")

	shards, err := quorum.Distribute(ciphertext, wrapped, primary.Nonce,
		e.cfg.Trustees, e.cfg.Quorum, e.progress)
	if err != nil {
		if errors.Is(err, quorum.ErrInvalidParams) {
			return fmt.Errorf("%w: %v", ErrConfig, err)
		}
		return err
	}

	meta := deliverable.NewMeta(e.cfg.Description)

	for i := range canaries {
		c := &canaries[i]
		name := fmt.Sprintf("canary_%d.will", c.Layer)
		payload := deliverable.NewPayload(meta, c)
		if err := payload.Export(e.cfg.OutDir, name); err != nil {
			return err
		}
		e.log.Info().Str("file", name).
			Str("fingerprint", crypto.Fingerprint(payload.Deliverable)).
			Msg("exported canary")
	}

	for i := range shards {
		s := &shards[i]
		name := fmt.Sprintf("shard_%d.will", s.Owner)
		payload := deliverable.NewPayload(meta, s)
		if err := payload.Export(e.cfg.OutDir, name); err != nil {
			return err
		}
		e.log.Info().Str("file", name).
			Int("fragments", len(s.Fragments)).
			Str("fingerprint", crypto.Fingerprint(payload.Deliverable)).
			Msg("exported shard")
	}

	return nil
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
