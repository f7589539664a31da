package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axonibyte/ddwill/internal/will"
)

var (
	encryptInFile      string
	encryptOutDir      string
	encryptCanaries    uint8
	encryptTrustees    uint8
	encryptQuorum      uint8
	encryptDescription string
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt the payload and split it up for distribution",
	Long: `Encrypt a file and produce one deliverable per trustee and canary.

Any quorum of trustees, together with every canary, can later recover
the plaintext with 'ddwill decrypt'.

Examples:
  # 5 trustees, quorum of 3, 1 canary
  ddwill encrypt --infile will.txt --outdir ./out \
    --trustees 5 --quorum 3 --canaries 1

  # Attach guidance for the recipients
  ddwill encrypt --infile will.txt --outdir ./out \
    --trustees 3 --quorum 2 --canaries 0 \
    --description "Deliver to the estate lawyer"`,
	RunE: runEncrypt,
}

func init() {
	rootCmd.AddCommand(encryptCmd)

	encryptCmd.Flags().StringVar(&encryptInFile, "infile", "", "file to encrypt")
	encryptCmd.Flags().StringVar(&encryptOutDir, "outdir", "", "directory for deliverables")
	encryptCmd.Flags().Uint8Var(&encryptCanaries, "canaries", 0, "number of canary parties")
	encryptCmd.Flags().Uint8Var(&encryptTrustees, "trustees", 0, "number of trustees")
	encryptCmd.Flags().Uint8Var(&encryptQuorum, "quorum", 0, "trustees required for recovery")
	encryptCmd.Flags().StringVar(&encryptDescription, "description", "", "guidance embedded in every deliverable")

	encryptCmd.MarkFlagRequired("infile")
	encryptCmd.MarkFlagRequired("outdir")
	encryptCmd.MarkFlagRequired("canaries")
	encryptCmd.MarkFlagRequired("trustees")
	encryptCmd.MarkFlagRequired("quorum")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	if encryptQuorum > encryptTrustees {
		return fmt.Errorf("%w: quorum cannot be greater than number of trustees", will.ErrConfig)
	}

	description := encryptDescription
	if description == "" {
		description = viper.GetString("description")
	}

	enc, err := will.NewEncryptor(will.EncryptorConfig{
		InFile:      encryptInFile,
		OutDir:      encryptOutDir,
		Canaries:    int(encryptCanaries),
		Trustees:    int(encryptTrustees),
		Quorum:      int(encryptQuorum),
		Description: description,
	}, newLogger())
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(int(encryptTrustees),
		progressbar.OptionSetDescription("Building shards"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
	enc.SetProgress(func(trustee int) {
		bar.Add(1)
	})

	if err := enc.Run(); err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	green.Println("Encryption complete!")
	cyan.Printf("Deliverables written to %s:\n", encryptOutDir)
	for layer := 0; layer < int(encryptCanaries); layer++ {
		fmt.Printf("  %s\n", filepath.Join(encryptOutDir, fmt.Sprintf("canary_%d.will", layer)))
	}
	for owner := 0; owner < int(encryptTrustees); owner++ {
		fmt.Printf("  %s\n", filepath.Join(encryptOutDir, fmt.Sprintf("shard_%d.will", owner)))
	}
	return nil
}
