package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/axonibyte/ddwill/internal/will"
)

var (
	decryptInDir   string
	decryptOutFile string
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt the ciphertext and recover the will",
	Long: `Recover the plaintext from a directory of collected deliverables.

Every regular file in the directory is examined; unreadable or
version-incompatible files are skipped with a warning. Recovery needs a
quorum of shards plus every canary from the original run.

Example:
  ddwill decrypt --indir ./collected --outfile will.txt`,
	RunE: runDecrypt,
}

func init() {
	rootCmd.AddCommand(decryptCmd)

	decryptCmd.Flags().StringVar(&decryptInDir, "indir", "", "directory of deliverables")
	decryptCmd.Flags().StringVar(&decryptOutFile, "outfile", "", "file for recovered plaintext")

	decryptCmd.MarkFlagRequired("indir")
	decryptCmd.MarkFlagRequired("outfile")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	dec, err := will.NewDecryptor(will.DecryptorConfig{
		InDir:   decryptInDir,
		OutFile: decryptOutFile,
	}, newLogger())
	if err != nil {
		return err
	}

	if err := dec.Run(); err != nil {
		return err
	}

	green := color.New(color.FgGreen, color.Bold)
	fmt.Println()
	green.Println("Recovery complete!")
	fmt.Printf("Plaintext written to %s\n", decryptOutFile)
	return nil
}
