package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/axonibyte/ddwill/pkg/deliverable"
)

var (
	commit    = "none"
	buildDate = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(com, date string) {
	commit = com
	buildDate = date
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print detailed version information about ddwill",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ddwill %s\n", deliverable.CurrentVersion)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildDate)
		fmt.Printf("  Go version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Println()
		fmt.Println("Cryptographic features:")
		fmt.Println("  - ChaCha20-Poly1305 encryption")
		fmt.Println("  - XOR-combined quorum fragment keys")
		fmt.Println("  - Layered canary key wrapping")
		fmt.Println("  - BLAKE3 deliverable fingerprints")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
