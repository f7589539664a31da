package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/axonibyte/ddwill/internal/cli"
	"github.com/axonibyte/ddwill/internal/will"
)

var (
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cli.SetVersionInfo(commit, buildDate)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, will.ErrConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
