// Package cli implements the command-line interface for ddwill.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/axonibyte/ddwill/internal/logging"
	"github.com/axonibyte/ddwill/internal/will"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ddwill",
	Short: "Encrypt a will and split recovery among trustees and canaries",
	Long: `ddwill constructs a dead-drop will: a file is encrypted and the means
of recovery is distributed among a set of trustees such that any quorum
of them can jointly recover the plaintext, but fewer cannot. Canary
parties each hold a key that wraps the primary key in an onion, giving
every canary unilateral veto power over recovery.

Examples:
  # Encrypt for 5 trustees, any 3 of whom may recover, with 1 canary
  ddwill encrypt --infile will.txt --outdir ./deliverables \
    --trustees 5 --quorum 3 --canaries 1

  # Recover from a directory of collected deliverables
  ddwill decrypt --indir ./deliverables --outfile will.txt`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Usage-level failures are folded into
// the configuration error class so main can map them to exit code 2.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	if strings.HasPrefix(err.Error(), "unknown command") || strings.Contains(err.Error(), "required flag") {
		return fmt.Errorf("%w: %v", will.ErrConfig, err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ddwill.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", will.ErrConfig, err)
	})

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ddwill")
	}

	viper.SetEnvPrefix("DDWILL")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("log", "info")
	viper.SetDefault("description", "")

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// IsVerbose returns whether verbose mode is enabled
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}

// newLogger builds the process logger. DDWILL_LOG picks the level;
// --verbose forces debug.
func newLogger() *logging.Logger {
	level := viper.GetString("log")
	if IsVerbose() {
		level = "debug"
	}
	return logging.NewLogger(logging.LogConfig{
		Level:  level,
		Format: "console",
		Output: os.Stderr,
	})
}
