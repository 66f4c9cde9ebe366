package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "roomctl",
		Short: "CLI tool for the voting room API",
		Long: `roomctl is a CLI tool for interacting with the voting room JSON API.

Every invocation presents the same user fingerprint, read from the fingerprint
file and generated on first use, so a shell session behaves like one browser.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.LoadFingerprint(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Fingerprint)
			if cfg.Verbose {
				client.SetTrace(cmd.ErrOrStderr())
			}
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: ROOMCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Fingerprint, "fingerprint", cfg.Fingerprint, "User fingerprint (env: ROOMCTL_FINGERPRINT)")
	rootCmd.PersistentFlags().StringVar(&cfg.FingerprintFile, "fingerprint-file", cfg.FingerprintFile, "Fingerprint file path (env: ROOMCTL_FINGERPRINT_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	rootCmd.AddCommand(newRoomCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
