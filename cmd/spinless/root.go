package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spinless-app/spinless/internal/logging"
	"github.com/spinless-app/spinless/internal/mcp"
)

var (
	verbose  bool
	logLevel string
	logFile  string

	logger  = zerolog.Nop()
	logSink *os.File
)

var rootCmd = &cobra.Command{
	Use:   "spinless",
	Short: "spinless - stop Kodi from re-checking local artwork",
	Long: `spinless stamps Kodi's texture cache so that artwork stored next to your media
is no longer re-validated on every library refresh.

Only the lasthashcheck column of the texture database is written. Close Kodi
before running apply.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		opts := logging.Options{Level: logLevel, Verbose: verbose}
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			logSink = f
			opts.Extra = f
		}
		l, err := logging.Setup(opts)
		if err != nil {
			return err
		}
		logger = l
		mcp.Version = version
		return nil
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if logSink != nil {
			return logSink.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log per-item diagnostics")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default $"+logging.LevelEnv+" or info)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also append JSON log lines to this file")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newRevertCmd())
	rootCmd.AddCommand(newLocateCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newMCPCmd())
}
