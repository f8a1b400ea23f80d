package cmd

import (
	"fmt"
	"os"

	"github.com/Another0Noob/comictag/internal/config"
	"github.com/Another0Noob/comictag/internal/logger"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	cfg      config.Config
)

var rootCmd = &cobra.Command{
	Use:   "comictag",
	Short: "Apply ComicInfo.xml metadata to .cbz and .cbr archives",
	Long: `comictag writes ComicRack ComicInfo.xml metadata into comic archives.

Existing metadata is kept; only the fields you set are replaced. Every file is
rewritten through a temporary copy, so an interrupted run never leaves a
half-written archive behind. .cbr files are converted to .cbz.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		level := cfg.Log.Level
		if logLevel != "" {
			level = logLevel
		}
		if _, err := logger.ParseLevel(level); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		logger.SetLevel(level)
		logger.SetOutput(cmd.ErrOrStderr())
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&cfgFile,
		"config",
		"c",
		"",
		"path to config file",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		"",
		"debug, info, warn or error (overrides the config file)",
	)
}
