// Package cmd defines and implements the CLI commands for the bugdex executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bugdex/bugdex/internal/config"
	"github.com/bugdex/bugdex/internal/logging"
)

var cfgFile string

// runtime bundles the services commands need. It is built once in the root
// command's PersistentPreRunE and shared via the command struct closure.
type runtime struct {
	cfg    config.Config
	logger *zap.Logger
}

func (r *runtime) close() {
	if r.logger != nil {
		_ = r.logger.Sync()
	}
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	rt := &runtime{}
	cmd := &cobra.Command{
		Use:   "bugdex",
		Short: "Normalize bug tracker URLs into a uniform JSON index.",
		Long: `bugdex reads newline-delimited bug and issue URLs, fetches each one
from its tracker (GitHub, GitLab-style, mail-archive.com, or the QCAD
forum), and produces a uniform JSON record per URL with a humanized id,
ISO creation date, and description.`,

		SilenceUsage: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			rt.cfg = cfg
			rt.logger = logger
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			rt.close()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML; environment variables override)")

	cmd.AddCommand(newGrabCmd(rt))

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
