// Package cmd provides the CLI commands for oale.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openauslaw/oale/internal/logging"
	"github.com/openauslaw/oale/pkg/version"
)

var (
	debugMode      bool
	logFile        string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the oale CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oale",
		Short: "Maintain embeddings of Australian legislation and case law",
		Long: `oale maintains a line-aligned JSONL store of embeddings, metadata and
texts derived from the Open Australian Legal Corpus.

Runs are incremental: existing records are reconciled against the corpus,
stale and corrupt records are pruned, and only missing documents are
chunked and embedded.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("oale version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write JSON logs to this file instead of stderr")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(*cobra.Command, []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg.Level = "debug"
	}
	if logFile != "" {
		cfg.FilePath = logFile
	} else {
		cfg.WriteToStderr = true
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return err
	}
	loggingCleanup = cleanup
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
