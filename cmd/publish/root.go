package main

import (
	"log/slog"

	"bookpublish/internal/config"
	"bookpublish/internal/logging"

	"github.com/spf13/cobra"
)

// cliState is filled by the root command before any subcommand runs.
type cliState struct {
	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export children's books to EPUB and print-ready PDFs",
		Long: `publish turns a finished book bundle (YAML or JSON) into an EPUB 3 file,
a KDP paperback interior and cover, and a Lulu paperback interior and cover.

It also computes spine and cover dimensions and manages ISBNs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnvFiles()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if verbose {
				level = "debug"
			}
			st.cfg = cfg
			st.log = logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.LogFormat)
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress at debug level")

	cmd.AddCommand(newExportCmd(st))
	cmd.AddCommand(newCheckCmd(st))
	cmd.AddCommand(newSpineCmd())
	cmd.AddCommand(newISBNCmd(st))

	return cmd
}
