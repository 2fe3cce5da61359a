package main

import (
	"github.com/dhamidi/perlls/perl/codebase"
	"github.com/spf13/cobra"
)

func newLSPCmd(opts *globalOptions) *cobra.Command {
	var noIncremental bool
	var perfLog bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if noIncremental {
				cfg.Incremental = false
			}
			if perfLog {
				cfg.Performance.Log = true
			}
			server := codebase.NewLSPServer(version, cfg)
			return server.RunStdio()
		},
	}

	cmd.Flags().BoolVar(&noIncremental, "no-incremental", false, "reparse whole documents on every change")
	cmd.Flags().BoolVar(&perfLog, "perf-log", false, "log the timing of every parse")

	return cmd
}
