package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dhamidi/perlls/perl/codebase"
	"github.com/spf13/cobra"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Parse every Perl file in a workspace and report syntax errors",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			cfg := opts.cfg
			if cmd.Flags().Changed("jobs") {
				cfg.Workspace.Jobs = jobs
			}

			store := codebase.NewStore(abs, cfg)
			if err := store.ScanAll(cmd.Context()); err != nil {
				return fmt.Errorf("scan %s: %w", abs, err)
			}
			failed := report(cmd.OutOrStdout(), abs, store.ScanResults())
			if failed > 0 {
				return fmt.Errorf("%d files failed to parse", failed)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "files parsed in parallel (0 for one per CPU)")

	return cmd
}

func report(out io.Writer, root string, results []codebase.ScanResult) int {
	failed, nodes := 0, 0
	for _, r := range results {
		rel, err := filepath.Rel(root, r.Path)
		if err != nil {
			rel = r.Path
		}
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "[FAIL] %s: %v\n", rel, r.Err)
			continue
		}
		nodes += r.Nodes
		fmt.Fprintf(out, "[OK] %s (%d nodes)\n", rel, r.Nodes)
	}

	fmt.Fprintf(out, "\n=== SCAN COMPLETE ===\n")
	fmt.Fprintf(out, "Files: %d\n", len(results))
	fmt.Fprintf(out, "Nodes: %d\n", nodes)
	fmt.Fprintf(out, "Errors: %d\n", failed)
	return failed
}
