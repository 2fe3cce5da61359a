package main

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dhamidi/perlls/perl/incremental"
	"github.com/spf13/cobra"
)

func newReplayCmd(opts *globalOptions) *cobra.Command {
	var batch bool

	cmd := &cobra.Command{
		Use:   "replay <old> <new>",
		Short: "Reparse the edit between two versions of a file and report reuse",
		Long: `Replay computes the edits that turn <old> into <new>, parses <old>,
applies the edits incrementally and reports how much of the tree was reused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldText, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read old file: %w", err)
			}
			newText, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read new file: %w", err)
			}
			return runReplay(cmd.OutOrStdout(), string(oldText), string(newText), batch, opts.cfg.Cache.MaxSize)
		},
	}

	cmd.Flags().BoolVar(&batch, "batch", false, "apply all edits as one batch")

	return cmd
}

func runReplay(out io.Writer, oldText, newText string, batch bool, cacheSize int) error {
	doc, err := incremental.New(oldText, incremental.WithCacheMaxSize(cacheSize))
	if err != nil {
		return fmt.Errorf("parse old text: %w", err)
	}
	fmt.Fprintf(out, "initial: %v\n", doc.Metrics())

	edits := incremental.EditsFromDiff(oldText, newText)
	if batch {
		if err := doc.ApplyEdits(incremental.NewEditSet(edits...)); err != nil {
			return fmt.Errorf("apply %d edits: %w", len(edits), err)
		}
		fmt.Fprintf(out, "batch of %d: %v\n", len(edits), doc.Metrics())
	} else {
		// Later edits first, so earlier offsets stay valid.
		for _, edit := range slices.Backward(edits) {
			if err := doc.ApplyEdit(edit); err != nil {
				return fmt.Errorf("apply %v: %w", edit, err)
			}
			fmt.Fprintf(out, "%v: %v\n", edit, doc.Metrics())
		}
	}

	if doc.Text() != newText {
		return fmt.Errorf("replayed text does not match the new file")
	}
	fmt.Fprintf(out, "version %d, %d nodes\n", doc.Version(), doc.Tree().Count())
	return nil
}
