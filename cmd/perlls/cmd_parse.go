package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhamidi/perlls/perl/parser"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var includePositions bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a Perl file and dump its syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read perl file: %w", err)
			}
			root, err := parser.Parse(string(data))
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			switch outputFormat {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(root); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			case "tree":
				if includePositions {
					fmt.Fprintln(out, root.StringWithPositions())
				} else {
					fmt.Fprintln(out, root.String())
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "tree", "output format (tree, json)")
	cmd.Flags().BoolVar(&includePositions, "positions", false, "include byte ranges in tree output")

	return cmd
}
