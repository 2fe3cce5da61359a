package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dhamidi/perlls/config"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

const version = "0.1.0"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	noConfig   bool
	verbose    int
	logFile    string

	cfg *config.Config
}

func main() {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "perlls",
		Short:         "An incremental Perl language server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to a config file")
	flags.BoolVar(&opts.noConfig, "no-config", false, "ignore .perlls.yaml project files")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newLSPCmd(opts))
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newReplayCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup resolves the configuration and starts logging. Flags win over
// every other source.
func (o *globalOptions) setup(ctx context.Context) error {
	result, err := config.Load(ctx, config.LoadOptions{
		ExplicitPath:        o.configPath,
		IgnoreProjectConfig: o.noConfig,
	})
	if err != nil {
		return err
	}
	o.cfg = result.Config

	verbosity := o.cfg.Log.Verbosity
	if o.verbose > 0 {
		verbosity = o.verbose
	}
	var path *string
	if o.logFile != "" {
		path = &o.logFile
	} else if o.cfg.Log.File != "" {
		path = &o.cfg.Log.File
	}
	commonlog.Configure(verbosity, path)

	for _, file := range result.LoadedFrom {
		commonlog.GetLogger("perlls").Infof("loaded config from %s", file)
	}
	return nil
}
