package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/lhamgr/internal/cli"
)

var (
	configPath string
	verbose    bool
	noColor    bool
	logFormat  string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lhamgr",
		Short: "A managed cache for LHAPDF sets",
		Long: `lhamgr keeps a local cache of LHAPDF parton distribution sets:
- PDF sets are downloaded on first use from the configured repositories
- numeric LHAPDF IDs are resolved through an index refreshed on demand
- concurrent processes share one cache safely`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			cli.SetupLogging()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.NoColor = &noColor
	cli.LogFormat = &logFormat

	// Add subcommands
	cmd.AddCommand(
		cli.NewLookupCmd(),
		cli.NewPDFCmd(),
		cli.NewSetCmd(),
		cli.NewFetchCmd(),
		cli.NewIndexCmd(),
		cli.NewConfigCmd(),
		cli.NewCacheCmd(),
		cli.NewVerbosityCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
