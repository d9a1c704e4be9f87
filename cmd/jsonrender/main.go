package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/logging"
)

// options holds the flags shared by every command
type options struct {
	catalogPath string
	logLevel    string
}

func (o *options) catalog() (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(o.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return cat, nil
}

// logger writes to stderr so command output stays clean
func (o *options) logger() (*zap.Logger, error) {
	l, err := logging.New(logging.CLIConfig(o.logLevel))
	if err != nil {
		return nil, err
	}
	return l.Logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "jsonrender",
		Short: "Inspect catalogs and render streamed UI trees",
		Long: `jsonrender works with the component catalogs and patch streams the
server uses: print what a model is told, export JSON Schemas, and replay
recorded streams into HTML or terminal output.`,
		Example: `  # Print the system prompt for the built-in catalog
  jsonrender prompt

  # Describe a catalog loaded from files
  jsonrender describe --catalog 'catalogs/**/*.yaml'

  # Render a recorded stream as HTML
  jsonrender replay trace.ndjson.gz --format html > deck.html

  # Watch a recorded stream build up in the terminal
  jsonrender preview trace.ndjson --delay 80ms`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "Catalog file glob (empty = built-in slide catalog)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(
		describeCmd(opts),
		promptCmd(opts),
		schemaCmd(opts),
		replayCmd(opts),
		previewCmd(opts),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
