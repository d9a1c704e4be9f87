package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/html"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/terminal"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
)

// ErrDiagnostics is returned by --strict runs that recorded any diagnostic
var ErrDiagnostics = errors.New("stream produced diagnostics")

type replayOptions struct {
	format string
	width  int
	theme  string
	chunk  int
	strict bool
}

func replayCmd(opts *options) *cobra.Command {
	ro := replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <trace>",
		Short: "Apply a recorded stream and render the final tree",
		Long: `Replays a recorded patch stream (plain, gzip or zstd) through the same
ingest path the server uses and prints the final tree. Diagnostics are
written to stderr; rendering always proceeds with what was applied.`,
		Example: `  jsonrender replay trace.ndjson
  jsonrender replay trace.ndjson.zst --format html > deck.html
  jsonrender replay trace.ndjson --format json --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, ro, args[0])
		},
	}

	cmd.Flags().StringVarP(&ro.format, "format", "f", "text", "Output format: text, html or json")
	cmd.Flags().IntVar(&ro.width, "width", terminal.DefaultWidth, "Text output width")
	cmd.Flags().StringVar(&ro.theme, "theme", terminal.ThemeDark, "Text theme: dark or light")
	cmd.Flags().IntVar(&ro.chunk, "chunk", 0, "Read the trace in chunks of this many bytes")
	cmd.Flags().BoolVar(&ro.strict, "strict", false, "Exit non-zero when any diagnostic was recorded")
	return cmd
}

func runReplay(cmd *cobra.Command, opts *options, ro replayOptions, path string) error {
	switch ro.format {
	case "text", "html", "json":
	default:
		return fmt.Errorf("unknown format %q", ro.format)
	}

	cat, err := opts.catalog()
	if err != nil {
		return err
	}
	logger, err := opts.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s := session.New("replay", cat, generator.NewReplay(path, generator.WithChunkSize(ro.chunk)),
		session.WithLogger(logger))
	defer s.Close()

	h, err := s.Start(cmd.Context(), session.Input{Prompt: filepath.Base(path)})
	if err != nil {
		return err
	}
	// A transport error still leaves a renderable partial tree
	streamErr := h.Wait(cmd.Context())

	out := cmd.OutOrStdout()
	snap := s.Tree()
	var renderDiags []types.Diagnostic
	switch ro.format {
	case "json":
		data, err := sonic.ConfigStd.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tree: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "html":
		res := html.NewRenderer(logger).Render(snap)
		renderDiags = res.Diagnostics
		fmt.Fprint(out, html.Page(html.NewSanitizer(), filepath.Base(path), res.Output))
	default:
		res := terminal.NewRenderer(
			terminal.WithWidth(ro.width),
			terminal.WithTheme(ro.theme),
			terminal.WithLogger(logger),
		).Render(snap)
		renderDiags = res.Diagnostics
		fmt.Fprintln(out, res.Output)
	}

	diags := append(s.Diagnostics(), renderDiags...)
	printDiagnostics(cmd.ErrOrStderr(), diags, h.Stats().Applied)

	switch {
	case streamErr != nil:
		return streamErr
	case ro.strict && len(diags) > 0:
		return ErrDiagnostics
	}
	return nil
}

func printDiagnostics(w io.Writer, diags []types.Diagnostic, applied int) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
	fmt.Fprintf(w, "%d patches applied, %d diagnostics\n", applied, len(diags))
}

type previewOptions struct {
	prompt string
	delay  time.Duration
	chunk  int
	theme  string
	keep   bool
}

func previewCmd(opts *options) *cobra.Command {
	po := previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview [trace]",
		Short: "Watch a stream build the tree live in the terminal",
		Long: `Streams a recorded trace, or the built-in demo deck when no trace is
given, and redraws the rendered tree on every revision. Press x to cancel
the stream and q to quit.`,
		Example: `  jsonrender preview trace.ndjson --delay 80ms
  jsonrender preview --prompt "quarterly sales review"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gen session.Generator
			if len(args) == 1 {
				gen = generator.NewReplay(args[0],
					generator.WithChunkSize(po.chunk),
					generator.WithDelay(po.delay),
				)
			} else {
				gen = generator.NewDemo(generator.WithDemoDelay(po.delay))
			}
			return runPreview(cmd, opts, po, gen)
		},
	}

	cmd.Flags().StringVar(&po.prompt, "prompt", "A generated deck", "Prompt for the demo generator")
	cmd.Flags().DurationVar(&po.delay, "delay", 60*time.Millisecond, "Pause between chunks")
	cmd.Flags().IntVar(&po.chunk, "chunk", 48, "Bytes per chunk")
	cmd.Flags().StringVar(&po.theme, "theme", terminal.ThemeDark, "Theme: dark or light")
	cmd.Flags().BoolVar(&po.keep, "keep", false, "Keep the preview open after the stream ends")
	return cmd
}

func runPreview(cmd *cobra.Command, opts *options, po previewOptions, gen session.Generator) error {
	cat, err := opts.catalog()
	if err != nil {
		return err
	}
	logger, err := opts.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s := session.New("preview", cat, gen, session.WithLogger(logger))
	defer s.Close()

	styles := terminal.NewStyles(po.theme)
	renderer := terminal.NewRenderer(terminal.WithTheme(po.theme), terminal.WithLogger(logger))
	model := terminal.NewPreview(s, renderer, styles, !po.keep)

	if _, err := s.Start(cmd.Context(), session.Input{Prompt: po.prompt}); err != nil {
		return err
	}

	program := tea.NewProgram(model,
		tea.WithContext(cmd.Context()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("preview: %w", err)
	}

	if err := s.Err(); err != nil {
		logger.Warn("Stream failed", zap.Error(err))
		return err
	}
	return nil
}
