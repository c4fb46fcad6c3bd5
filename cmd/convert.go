package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"webpify/internal/batch"
	"webpify/internal/config"
	"webpify/internal/discovery"
	"webpify/internal/logging"
	"webpify/internal/optimizer"
	"webpify/internal/runlock"
	"webpify/internal/tui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [path]",
	Short: "Convert images to WebP and remove the originals that were replaced",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, args, false)
	},
}

// runBatch discovers candidates under the path argument and runs them through
// the optimizer. A dry run writes and deletes nothing and prints a per-file
// report afterwards.
func runBatch(cmd *cobra.Command, args []string, dryRun bool) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	candidates, err := discovery.Discover(root)
	if err != nil {
		return err
	}

	if !dryRun {
		lock, err := runlock.Acquire("", root)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	optCfg := optimizer.DefaultConfig()
	optCfg.DryRun = dryRun
	opts := batch.Options{
		Workers:       cfg.Workers,
		Timeout:       cfg.Timeout.Duration,
		KeepOriginals: cfg.KeepOriginals,
		Root:          root,
		RunID:         runID,
	}

	sinks, closeLogs, err := fileSinks(cfg, runID)
	if err != nil {
		return err
	}
	defer closeLogs()

	report := &batch.Recorder{}
	if dryRun {
		sinks = append(sinks, report)
	}

	out := cmd.OutOrStdout()
	var summary batch.Summary
	if useProgressView(cfg) {
		summary, err = runWithProgress(ctx, stop, candidates, optimizer.New(optCfg), opts, sinks)
	} else {
		log, logErr := logging.New(logging.Options{
			Writer:  cmd.ErrOrStderr(),
			Format:  cfg.LogFormat,
			Level:   cfg.LogLevel,
			NoColor: !isTerminal(os.Stderr),
		})
		if logErr != nil {
			return logErr
		}
		sinks = append(sinks, logging.NewSink(log, runID))
		summary, err = batch.Run(ctx, candidates, optimizer.New(optCfg), opts, logging.Multi(sinks...))
	}

	if dryRun {
		printScanReport(out, report.Kind(batch.EventProgress))
	}
	fmt.Fprintln(out, tui.RenderSummary(tui.SummaryRows(summary, dryRun)))

	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted: %d of %d images not processed", summary.Unprocessed, summary.Total)
	}
	return err
}

// runWithProgress drives the bubbletea view while the batch runs. Ctrl+c in
// the view cancels the run the same way SIGINT does.
func runWithProgress(ctx context.Context, cancel context.CancelFunc, candidates []string, proc batch.Processor, opts batch.Options, sinks []batch.Sink) (batch.Summary, error) {
	events := make(chan batch.Event, 64)
	program := tea.NewProgram(tui.NewModel(events).WithInterrupt(cancel))

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		_, _ = program.Run()
		// keep the batch unblocked if the view exits early
		for range events {
		}
	}()

	sinks = append(sinks, tui.NewSink(events))
	summary, err := batch.Run(ctx, candidates, proc, opts, logging.Multi(sinks...))
	close(events)
	<-uiDone
	return summary, err
}

// fileSinks opens the JSON log file, when one is configured.
func fileSinks(cfg *config.Config, runID string) ([]batch.Sink, func(), error) {
	if cfg.LogFile == "" {
		return nil, func() {}, nil
	}

	f, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log, err := logging.New(logging.Options{Writer: f, Format: logging.FormatJSON, Level: cfg.LogLevel})
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return []batch.Sink{logging.NewSink(log, runID)}, func() { _ = f.Close() }, nil
}

func useProgressView(cfg *config.Config) bool {
	if flags.plain || cfg.LogFormat == logging.FormatJSON {
		return false
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
