package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const watchDebounce = 300 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the conformance suite whenever inputs change",
		Long: `Watch the test-vector directory and the candidate binary and re-run
the conformance suite on every change. Runs until interrupted; the
per-run verdict is printed with each report instead of driving the
exit code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.SDK, "sdk", "", "path to the candidate SDK binary (required)")
	cmd.Flags().StringVar(&opts.VectorsDir, "test-vectors", "test-vectors", "directory holding judgment and fusion test vectors")
	cmd.Flags().StringVar(&opts.HistoryDB, "history", "", "record each run in this history database")
	_ = cmd.MarkFlagRequired("sdk")

	return cmd
}

func runWatch(ctx context.Context, rootOpts *RootOptions, opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitFatal, "initializing watcher", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.VectorsDir); err != nil {
		return WrapExitError(ExitFatal, "watching test vectors", err)
	}
	// Watching the binary itself misses replace-by-rename, so watch its
	// path directly and tolerate failure when it does not exist yet.
	if err := watcher.Add(opts.SDK); err != nil {
		formatter.VerboseLog("Cannot watch %s: %v", opts.SDK, err)
	}

	trigger := func() {
		if _, err := executeRun(ctx, rootOpts, opts, formatter); err != nil {
			fmt.Fprintf(formatter.GetErrWriter(), "run failed: %v\n", err)
		}
	}
	trigger()

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			formatter.VerboseLog("Change detected: %s", ev)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(formatter.GetErrWriter(), "watch error: %v\n", err)
		}
	}
}
