package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/opentrust/otpconform/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	DB    string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List recorded validation runs",
		Long:          "List validation runs recorded with `validate --history`, newest first.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to the history database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command) error {
	store, err := history.Open(opts.DB)
	if err != nil {
		return WrapExitError(ExitFatal, "opening history database", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitFatal, "listing runs", err)
	}

	w := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-21s  %5.1f%%  %d/%d  %s\n",
			e.CreatedAt.UTC().Format(time.RFC3339), e.Verdict, e.Score, e.Passed, e.Total, e.Candidate)
	}
	return nil
}
