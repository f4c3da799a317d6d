package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// RootOptions carries the persistent flag values shared by every
// subcommand.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{"text", "json"}

// NewRootCommand builds the otpconform command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "otpconform",
		Short: "OpenTrust protocol conformance validator",
		Long:  "Probes a candidate OpenTrust SDK through its public surface and scores how faithfully it implements judgment construction, fusion, and provenance semantics.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Reject bad formats before any subcommand produces output.
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q, expected one of %s", opts.Format, strings.Join(ValidFormats, "|"))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
