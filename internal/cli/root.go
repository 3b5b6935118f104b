package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tecp/internal/policy"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Policy  string // optional path to a CUE policy file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the TECP CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tecp",
		Short: "TECP - Transparent Evolution Chain Protocol",
		Long:  "A tamper-evident, hash-chained receipt ledger for autonomous operations.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Policy, "policy", "", "path to CUE ledger policy file")

	// Add subcommands
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewChainCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadPolicy resolves the effective ledger policy for a command.
// No --policy flag means the built-in default policy.
func loadPolicy(opts *RootOptions) (policy.Policy, error) {
	if opts.Policy == "" {
		return policy.Default(), nil
	}
	p, err := policy.Load(opts.Policy)
	if err != nil {
		return policy.Policy{}, WrapExitError(ExitCommandError, "failed to load policy", err)
	}
	return p, nil
}
