package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/tecp/internal/ledger"
	"github.com/roach88/tecp/internal/receipt"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the ledger",
		Long: `Summarize the ledger: receipt counts, successful verifications
and the chain integrity percentage from a full linkage scan.

An integrity below 100 means at least one link in the chain is broken
and exits with code 1.

With --policy, receipts whose operation type falls outside the policy's
allowed_operations are reported separately.

Examples:
  tecp stats --db ./tecp.db
  tecp stats --db ./tecp.db --format json
  tecp stats --db ./tecp.db --policy ./policy.cue`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	pol, err := loadPolicy(opts.RootOptions)
	if err != nil {
		return err
	}

	store, err := ledger.Open(opts.Database, ledger.WithVerifier(pol.Verifier))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stats", err)
	}
	outOfPolicy := pol.Violations(stats.ByOperationType)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		report := struct {
			receipt.Stats
			OutOfPolicy map[string]int64 `json:"out_of_policy,omitempty"`
		}{stats, outOfPolicy}
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "=== Ledger Stats ===")
		fmt.Fprintf(w, "  Total Receipts:  %d\n", stats.TotalReceipts)
		fmt.Fprintf(w, "  Verified Ops:    %d\n", stats.VerifiedOperations)
		fmt.Fprintf(w, "  Chain Integrity: %.2f%%\n", stats.ChainIntegrity)

		if len(stats.ByOperationType) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "=== By Operation Type ===")
			types := make([]string, 0, len(stats.ByOperationType))
			for opType := range stats.ByOperationType {
				types = append(types, opType)
			}
			sort.Strings(types)
			for _, opType := range types {
				fmt.Fprintf(w, "  %-20s %d\n", opType, stats.ByOperationType[opType])
			}
		}

		if len(outOfPolicy) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "=== Out of Policy ===")
			types := make([]string, 0, len(outOfPolicy))
			for opType := range outOfPolicy {
				types = append(types, opType)
			}
			sort.Strings(types)
			for _, opType := range types {
				fmt.Fprintf(w, "  %-20s %d\n", opType, outOfPolicy[opType])
			}
		}
	}

	if stats.ChainIntegrity < 100.0 {
		return NewExitError(ExitFailure, "chain integrity degraded")
	}
	return nil
}
