package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tecp/internal/ledger"
)

// ChainOptions holds flags for the chain command.
type ChainOptions struct {
	*RootOptions
	Database string
	Start    int64
	Count    int64
}

// NewChainCommand creates the chain command.
func NewChainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chain",
		Short: "List a page of the receipt chain",
		Long: `List receipt summaries in chain order.

Each summary carries the chain index, both hashes, the operation type
and the timestamp, which is enough to re-check the linkage externally.
Page through long chains by advancing --start. The policy's
max_page_size caps --count.

Examples:
  tecp chain --db ./tecp.db
  tecp chain --db ./tecp.db --start 100 --count 50 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().Int64Var(&opts.Start, "start", 0, "first chain index to list")
	cmd.Flags().Int64Var(&opts.Count, "count", 0, "page size (0 means the policy maximum)")

	return cmd
}

func runChain(opts *ChainOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	pol, err := loadPolicy(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Start < 0 {
		return NewExitError(ExitCommandError, "--start must be non-negative")
	}

	store, err := ledger.Open(opts.Database, ledger.WithVerifier(pol.Verifier))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer store.Close()

	summaries, err := store.Chain(ctx, opts.Start, pol.ClampPageSize(opts.Count))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read chain", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(summaries)
	}

	w := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintf(w, "No receipts at index %d or later\n", opts.Start)
		return nil
	}
	for _, sum := range summaries {
		fmt.Fprintf(w, "[%d] %s %s\n", sum.ChainIndex, sum.Datetime, sum.OperationType)
		if opts.Verbose {
			fmt.Fprintf(w, "    Hash:     %s\n", sum.ReceiptHash)
			fmt.Fprintf(w, "    Previous: %s\n", sum.PreviousHash)
		} else {
			fmt.Fprintf(w, "    %s\n", sum.ReceiptHash)
		}
	}
	return nil
}
