package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tecp/internal/ledger"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
	Hash     string
	Verifier string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a receipt by its hash",
		Long: `Verify a previously issued receipt.

Recomputes the receipt hash from the stored fields and checks the link
to the preceding receipt. The outcome is logged to the verification
audit trail. A failed verification exits with code 1; an unknown hash
is a failed verification, not a command error.

Examples:
  tecp verify --db ./tecp.db --hash 3f6a...
  tecp verify --db ./tecp.db --hash 3f6a... --verifier auditor --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "receipt hash to verify (required)")
	_ = cmd.MarkFlagRequired("hash")
	cmd.Flags().StringVar(&opts.Verifier, "verifier", "", "identity logged on the verification record")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
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

	result, err := store.Verify(ctx, opts.Hash, opts.Verifier)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify receipt", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if result.Valid {
			fmt.Fprintf(w, "VALID   %s\n", opts.Hash)
		} else if result.Error != "" {
			fmt.Fprintf(w, "INVALID %s (%s)\n", opts.Hash, result.Error)
		} else {
			fmt.Fprintf(w, "INVALID %s\n", opts.Hash)
		}
		if result.Receipt != nil {
			fmt.Fprintf(w, "  Index:     %d\n", result.Receipt.ChainIndex)
			fmt.Fprintf(w, "  Type:      %s\n", result.Receipt.OperationType)
			fmt.Fprintf(w, "  Timestamp: %s\n", result.Receipt.Datetime)
		}
		if result.VerifiedAt != "" {
			fmt.Fprintf(w, "  Verified:  %s\n", result.VerifiedAt)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "receipt verification failed")
	}
	return nil
}
