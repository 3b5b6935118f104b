package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tecp/internal/ledger"
	"github.com/roach88/tecp/internal/receipt"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
	Type     string
	Data     string
	Input    string
	Output   string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append a receipt for an operation",
		Long: `Append a hash-chained receipt for a completed operation.

The operation summary (--data) must be JSON. The input and output
payloads are parsed as JSON when they are valid JSON and treated as
plain text otherwise; either way only their hashes enter the receipt.

Examples:
  tecp record --db ./tecp.db --type test --data '{"note":"hi"}' --input 'test input' --output 'test output'
  tecp record --db ./tecp.db --type prediction --data '{"bugs_count":2}' --input /src/app --output '{"potential_bugs":["race","leak"]}'`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite ledger database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Type, "type", "", "operation type tag (required)")
	_ = cmd.MarkFlagRequired("type")
	cmd.Flags().StringVar(&opts.Data, "data", "{}", "operation summary as JSON")
	cmd.Flags().StringVar(&opts.Input, "input", "", "operation input payload")
	cmd.Flags().StringVar(&opts.Output, "output", "", "operation output payload")

	return cmd
}

func runRecord(opts *RecordOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	pol, err := loadPolicy(opts.RootOptions)
	if err != nil {
		return err
	}
	if !pol.Allows(opts.Type) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("operation type %q is not allowed by policy", opts.Type))
	}

	data, err := receipt.ParseValue([]byte(opts.Data))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --data JSON", err)
	}

	store, err := ledger.Open(opts.Database, ledger.WithVerifier(pol.Verifier))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer store.Close()

	r, err := store.Append(ctx,
		receipt.Raw{Type: opts.Type, Payload: data},
		parsePayload(opts.Input),
		parsePayload(opts.Output),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to append receipt", err)
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(r)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Receipt #%d recorded\n", r.ChainIndex)
	fmt.Fprintf(w, "  Type:      %s\n", r.OperationType)
	fmt.Fprintf(w, "  Timestamp: %s\n", r.Datetime)
	fmt.Fprintf(w, "  Hash:      %s\n", r.ReceiptHash)
	fmt.Fprintf(w, "  Previous:  %s\n", r.PreviousHash)
	if opts.Verbose {
		fmt.Fprintf(w, "  Input:     %s\n", r.InputHash)
		fmt.Fprintf(w, "  Output:    %s\n", r.OutputHash)
		fmt.Fprintf(w, "  Data:      %s\n", r.OperationData)
	}
	return nil
}

// parsePayload interprets a payload flag: valid JSON is parsed into its
// structured form, anything else is the literal text.
func parsePayload(s string) receipt.Value {
	if v, err := receipt.ParseValue([]byte(s)); err == nil {
		return v
	}
	return receipt.String(s)
}
