package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tecp/internal/receipt"
)

// ErrEmptyOperationType is returned when an append carries no
// classification tag. Tags are otherwise free-form.
var ErrEmptyOperationType = errors.New("ledger: operation type must not be empty")

// Append generates and persists the next receipt in the chain.
//
// The operation's input and output payloads are hashed independently;
// the operation summary is serialized into the stored operation_data
// column and hashed only as part of the receipt body. The new receipt
// chains against the current tail: previous_hash is the tail's receipt
// hash (or the genesis sentinel for an empty ledger) and chain_index is
// the tail's index plus one.
//
// Read-tail and insert run under the store mutex inside one transaction,
// so concurrent appends are assigned gapless, strictly increasing chain
// indexes. Any storage failure propagates - there is no partial-receipt
// state to recover from.
func (s *Store) Append(ctx context.Context, op receipt.Operation, input, output receipt.Value) (receipt.Receipt, error) {
	if op.OperationType() == "" {
		return receipt.Receipt{}, ErrEmptyOperationType
	}

	operationData, err := receipt.CanonicalString(op.Data())
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: serialize operation data: %w", err)
	}

	inputHash, err := receipt.PayloadHash(input)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: hash input: %w", err)
	}

	outputHash, err := receipt.PayloadHash(output)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: hash output: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Read the chain tail: previous hash and next index as one atomic
	// observation with the insert below.
	chainIndex, previousHash, err := readTail(ctx, tx)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: read tail: %w", err)
	}

	r := receipt.Receipt{
		ChainIndex:    chainIndex,
		Timestamp:     receipt.EpochSeconds(s.now()),
		OperationType: op.OperationType(),
		OperationData: operationData,
		InputHash:     inputHash,
		OutputHash:    outputHash,
		PreviousHash:  previousHash,
	}

	r.ReceiptHash, err = r.ComputeHash()
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: compute hash: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts
		(chain_index, timestamp, operation_type, operation_data, input_hash, output_hash, previous_hash, receipt_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ChainIndex,
		r.Timestamp,
		r.OperationType,
		r.OperationData,
		r.InputHash,
		r.OutputHash,
		r.PreviousHash,
		r.ReceiptHash,
	)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return receipt.Receipt{}, fmt.Errorf("append receipt: commit: %w", err)
	}

	r.Datetime = receipt.FormatTimestamp(r.Timestamp)
	return r, nil
}

// readTail returns the next chain index and the hash to chain against:
// the most recent receipt's hash, or the genesis sentinel when empty.
func readTail(ctx context.Context, tx *sql.Tx) (int64, string, error) {
	var lastIndex int64
	var lastHash string
	err := tx.QueryRowContext(ctx, `
		SELECT chain_index, receipt_hash
		FROM receipts
		ORDER BY chain_index DESC
		LIMIT 1
	`).Scan(&lastIndex, &lastHash)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, receipt.GenesisHash, nil
	case err != nil:
		return 0, "", err
	default:
		return lastIndex + 1, lastHash, nil
	}
}
