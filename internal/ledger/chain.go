package ledger

import (
	"context"
	"fmt"

	"github.com/roach88/tecp/internal/receipt"
)

// Chain returns up to count receipt summaries with chain_index >=
// startIndex, ascending. The page carries enough (index, hashes, type,
// timestamp) for external re-verification of the linkage without the
// full operation payloads. Callers page by advancing startIndex past the
// last summary returned; with no intervening writes, identical calls
// return identical pages.
//
// Returns an empty slice (not nil) when the range holds no receipts.
func (s *Store) Chain(ctx context.Context, startIndex, count int64) ([]receipt.Summary, error) {
	if count < 0 {
		return nil, fmt.Errorf("chain: count must be non-negative, got %d", count)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chain_index, timestamp, operation_type, receipt_hash, previous_hash
		FROM receipts
		WHERE chain_index >= ?
		ORDER BY chain_index ASC
		LIMIT ?
	`, startIndex, count)
	if err != nil {
		return nil, fmt.Errorf("query chain: %w", err)
	}
	defer rows.Close()

	var summaries []receipt.Summary
	for rows.Next() {
		var sum receipt.Summary
		if err := rows.Scan(
			&sum.ChainIndex, &sum.Timestamp, &sum.OperationType,
			&sum.ReceiptHash, &sum.PreviousHash,
		); err != nil {
			return nil, fmt.Errorf("scan chain entry: %w", err)
		}
		sum.Datetime = receipt.FormatTimestamp(sum.Timestamp)
		summaries = append(summaries, sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain: %w", err)
	}

	if summaries == nil {
		summaries = []receipt.Summary{}
	}

	return summaries, nil
}

// Receipt retrieves a full receipt by chain index.
// Returns sql.ErrNoRows wrapped if not found.
func (s *Store) Receipt(ctx context.Context, chainIndex int64) (receipt.Receipt, error) {
	var r receipt.Receipt
	err := s.db.QueryRowContext(ctx, `
		SELECT chain_index, timestamp, operation_type, operation_data,
		       input_hash, output_hash, previous_hash, receipt_hash
		FROM receipts
		WHERE chain_index = ?
	`, chainIndex).Scan(
		&r.ChainIndex, &r.Timestamp, &r.OperationType, &r.OperationData,
		&r.InputHash, &r.OutputHash, &r.PreviousHash, &r.ReceiptHash,
	)
	if err != nil {
		return receipt.Receipt{}, fmt.Errorf("read receipt %d: %w", chainIndex, err)
	}
	r.Datetime = receipt.FormatTimestamp(r.Timestamp)
	return r, nil
}
