package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/tecp/internal/receipt"
)

const defaultVerifier = receipt.DefaultVerifier

// notFoundMessage is the structured result for unknown hashes. A missing
// receipt is reported as data, never raised: verification runs over
// untrusted external hash inputs.
const notFoundMessage = "Receipt not found"

// Verify checks a previously issued receipt hash.
//
// Two checks run in order:
//  1. Self-hash: the hash recomputed over the stored body fields must
//     equal the stored receipt hash.
//  2. Chain link: for chain_index > 0, previous_hash must equal the
//     stored receipt hash at chain_index - 1. This catches splicing
//     where a receipt is internally consistent but reinserted out of
//     sequence. Only the immediate predecessor is checked; whole-chain
//     scanning belongs to Stats.
//
// The outcome is logged to the verification audit trail under the given
// verifier identity (the store default when empty). An unknown hash
// returns {Valid: false, Error: "Receipt not found"} without logging,
// since verification rows reference receipt rows.
//
// The returned error is non-nil only for storage failures; tampering is
// reported through VerificationResult.Valid.
func (s *Store) Verify(ctx context.Context, receiptHash, verifier string) (receipt.VerificationResult, error) {
	if verifier == "" {
		verifier = s.verifier
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, chain_index, timestamp, operation_type, operation_data,
		       input_hash, output_hash, previous_hash, receipt_hash
		FROM receipts
		WHERE receipt_hash = ?
	`, receiptHash)

	var rowID int64
	var r receipt.Receipt
	err := row.Scan(
		&rowID, &r.ChainIndex, &r.Timestamp, &r.OperationType, &r.OperationData,
		&r.InputHash, &r.OutputHash, &r.PreviousHash, &r.ReceiptHash,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return receipt.VerificationResult{Valid: false, Error: notFoundMessage}, nil
	case err != nil:
		return receipt.VerificationResult{}, fmt.Errorf("verify receipt: lookup: %w", err)
	}
	r.Datetime = receipt.FormatTimestamp(r.Timestamp)

	computed, err := r.ComputeHash()
	if err != nil {
		return receipt.VerificationResult{}, fmt.Errorf("verify receipt: recompute hash: %w", err)
	}
	valid := computed == receiptHash

	if r.ChainIndex > 0 {
		var predecessorHash string
		err := s.db.QueryRowContext(ctx, `
			SELECT receipt_hash FROM receipts WHERE chain_index = ?
		`, r.ChainIndex-1).Scan(&predecessorHash)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Missing predecessor means the chain was spliced.
			valid = false
		case err != nil:
			return receipt.VerificationResult{}, fmt.Errorf("verify receipt: read predecessor: %w", err)
		case predecessorHash != r.PreviousHash:
			valid = false
		}
	}

	verifiedAt := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (timestamp, receipt_id, verified, verifier)
		VALUES (?, ?, ?, ?)
	`, receipt.EpochSeconds(verifiedAt), rowID, valid, verifier)
	if err != nil {
		return receipt.VerificationResult{}, fmt.Errorf("verify receipt: log verification: %w", err)
	}

	return receipt.VerificationResult{
		Valid:      valid,
		Receipt:    &r,
		VerifiedAt: receipt.FormatTimestamp(receipt.EpochSeconds(verifiedAt)),
	}, nil
}

// Verifications returns the audit trail rows for a receipt hash, oldest
// first. Used for reporting only; chain integrity never depends on it.
func (s *Store) Verifications(ctx context.Context, receiptHash string) ([]receipt.Verification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.timestamp, v.receipt_id, v.verified, v.verifier
		FROM verifications v
		JOIN receipts r ON v.receipt_id = r.id
		WHERE r.receipt_hash = ?
		ORDER BY v.id ASC
	`, receiptHash)
	if err != nil {
		return nil, fmt.Errorf("query verifications: %w", err)
	}
	defer rows.Close()

	var records []receipt.Verification
	for rows.Next() {
		var v receipt.Verification
		if err := rows.Scan(&v.Timestamp, &v.ReceiptID, &v.Verified, &v.Verifier); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}

	if records == nil {
		records = []receipt.Verification{}
	}

	return records, nil
}
