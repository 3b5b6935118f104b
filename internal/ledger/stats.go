package ledger

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/tecp/internal/receipt"
)

// Stats summarizes the ledger: receipt count, successful verification
// count (from the audit trail, not recomputed), receipts by operation
// type, and the chain integrity percentage.
func (s *Store) Stats(ctx context.Context) (receipt.Stats, error) {
	stats := receipt.Stats{ByOperationType: map[string]int64{}}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM receipts`,
	).Scan(&stats.TotalReceipts)
	if err != nil {
		return receipt.Stats{}, fmt.Errorf("count receipts: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM verifications WHERE verified = 1`,
	).Scan(&stats.VerifiedOperations)
	if err != nil {
		return receipt.Stats{}, fmt.Errorf("count verifications: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT operation_type, COUNT(*)
		FROM receipts
		GROUP BY operation_type
	`)
	if err != nil {
		return receipt.Stats{}, fmt.Errorf("count by operation type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opType string
		var count int64
		if err := rows.Scan(&opType, &count); err != nil {
			return receipt.Stats{}, fmt.Errorf("scan operation type count: %w", err)
		}
		stats.ByOperationType[opType] = count
	}
	if err := rows.Err(); err != nil {
		return receipt.Stats{}, fmt.Errorf("iterate operation type counts: %w", err)
	}

	stats.ChainIntegrity, err = s.chainIntegrity(ctx)
	if err != nil {
		return receipt.Stats{}, err
	}

	return stats, nil
}

// chainIntegrity walks all receipts in ascending chain order and counts
// intact links: adjacent pairs where previous_hash matches the
// predecessor's receipt_hash. Returns valid_links / (total-1) * 100
// rounded to 2 decimals; 100.0 for 0 or 1 receipts (no links to break).
//
// This is a full linear scan. The ledger is human-interaction scale, so
// the scan stays cheap; it is deliberately separate from the per-receipt
// link check in Verify (different audit granularities).
func (s *Store) chainIntegrity(ctx context.Context) (float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT receipt_hash, previous_hash
		FROM receipts
		ORDER BY chain_index ASC
	`)
	if err != nil {
		return 0, fmt.Errorf("query chain integrity: %w", err)
	}
	defer rows.Close()

	var total, validLinks int64
	var lastHash string
	for rows.Next() {
		var receiptHash, previousHash string
		if err := rows.Scan(&receiptHash, &previousHash); err != nil {
			return 0, fmt.Errorf("scan chain integrity row: %w", err)
		}
		if total > 0 && previousHash == lastHash {
			validLinks++
		}
		lastHash = receiptHash
		total++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate chain integrity rows: %w", err)
	}

	if total <= 1 {
		return 100.0, nil
	}

	integrity := float64(validLinks) / float64(total-1) * 100
	return math.Round(integrity*100) / 100, nil
}
