package receipt

import (
	"math"
	"time"
)

// Receipt is one immutable, hash-chained record of a single operation.
type Receipt struct {
	ChainIndex    int64   `json:"chain_index"`
	Timestamp     float64 `json:"timestamp"`          // epoch seconds, wall clock
	Datetime      string  `json:"datetime,omitempty"` // derived ISO-8601 rendering, never hashed
	OperationType string  `json:"operation_type"`
	OperationData string  `json:"operation_data"` // serialized operation summary
	InputHash     string  `json:"input_hash"`
	OutputHash    string  `json:"output_hash"`
	PreviousHash  string  `json:"previous_hash"`
	ReceiptHash   string  `json:"receipt_hash"`
}

// Body builds the hashed receipt body. ReceiptHash and the derived
// Datetime are excluded: the hash must be recomputable from the stored
// columns alone.
func (r Receipt) Body() Object {
	return Object{
		"chain_index":    Int(r.ChainIndex),
		"timestamp":      Float(r.Timestamp),
		"operation_type": String(r.OperationType),
		"operation_data": String(r.OperationData),
		"input_hash":     String(r.InputHash),
		"output_hash":    String(r.OutputHash),
		"previous_hash":  String(r.PreviousHash),
	}
}

// ComputeHash recomputes the receipt hash from the body fields.
// A stored receipt is self-consistent iff this equals ReceiptHash.
func (r Receipt) ComputeHash() (string, error) {
	return BodyHash(r.Body())
}

// Summary is the chain-page projection of a receipt: enough for external
// re-verification of the linkage without the full operation payload.
type Summary struct {
	ChainIndex    int64   `json:"chain_index"`
	Timestamp     float64 `json:"timestamp"`
	Datetime      string  `json:"datetime"`
	OperationType string  `json:"operation_type"`
	ReceiptHash   string  `json:"receipt_hash"`
	PreviousHash  string  `json:"previous_hash"`
}

// VerificationResult is the outcome of verifying a single receipt.
// Tampering surfaces as Valid=false, never as an error: verification runs
// over untrusted hash inputs and must log-and-continue.
type VerificationResult struct {
	Valid      bool     `json:"valid"`
	Receipt    *Receipt `json:"receipt,omitempty"`
	VerifiedAt string   `json:"verified_at,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Verification is one row of the verification audit trail.
type Verification struct {
	Timestamp float64 `json:"timestamp"`
	ReceiptID int64   `json:"receipt_id"`
	Verified  bool    `json:"verified"`
	Verifier  string  `json:"verifier"`
}

// DefaultVerifier is the identity recorded when no verifier is supplied.
const DefaultVerifier = "system"

// Stats is the ledger summary returned by the store.
type Stats struct {
	TotalReceipts      int64            `json:"total_receipts"`
	VerifiedOperations int64            `json:"verified_operations"`
	ByOperationType    map[string]int64 `json:"by_operation_type"`
	ChainIntegrity     float64          `json:"chain_integrity"`
}

// EpochSeconds converts a time to the float seconds representation stored
// in the ledger. Microsecond precision; SQLite REAL holds the resulting
// IEEE double exactly, so hashes recompute bit-stably.
func EpochSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// FormatTimestamp renders stored epoch seconds as ISO-8601 UTC.
func FormatTimestamp(ts float64) string {
	micros := int64(math.Round(ts * 1e6))
	return time.UnixMicro(micros).UTC().Format(time.RFC3339Nano)
}
