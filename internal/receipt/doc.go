// Package receipt defines the TECP receipt data model and its cryptographic
// identity functions.
//
// A receipt is one immutable, hash-chained record of a single operation.
// Receipts are self-certifying: the receipt hash is computed over the full
// receipt body (timestamp, operation type, operation data, input/output
// hashes, previous hash, chain index), and each receipt chains against its
// predecessor via previous_hash. The first receipt chains against the
// all-zero genesis sentinel.
//
// Payloads are modeled with a sealed Value type and serialized with
// canonical JSON before hashing:
//   - Object keys sorted by UTF-16 code units
//   - No HTML escaping (< > & are NOT escaped)
//   - Strings NFC normalized
//   - Floats in shortest fixed notation (NaN/Inf rejected)
//
// Unlike ordering-critical event logs, receipts carry a wall-clock
// timestamp in the hashed body, so the canonical form admits floats. The
// chain order itself never depends on timestamps - only on chain_index.
//
// All hashes are domain-separated SHA-256 hex digests computed via
// functions in hash.go.
package receipt
