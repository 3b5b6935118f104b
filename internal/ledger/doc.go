// Package ledger provides the SQLite-backed TECP receipt store.
//
// The store implements an append-only, hash-chained ledger with:
//   - Receipts: immutable operation records linked by receipt hash
//   - Verifications: an audit trail of verification attempts
//
// # Critical patterns
//
// Append serialization: chain-index assignment and previous-hash capture
// are a check-then-act sequence. Append holds the store mutex and runs
// "read tail, compute next index, insert" inside a single transaction,
// with a UNIQUE constraint on chain_index as the storage-level backstop.
// Two concurrent appends can therefore never claim the same index or
// chain from the same stale tail.
//
// Append-only: no update or delete operation exists. Readers never
// coordinate with each other; only writers exclude each other.
//
// Verification degrades: Verify reports tampering as data (valid=false,
// integrity < 100), never as an error, so audit tooling can walk an
// entire damaged chain. Storage failures during Append are fatal and
// propagate - a partially written receipt would corrupt the next link.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: verifications reference receipt rows
//
// All hashes are computed via functions in internal/receipt using
// canonical JSON and domain-separated SHA-256.
package ledger
