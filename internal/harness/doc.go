// Package harness provides a scenario-driven audit framework for the
// receipt ledger.
//
// A scenario is a YAML file that records a sequence of operations into a
// fresh ledger, optionally tampers with stored rows to simulate an
// attacker, verifies receipts, and asserts on the resulting chain.
// Scenarios run against an in-memory SQLite database with a
// deterministic clock, so the full chain of receipt hashes is
// reproducible and can be compared against golden files.
package harness
