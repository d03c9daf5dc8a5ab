// Package store is the SQLite-backed ledger of generated command documents.
//
// Every document the CLI writes with --record is appended once:
//   - generations: one row per distinct document, keyed by document_hash
//   - generation_commands: the command ids and targets of each document
//
// # Invariants
//
// Content identity: document_hash is the domain-separated SHA-256 of the
// canonical JSON document. Recording the same document twice is a no-op.
//
// Deterministic reads: every query orders by seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
