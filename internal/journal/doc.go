// Package journal provides the SQLite-backed normalization journal.
//
// The journal is an append-only provenance log that doubles as a
// result cache:
//   - Runs: one row per session, keyed by a UUIDv7 token
//   - Records: one row per normalization outcome, content-addressed
//
// # Critical Patterns
//
// Content-Addressed Identity
//   - Record IDs hash what happened (input, output, restarts,
//     convergence, firings) via RFC 8785 canonical JSON with domain
//     separation (internal/canon)
//   - The run token is excluded from the ID, so identical outcomes
//     across sessions collapse into one row
//
// Logical Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - UUIDv7 run tokens carry session recency on their own
//
// Deterministic Query Results
//   - All queries order by seq, then id COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: every record belongs to a run
package journal
