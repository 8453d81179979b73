// Package store provides the SQLite-backed attempt ledger.
//
// The result table keeps only the accepted record of each task. The ledger
// keeps everything: one row per run and one row per feedback-loop attempt,
// including the attempts that were refined away.
//
// # Identity and ordering
//
//   - Attempt IDs are content-addressed via ir.AttemptID(run, task, iteration)
//   - UNIQUE(run_id, property, version, iteration) makes re-recording a no-op
//   - Attempts are ordered by seq (logical clock), then id, never by wall time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Indexes are added by numbered migrations tracked in PRAGMA user_version.
// A ledger with a higher version than this build knows is refused.
package store
