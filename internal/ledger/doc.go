// Package ledger persists completed inference facts in SQLite.
//
// The ledger is append-only: one row per (identifier, event-class) pass, with
// the processing timestamp and asset title. Rows are never mutated or deleted
// by the pipeline; re-running inference appends again. A Snapshot is read once
// before reconciliation and is intentionally not refreshed by appends made
// during the same run.
//
// Event-class codes 60 and 58 are reserved for the two built-in classes. CSV
// export and import keep the store interchangeable with the legacy
// inference_log.csv layout.
package ledger
