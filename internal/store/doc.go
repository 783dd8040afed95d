// Package store provides SQLite-backed history of lifetime computations.
//
// Every run is one row in runs plus one row per fitted distance in
// run_points. Run ids are UUIDv7, so ordering by id is ordering by creation
// time; all queries order by id ASC COLLATE BINARY.
//
// A run carries the content hash of the dataset it was computed from, so
// runs over identical measurements can be found regardless of label.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
