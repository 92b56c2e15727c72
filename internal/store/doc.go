// Package store provides SQLite-backed durable storage for replay runs.
//
// Each run records one replayed path: the scenario it came from, the path's
// events, the verdict and the full replay trace. Runs are append-only.
//
// # Ordering
//
// Every run carries a seq assigned by the store on insert. All queries order
// by seq ASC, id ASC COLLATE BINARY, and trace steps by their own seq, so a
// listing is identical however often it is read. Wall-clock time is never
// stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
