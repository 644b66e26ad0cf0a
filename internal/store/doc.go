// Package store provides SQLite-backed storage for the directory server and
// for session preferences.
//
// The store holds:
//   - Members: the roster served by the paged-query endpoint
//   - Preferences: view mode and page size carried across sessions
//
// # Critical Patterns
//
// Deterministic Listing:
//   - Every member query ends with "seq ASC" as its final ORDER BY key
//   - seq is the member's position in the seeded dataset, so unsorted
//     listings and ties under a sort keep dataset order
//
// Locale Collation:
//   - Connections are opened through a driver that registers a LOCALE
//     collation and a fold() function backed by the roster package
//   - Server-side sorting and search therefore agree with the simulated
//     source record for record
//
// Parameterized SQL:
//   - Filter values are always bound, never interpolated
//   - Search uses instr() on folded text, so % and _ in a term are literal
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
