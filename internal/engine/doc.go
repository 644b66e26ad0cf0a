// Package engine implements the directory query state engine.
//
// The engine owns one session's query state and keeps the visible member
// list consistent with it while loads complete out of order.
//
// ARCHITECTURE:
//
// Container:
// The single owner of State. Every mutation is a declared method that
// applies its reset rules (page back to 1, list cleared, loading set)
// atomically under one lock. Subscribers get a coalesced signal after each
// mutation and re-read the snapshot.
//
// Controller:
// Turns the state into source loads. Run() issues a load whenever a
// mutation invalidates the last one, merges results through Accumulate,
// and records failures in State.Error. An error halts automatic loading
// until Retry().
//
// Backfill:
// Arriving at page N > 1 of the grid with nothing accumulated starts a
// chain that loads pages 1..N strictly in order. Loads for the same query
// are suppressed while the chain runs.
//
// CRITICAL PATTERNS:
//
// Epochs:
// Each load is tagged with an epoch from Clock.Next(). Mutations that change
// what should be on screen advance the container's expected epoch; a result
// carrying any other epoch is discarded, so a late response for an old
// query can never overwrite a newer one.
//
// Accumulation:
// Table view replaces the list with each page. Grid view appends past
// page 1, skipping IDs already visible. The list never holds a duplicate ID.
package engine
