// Package urlsync keeps a directory session and its address query string
// in step.
//
// The protocol has two phases that never overlap:
//
//   - Hydrate reads role, search and page from the address exactly once,
//     discards invalid values (rewriting the address without them) and
//     applies the rest to the engine.Container.
//   - Externalize mirrors the container back into the address. It refuses
//     to run before Hydrate has completed, so the address is never
//     overwritten with defaults during start-up.
//
// Run drives Externalize from the container's change signal. The signal
// channel holds at most one pending wake-up and Externalize always encodes
// the current snapshot, so bursts of changes collapse into one replace.
package urlsync
