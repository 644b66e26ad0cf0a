// Package testutil provides deterministic doubles for directory tests:
// sequential request IDs, a scriptable record source, and a notice recorder.
package testutil
