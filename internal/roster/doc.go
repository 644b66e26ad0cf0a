// Package roster defines the team directory data model.
//
// A Member is an immutable directory entry identified by its ID. Query
// describes one paged request (filters, sorting, page window) and Page is
// the answer to it: the members on that page plus derived PageInfo.
//
// The package also owns the pure pieces every record source shares:
//
//   - SanitizeSearch: the only normalization applied to untrusted search input
//   - Apply: the reference filter → sort → slice pipeline
//   - Compare / Fold: locale collation and case folding (golang.org/x/text)
//   - Schema: CUE validation of paged-query responses
//   - Generate: the deterministic demo dataset
package roster
