// Package harness runs directory sessions from YAML scenarios and checks
// the result.
//
// # Scenario Format
//
//	name: direct_navigation_backfill
//	description: "Arriving on page 3 of the grid shows pages 1-3"
//	dataset:
//	  size: 10            # roster.Generate(size), or list members:
//	address: "/team-directory?page=3"
//	preferences:
//	  view_mode: grid
//	  page_size: 2
//	steps:
//	  - action: set_page
//	    page: 4
//	assertions:
//	  - type: visible_count
//	    count: 8
//	  - type: no_duplicates
//
// # Actions
//
//   - set_search (search), set_role (role), set_sort (sort_by, sort_order)
//   - set_page (page), set_page_size (page_size), set_view (view)
//   - clear_filters, load, retry
//   - fail_next (message): the next source call fails with message
//
// # Assertion Types
//
//   - visible_count, total_count: count
//   - visible_ids: ids, in order
//   - page: page
//   - loading: loading
//   - error: error ("" asserts no error)
//   - address: address, the full path and query
//   - source_pages: pages, every page requested from the source in order
//   - no_duplicates
//
// # Deterministic Testing
//
// Every scenario runs against a zero-delay source, sequential request IDs
// and an in-memory address, and settles after each step. The trace of a
// scenario is therefore identical across runs and is compared against
// testdata/golden/<name>.golden by RunWithGolden.
package harness
