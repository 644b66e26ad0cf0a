package roster

import (
	"slices"
	"strings"
)

// Apply runs the reference pipeline over an in-memory dataset: filter by
// role and search term, sort, then slice out the requested page. The input
// slice is not modified.
func Apply(members []Member, q Query) Page {
	filtered := Filter(members, q.Role, q.Search)
	Sort(filtered, q.SortBy, q.SortOrder)
	return Paginate(filtered, q.Page, q.PageSize)
}

// Filter returns the members matching role (exact, NoRole matches all) AND
// search (trimmed, case-insensitive substring of name or email; blank
// matches all). The result is a new slice.
func Filter(members []Member, role Role, search string) []Member {
	needle := Fold(strings.TrimSpace(search))
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if role != NoRole && m.Role != role {
			continue
		}
		if needle != "" &&
			!strings.Contains(Fold(m.Name), needle) &&
			!strings.Contains(Fold(m.Email), needle) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Sort orders members in place by field using locale collation. NoSort
// leaves the slice untouched. The sort is stable.
func Sort(members []Member, field SortField, order SortOrder) {
	if field == NoSort {
		return
	}
	key := func(m Member) string {
		if field == SortRole {
			return string(m.Role)
		}
		return m.Name
	}
	slices.SortStableFunc(members, func(a, b Member) int {
		c := Compare(key(a), key(b))
		if order == Desc {
			return -c
		}
		return c
	})
}

// Paginate slices page (1-based) of size pageSize out of members.
func Paginate(members []Member, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	start := len(members)
	if len(members) > 0 && page-1 <= (len(members)-1)/pageSize {
		start = (page - 1) * pageSize
	}
	end := start + min(pageSize, len(members)-start)

	out := make([]Member, end-start)
	copy(out, members[start:end])
	return Page{
		Members: out,
		Info:    NewPageInfo(page, pageSize, len(members)),
	}
}
