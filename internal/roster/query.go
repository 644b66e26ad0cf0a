package roster

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPageSize is the page size of a fresh session.
const DefaultPageSize = 10

// SortField names the member field a query sorts by.
type SortField string

const (
	// NoSort leaves members in source order.
	NoSort   SortField = ""
	SortName SortField = "name"
	SortRole SortField = "role"
)

// Valid reports whether f names a sortable field. NoSort is not a field.
func (f SortField) Valid() bool {
	return f == SortName || f == SortRole
}

// ParseSortField accepts "", "name" and "role".
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case NoSort, SortName, SortRole:
		return f, nil
	}
	return NoSort, fmt.Errorf("invalid sort field %q: must be name or role", s)
}

// SortOrder is the direction of a sort. It is retained even when the sort
// field is NoSort.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Valid reports whether o is Asc or Desc.
func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// ParseSortOrder accepts "asc" and "desc". The empty string means Asc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return Asc, nil
	case Asc, Desc:
		return o, nil
	}
	return Asc, fmt.Errorf("invalid sort order %q: must be asc or desc", s)
}

// ViewMode selects how loaded pages are accumulated.
type ViewMode string

const (
	// ViewTable replaces the visible list with every loaded page.
	ViewTable ViewMode = "table"
	// ViewGrid appends loaded pages to the visible list ("load more").
	ViewGrid ViewMode = "grid"
)

// Valid reports whether v is a known view mode.
func (v ViewMode) Valid() bool {
	return v == ViewTable || v == ViewGrid
}

// ParseViewMode accepts "table" and "grid".
func ParseViewMode(s string) (ViewMode, error) {
	switch v := ViewMode(s); v {
	case ViewTable, ViewGrid:
		return v, nil
	}
	return ViewTable, fmt.Errorf("invalid view mode %q: must be table or grid", s)
}

// Query is one paged request against a record source.
type Query struct {
	Page      int       `json:"page"`
	PageSize  int       `json:"limit"`
	Role      Role      `json:"role,omitempty"`
	Search    string    `json:"search,omitempty"`
	SortBy    SortField `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder"`
}

// ErrInvalidQuery is wrapped by every Query.Validate failure.
var ErrInvalidQuery = errors.New("invalid query")

// Validate checks the query window and enumerations.
func (q Query) Validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidQuery, q.Page)
	}
	if q.PageSize < 1 {
		return fmt.Errorf("%w: page size must be >= 1, got %d", ErrInvalidQuery, q.PageSize)
	}
	if !PageInRange(q.Page, q.PageSize) {
		return fmt.Errorf("%w: page %d out of range for page size %d", ErrInvalidQuery, q.Page, q.PageSize)
	}
	if q.Role != NoRole && !q.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidQuery, q.Role)
	}
	if _, err := ParseSortField(string(q.SortBy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if !q.SortOrder.Valid() {
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidQuery, q.SortOrder)
	}
	return nil
}

// PageInRange reports whether page is a positive page number whose window
// of pageSize records can be addressed without int overflow.
func PageInRange(page, pageSize int) bool {
	return page >= 1 && pageSize >= 1 && page <= math.MaxInt/pageSize
}

// WithPage returns a copy of q targeting page.
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// PageInfo describes where a loaded page sits in the filtered result set.
// It is derived by NewPageInfo, never assembled by hand.
type PageInfo struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalCount  int  `json:"totalCount"`
	HasNextPage bool `json:"hasNextPage"`
}

// NewPageInfo derives page metadata for page of size pageSize over
// totalCount filtered members.
func NewPageInfo(page, pageSize, totalCount int) PageInfo {
	totalPages := 0
	if pageSize > 0 {
		totalPages = totalCount / pageSize
		if totalCount%pageSize != 0 {
			totalPages++
		}
	}
	return PageInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasNextPage: page < totalPages,
	}
}

// Page is the result of loading a Query.
type Page struct {
	Members []Member `json:"data"`
	Info    PageInfo `json:"pagination"`
}

// Preferences is the part of a session that survives restarts.
type Preferences struct {
	ViewMode ViewMode `json:"viewMode"`
	PageSize int      `json:"pageSize"`
}

// DefaultPreferences returns the preferences of a first session.
func DefaultPreferences() Preferences {
	return Preferences{ViewMode: ViewTable, PageSize: DefaultPageSize}
}
