package urlsync

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/teamdir/internal/engine"
	"github.com/roach88/teamdir/internal/roster"
)

// Address query parameters owned by the syncer. Other parameters are left
// untouched.
const (
	ParamRole   = "role"
	ParamSearch = "search"
	ParamPage   = "page"
)

// Encode returns the address parameters for s: role if one is selected,
// the trimmed search term if non-empty, and the page if greater than 1.
func Encode(s engine.State) url.Values {
	v := url.Values{}
	if s.SelectedRole != "" {
		v.Set(ParamRole, string(s.SelectedRole))
	}
	if term := strings.TrimSpace(s.SearchTerm); term != "" {
		v.Set(ParamSearch, term)
	}
	if s.CurrentPage > 1 {
		v.Set(ParamPage, strconv.Itoa(s.CurrentPage))
	}
	return v
}

// merge overlays the owned parameters of s on current.
func merge(current url.Values, s engine.State) url.Values {
	out := url.Values{}
	for k, vs := range current {
		switch k {
		case ParamRole, ParamSearch, ParamPage:
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	for k, vs := range Encode(s) {
		out[k] = vs
	}
	return out
}

// parsePage accepts base-10 integers greater than zero whose page window
// fits in an int at pageSize.
func parsePage(raw string, pageSize int) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || !roster.PageInRange(n, pageSize) {
		return 0, false
	}
	return n, true
}
