package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultWith(final Snapshot, pages ...int) *Result {
	r := NewResult()
	r.Trace = append(r.Trace, TraceEvent{State: final})
	r.Pages = pages
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	r := resultWith(Snapshot{
		Address: "/team-directory?page=2",
		Visible: []string{"a", "b"},
		Total:   7,
		Page:    2,
	}, 1, 2)

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertVisibleCount, Count: 2},
		{Type: AssertVisibleIDs, IDs: []string{"a", "b"}},
		{Type: AssertTotalCount, Count: 7},
		{Type: AssertPage, Page: 2},
		{Type: AssertLoading, Loading: false},
		{Type: AssertError, Error: ""},
		{Type: AssertAddress, Address: "/team-directory?page=2"},
		{Type: AssertSourcePages, Pages: []int{1, 2}},
		{Type: AssertNoDuplicates},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_EmptyListsMatch(t *testing.T) {
	r := resultWith(Snapshot{})
	errs := EvaluateAssertions(r, []Assertion{{Type: AssertVisibleIDs}})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	r := resultWith(Snapshot{Visible: []string{"a", "b", "a"}, Error: "down", Loading: true}, 1)

	tests := []struct {
		name      string
		assertion Assertion
		want      []string
	}{
		{"ids", Assertion{Type: AssertVisibleIDs, IDs: []string{"a"}}, []string{"visible_ids", "Diff"}},
		{"pages", Assertion{Type: AssertSourcePages, Pages: []int{1, 2}}, []string{"source_pages", "[1 2]"}},
		{"duplicates", Assertion{Type: AssertNoDuplicates}, []string{"duplicates a"}},
		{"error", Assertion{Type: AssertError}, []string{`""`, `"down"`}},
		{"loading", Assertion{Type: AssertLoading}, []string{"Expected: false", "Actual: true"}},
		{"unknown", Assertion{Type: "vibes"}, []string{`unknown assertion type "vibes"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(r, []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			for _, w := range tt.want {
				assert.Contains(t, errs[0], w)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{Type: "page", Expected: "2", Actual: "1"}
	assert.Equal(t, "Assertion failed: page\n  Expected: 2\n  Actual: 1\n", err.Error())
}
