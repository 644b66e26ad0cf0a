package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Diff     string // cmp.Diff output for list assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-expected +actual):\n%s", e.Diff)
	}
	return buf.String()
}

func mismatch(typ string, expected, actual any) *AssertionError {
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprint(expected),
		Actual:   fmt.Sprint(actual),
	}
}

// EvaluateAssertions checks assertions against the final snapshot of
// result. Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	final := result.Final()
	var errors []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertVisibleCount:
			if len(final.Visible) != a.Count {
				err = mismatch(a.Type, a.Count, len(final.Visible))
			}
		case AssertVisibleIDs:
			err = assertList(a.Type, a.IDs, final.Visible)
		case AssertTotalCount:
			if final.Total != a.Count {
				err = mismatch(a.Type, a.Count, final.Total)
			}
		case AssertPage:
			if final.Page != a.Page {
				err = mismatch(a.Type, a.Page, final.Page)
			}
		case AssertLoading:
			if final.Loading != a.Loading {
				err = mismatch(a.Type, a.Loading, final.Loading)
			}
		case AssertError:
			if final.Error != a.Error {
				err = mismatch(a.Type, fmt.Sprintf("%q", a.Error), fmt.Sprintf("%q", final.Error))
			}
		case AssertAddress:
			if final.Address != a.Address {
				err = mismatch(a.Type, a.Address, final.Address)
			}
		case AssertSourcePages:
			err = assertList(a.Type, a.Pages, result.Pages)
		case AssertNoDuplicates:
			err = assertNoDuplicates(final.Visible)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func assertList[T comparable](typ string, expected, actual []T) error {
	if expected == nil {
		expected = []T{}
	}
	if actual == nil {
		actual = []T{}
	}
	if diff := cmp.Diff(expected, actual); diff != "" {
		e := mismatch(typ, expected, actual)
		e.Diff = diff
		return e
	}
	return nil
}

func assertNoDuplicates(ids []string) error {
	seen := make(map[string]bool, len(ids))
	var dups []string
	for _, id := range ids {
		if seen[id] {
			dups = append(dups, id)
		}
		seen[id] = true
	}
	if len(dups) > 0 {
		return mismatch(AssertNoDuplicates, "unique ids", "duplicates "+strings.Join(dups, ", "))
	}
	return nil
}
