package roster

import (
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collate.Collator keeps scratch buffers and is not safe for concurrent use.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English)
)

// Compare orders a and b by English locale collation. It returns a negative
// number, zero or a positive number like strings.Compare.
func Compare(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// Fold returns the case-folded form of s for case-insensitive matching.
func Fold(s string) string {
	return cases.Fold().String(s)
}
