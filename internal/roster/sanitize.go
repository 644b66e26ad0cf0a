package roster

import "strings"

// MaxSearchLength bounds a stored search term, in runes.
const MaxSearchLength = 100

var forbiddenSearchChars = strings.NewReplacer(
	"<", "",
	">", "",
	`"`, "",
	"'", "",
	"&", "",
)

// SanitizeSearch strips the characters < > " ' &, trims surrounding
// whitespace and truncates the result to max runes. A max <= 0 falls back
// to MaxSearchLength.
func SanitizeSearch(term string, max int) string {
	if max <= 0 {
		max = MaxSearchLength
	}
	s := strings.TrimSpace(forbiddenSearchChars.Replace(term))
	if r := []rune(s); len(r) > max {
		s = string(r[:max])
	}
	return s
}
