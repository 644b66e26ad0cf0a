package engine

import "github.com/roach88/teamdir/internal/roster"

// Merge reports which branch of Accumulate produced a list.
type Merge string

const (
	// MergeReplace means the incoming page became the whole list.
	MergeReplace Merge = "replace"

	// MergeAppend means unseen incoming records were added after the existing ones.
	MergeAppend Merge = "append"
)

// Accumulate combines the visible list with a freshly loaded page.
//
// Grid view past page 1 with a non-empty list appends; everything else
// replaces. In both branches the result never holds two records with the
// same ID, and the first occurrence wins. Neither input is modified.
func Accumulate(existing, incoming []roster.Member, mode roster.ViewMode, page int) ([]roster.Member, Merge) {
	if mode != roster.ViewGrid || page <= 1 || len(existing) == 0 {
		return replaceMembers(incoming), MergeReplace
	}
	return appendMembers(existing, incoming), MergeAppend
}

func replaceMembers(incoming []roster.Member) []roster.Member {
	return appendMembers(nil, incoming)
}

func appendMembers(existing, incoming []roster.Member) []roster.Member {
	out := make([]roster.Member, 0, len(existing)+len(incoming))
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, list := range [][]roster.Member{existing, incoming} {
		for _, m := range list {
			if _, dup := seen[m.ID]; dup {
				continue
			}
			seen[m.ID] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
