package store

import (
	"strings"

	"github.com/roach88/teamdir/internal/roster"
)

// memberColumns is the column list every member query selects, in scan order.
const memberColumns = "id, name, email, role, avatar"

// memberQuery is a compiled roster.Query.
//
// CRITICAL: every ORDER BY ends with seq ASC so equal sort keys keep dataset
// order in both directions.
// CRITICAL: all values are parameterized, never interpolated.
type memberQuery struct {
	where string // "" or " WHERE ..."
	order string
	args  []any
}

// compileMemberQuery translates the filter and sort of q to SQL. Paging is
// appended by selectSQL.
func compileMemberQuery(q roster.Query) memberQuery {
	var (
		conds []string
		args  []any
	)
	if q.Role != roster.NoRole {
		conds = append(conds, "role = ?")
		args = append(args, string(q.Role))
	}
	if term := roster.Fold(strings.TrimSpace(q.Search)); term != "" {
		conds = append(conds, "(instr(fold(name), ?) > 0 OR instr(fold(email), ?) > 0)")
		args = append(args, term, term)
	}

	mq := memberQuery{args: args, order: orderBy(q.SortBy, q.SortOrder)}
	if len(conds) > 0 {
		mq.where = " WHERE " + strings.Join(conds, " AND ")
	}
	return mq
}

// orderBy returns the ORDER BY clause for a sort.
func orderBy(field roster.SortField, order roster.SortOrder) string {
	var column string
	switch field {
	case roster.SortName:
		column = "name"
	case roster.SortRole:
		column = "role"
	default:
		return " ORDER BY seq ASC"
	}
	dir := "ASC"
	if order == roster.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + column + " COLLATE LOCALE " + dir + ", seq ASC"
}

// countSQL returns the statement counting the filtered set.
func (mq memberQuery) countSQL() string {
	return "SELECT COUNT(*) FROM members" + mq.where
}

// selectSQL returns the statement for one page. Its arguments are
// mq.args followed by LIMIT and OFFSET.
func (mq memberQuery) selectSQL() string {
	return "SELECT " + memberColumns + " FROM members" + mq.where + mq.order + " LIMIT ? OFFSET ?"
}

// pageArgs returns the arguments for selectSQL.
func (mq memberQuery) pageArgs(page, pageSize int) []any {
	args := make([]any, 0, len(mq.args)+2)
	args = append(args, mq.args...)
	return append(args, pageSize, (page-1)*pageSize)
}
