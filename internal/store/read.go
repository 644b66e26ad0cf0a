package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/teamdir/internal/roster"
)

// Load returns one page of members matching q. It implements source.Source,
// applying the same filter, sort and paging rules as the simulated source.
//
// Returns an empty (non-nil) member slice when the page is past the end.
func (s *Store) Load(ctx context.Context, q roster.Query) (roster.Page, error) {
	if err := q.Validate(); err != nil {
		return roster.Page{}, err
	}
	mq := compileMemberQuery(q)

	var total int
	if err := s.db.QueryRowContext(ctx, mq.countSQL(), mq.args...).Scan(&total); err != nil {
		return roster.Page{}, fmt.Errorf("count members: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, mq.selectSQL(), mq.pageArgs(q.Page, q.PageSize)...)
	if err != nil {
		return roster.Page{}, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := []roster.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return roster.Page{}, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return roster.Page{}, fmt.Errorf("iterate members: %w", err)
	}

	return roster.Page{
		Members: members,
		Info:    roster.NewPageInfo(q.Page, q.PageSize, total),
	}, nil
}

// CountMembers returns the number of stored members.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// scanMember reads one row selected with memberColumns.
func scanMember(rows *sql.Rows) (roster.Member, error) {
	var (
		m      roster.Member
		role   string
		avatar sql.NullString
	)
	if err := rows.Scan(&m.ID, &m.Name, &m.Email, &role, &avatar); err != nil {
		return roster.Member{}, fmt.Errorf("scan member: %w", err)
	}
	m.Role = roster.Role(role)
	if avatar.Valid {
		m.Avatar = &avatar.String
	}
	return m, nil
}
