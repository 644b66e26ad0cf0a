package store

import (
	"context"
	"fmt"

	"github.com/roach88/teamdir/internal/roster"
)

// SeedMembers replaces the stored roster with members, in order. The
// position in the slice becomes the member's seq. Seeding the same slice
// twice leaves the same table.
func (s *Store) SeedMembers(ctx context.Context, members []roster.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM members"); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO members (id, seq, name, email, role, avatar)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range members {
		if !m.Role.Valid() {
			return fmt.Errorf("member %s: invalid role %q", m.ID, m.Role)
		}
		var avatar any
		if m.Avatar != nil {
			avatar = *m.Avatar
		}
		if _, err := stmt.ExecContext(ctx, m.ID, i+1, m.Name, m.Email, string(m.Role), avatar); err != nil {
			return fmt.Errorf("insert member %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}
