package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/roach88/teamdir/internal/roster"
)

func TestCompileMemberQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     roster.Query
		wantWhere string
		wantOrder string
		wantArgs  []any
	}{
		{
			name:      "unfiltered",
			query:     roster.Query{Page: 1, PageSize: 10, SortOrder: roster.Asc},
			wantOrder: " ORDER BY seq ASC",
		},
		{
			name:      "role",
			query:     roster.Query{Role: roster.RoleAgent, SortOrder: roster.Asc},
			wantWhere: " WHERE role = ?",
			wantOrder: " ORDER BY seq ASC",
			wantArgs:  []any{"Agent"},
		},
		{
			name:      "search is trimmed and folded",
			query:     roster.Query{Search: "  JaNe ", SortBy: roster.SortName, SortOrder: roster.Desc},
			wantWhere: " WHERE (instr(fold(name), ?) > 0 OR instr(fold(email), ?) > 0)",
			wantOrder: " ORDER BY name COLLATE LOCALE DESC, seq ASC",
			wantArgs:  []any{"jane", "jane"},
		},
		{
			name:      "blank search is no filter",
			query:     roster.Query{Search: "   ", SortBy: roster.SortRole, SortOrder: roster.Asc},
			wantOrder: " ORDER BY role COLLATE LOCALE ASC, seq ASC",
		},
		{
			name:      "role and search",
			query:     roster.Query{Role: roster.RoleAdmin, Search: "smith", SortOrder: roster.Asc},
			wantWhere: " WHERE role = ? AND (instr(fold(name), ?) > 0 OR instr(fold(email), ?) > 0)",
			wantOrder: " ORDER BY seq ASC",
			wantArgs:  []any{"Admin", "smith", "smith"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mq := compileMemberQuery(tt.query)
			if mq.where != tt.wantWhere {
				t.Errorf("where = %q, want %q", mq.where, tt.wantWhere)
			}
			if mq.order != tt.wantOrder {
				t.Errorf("order = %q, want %q", mq.order, tt.wantOrder)
			}
			if len(mq.args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", mq.args, tt.wantArgs)
			}
			for i := range tt.wantArgs {
				if mq.args[i] != tt.wantArgs[i] {
					t.Errorf("args[%d] = %v, want %v", i, mq.args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestLoad_SQLShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM members WHERE role = ?")).
		WithArgs("Admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, name, email, role, avatar FROM members WHERE role = ? ORDER BY name COLLATE LOCALE ASC, seq ASC LIMIT ? OFFSET ?",
	)).
		WithArgs("Admin", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "avatar"}).
			AddRow("m-3", "Zed", "zed@example.com", "Admin", nil))

	s := New(db)
	page, err := s.Load(context.Background(), roster.Query{
		Page: 2, PageSize: 2, Role: roster.RoleAdmin, SortBy: roster.SortName, SortOrder: roster.Asc,
	})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(page.Members) != 1 || page.Members[0].ID != "m-3" {
		t.Errorf("Members = %+v, want [m-3]", page.Members)
	}
	if page.Info.TotalPages != 2 || page.Info.HasNextPage {
		t.Errorf("Info = %+v, want 2 pages and no next page", page.Info)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSavePreferences_SQLShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO preferences").
		WithArgs("view_mode", "grid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO preferences").
		WithArgs("page_size", "20").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := New(db)
	if err := s.SavePreferences(context.Background(), roster.Preferences{ViewMode: roster.ViewGrid, PageSize: 20}); err != nil {
		t.Fatalf("SavePreferences() failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
