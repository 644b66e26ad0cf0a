package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/teamdir/internal/roster"
)

func parityDataset() []roster.Member {
	members := roster.Generate(30)
	extra := []roster.Member{
		{ID: "x-1", Name: "émile Zola", Email: "emile@example.com", Role: roster.RoleCreator},
		{ID: "x-2", Name: "Ángel Ruiz", Email: "ANGEL@EXAMPLE.COM", Role: roster.RoleAgent},
		{ID: "x-3", Name: "zoe Adams", Email: "zoe@example.com", Role: roster.RoleAdmin},
		{ID: "x-4", Name: "100% Match", Email: "percent@example.com", Role: roster.RoleAgent},
	}
	return append(members, extra...)
}

// The store must page exactly like the simulated source, so a session
// sees the same directory whichever backend serves it.
func TestLoad_MatchesSimulatedPipeline(t *testing.T) {
	members := parityDataset()
	s := seededStore(t, members)
	ctx := context.Background()

	roles := append([]roster.Role{roster.NoRole}, roster.Roles...)
	searches := []string{"", "  jane ", "SMITH", "example.com", "angel", "%", "nobody"}
	sorts := []roster.SortField{roster.NoSort, roster.SortName, roster.SortRole}
	orders := []roster.SortOrder{roster.Asc, roster.Desc}

	for _, role := range roles {
		for _, search := range searches {
			for _, sortBy := range sorts {
				for _, order := range orders {
					for _, page := range []int{1, 2, 9} {
						q := roster.Query{
							Page: page, PageSize: 4, Role: role, Search: search,
							SortBy: sortBy, SortOrder: order,
						}
						name := fmt.Sprintf("%s/%q/%s/%s/p%d", role, search, sortBy, order, page)

						got, err := s.Load(ctx, q)
						if err != nil {
							t.Fatalf("%s: Load() failed: %v", name, err)
						}
						want := roster.Apply(members, q)
						if diff := cmp.Diff(want, got); diff != "" {
							t.Errorf("%s: mismatch (-simulated +store):\n%s", name, diff)
						}
					}
				}
			}
		}
	}
}

func TestLoad_RoleFilterScenario(t *testing.T) {
	s := seededStore(t, []roster.Member{
		{ID: "1", Name: "Ada", Email: "ada@example.com", Role: roster.RoleAdmin},
		{ID: "2", Name: "Ben", Email: "ben@example.com", Role: roster.RoleAgent},
		{ID: "3", Name: "Cleo", Email: "cleo@example.com", Role: roster.RoleAdmin},
		{ID: "4", Name: "Dev", Email: "dev@example.com", Role: roster.RoleAgent},
		{ID: "5", Name: "Eve", Email: "eve@example.com", Role: roster.RoleCreator},
	})

	page, err := s.Load(context.Background(), roster.Query{
		Page: 1, PageSize: 2, Role: roster.RoleAdmin, SortOrder: roster.Asc,
	})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if diff := cmp.Diff([]string{"1", "3"}, ids(page.Members)); diff != "" {
		t.Errorf("members mismatch:\n%s", diff)
	}
	if page.Info.HasNextPage {
		t.Error("HasNextPage = true, want false")
	}
	if page.Info.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", page.Info.TotalCount)
	}
}

func TestLoad_PastTheEnd(t *testing.T) {
	s := seededStore(t, roster.Generate(3))

	page, err := s.Load(context.Background(), roster.Query{Page: 5, PageSize: 2, SortOrder: roster.Asc})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if page.Members == nil || len(page.Members) != 0 {
		t.Errorf("Members = %v, want empty non-nil slice", page.Members)
	}
	if page.Info.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", page.Info.TotalCount)
	}
}

func TestLoad_RejectsInvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Load(context.Background(), roster.Query{Page: 1, PageSize: 0, SortOrder: roster.Asc})
	if err == nil {
		t.Error("expected error for zero page size, got nil")
	}

	// The OFFSET for this page overflows int; SQLite would read it as 0.
	_, err = s.Load(context.Background(), roster.Query{Page: 922337203685477582, PageSize: 10, SortOrder: roster.Asc})
	if !errors.Is(err, roster.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery for overflowing page, got %v", err)
	}
}

func TestLoad_NullAvatar(t *testing.T) {
	s := seededStore(t, []roster.Member{
		{ID: "1", Name: "Ada", Email: "ada@example.com", Role: roster.RoleAdmin},
	})

	page, err := s.Load(context.Background(), roster.Query{Page: 1, PageSize: 10, SortOrder: roster.Asc})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if page.Members[0].Avatar != nil {
		t.Errorf("Avatar = %q, want nil", *page.Members[0].Avatar)
	}
}

func TestCountMembers(t *testing.T) {
	s := seededStore(t, roster.Generate(7))

	n, err := s.CountMembers(context.Background())
	if err != nil {
		t.Fatalf("CountMembers() failed: %v", err)
	}
	if n != 7 {
		t.Errorf("CountMembers() = %d, want 7", n)
	}
}
