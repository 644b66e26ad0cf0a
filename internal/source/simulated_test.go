package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamdir/internal/roster"
)

func fiveMembers() []roster.Member {
	return []roster.Member{
		{ID: "1", Name: "Ada", Email: "ada@example.com", Role: roster.RoleAdmin},
		{ID: "2", Name: "Ben", Email: "ben@example.com", Role: roster.RoleAgent},
		{ID: "3", Name: "Cleo", Email: "cleo@example.com", Role: roster.RoleAdmin},
		{ID: "4", Name: "Dev", Email: "dev@example.com", Role: roster.RoleAgent},
		{ID: "5", Name: "Eve", Email: "eve@example.com", Role: roster.RoleCreator},
	}
}

func TestSimulated_RoleFilterSinglePage(t *testing.T) {
	src := NewSimulated(fiveMembers(), WithDelay(0))

	page, err := src.Load(context.Background(), roster.Query{
		Page: 1, PageSize: 2, Role: roster.RoleAdmin, SortOrder: roster.Asc,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "3"}, roster.IDs(page.Members))
	assert.False(t, page.Info.HasNextPage)
	assert.Equal(t, 2, page.Info.TotalCount)
	assert.Equal(t, 1, page.Info.TotalPages)
}

func TestSimulated_RejectsInvalidQuery(t *testing.T) {
	src := NewSimulated(fiveMembers(), WithDelay(0))

	_, err := src.Load(context.Background(), roster.Query{Page: 0, PageSize: 2, SortOrder: roster.Asc})
	require.ErrorIs(t, err, roster.ErrInvalidQuery)
}

func TestSimulated_DelayHonoursContext(t *testing.T) {
	src := NewSimulated(fiveMembers(), WithDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Load(ctx, roster.Query{Page: 1, PageSize: 2, SortOrder: roster.Asc})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulated_DatasetIsCopied(t *testing.T) {
	members := fiveMembers()
	src := NewSimulated(members, WithDelay(0))
	members[0].Name = "Mutated"

	page, err := src.Load(context.Background(), roster.Query{Page: 1, PageSize: 1, SortOrder: roster.Asc})
	require.NoError(t, err)
	assert.Equal(t, "Ada", page.Members[0].Name)
	assert.Equal(t, 5, src.Len())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("remote")
	require.NoError(t, err)
	assert.Equal(t, KindRemote, k)

	_, err = ParseKind("graphql")
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Equal(t, "req-1", RequestID(WithRequestID(context.Background(), "req-1")))
}
