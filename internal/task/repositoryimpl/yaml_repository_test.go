package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kev1903/skrobakios/internal/schedule"
	"github.com/kev1903/skrobakios/internal/task"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(s)
	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repo
}

func TestYAMLRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	item := &task.Item{
		ID:        "slab",
		ProjectID: "p1",
		Title:     "Pour slab",
		Duration:  3,
		StartDate: schedule.MustParseDate("2024-02-05"),
		EndDate:   schedule.MustParseDate("2024-02-07"),
		Dependencies: []task.ItemDependency{
			{PredecessorID: "footings", Type: schedule.StartToStart, LagDays: 2},
		},
	}
	require.NoError(t, repo.Create(ctx, item))
	assert.True(t, cerr.IsCode(repo.Create(ctx, item), cerr.AlreadyExists))

	got, err := repo.Get(ctx, "p1", "slab")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, item.StartDate, got.StartDate)
	assert.True(t, got.NotBefore.IsZero())
	assert.Equal(t, item.Dependencies, got.Dependencies)

	got.Progress = 40
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.Get(ctx, "p1", "slab")
	require.NoError(t, err)
	assert.Equal(t, 40, again.Progress)
	assert.Equal(t, int64(2), again.Version)
	assert.Equal(t, item.CreatedAt, again.CreatedAt)
	assert.True(t, again.UpdatedAt.After(again.CreatedAt))

	_, err = repo.Get(ctx, "p2", "slab")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Update(ctx, &task.Item{ID: "nope", ProjectID: "p1"}), cerr.NotFound))
}

func TestYAMLRepository_ListAndDeleteProject(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	for _, it := range []*task.Item{
		{ID: "b", ProjectID: "p1", Position: 1},
		{ID: "a", ProjectID: "p1", Position: 0},
		{ID: "a1", ProjectID: "p1", ParentID: "a"},
		{ID: "x", ProjectID: "p2"},
	} {
		require.NoError(t, repo.Create(ctx, it))
	}

	items, err := repo.List(ctx, "p1")
	require.NoError(t, err)
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"a", "b", "a1"}, ids)

	require.NoError(t, repo.Delete(ctx, "p1", "b"))
	assert.True(t, cerr.IsCode(repo.Delete(ctx, "p1", "b"), cerr.NotFound))

	require.NoError(t, repo.DeleteProject(ctx, "p1"))
	items, err = repo.List(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = repo.List(ctx, "p2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
