package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kev1903/skrobakios/internal/project"
	"github.com/kev1903/skrobakios/pkg/cerr"
	"github.com/kev1903/skrobakios/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(s)
}

func TestYAMLRepository(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	for i, name := range []string{"Kew extension", "Brighton duplex", "Fitzroy fitout"} {
		require.NoError(t, repo.Create(ctx, &project.Project{
			ID:        name[:3],
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	err := repo.Create(ctx, &project.Project{ID: "Kew"})
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))

	got, err := repo.Get(ctx, "Bri")
	require.NoError(t, err)
	assert.Equal(t, "Brighton duplex", got.Name)

	found, err := repo.FindByName(ctx, "Fitzroy fitout")
	require.NoError(t, err)
	assert.Equal(t, "Fit", found.ID)
	found, err = repo.FindByName(ctx, "  FITZROY Fitout ")
	require.NoError(t, err)
	assert.Equal(t, "Fit", found.ID)

	page, total, err := repo.List(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "Bri", page[0].ID)
	assert.Equal(t, "Fit", page[1].ID)

	got.SiteAddress = "12 Beach Rd"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.Get(ctx, "Bri")
	require.NoError(t, err)
	assert.Equal(t, "12 Beach Rd", got.SiteAddress)

	require.NoError(t, repo.Delete(ctx, "Bri"))
	_, err = repo.Get(ctx, "Bri")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Update(ctx, got), cerr.NotFound))
	assert.True(t, cerr.IsCode(repo.Delete(ctx, "Bri"), cerr.NotFound))
}
