package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/michaelsamjatin/imagelake/internal/db"
	"github.com/michaelsamjatin/imagelake/internal/domain"
)

func setupDatasetRepo(t *testing.T) *DatasetRepo {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)
	return NewDatasetRepo(writeDB)
}

func ptrStr(s string) *string { return &s }
func ptrBool(b bool) *bool    { return &b }

func makeDataset(name string) *domain.Dataset {
	return &domain.Dataset{
		Name:      name,
		SourceURI: "/data/" + name,
		Layout:    domain.LayoutMVTec,
	}
}

func TestDatasetRepo_CreateAndGet(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.Dataset{
		Name:         "mvtec_bottle",
		SourceURI:    "/data/mvtec_excerpt",
		Layout:       domain.LayoutMVTec,
		Description:  "MVTec bottle excerpt",
		ScheduleCron: ptrStr("0 3 * * *"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.IsPaused)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "mvtec_bottle", byID.Name)
	require.NotNil(t, byID.ScheduleCron)
	assert.Equal(t, "0 3 * * *", *byID.ScheduleCron)

	byName, err := repo.GetByName(ctx, "mvtec_bottle")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestDatasetRepo_GetNotFound(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	_, err := repo.GetByName(ctx, "nope")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDatasetRepo_DuplicateName(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeDataset("dagm_class1"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeDataset("dagm_class1"))
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestDatasetRepo_List(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := repo.Create(ctx, makeDataset(name))
		require.NoError(t, err)
	}

	items, total, err := repo.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0].Name)
	assert.Equal(t, "bravo", items[1].Name)
	assert.Equal(t, "charlie", items[2].Name)

	// Paginated.
	page1, total, err := repo.List(ctx, domain.PageRequest{MaxResults: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page1, 2)

	token := domain.NextPageToken(0, 2, total)
	require.NotEmpty(t, token)
	page2, _, err := repo.List(ctx, domain.PageRequest{MaxResults: 2, PageToken: token})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "charlie", page2[0].Name)
}

func TestDatasetRepo_ListScheduled(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	scheduled := makeDataset("scheduled")
	scheduled.ScheduleCron = ptrStr("@daily")
	_, err := repo.Create(ctx, scheduled)
	require.NoError(t, err)

	paused := makeDataset("paused")
	paused.ScheduleCron = ptrStr("@daily")
	paused.IsPaused = true
	_, err = repo.Create(ctx, paused)
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeDataset("manual"))
	require.NoError(t, err)

	items, err := repo.ListScheduled(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "scheduled", items[0].Name)
}

func TestDatasetRepo_Update(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeDataset("bottle"))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, domain.UpdateDatasetRequest{
		SourceURI:    ptrStr("/new/path"),
		ScheduleCron: ptrStr("@hourly"),
		IsPaused:     ptrBool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "/new/path", updated.SourceURI)
	require.NotNil(t, updated.ScheduleCron)
	assert.Equal(t, "@hourly", *updated.ScheduleCron)
	assert.True(t, updated.IsPaused)
	// Untouched field survives.
	assert.Equal(t, domain.LayoutMVTec, updated.Layout)

	// Empty schedule clears it.
	cleared, err := repo.Update(ctx, created.ID, domain.UpdateDatasetRequest{
		ScheduleCron: ptrStr(""),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.ScheduleCron)
}

func TestDatasetRepo_Delete(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeDataset("gone"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.GetByID(ctx, created.ID)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = repo.Delete(ctx, created.ID)
	assert.ErrorAs(t, err, &notFound)
}
