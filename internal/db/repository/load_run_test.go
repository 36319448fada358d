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

func setupLoadRunRepo(t *testing.T) (*LoadRunRepo, *domain.Dataset) {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)

	ds, err := NewDatasetRepo(writeDB).Create(context.Background(), makeDataset("bottle"))
	require.NoError(t, err)

	return NewLoadRunRepo(writeDB), ds
}

func TestLoadRunRepo_CreateDefaults(t *testing.T) {
	repo, ds := setupLoadRunRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, &domain.LoadRun{
		DatasetID:   ds.ID,
		TriggerType: domain.TriggerTypeManual,
		TriggeredBy: "cli",
		ImageSize:   256,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, domain.LoadRunStatusPending, run.Status)
	assert.Equal(t, "bottle", run.DatasetName)
	assert.Equal(t, int64(0), run.ImagesSeen)
	assert.Nil(t, run.StartedAt)
	assert.Nil(t, run.FinishedAt)
}

func TestLoadRunRepo_Lifecycle(t *testing.T) {
	repo, ds := setupLoadRunRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, &domain.LoadRun{
		DatasetID:   ds.ID,
		TriggerType: domain.TriggerTypeManual,
		TriggeredBy: "cli",
		ImageSize:   128,
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkStarted(ctx, run.ID))
	started, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoadRunStatusRunning, started.Status)
	assert.NotNil(t, started.StartedAt)

	require.NoError(t, repo.UpdateCounters(ctx, run.ID, 10, 8, 2))
	require.NoError(t, repo.MarkFinished(ctx, run.ID, domain.LoadRunStatusSuccess, nil))

	finished, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoadRunStatusSuccess, finished.Status)
	assert.Equal(t, int64(10), finished.ImagesSeen)
	assert.Equal(t, int64(8), finished.ImagesLoaded)
	assert.Equal(t, int64(2), finished.ImagesSkipped)
	assert.NotNil(t, finished.FinishedAt)
	assert.Nil(t, finished.ErrorMessage)
}

func TestLoadRunRepo_MarkFinishedWithError(t *testing.T) {
	repo, ds := setupLoadRunRepo(t)
	ctx := context.Background()

	run, err := repo.Create(ctx, &domain.LoadRun{
		DatasetID: ds.ID, TriggerType: domain.TriggerTypeScheduled, TriggeredBy: "scheduler", ImageSize: 256,
	})
	require.NoError(t, err)

	msg := "resolve source: no such directory"
	require.NoError(t, repo.MarkFinished(ctx, run.ID, domain.LoadRunStatusFailed, &msg))

	failed, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoadRunStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, msg, *failed.ErrorMessage)
}

func TestLoadRunRepo_UpdateMissingRun(t *testing.T) {
	repo, _ := setupLoadRunRepo(t)
	ctx := context.Background()

	var notFound *domain.NotFoundError
	assert.ErrorAs(t, repo.MarkStarted(ctx, "missing"), &notFound)
	assert.ErrorAs(t, repo.MarkFinished(ctx, "missing", domain.LoadRunStatusFailed, nil), &notFound)
	assert.ErrorAs(t, repo.UpdateCounters(ctx, "missing", 1, 1, 0), &notFound)
}

func TestLoadRunRepo_ListFilters(t *testing.T) {
	repo, ds := setupLoadRunRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &domain.LoadRun{
			DatasetID: ds.ID, TriggerType: domain.TriggerTypeManual, TriggeredBy: "cli", ImageSize: 256,
		})
		require.NoError(t, err)
	}
	failing, err := repo.Create(ctx, &domain.LoadRun{
		DatasetID: ds.ID, TriggerType: domain.TriggerTypeManual, TriggeredBy: "cli", ImageSize: 256,
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkFinished(ctx, failing.ID, domain.LoadRunStatusFailed, nil))

	all, total, err := repo.List(ctx, domain.LoadRunFilter{DatasetID: &ds.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, all, 4)

	status := domain.LoadRunStatusFailed
	onlyFailed, total, err := repo.List(ctx, domain.LoadRunFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, onlyFailed, 1)
	assert.Equal(t, failing.ID, onlyFailed[0].ID)
}
