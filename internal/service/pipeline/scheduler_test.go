package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

func scheduledDataset(t *testing.T, env *testEnv, name, schedule string) *domain.Dataset {
	t.Helper()
	ds, err := env.datasets.Create(context.Background(), &domain.Dataset{
		Name:         name,
		SourceURI:    "/irrelevant/" + name,
		Layout:       domain.LayoutMVTec,
		ScheduleCron: &schedule,
	})
	require.NoError(t, err)
	return ds
}

func newTestScheduler(t *testing.T) (*Scheduler, *testEnv) {
	t.Helper()
	env := setupPipeline(t, &dirResolver{dir: t.TempDir()})
	return NewScheduler(env.svc, env.datasets, env.svc.logger), env
}

func TestScheduler_StartRegistersScheduledDatasets(t *testing.T) {
	sched, env := newTestScheduler(t)
	ctx := context.Background()

	a := scheduledDataset(t, env, "hourly", "0 * * * *")
	b := scheduledDataset(t, env, "daily", "0 2 * * *")
	registerDataset(t, env, "unscheduled", false)

	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.Len(t, sched.entries, 2)
	assert.Contains(t, sched.entries, a.ID)
	assert.Contains(t, sched.entries, b.ID)
}

func TestScheduler_SkipsInvalidCronExpression(t *testing.T) {
	sched, env := newTestScheduler(t)
	ctx := context.Background()

	scheduledDataset(t, env, "broken", "not a cron expr")
	good := scheduledDataset(t, env, "valid", "*/5 * * * *")

	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.Len(t, sched.entries, 1)
	assert.Contains(t, sched.entries, good.ID)
}

func TestScheduler_ReloadPicksUpChanges(t *testing.T) {
	sched, env := newTestScheduler(t)
	ctx := context.Background()

	ds := scheduledDataset(t, env, "hourly", "0 * * * *")
	require.NoError(t, sched.Start(ctx))
	defer sched.Stop()

	// Pausing a dataset removes it from the schedule on reload.
	paused := true
	_, err := env.datasets.Update(ctx, ds.ID, domain.UpdateDatasetRequest{IsPaused: &paused})
	require.NoError(t, err)

	late := scheduledDataset(t, env, "nightly", "30 3 * * *")
	require.NoError(t, sched.Reload(ctx))

	sched.mu.Lock()
	defer sched.mu.Unlock()
	assert.Len(t, sched.entries, 1)
	assert.Contains(t, sched.entries, late.ID)
	assert.NotContains(t, sched.entries, ds.ID)
}
