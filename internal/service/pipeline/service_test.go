package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "github.com/michaelsamjatin/imagelake/internal/db"
	"github.com/michaelsamjatin/imagelake/internal/db/repository"
	"github.com/michaelsamjatin/imagelake/internal/domain"
	"github.com/michaelsamjatin/imagelake/internal/lake"
)

// dirResolver resolves every source URI to a fixed local directory.
type dirResolver struct {
	dir string
	err error
}

func (r *dirResolver) Resolve(context.Context, string) (string, error) {
	return r.dir, r.err
}

type testEnv struct {
	svc      *Service
	datasets *repository.DatasetRepo
	runs     *repository.LoadRunRepo
	audit    *repository.AuditRepo
	lake     *lake.Store
}

func setupPipeline(t *testing.T, resolver SourceResolver) *testEnv {
	t.Helper()

	writeDB, _ := internaldb.OpenTestSQLite(t)
	lakeStore, err := lake.Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lakeStore.Close() })

	datasets := repository.NewDatasetRepo(writeDB)
	runs := repository.NewLoadRunRepo(writeDB)
	audit := repository.NewAuditRepo(writeDB)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(datasets, runs, audit, lakeStore, resolver,
		Options{DefaultImageSize: 64, Workers: 2}, logger)

	return &testEnv{svc: svc, datasets: datasets, runs: runs, audit: audit, lake: lakeStore}
}

func registerDataset(t *testing.T, env *testEnv, name string, paused bool) *domain.Dataset {
	t.Helper()
	ds, err := env.datasets.Create(context.Background(), &domain.Dataset{
		Name:      name,
		SourceURI: "/irrelevant/" + name,
		Layout:    domain.LayoutMVTec,
		IsPaused:  paused,
	})
	require.NoError(t, err)
	return ds
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestRunSync_LoadsImagesIntoLake(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "mvtec", "bottle", "train", "good", "000.png"), 32, 32)
	writePNG(t, filepath.Join(src, "mvtec", "bottle", "train", "good", "001.png"), 48, 24)
	writePNG(t, filepath.Join(src, "mvtec", "bottle", "test", "broken_small", "000.png"), 32, 32)

	env := setupPipeline(t, &dirResolver{dir: src})
	registerDataset(t, env, "mvtec_bottle", false)
	ctx := context.Background()

	run, err := env.svc.RunSync(ctx, "cli", "mvtec_bottle", 16)
	require.NoError(t, err)

	assert.Equal(t, domain.LoadRunStatusSuccess, run.Status)
	assert.Equal(t, int64(3), run.ImagesSeen)
	assert.Equal(t, int64(3), run.ImagesLoaded)
	assert.Equal(t, int64(0), run.ImagesSkipped)
	assert.NotNil(t, run.StartedAt)
	assert.NotNil(t, run.FinishedAt)

	n, err := env.lake.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	// Records carry classification and resize metadata.
	metas, _, err := env.lake.ListImages(ctx, domain.ImageFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 3)
	for _, m := range metas {
		assert.Equal(t, "mvtec", m.Dataset)
		assert.Equal(t, "bottle", m.Class)
		assert.Equal(t, int64(16), m.ResizedWidth)
		assert.Equal(t, run.ID, m.LoadRunID)
	}
}

func TestRunSync_SkipsUndecodableImages(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "mvtec", "bottle", "train", "good", "000.png"), 32, 32)
	require.NoError(t, os.WriteFile(filepath.Join(src, "mvtec", "bottle", "train", "good", "junk.png"),
		[]byte("not a png"), 0o644))

	env := setupPipeline(t, &dirResolver{dir: src})
	registerDataset(t, env, "mvtec_bottle", false)

	run, err := env.svc.RunSync(context.Background(), "cli", "mvtec_bottle", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.LoadRunStatusSuccess, run.Status)
	assert.Equal(t, int64(2), run.ImagesSeen)
	assert.Equal(t, int64(1), run.ImagesLoaded)
	assert.Equal(t, int64(1), run.ImagesSkipped)
}

func TestRunSync_FailsWhenSourceUnresolvable(t *testing.T) {
	env := setupPipeline(t, &dirResolver{err: domain.ErrNotFound("source directory missing")})
	registerDataset(t, env, "mvtec_bottle", false)

	run, err := env.svc.RunSync(context.Background(), "cli", "mvtec_bottle", 0)
	require.NoError(t, err)

	assert.Equal(t, domain.LoadRunStatusFailed, run.Status)
	require.NotNil(t, run.ErrorMessage)
	assert.Contains(t, *run.ErrorMessage, "resolve source")
}

func TestRunSync_UnknownDataset(t *testing.T) {
	env := setupPipeline(t, &dirResolver{dir: t.TempDir()})

	_, err := env.svc.RunSync(context.Background(), "cli", "nope", 0)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTriggerRun_ReturnsPendingAndCompletes(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "dagm", "Class1", "Train", "0001.PNG"), 32, 32)

	env := setupPipeline(t, &dirResolver{dir: src})
	registerDataset(t, env, "dagm_class1", false)
	ctx := context.Background()

	run, err := env.svc.TriggerRun(ctx, "api", "dagm_class1", 0, domain.TriggerTypeManual)
	require.NoError(t, err)
	assert.Equal(t, domain.LoadRunStatusPending, run.Status)
	assert.Equal(t, "api", run.TriggeredBy)
	// Default size applies when the request does not specify one.
	assert.Equal(t, 64, run.ImageSize)

	require.Eventually(t, func() bool {
		got, err := env.svc.GetRun(ctx, run.ID)
		return err == nil && got.Status == domain.LoadRunStatusSuccess
	}, 10*time.Second, 50*time.Millisecond)
}

func TestTriggerRun_PausedDatasetRejectsScheduledTrigger(t *testing.T) {
	env := setupPipeline(t, &dirResolver{dir: t.TempDir()})
	registerDataset(t, env, "paused_ds", true)
	ctx := context.Background()

	_, err := env.svc.TriggerRun(ctx, "scheduler", "paused_ds", 0, domain.TriggerTypeScheduled)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	// Manual triggers bypass the pause.
	run, err := env.svc.TriggerRun(ctx, "cli", "paused_ds", 0, domain.TriggerTypeManual)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, err := env.svc.GetRun(ctx, run.ID)
		return err == nil && got.Status == domain.LoadRunStatusSuccess
	}, 10*time.Second, 50*time.Millisecond)
}

func TestRunSync_AuditTrail(t *testing.T) {
	src := t.TempDir()
	writePNG(t, filepath.Join(src, "img.png"), 16, 16)

	env := setupPipeline(t, &dirResolver{dir: src})
	registerDataset(t, env, "flat_ds", false)
	ctx := context.Background()

	_, err := env.svc.RunSync(ctx, "cli", "flat_ds", 0)
	require.NoError(t, err)

	entries, _, err := env.audit.List(ctx, domain.AuditFilter{})
	require.NoError(t, err)

	actions := make([]string, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, "RUN_TRIGGERED")
	assert.Contains(t, actions, "RUN_FINISHED")
}
