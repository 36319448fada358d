package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/michaelsamjatin/imagelake/internal/domain"
	"github.com/michaelsamjatin/imagelake/internal/imaging"
)

const (
	mergeBatchSize   = 64
	mergeMaxAttempts = 3
)

// executeRun processes one load run: resolve the source, normalize every
// image with a bounded worker pool, and merge the records into the lake.
// Per-image failures are counted as skipped; only source, walk, and lake
// errors fail the run.
func (s *Service) executeRun(runID string, ds domain.Dataset, imageSize int) {
	ctx := context.Background()
	logger := s.logger.With("run_id", runID, "dataset", ds.Name)

	// Recover from panics.
	defer func() {
		if r := recover(); r != nil {
			errMsg := fmt.Sprintf("panic: %v", r)
			logger.Error("load run panicked", "error", errMsg)
			_ = s.runs.MarkFinished(ctx, runID, domain.LoadRunStatusFailed, &errMsg)
		}
	}()

	if err := s.runs.MarkStarted(ctx, runID); err != nil {
		logger.Error("failed to mark run started", "error", err)
		return
	}

	dir, err := s.sources.Resolve(ctx, ds.SourceURI)
	if err != nil {
		s.failRun(ctx, runID, ds, fmt.Errorf("resolve source: %w", err), logger)
		return
	}

	paths, err := walkImages(dir)
	if err != nil {
		s.failRun(ctx, runID, ds, fmt.Errorf("walk source: %w", err), logger)
		return
	}
	logger.Info("found images", "dir", dir, "count", len(paths))

	var skipped, loaded atomic.Int64
	records := make(chan domain.ImageRecord, mergeBatchSize)

	// Collector: single writer into DuckDB, batched merges with retry.
	collectDone := make(chan error, 1)
	go func() {
		collectDone <- s.collect(ctx, records, &loaded, logger)
	}()

	// Workers: decode + resize + classify concurrently.
	g := &errgroup.Group{}
	g.SetLimit(s.opts.Workers)
	now := time.Now().UTC()
	for _, path := range paths {
		g.Go(func() error {
			rec, err := buildRecord(path, imageSize, runID, ds.SourceURI, now)
			if err != nil {
				logger.Warn("skipping image", "path", path, "error", err)
				skipped.Add(1)
				return nil // skip, never fail the run
			}
			records <- *rec
			return nil
		})
	}
	_ = g.Wait()
	close(records)
	mergeErr := <-collectDone

	_ = s.runs.UpdateCounters(ctx, runID, int64(len(paths)), loaded.Load(), skipped.Load())

	if mergeErr != nil {
		s.failRun(ctx, runID, ds, fmt.Errorf("merge into lake: %w", mergeErr), logger)
		return
	}

	if err := s.runs.MarkFinished(ctx, runID, domain.LoadRunStatusSuccess, nil); err != nil {
		logger.Error("failed to mark run finished", "error", err)
		return
	}
	logger.Info("load run finished",
		"seen", len(paths), "loaded", loaded.Load(), "skipped", skipped.Load())
	s.logAudit(ctx, ds.Name, "RUN_FINISHED",
		fmt.Sprintf("Run %s loaded %d of %d images (%d skipped)",
			runID, loaded.Load(), len(paths), skipped.Load()))
}

// collect drains the records channel, merging batches into the lake with
// exponential backoff on transient failures.
func (s *Service) collect(ctx context.Context, records <-chan domain.ImageRecord, loaded *atomic.Int64, logger *slog.Logger) error {
	batch := make([]domain.ImageRecord, 0, mergeBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		var lastErr error
		for attempt := 0; attempt < mergeMaxAttempts; attempt++ {
			if attempt > 0 {
				backoff := time.Duration(1<<uint(attempt-1)) * time.Second
				time.Sleep(backoff)
				logger.Warn("retrying lake merge", "attempt", attempt+1, "batch", len(batch))
			}
			lastErr = s.lake.Merge(ctx, batch)
			if lastErr == nil {
				break
			}
		}
		if lastErr != nil {
			return lastErr
		}
		loaded.Add(int64(len(batch)))
		batch = batch[:0]
		return nil
	}

	for rec := range records {
		batch = append(batch, rec)
		if len(batch) >= mergeBatchSize {
			if err := flush(); err != nil {
				// Drain remaining records so workers don't block.
				for range records {
				}
				return err
			}
		}
	}
	return flush()
}

func (s *Service) failRun(ctx context.Context, runID string, ds domain.Dataset, err error, logger *slog.Logger) {
	logger.Error("load run failed", "error", err)
	errMsg := err.Error()
	_ = s.runs.MarkFinished(ctx, runID, domain.LoadRunStatusFailed, &errMsg)
	s.logAudit(ctx, ds.Name, "RUN_FAILED", fmt.Sprintf("Run %s failed: %v", runID, err))
}

// buildRecord reads, normalizes, and classifies one source image.
func buildRecord(path string, size int, runID, source string, loadedAt time.Time) (*domain.ImageRecord, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from the source walk
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	norm, err := imaging.Normalize(data, size)
	if err != nil {
		return nil, err
	}

	cls := imaging.Classify(path)
	return &domain.ImageRecord{
		Filename:       filepath.Base(path),
		OriginalPath:   path,
		Dataset:        cls.Dataset,
		Class:          cls.Class,
		Split:          cls.Split,
		OriginalWidth:  norm.OriginalWidth,
		OriginalHeight: norm.OriginalHeight,
		ResizedWidth:   norm.ResizedWidth,
		ResizedHeight:  norm.ResizedHeight,
		ImageData:      norm.Data,
		LoadRunID:      runID,
		Source:         source,
		LoadedAt:       loadedAt,
	}, nil
}

// walkImages returns every image file under root, sorted for deterministic
// processing order.
func walkImages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imaging.IsImagePath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
