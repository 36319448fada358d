// Package pipeline orchestrates load runs: extracting images from a dataset
// source, normalizing them, and merging the records into the lake.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// SourceResolver turns a dataset source URI into a local directory.
// Implemented by source.Resolver.
type SourceResolver interface {
	Resolve(ctx context.Context, sourceURI string) (string, error)
}

// Options tune pipeline execution.
type Options struct {
	// DefaultImageSize is used when a run does not specify a size.
	DefaultImageSize int
	// Workers bounds concurrent image normalization per run.
	Workers int
}

// Service coordinates load runs against the metastore and the lake.
type Service struct {
	datasets domain.DatasetRepository
	runs     domain.LoadRunRepository
	audit    domain.AuditRepository
	lake     domain.LakeStore
	sources  SourceResolver
	opts     Options
	logger   *slog.Logger
}

// NewService creates a pipeline Service.
func NewService(
	datasets domain.DatasetRepository,
	runs domain.LoadRunRepository,
	audit domain.AuditRepository,
	lake domain.LakeStore,
	sources SourceResolver,
	opts Options,
	logger *slog.Logger,
) *Service {
	if opts.DefaultImageSize <= 0 {
		opts.DefaultImageSize = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Service{
		datasets: datasets,
		runs:     runs,
		audit:    audit,
		lake:     lake,
		sources:  sources,
		opts:     opts,
		logger:   logger,
	}
}

// TriggerRun creates a load run for the named dataset and executes it in a
// background goroutine. It returns the PENDING run immediately.
func (s *Service) TriggerRun(ctx context.Context, actor, datasetName string, imageSize int, trigger string) (*domain.LoadRun, error) {
	run, ds, err := s.createRun(ctx, actor, datasetName, imageSize, trigger)
	if err != nil {
		return nil, err
	}

	go s.executeRun(run.ID, *ds, run.ImageSize)
	return run, nil
}

// RunSync creates a load run and executes it inline, returning the finished
// run. Used by the CLI, which wants the final counters.
func (s *Service) RunSync(ctx context.Context, actor, datasetName string, imageSize int) (*domain.LoadRun, error) {
	run, ds, err := s.createRun(ctx, actor, datasetName, imageSize, domain.TriggerTypeManual)
	if err != nil {
		return nil, err
	}

	s.executeRun(run.ID, *ds, run.ImageSize)
	return s.runs.GetByID(ctx, run.ID)
}

func (s *Service) createRun(ctx context.Context, actor, datasetName string, imageSize int, trigger string) (*domain.LoadRun, *domain.Dataset, error) {
	ds, err := s.datasets.GetByName(ctx, datasetName)
	if err != nil {
		return nil, nil, err
	}
	if ds.IsPaused && trigger == domain.TriggerTypeScheduled {
		return nil, nil, domain.ErrValidation("dataset %q is paused", datasetName)
	}
	if imageSize <= 0 {
		imageSize = s.opts.DefaultImageSize
	}

	run, err := s.runs.Create(ctx, &domain.LoadRun{
		DatasetID:   ds.ID,
		Status:      domain.LoadRunStatusPending,
		TriggerType: trigger,
		TriggeredBy: actor,
		ImageSize:   imageSize,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create load run: %w", err)
	}

	s.logAudit(ctx, actor, "RUN_TRIGGERED",
		fmt.Sprintf("Triggered %s load run %s for dataset %s", trigger, run.ID, ds.Name))

	return run, ds, nil
}

// GetRun returns a load run by ID.
func (s *Service) GetRun(ctx context.Context, id string) (*domain.LoadRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ListRuns returns load runs matching the filter.
func (s *Service) ListRuns(ctx context.Context, filter domain.LoadRunFilter) ([]domain.LoadRun, int64, error) {
	return s.runs.List(ctx, filter)
}

func (s *Service) logAudit(ctx context.Context, actor, action, detail string) {
	err := s.audit.Insert(ctx, &domain.AuditEntry{
		Actor:  actor,
		Action: action,
		Detail: detail,
	})
	if err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}
