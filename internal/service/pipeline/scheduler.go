package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Scheduler manages cron-based load runs for datasets with a schedule.
type Scheduler struct {
	cron     *cron.Cron
	svc      *Service
	datasets domain.DatasetRepository
	logger   *slog.Logger
	mu       sync.Mutex
	entries  map[string]cron.EntryID // dataset ID → cron entry
}

// NewScheduler creates a new load-run scheduler.
func NewScheduler(svc *Service, datasets domain.DatasetRepository, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		svc:      svc,
		datasets: datasets,
		logger:   logger,
		entries:  make(map[string]cron.EntryID),
	}
}

// Start loads all scheduled datasets and starts the cron scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadSchedules(ctx); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("load scheduler started")
	return nil
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("load scheduler stopped")
}

// Reload clears all cron entries and reloads from the metastore.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entryID := range s.entries {
		s.cron.Remove(entryID)
	}
	s.entries = make(map[string]cron.EntryID)

	return s.loadSchedules(ctx)
}

// loadSchedules queries for active scheduled datasets and adds them to cron.
func (s *Scheduler) loadSchedules(ctx context.Context) error {
	datasets, err := s.datasets.ListScheduled(ctx)
	if err != nil {
		return err
	}

	for _, ds := range datasets {
		if ds.ScheduleCron == nil {
			continue
		}
		schedule := *ds.ScheduleCron
		datasetName := ds.Name

		entryID, err := s.cron.AddFunc(schedule, func() {
			ctx := context.Background()
			_, triggerErr := s.svc.TriggerRun(ctx, "scheduler", datasetName, 0, domain.TriggerTypeScheduled)
			if triggerErr != nil {
				s.logger.Warn("scheduled trigger failed",
					"dataset", datasetName,
					"error", triggerErr,
				)
			}
		})
		if err != nil {
			s.logger.Warn("invalid cron schedule",
				"dataset", datasetName,
				"schedule", schedule,
				"error", err,
			)
			continue
		}

		s.entries[ds.ID] = entryID
		s.logger.Info("scheduled dataset", "dataset", datasetName, "schedule", schedule)
	}

	return nil
}
