// Package dataset manages registered dataset sources in the metastore.
package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// ScheduleReloader is notified when dataset schedules change.
// Implemented by pipeline.Scheduler.
type ScheduleReloader interface {
	Reload(ctx context.Context) error
}

// Service manages dataset registrations.
type Service struct {
	repo     domain.DatasetRepository
	audit    domain.AuditRepository
	reloader ScheduleReloader // may be nil (CLI mode, no scheduler)
	logger   *slog.Logger
}

// NewService creates a dataset Service. reloader may be nil.
func NewService(repo domain.DatasetRepository, audit domain.AuditRepository, reloader ScheduleReloader, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, reloader: reloader, logger: logger}
}

// Create registers a new dataset.
func (s *Service) Create(ctx context.Context, actor string, req domain.CreateDatasetRequest) (*domain.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := validateSchedule(req.ScheduleCron); err != nil {
		return nil, err
	}

	ds, err := s.repo.Create(ctx, &domain.Dataset{
		Name:         req.Name,
		SourceURI:    req.SourceURI,
		Layout:       req.Layout,
		Description:  req.Description,
		ScheduleCron: req.ScheduleCron,
		IsPaused:     req.IsPaused,
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, actor, "DATASET_CREATED", fmt.Sprintf("Registered dataset %s (%s)", ds.Name, ds.SourceURI))
	s.reloadSchedules(ctx)
	return ds, nil
}

// Upsert creates the dataset or, when a dataset with the same name already
// exists, updates its mutable fields in place. Used by manifest apply.
func (s *Service) Upsert(ctx context.Context, actor string, req domain.CreateDatasetRequest) (*domain.Dataset, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	if err := validateSchedule(req.ScheduleCron); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.GetByName(ctx, req.Name)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); !ok {
			return nil, false, err
		}
		ds, err := s.Create(ctx, actor, req)
		return ds, true, err
	}

	if existing.Layout != req.Layout {
		return nil, false, domain.ErrValidation(
			"dataset %q already registered with layout %q; layout cannot change", req.Name, existing.Layout)
	}

	schedule := ""
	if req.ScheduleCron != nil {
		schedule = *req.ScheduleCron
	}
	ds, err := s.repo.Update(ctx, existing.ID, domain.UpdateDatasetRequest{
		SourceURI:    &req.SourceURI,
		Description:  &req.Description,
		ScheduleCron: &schedule,
		IsPaused:     &req.IsPaused,
	})
	if err != nil {
		return nil, false, err
	}

	s.logAudit(ctx, actor, "DATASET_UPDATED", fmt.Sprintf("Updated dataset %s", ds.Name))
	s.reloadSchedules(ctx)
	return ds, false, nil
}

// Get returns a dataset by name.
func (s *Service) Get(ctx context.Context, name string) (*domain.Dataset, error) {
	return s.repo.GetByName(ctx, name)
}

// List returns a page of datasets.
func (s *Service) List(ctx context.Context, page domain.PageRequest) ([]domain.Dataset, int64, error) {
	return s.repo.List(ctx, page)
}

// Delete removes a dataset by name.
func (s *Service) Delete(ctx context.Context, actor, name string) error {
	ds, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, ds.ID); err != nil {
		return err
	}
	s.logAudit(ctx, actor, "DATASET_DELETED", fmt.Sprintf("Deleted dataset %s", name))
	s.reloadSchedules(ctx)
	return nil
}

func (s *Service) reloadSchedules(ctx context.Context) {
	if s.reloader == nil {
		return
	}
	if err := s.reloader.Reload(ctx); err != nil {
		s.logger.Warn("schedule reload failed", "error", err)
	}
}

func (s *Service) logAudit(ctx context.Context, actor, action, detail string) {
	err := s.audit.Insert(ctx, &domain.AuditEntry{Actor: actor, Action: action, Detail: detail})
	if err != nil {
		s.logger.Warn("audit insert failed", "action", action, "error", err)
	}
}

// validateSchedule rejects cron expressions the scheduler would refuse later.
func validateSchedule(expr *string) error {
	if expr == nil || *expr == "" {
		return nil
	}
	if _, err := cron.ParseStandard(*expr); err != nil {
		return domain.ErrValidation("invalid cron schedule %q: %v", *expr, err)
	}
	return nil
}
