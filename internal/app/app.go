// Package app provides application-level wiring and dependency injection
// for the image lake following hexagonal architecture.
package app

import (
	"database/sql"
	"log/slog"

	"github.com/michaelsamjatin/imagelake/internal/config"
	"github.com/michaelsamjatin/imagelake/internal/db/repository"
	"github.com/michaelsamjatin/imagelake/internal/lake"
	"github.com/michaelsamjatin/imagelake/internal/service/dataset"
	"github.com/michaelsamjatin/imagelake/internal/service/pipeline"
	"github.com/michaelsamjatin/imagelake/internal/service/source"
)

// Deps holds the external dependencies that main() must provide.
// These are things the app package cannot (or should not) create itself:
// database handles, the lake store, and config.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Lake    *lake.Store
	Logger  *slog.Logger
}

// Services groups all service pointers that the API handler, scheduler, and
// CLI need.
type Services struct {
	Dataset  *dataset.Service
	Pipeline *pipeline.Service
}

// App holds the fully-wired application.
type App struct {
	Services  Services
	Scheduler *pipeline.Scheduler
	AuditRepo *repository.AuditRepo
	Lake      *lake.Store
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) *App {
	// Repositories that INSERT/UPDATE/DELETE use the write pool; the
	// load-run repo also serves listings, which the read pool could cover,
	// but run state transitions dominate its traffic.
	datasetRepo := repository.NewDatasetRepo(deps.WriteDB)
	runRepo := repository.NewLoadRunRepo(deps.WriteDB)
	auditRepo := repository.NewAuditRepo(deps.WriteDB)

	resolver := source.NewResolver(deps.Cfg, deps.Logger.With("component", "source-resolver"))

	pipelineSvc := pipeline.NewService(
		datasetRepo, runRepo, auditRepo, deps.Lake, resolver,
		pipeline.Options{
			DefaultImageSize: deps.Cfg.ImageSize,
			Workers:          deps.Cfg.PipelineWorkers,
		},
		deps.Logger.With("component", "pipeline"),
	)

	scheduler := pipeline.NewScheduler(pipelineSvc, datasetRepo, deps.Logger.With("component", "scheduler"))

	datasetSvc := dataset.NewService(datasetRepo, auditRepo, scheduler, deps.Logger.With("component", "datasets"))

	return &App{
		Services: Services{
			Dataset:  datasetSvc,
			Pipeline: pipelineSvc,
		},
		Scheduler: scheduler,
		AuditRepo: auditRepo,
		Lake:      deps.Lake,
	}
}
