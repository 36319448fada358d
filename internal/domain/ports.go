package domain

import "context"

// DatasetRepository persists registered datasets in the metastore.
type DatasetRepository interface {
	Create(ctx context.Context, d *Dataset) (*Dataset, error)
	GetByID(ctx context.Context, id string) (*Dataset, error)
	GetByName(ctx context.Context, name string) (*Dataset, error)
	List(ctx context.Context, page PageRequest) ([]Dataset, int64, error)
	ListScheduled(ctx context.Context) ([]Dataset, error)
	Update(ctx context.Context, id string, req UpdateDatasetRequest) (*Dataset, error)
	Delete(ctx context.Context, id string) error
}

// LoadRunRepository persists pipeline run state in the metastore.
type LoadRunRepository interface {
	Create(ctx context.Context, r *LoadRun) (*LoadRun, error)
	GetByID(ctx context.Context, id string) (*LoadRun, error)
	List(ctx context.Context, filter LoadRunFilter) ([]LoadRun, int64, error)
	MarkStarted(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, status string, errMsg *string) error
	UpdateCounters(ctx context.Context, id string, seen, loaded, skipped int64) error
}

// AuditRepository records and queries the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, filter AuditFilter) ([]AuditEntry, int64, error)
}

// LakeStore is the DuckDB data plane: normalized image records live here.
type LakeStore interface {
	Merge(ctx context.Context, records []ImageRecord) error
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context) ([]LakeStatsRow, error)
	ListImages(ctx context.Context, filter ImageFilter) ([]ImageMeta, int64, error)
}
