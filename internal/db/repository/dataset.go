package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Compile-time check.
var _ domain.DatasetRepository = (*DatasetRepo)(nil)

// DatasetRepo implements domain.DatasetRepository using SQLite.
type DatasetRepo struct {
	db *sql.DB
}

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{db: db}
}

const datasetColumns = `id, name, source_uri, layout, description, schedule_cron, is_paused, created_at, updated_at`

// Create inserts a new dataset.
func (r *DatasetRepo) Create(ctx context.Context, d *domain.Dataset) (*domain.Dataset, error) {
	id := domain.NewID()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, source_uri, layout, description, schedule_cron, is_paused)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, d.Name, d.SourceURI, d.Layout, d.Description,
		nullStringPtr(d.ScheduleCron), boolToInt(d.IsPaused))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a dataset by its ID.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*domain.Dataset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE id = ?`, id)
	return scanDataset(row)
}

// GetByName returns a dataset by its unique name.
func (r *DatasetRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets WHERE name = ?`, name)
	return scanDataset(row)
}

// List returns a paginated list of datasets ordered by name.
func (r *DatasetRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Dataset, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets ORDER BY name LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var datasets []domain.Dataset
	for rows.Next() {
		d, err := scanDatasetRow(rows)
		if err != nil {
			return nil, 0, err
		}
		datasets = append(datasets, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return datasets, total, nil
}

// ListScheduled returns all datasets with a cron schedule that are not paused.
func (r *DatasetRepo) ListScheduled(ctx context.Context) ([]domain.Dataset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+datasetColumns+` FROM datasets
		 WHERE schedule_cron IS NOT NULL AND schedule_cron != '' AND is_paused = 0
		 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var datasets []domain.Dataset
	for rows.Next() {
		d, err := scanDatasetRow(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, rows.Err()
}

// Update applies a partial update. Nil fields are left unchanged.
func (r *DatasetRepo) Update(ctx context.Context, id string, req domain.UpdateDatasetRequest) (*domain.Dataset, error) {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sourceURI := existing.SourceURI
	if req.SourceURI != nil {
		sourceURI = *req.SourceURI
	}
	description := existing.Description
	if req.Description != nil {
		description = *req.Description
	}
	schedule := existing.ScheduleCron
	if req.ScheduleCron != nil {
		if *req.ScheduleCron == "" {
			schedule = nil
		} else {
			schedule = req.ScheduleCron
		}
	}
	isPaused := existing.IsPaused
	if req.IsPaused != nil {
		isPaused = *req.IsPaused
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE datasets
		 SET source_uri = ?, description = ?, schedule_cron = ?, is_paused = ?, updated_at = ?
		 WHERE id = ?`,
		sourceURI, description, nullStringPtr(schedule), boolToInt(isPaused),
		time.Now().UTC(), id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a dataset and (via FK cascade) its load runs.
func (r *DatasetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("dataset %q not found", id)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataset(row *sql.Row) (*domain.Dataset, error) {
	d, err := scanDatasetRow(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return d, nil
}

func scanDatasetRow(s rowScanner) (*domain.Dataset, error) {
	var d domain.Dataset
	var schedule sql.NullString
	var isPaused int64
	if err := s.Scan(&d.ID, &d.Name, &d.SourceURI, &d.Layout, &d.Description,
		&schedule, &isPaused, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.ScheduleCron = ptrFromNullString(schedule)
	d.IsPaused = isPaused != 0
	return &d, nil
}
