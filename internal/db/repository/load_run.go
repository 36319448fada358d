package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Compile-time check.
var _ domain.LoadRunRepository = (*LoadRunRepo)(nil)

// LoadRunRepo implements domain.LoadRunRepository using SQLite.
type LoadRunRepo struct {
	db *sql.DB
}

// NewLoadRunRepo creates a new LoadRunRepo.
func NewLoadRunRepo(db *sql.DB) *LoadRunRepo {
	return &LoadRunRepo{db: db}
}

const loadRunColumns = `r.id, r.dataset_id, d.name, r.status, r.trigger_type, r.triggered_by,
	r.image_size, r.images_seen, r.images_loaded, r.images_skipped,
	r.started_at, r.finished_at, r.error_message, r.created_at`

// Create inserts a new load run in PENDING state.
func (r *LoadRunRepo) Create(ctx context.Context, run *domain.LoadRun) (*domain.LoadRun, error) {
	id := domain.NewID()
	status := run.Status
	if status == "" {
		status = domain.LoadRunStatusPending
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO load_runs (id, dataset_id, status, trigger_type, triggered_by, image_size)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.DatasetID, status, run.TriggerType, run.TriggeredBy, run.ImageSize)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a load run by its ID, joined with its dataset name.
func (r *LoadRunRepo) GetByID(ctx context.Context, id string) (*domain.LoadRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loadRunColumns+`
		 FROM load_runs r JOIN datasets d ON d.id = r.dataset_id
		 WHERE r.id = ?`, id)
	run, err := scanLoadRun(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return run, nil
}

// List returns load runs newest-first, optionally filtered by dataset and status.
func (r *LoadRunRepo) List(ctx context.Context, filter domain.LoadRunFilter) ([]domain.LoadRun, int64, error) {
	var conds []string
	var args []any
	if filter.DatasetID != nil {
		conds = append(conds, "r.dataset_id = ?")
		args = append(args, *filter.DatasetID)
	}
	if filter.Status != nil {
		conds = append(conds, "r.status = ?")
		args = append(args, *filter.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM load_runs r JOIN datasets d ON d.id = r.dataset_id` + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	listSQL := `SELECT ` + loadRunColumns +
		` FROM load_runs r JOIN datasets d ON d.id = r.dataset_id` + where +
		` ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.QueryContext(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.LoadRun
	for rows.Next() {
		run, err := scanLoadRun(rows)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

// MarkStarted transitions a run to RUNNING and records the start time.
func (r *LoadRunRepo) MarkStarted(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE load_runs SET status = ?, started_at = ? WHERE id = ?`,
		domain.LoadRunStatusRunning, time.Now().UTC(), id)
}

// MarkFinished transitions a run to a terminal status and records the finish time.
func (r *LoadRunRepo) MarkFinished(ctx context.Context, id, status string, errMsg *string) error {
	return r.exec(ctx,
		`UPDATE load_runs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?`,
		status, time.Now().UTC(), nullStringPtr(errMsg), id)
}

// UpdateCounters records progress counts for a run.
func (r *LoadRunRepo) UpdateCounters(ctx context.Context, id string, seen, loaded, skipped int64) error {
	return r.exec(ctx,
		`UPDATE load_runs SET images_seen = ?, images_loaded = ?, images_skipped = ? WHERE id = ?`,
		seen, loaded, skipped, id)
}

func (r *LoadRunRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("load run not found")
	}
	return nil
}

func scanLoadRun(s rowScanner) (*domain.LoadRun, error) {
	var run domain.LoadRun
	var startedAt, finishedAt sql.NullTime
	var errMsg sql.NullString
	if err := s.Scan(&run.ID, &run.DatasetID, &run.DatasetName, &run.Status,
		&run.TriggerType, &run.TriggeredBy, &run.ImageSize,
		&run.ImagesSeen, &run.ImagesLoaded, &run.ImagesSkipped,
		&startedAt, &finishedAt, &errMsg, &run.CreatedAt); err != nil {
		return nil, err
	}
	run.StartedAt = ptrFromNullTime(startedAt)
	run.FinishedAt = ptrFromNullTime(finishedAt)
	run.ErrorMessage = ptrFromNullString(errMsg)
	return &run, nil
}
