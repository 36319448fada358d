// Package lake is the DuckDB data plane: normalized image records are merged
// into a single embedded database file that can be shared across a team or
// attached from a managed DuckDB service.
package lake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Compile-time check.
var _ domain.LakeStore = (*Store)(nil)

// Store wraps a DuckDB connection holding the images table.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the DuckDB lake file and ensures the images table
// exists. Pass an empty path for an in-memory database (tests).
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// DuckDB serializes writers internally; a single connection keeps the
	// merge path predictable.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying DuckDB connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS images (
			original_path   TEXT PRIMARY KEY,
			filename        TEXT NOT NULL,
			dataset         TEXT NOT NULL,
			class           TEXT NOT NULL,
			split           TEXT NOT NULL,
			original_width  BIGINT NOT NULL,
			original_height BIGINT NOT NULL,
			resized_width   BIGINT NOT NULL,
			resized_height  BIGINT NOT NULL,
			image_data      BLOB NOT NULL,
			load_run_id     TEXT NOT NULL,
			source          TEXT NOT NULL,
			loaded_at       TIMESTAMP NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure images table: %w", err)
	}
	return nil
}

// Merge upserts records keyed by original_path inside one transaction.
// Re-loading the same file replaces the earlier row instead of duplicating it.
func (s *Store) Merge(ctx context.Context, records []domain.ImageRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO images (
			original_path, filename, dataset, class, split,
			original_width, original_height, resized_width, resized_height,
			image_data, load_run_id, source, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare merge: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range records {
		rec := &records[i]
		loadedAt := rec.LoadedAt
		if loadedAt.IsZero() {
			loadedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx,
			rec.OriginalPath, rec.Filename, rec.Dataset, rec.Class, rec.Split,
			rec.OriginalWidth, rec.OriginalHeight, rec.ResizedWidth, rec.ResizedHeight,
			rec.ImageData, rec.LoadRunID, rec.Source, loadedAt); err != nil {
			return fmt.Errorf("merge %q: %w", rec.OriginalPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit merge: %w", err)
	}
	return nil
}

// Count returns the total number of image records in the lake.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

// Stats returns record counts grouped by (dataset, class, split).
func (s *Store) Stats(ctx context.Context) ([]domain.LakeStatsRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset, class, split, COUNT(*) AS n
		FROM images
		GROUP BY dataset, class, split
		ORDER BY dataset, class, split`)
	if err != nil {
		return nil, fmt.Errorf("lake stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []domain.LakeStatsRow
	for rows.Next() {
		var row domain.LakeStatsRow
		if err := rows.Scan(&row.Dataset, &row.Class, &row.Split, &row.Count); err != nil {
			return nil, err
		}
		stats = append(stats, row)
	}
	return stats, rows.Err()
}

// ListImages returns image metadata (no blobs) matching the filter,
// ordered by original path.
func (s *Store) ListImages(ctx context.Context, filter domain.ImageFilter) ([]domain.ImageMeta, int64, error) {
	var conds []string
	var args []any
	if filter.Dataset != nil {
		conds = append(conds, "dataset = ?")
		args = append(args, *filter.Dataset)
	}
	if filter.Class != nil {
		conds = append(conds, "class = ?")
		args = append(args, *filter.Class)
	}
	if filter.Split != nil {
		conds = append(conds, "split = ?")
		args = append(args, *filter.Split)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	rows, err := s.db.QueryContext(ctx, `
		SELECT original_path, filename, dataset, class, split,
		       original_width, original_height, resized_width, resized_height,
		       OCTET_LENGTH(image_data), load_run_id, source, loaded_at
		FROM images`+where+`
		ORDER BY original_path LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = rows.Close() }()

	var metas []domain.ImageMeta
	for rows.Next() {
		var m domain.ImageMeta
		if err := rows.Scan(&m.OriginalPath, &m.Filename, &m.Dataset, &m.Class, &m.Split,
			&m.OriginalWidth, &m.OriginalHeight, &m.ResizedWidth, &m.ResizedHeight,
			&m.SizeBytes, &m.LoadRunID, &m.Source, &m.LoadedAt); err != nil {
			return nil, 0, err
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return metas, total, nil
}
