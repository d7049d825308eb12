package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertBatchSize caps the rows per storage call to respect payload limits.
const UpsertBatchSize = 1000

// Upsert writes rows in fixed-size batches using insert-or-update semantics
// on the given conflict columns. A failing batch aborts the remaining ones;
// batches already written stay committed, so the returned count can be
// smaller than len(rows). Callers recover from partial writes through
// watermark resume on the next run.
func Upsert[T any](ctx context.Context, db *gorm.DB, conflictColumns []string, rows []T) (int, error) {
	cols := make([]clause.Column, 0, len(conflictColumns))
	for _, c := range conflictColumns {
		cols = append(cols, clause.Column{Name: c})
	}

	write := func(batch []T) error {
		return db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: cols, UpdateAll: true}).
			Create(&batch).Error
	}

	return upsertChunked(rows, UpsertBatchSize, write)
}

// upsertChunked drives the batch loop. Split out so the chunking and
// abort-on-failure semantics are testable without a database.
func upsertChunked[T any](rows []T, batchSize int, write func([]T) error) (int, error) {
	if batchSize <= 0 {
		batchSize = UpsertBatchSize
	}

	committed := 0
	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := write(rows[start:end]); err != nil {
			return committed, fmt.Errorf("batch %d failed after %d rows committed: %w",
				start/batchSize+1, committed, err)
		}
		committed += end - start
	}
	return committed, nil
}
