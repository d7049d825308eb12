package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// NewsRepository manages news records keyed by URL.
type NewsRepository interface {
	Upsert(ctx context.Context, rows []entity.NewsItem) (int, error)
	Exists(ctx context.Context, url string) (bool, error)
	DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// NewNewsRepository creates a new NewsRepository.
func NewNewsRepository(db *gorm.DB) NewsRepository {
	return &newsRepository{db: db}
}

type newsRepository struct {
	db *gorm.DB
}

func (r *newsRepository) Upsert(ctx context.Context, rows []entity.NewsItem) (int, error) {
	return Upsert(ctx, r.db, []string{"url"}, rows)
}

// Exists is a point lookup used by the deduplicator before admitting a URL.
func (r *newsRepository) Exists(ctx context.Context, url string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.NewsItem{}).
		Where("url = ?", url).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *newsRepository) DeleteOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	result := r.db.WithContext(ctx).
		Where("create_time < ?", cutoff).
		Delete(&entity.NewsItem{})
	return result.RowsAffected, result.Error
}
