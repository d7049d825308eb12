package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
)

// CollectionRunRepository records orchestrated runs and their outcomes.
type CollectionRunRepository interface {
	Create(ctx context.Context, run *entity.CollectionRun) error
	Finish(ctx context.Context, id uint, status string, detail datatypes.JSON) error
	FindRecent(ctx context.Context, limit int) ([]entity.CollectionRun, error)
}

// NewCollectionRunRepository creates a new CollectionRunRepository.
func NewCollectionRunRepository(db *gorm.DB) CollectionRunRepository {
	return &collectionRunRepository{db: db}
}

type collectionRunRepository struct {
	db *gorm.DB
}

func (r *collectionRunRepository) Create(ctx context.Context, run *entity.CollectionRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *collectionRunRepository) Finish(ctx context.Context, id uint, status string, detail datatypes.JSON) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&entity.CollectionRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"finished_at": &now,
			"detail":      detail,
		}).Error
}

func (r *collectionRunRepository) FindRecent(ctx context.Context, limit int) ([]entity.CollectionRun, error) {
	var runs []entity.CollectionRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
