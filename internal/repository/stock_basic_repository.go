package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"ashare-data-collector/internal/entity"
	"ashare-data-collector/pkg/common"
)

// StockBasicRepository manages the stock master table and exposes the
// active stock-code universe other collectors filter against.
type StockBasicRepository interface {
	Upsert(ctx context.Context, rows []entity.StockBasic) (int, error)
	GetActiveCodes(ctx context.Context) ([]string, error)
	GetActiveCodeSet(ctx context.Context) (map[string]struct{}, error)
}

// NewStockBasicRepository creates a new StockBasicRepository.
func NewStockBasicRepository(db *gorm.DB) StockBasicRepository {
	return &stockBasicRepository{
		db:            db,
		universeCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

type stockBasicRepository struct {
	db            *gorm.DB
	universeCache *cache.Cache
}

func (r *stockBasicRepository) Upsert(ctx context.Context, rows []entity.StockBasic) (int, error) {
	n, err := Upsert(ctx, r.db, []string{"stock_code"}, rows)
	if err == nil {
		r.universeCache.Delete(common.StockUniverseCacheKey)
	}
	return n, err
}

// GetActiveCodes returns all stock codes excluding delisted ones.
func (r *stockBasicRepository) GetActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&entity.StockBasic{}).
		Where("status IS NULL OR status <> ?", entity.StatusDelisted).
		Order("stock_code ASC").
		Pluck("stock_code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// GetActiveCodeSet returns the active codes as a set, cached briefly
// because the fund-flow referential filter hits it repeatedly.
func (r *stockBasicRepository) GetActiveCodeSet(ctx context.Context) (map[string]struct{}, error) {
	if cached, ok := r.universeCache.Get(common.StockUniverseCacheKey); ok {
		return cached.(map[string]struct{}), nil
	}

	codes, err := r.GetActiveCodes(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	r.universeCache.Set(common.StockUniverseCacheKey, set, cache.DefaultExpiration)
	return set, nil
}
