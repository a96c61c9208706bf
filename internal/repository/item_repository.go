package repository

import (
	"context"

	"github.com/Tomlord1122/todolist/internal/domain"

	"gorm.io/gorm"
)

// ItemRepository stores the items of the default "Today" list.
// Lookups that miss return gorm.ErrRecordNotFound.
type ItemRepository interface {
	FindAll(ctx context.Context) ([]domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) error
	CreateMany(ctx context.Context, items []domain.Item) error
	// Delete removes the item and reports how many rows went away.
	// Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) (int64, error)
}

// gormItemRepository implements ItemRepository using GORM
type gormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GORM item repository
func NewGormItemRepository(db *gorm.DB) ItemRepository {
	return &gormItemRepository{db: db}
}

// FindAll returns every item in insertion order.
func (r *gormItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	var items []domain.Item
	result := r.db.WithContext(ctx).Order("seq").Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (r *gormItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	var item domain.Item
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	return &item, nil
}

func (r *gormItemRepository) Create(ctx context.Context, item *domain.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// CreateMany inserts items in a single batch, preserving slice order.
func (r *gormItemRepository) CreateMany(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *gormItemRepository) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Item{})
	return result.RowsAffected, result.Error
}
