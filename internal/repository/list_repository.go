package repository

import (
	"context"

	"github.com/Tomlord1122/todolist/internal/domain"

	"gorm.io/gorm"
)

// ListRepository stores named lists with their embedded items.
// Lookups that miss return gorm.ErrRecordNotFound.
type ListRepository interface {
	FindByName(ctx context.Context, name string) (*domain.List, error)
	Create(ctx context.Context, list *domain.List) error
	// Save writes the whole list document back, items included.
	Save(ctx context.Context, list *domain.List) error
	// PullItem removes the item with itemID from the embedded items of the
	// named list in one statement. A missing item leaves the list untouched.
	PullItem(ctx context.Context, name, itemID string) error
}

// pullItemExpr rebuilds the items array without the element whose id matches,
// keeping the original order.
const pullItemExpr = `COALESCE((
	SELECT jsonb_agg(elem ORDER BY ord)
	FROM jsonb_array_elements(items) WITH ORDINALITY AS t(elem, ord)
	WHERE elem->>'id' <> ?
), '[]'::jsonb)`

type gormListRepository struct {
	db *gorm.DB
}

func NewGormListRepository(db *gorm.DB) ListRepository {
	return &gormListRepository{db: db}
}

// FindByName returns the oldest list with the given name.
func (r *gormListRepository) FindByName(ctx context.Context, name string) (*domain.List, error) {
	var list domain.List
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&list)
	if result.Error != nil {
		return nil, result.Error
	}
	return &list, nil
}

func (r *gormListRepository) Create(ctx context.Context, list *domain.List) error {
	if list.Items == nil {
		list.Items = domain.Items{}
	}
	return r.db.WithContext(ctx).Create(list).Error
}

func (r *gormListRepository) Save(ctx context.Context, list *domain.List) error {
	return r.db.WithContext(ctx).Save(list).Error
}

func (r *gormListRepository) PullItem(ctx context.Context, name, itemID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.List{}).
		Where("name = ?", name).
		Update("items", gorm.Expr(pullItemExpr, itemID))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
