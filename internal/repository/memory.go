package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Tomlord1122/todolist/internal/domain"

	"gorm.io/gorm"
)

// MemoryItemRepository is an ItemRepository kept in process memory. It backs
// the serve --memory mode and the handler tests; data is lost on exit.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	seq   int64
	items []domain.Item
}

func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{}
}

func (r *MemoryItemRepository) FindAll(ctx context.Context) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.items), nil
}

func (r *MemoryItemRepository) FindByID(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.ID == id {
			found := it
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryItemRepository) Create(ctx context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	item.Seq = r.seq
	r.items = append(r.items, *item)
	return nil
}

func (r *MemoryItemRepository) CreateMany(ctx context.Context, items []domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range items {
		r.seq++
		items[i].Seq = r.seq
		r.items = append(r.items, items[i])
	}
	return nil
}

func (r *MemoryItemRepository) Delete(ctx context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.items)
	r.items = slices.DeleteFunc(r.items, func(it domain.Item) bool { return it.ID == id })
	return int64(before - len(r.items)), nil
}

// MemoryListRepository is a ListRepository kept in process memory.
type MemoryListRepository struct {
	mu     sync.RWMutex
	nextID uint
	lists  []domain.List
}

func NewMemoryListRepository() *MemoryListRepository {
	return &MemoryListRepository{}
}

func (r *MemoryListRepository) FindByName(ctx context.Context, name string) (*domain.List, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lists {
		if l.Name == name {
			return cloneList(l), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryListRepository) Create(ctx context.Context, list *domain.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now()
	list.ID = r.nextID
	list.CreatedAt = now
	list.UpdatedAt = now
	if list.Items == nil {
		list.Items = domain.Items{}
	}
	r.lists = append(r.lists, *cloneList(*list))
	return nil
}

func (r *MemoryListRepository) Save(ctx context.Context, list *domain.List) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lists {
		if r.lists[i].ID == list.ID {
			list.UpdatedAt = time.Now()
			r.lists[i] = *cloneList(*list)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *MemoryListRepository) PullItem(ctx context.Context, name, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := false
	for i := range r.lists {
		if r.lists[i].Name != name {
			continue
		}
		found = true
		r.lists[i].Items = slices.DeleteFunc(r.lists[i].Items, func(it domain.Item) bool { return it.ID == itemID })
		r.lists[i].UpdatedAt = time.Now()
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func cloneList(l domain.List) *domain.List {
	l.Items = slices.Clone(l.Items)
	if l.Items == nil {
		l.Items = domain.Items{}
	}
	return &l
}
