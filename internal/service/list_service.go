package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Tomlord1122/todolist/internal/cache"
	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
)

// Validation and lookup failures returned by ListService. Anything else is a
// wrapped persistence error.
var (
	ErrEmptyItemName = errors.New("item name cannot be empty")
	ErrMissingItemID = errors.New("no item selected for deletion")
	ErrInvalidItemID = errors.New("invalid item id")
	ErrListNotFound  = errors.New("list not found")
)

// IsValidation reports whether err was caused by bad input rather than by
// the store.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyItemName) ||
		errors.Is(err, ErrMissingItemID) ||
		errors.Is(err, ErrInvalidItemID)
}

// ListView is what a list page shows.
type ListView struct {
	Title string
	Items []domain.Item
	// Created is set when the list was seeded by this call. The items are
	// not returned in that case; the caller should fetch the list again.
	Created bool
}

// ListService resolves lists and mutates their items.
type ListService interface {
	// Resolve returns the items of the list called name, seeding it with the
	// default items when it is empty or does not exist yet.
	Resolve(ctx context.Context, name string) (*ListView, error)

	// AddItem appends a new item to the target list and returns the
	// normalized list name.
	AddItem(ctx context.Context, itemName, listName string) (string, error)

	// RemoveItem deletes an item by id from the target list and returns the
	// normalized list name.
	RemoveItem(ctx context.Context, itemID, listName string) (string, error)
}

type listService struct {
	items  repository.ItemRepository
	lists  repository.ListRepository
	cache  cache.ListCache
	logger *zap.Logger
}

// NewListService wires the resolver and mutator on top of the repositories.
// A nil cache disables caching.
func NewListService(items repository.ItemRepository, lists repository.ListRepository, c cache.ListCache, logger *zap.Logger) ListService {
	if c == nil {
		c = cache.Noop{}
	}
	return &listService{
		items:  items,
		lists:  lists,
		cache:  c,
		logger: logger,
	}
}

func listTitle(name string) string {
	if domain.IsToday(name) {
		return domain.TodayListName
	}
	return domain.NormalizeListName(name)
}

// targetTitle resolves the list a mutation applies to. Unlike a page lookup,
// a blank name does not fall back to Today.
func targetTitle(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrListNotFound
	}
	return listTitle(name), nil
}

func (s *listService) Resolve(ctx context.Context, name string) (*ListView, error) {
	title := listTitle(name)

	if items, ok := s.cachedItems(ctx, title); ok {
		return &ListView{Title: title, Items: items}, nil
	}

	if title == domain.TodayListName {
		return s.resolveToday(ctx)
	}

	list, err := s.lists.FindByName(ctx, title)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Info("list does not exist, creating", zap.String("list", title))
		newList := &domain.List{Name: title, Items: domain.DefaultItems()}
		if err := s.lists.Create(ctx, newList); err != nil {
			return nil, fmt.Errorf("create list %q: %w", title, err)
		}
		return &ListView{Title: title, Created: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find list %q: %w", title, err)
	}

	items := []domain.Item(list.Items)
	s.storeItems(ctx, title, items)
	return &ListView{Title: list.Name, Items: items}, nil
}

func (s *listService) resolveToday(ctx context.Context) (*ListView, error) {
	items, err := s.items.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("find items: %w", err)
	}
	if len(items) == 0 {
		if err := s.items.CreateMany(ctx, domain.DefaultItems()); err != nil {
			return nil, fmt.Errorf("seed default items: %w", err)
		}
		s.logger.Info("seeded default items", zap.String("list", domain.TodayListName))
		return &ListView{Title: domain.TodayListName, Created: true}, nil
	}

	s.storeItems(ctx, domain.TodayListName, items)
	return &ListView{Title: domain.TodayListName, Items: items}, nil
}

func (s *listService) AddItem(ctx context.Context, itemName, listName string) (string, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return "", ErrEmptyItemName
	}
	title, err := targetTitle(listName)
	if err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}
	item := domain.NewItem(itemName)

	if title == domain.TodayListName {
		if err := s.items.Create(ctx, &item); err != nil {
			return "", fmt.Errorf("insert item: %w", err)
		}
	} else {
		list, err := s.lists.FindByName(ctx, title)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("add item to %q: %w", title, ErrListNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("find list %q: %w", title, err)
		}
		list.Items = append(list.Items, item)
		if err := s.lists.Save(ctx, list); err != nil {
			return "", fmt.Errorf("save list %q: %w", title, err)
		}
	}

	s.invalidate(ctx, title)
	return title, nil
}

func (s *listService) RemoveItem(ctx context.Context, itemID, listName string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", ErrMissingItemID
	}
	parsed, err := uuid.Parse(itemID)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidItemID, itemID)
	}
	// Embedded items are matched as text, so use the canonical form.
	itemID = parsed.String()
	title, err := targetTitle(listName)
	if err != nil {
		return "", fmt.Errorf("remove item: %w", err)
	}

	if title == domain.TodayListName {
		n, err := s.items.Delete(ctx, itemID)
		if err != nil {
			return "", fmt.Errorf("delete item %s: %w", itemID, err)
		}
		if n == 0 {
			s.logger.Debug("item already gone", zap.String("item", itemID))
		}
	} else {
		err := s.lists.PullItem(ctx, title, itemID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("remove item from %q: %w", title, ErrListNotFound)
		}
		if err != nil {
			return "", fmt.Errorf("pull item %s from %q: %w", itemID, title, err)
		}
	}

	s.invalidate(ctx, title)
	return title, nil
}

// Cache failures never fail a request; the store stays authoritative.

func (s *listService) cachedItems(ctx context.Context, title string) ([]domain.Item, bool) {
	items, hit, err := s.cache.Get(ctx, title)
	if err != nil {
		s.logger.Warn("list cache read failed", zap.String("list", title), zap.Error(err))
		return nil, false
	}
	return items, hit
}

func (s *listService) storeItems(ctx context.Context, title string, items []domain.Item) {
	if err := s.cache.Set(ctx, title, items); err != nil {
		s.logger.Warn("list cache write failed", zap.String("list", title), zap.Error(err))
	}
}

func (s *listService) invalidate(ctx context.Context, title string) {
	if err := s.cache.Invalidate(ctx, title); err != nil {
		s.logger.Warn("list cache invalidation failed", zap.String("list", title), zap.Error(err))
	}
}
