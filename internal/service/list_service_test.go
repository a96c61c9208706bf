package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/Tomlord1122/todolist/internal/domain"
	"github.com/Tomlord1122/todolist/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errStoreDown = errors.New("store unreachable")

// countingItems records calls so tests can assert nothing hit the store.
type countingItems struct {
	repository.ItemRepository
	creates int
	failAll bool
}

func (c *countingItems) FindAll(ctx context.Context) ([]domain.Item, error) {
	if c.failAll {
		return nil, errStoreDown
	}
	return c.ItemRepository.FindAll(ctx)
}

func (c *countingItems) Create(ctx context.Context, item *domain.Item) error {
	c.creates++
	if c.failAll {
		return errStoreDown
	}
	return c.ItemRepository.Create(ctx, item)
}

type failingLists struct {
	repository.ListRepository
}

func (failingLists) FindByName(context.Context, string) (*domain.List, error) {
	return nil, errStoreDown
}

func (failingLists) PullItem(context.Context, string, string) error {
	return errStoreDown
}

type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]domain.Item
	invalidated []string
	failGet     bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]domain.Item{}}
}

func (c *memoryCache) Get(_ context.Context, name string) ([]domain.Item, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("redis down")
	}
	items, ok := c.entries[name]
	return items, ok, nil
}

func (c *memoryCache) Set(_ context.Context, name string, items []domain.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = items
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
	c.invalidated = append(c.invalidated, name)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

type fixture struct {
	svc   ListService
	items *countingItems
	lists *repository.MemoryListRepository
	cache *memoryCache
}

func newFixture() *fixture {
	f := &fixture{
		items: &countingItems{ItemRepository: repository.NewMemoryItemRepository()},
		lists: repository.NewMemoryListRepository(),
		cache: newMemoryCache(),
	}
	f.svc = NewListService(f.items, f.lists, f.cache, zap.NewNop())
	return f
}

func names(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

var defaultNames = []string{
	"Welcome to your todolist!",
	"Hit + to add new item.",
	"<-- Hit this to delete item.",
}

func TestResolveTodaySeedsWhenEmpty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	view, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.True(t, view.Created)
	assert.Equal(t, "Today", view.Title)
	assert.Empty(t, view.Items)

	view, err = f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.False(t, view.Created)
	assert.Equal(t, defaultNames, names(view.Items))
}

func TestResolveEmptyNameIsToday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, "")
	require.NoError(t, err)

	view, err := f.svc.Resolve(ctx, "today")
	require.NoError(t, err)
	assert.Equal(t, "Today", view.Title)
	assert.Len(t, view.Items, 3)
}

func TestResolveCreatesUnseenList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	view, err := f.svc.Resolve(ctx, "groceries")
	require.NoError(t, err)
	assert.True(t, view.Created)
	assert.Equal(t, "Groceries", view.Title)
	assert.Empty(t, view.Items, "a freshly created list is not rendered from memory")

	first, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.False(t, first.Created)
	assert.Equal(t, defaultNames, names(first.Items))

	second, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
}

func TestResolveNormalizesToSameList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	view, err := f.svc.Resolve(ctx, "todayslist")
	require.NoError(t, err)
	require.True(t, view.Created)
	assert.Equal(t, "Todayslist", view.Title)

	view, err = f.svc.Resolve(ctx, "Todayslist")
	require.NoError(t, err)
	assert.False(t, view.Created)
	assert.Equal(t, "Todayslist", view.Title)

	list, err := f.lists.FindByName(ctx, "Todayslist")
	require.NoError(t, err)
	assert.Equal(t, list.Items[0].ID, view.Items[0].ID)
}

func TestResolveServesFromCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cached := []domain.Item{domain.NewItem("cached")}
	f.cache.entries["Work"] = cached

	view, err := f.svc.Resolve(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, cached, view.Items)

	_, err = f.lists.FindByName(ctx, "Work")
	assert.Error(t, err, "a cache hit must not create the list")
}

func TestResolvePopulatesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Work")
	require.NoError(t, err)
	assert.NotContains(t, f.cache.entries, "Work", "seeding must not cache")

	view, err := f.svc.Resolve(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, view.Items, f.cache.entries["Work"])
}

func TestResolveIgnoresCacheFailure(t *testing.T) {
	f := newFixture()
	f.cache.failGet = true
	ctx := context.Background()

	_, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	view, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.Len(t, view.Items, 3)
}

func TestResolvePersistenceFailure(t *testing.T) {
	f := newFixture()
	f.items.failAll = true
	_, err := f.svc.Resolve(context.Background(), "Today")
	assert.ErrorIs(t, err, errStoreDown)

	svc := NewListService(repository.NewMemoryItemRepository(), failingLists{}, nil, zap.NewNop())
	_, err = svc.Resolve(context.Background(), "Groceries")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestAddItemToToday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)

	target, err := f.svc.AddItem(ctx, "Milk", "Today")
	require.NoError(t, err)
	assert.Equal(t, "Today", target)
	assert.Contains(t, f.cache.invalidated, "Today")

	view, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.Contains(t, names(view.Items), "Milk")
	assert.Equal(t, "Milk", view.Items[len(view.Items)-1].Name)
}

func TestAddItemRejectsEmptyName(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := f.svc.AddItem(ctx, name, "Today")
		assert.ErrorIs(t, err, ErrEmptyItemName)
		assert.True(t, IsValidation(err))
	}
	assert.Zero(t, f.items.creates, "no item may reach the store")

	all, err := f.items.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAddItemToNamedList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)

	target, err := f.svc.AddItem(ctx, "  Bread ", "groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", target)

	view, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, defaultNames...), "Bread"), names(view.Items))
}

func TestAddItemToMissingList(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddItem(context.Background(), "Bread", "Nowhere")
	assert.ErrorIs(t, err, ErrListNotFound)
	assert.False(t, IsValidation(err))
}

func TestAddItemPersistenceFailure(t *testing.T) {
	f := newFixture()
	f.items.failAll = true
	_, err := f.svc.AddItem(context.Background(), "Milk", "Today")
	assert.ErrorIs(t, err, errStoreDown)

	svc := NewListService(repository.NewMemoryItemRepository(), failingLists{}, nil, zap.NewNop())
	_, err = svc.AddItem(context.Background(), "Milk", "Groceries")
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrListNotFound)
}

func TestRemoveItemFromToday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	view, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)

	target, err := f.svc.RemoveItem(ctx, view.Items[0].ID, "Today")
	require.NoError(t, err)
	assert.Equal(t, "Today", target)

	view, err = f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.Equal(t, defaultNames[1:], names(view.Items))

	// Deleting again is a no-op.
	_, err = f.svc.RemoveItem(ctx, uuid.NewString(), "Today")
	assert.NoError(t, err)
}

func TestRemoveItemFromNamedList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, "Work")
	require.NoError(t, err)

	groceries, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	work, err := f.svc.Resolve(ctx, "Work")
	require.NoError(t, err)

	target, err := f.svc.RemoveItem(ctx, groceries.Items[1].ID, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", target)
	assert.Contains(t, f.cache.invalidated, "Groceries")

	after, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{groceries.Items[0], groceries.Items[2]}, after.Items)

	untouched, err := f.svc.Resolve(ctx, "Work")
	require.NoError(t, err)
	assert.Equal(t, work.Items, untouched.Items)
}

func TestRemoveUnknownItemFromNamedList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	before, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)

	_, err = f.svc.RemoveItem(ctx, uuid.NewString(), "Groceries")
	require.NoError(t, err)

	after, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, before.Items, after.Items)
}

func TestRemoveItemValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RemoveItem(ctx, "", "Today")
	assert.ErrorIs(t, err, ErrMissingItemID)
	assert.True(t, IsValidation(err))

	_, err = f.svc.RemoveItem(ctx, "not-an-id", "Groceries")
	assert.ErrorIs(t, err, ErrInvalidItemID)
	assert.True(t, IsValidation(err))
}

func TestMutationsRequireTargetList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for _, name := range []string{"", "  "} {
		_, err := f.svc.AddItem(ctx, "Ghost", name)
		assert.ErrorIs(t, err, ErrListNotFound)
		assert.False(t, IsValidation(err))

		_, err = f.svc.RemoveItem(ctx, uuid.NewString(), name)
		assert.ErrorIs(t, err, ErrListNotFound)
	}
	assert.Zero(t, f.items.creates)
	assert.Empty(t, f.cache.invalidated)
}

func TestRemoveItemAcceptsNonCanonicalID(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)

	groceries, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	_, err = f.svc.RemoveItem(ctx, strings.ToUpper(groceries.Items[0].ID), "Groceries")
	require.NoError(t, err)
	after, err := f.svc.Resolve(ctx, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, groceries.Items[1:], after.Items)

	today, err := f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	_, err = f.svc.RemoveItem(ctx, "{"+today.Items[0].ID+"}", "Today")
	require.NoError(t, err)
	after, err = f.svc.Resolve(ctx, "Today")
	require.NoError(t, err)
	assert.Equal(t, today.Items[1:], after.Items)
}

func TestRemoveItemFromMissingList(t *testing.T) {
	f := newFixture()
	_, err := f.svc.RemoveItem(context.Background(), uuid.NewString(), "Nowhere")
	assert.ErrorIs(t, err, ErrListNotFound)
}

func TestRemoveItemPersistenceFailure(t *testing.T) {
	svc := NewListService(repository.NewMemoryItemRepository(), failingLists{}, nil, zap.NewNop())
	_, err := svc.RemoveItem(context.Background(), uuid.NewString(), "Groceries")
	assert.ErrorIs(t, err, errStoreDown)
}
