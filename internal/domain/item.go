package domain

import "github.com/google/uuid"

// Item is a single to-do entry. It lives either as a row of the items table
// (the "Today" list) or embedded in a List document.
type Item struct {
	ID   string `gorm:"type:uuid;primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
	// Seq is assigned by the database and only used to keep insertion order.
	Seq int64 `gorm:"->" json:"-"`
}

// NewItem builds an Item with a fresh identifier.
func NewItem(name string) Item {
	return Item{ID: uuid.NewString(), Name: name}
}

var defaultItemNames = []string{
	"Welcome to your todolist!",
	"Hit + to add new item.",
	"<-- Hit this to delete item.",
}

// DefaultItems returns the starter items used to seed an empty or new list.
// Every call hands out new ids.
func DefaultItems() []Item {
	items := make([]Item, 0, len(defaultItemNames))
	for _, name := range defaultItemNames {
		items = append(items, NewItem(name))
	}
	return items
}
