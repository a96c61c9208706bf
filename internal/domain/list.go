package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// TodayListName is the default list. It is backed by the items table rather
// than by a List row.
const TodayListName = "Today"

// List is a named to-do list. Its items live inside the row.
type List struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Name      string    `gorm:"not null;index" json:"name"`
	Items     Items     `gorm:"type:jsonb;not null" json:"items"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Items is the embedded item sequence of a List, stored as a JSONB array.
type Items []Item

// Value implements driver.Valuer.
func (it Items) Value() (driver.Value, error) {
	if it == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Item(it))
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (it *Items) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*it = Items{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan items: unsupported source type %T", src)
	}

	var out []Item
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal items: %w", err)
	}
	if out == nil {
		out = []Item{}
	}
	*it = out
	return nil
}

// NormalizeListName upper-cases the first letter of name and leaves the rest
// untouched, so "groceries" and "Groceries" address the same list.
func NormalizeListName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// IsToday reports whether name addresses the default list once normalized.
// The empty name is treated as the default list as well.
func IsToday(name string) bool {
	n := NormalizeListName(name)
	return n == "" || n == TodayListName
}
