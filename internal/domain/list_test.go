package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"todayslist", "Todayslist"},
		{"Todayslist", "Todayslist"},
		{"groceries", "Groceries"},
		{"workTODO", "WorkTODO"},
		{"élan", "Élan"},
		{"1st", "1st"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeListName(tt.in))
		})
	}
}

func TestIsToday(t *testing.T) {
	assert.True(t, IsToday("Today"))
	assert.True(t, IsToday("today"))
	assert.True(t, IsToday(""))
	assert.False(t, IsToday("Todayslist"))
	assert.False(t, IsToday("TODAY"))
}

func TestDefaultItems(t *testing.T) {
	first := DefaultItems()
	second := DefaultItems()

	require.Len(t, first, 3)
	assert.Equal(t, "Welcome to your todolist!", first[0].Name)
	assert.Equal(t, "Hit + to add new item.", first[1].Name)
	assert.Equal(t, "<-- Hit this to delete item.", first[2].Name)

	for i := range first {
		_, err := uuid.Parse(first[i].ID)
		require.NoError(t, err)
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.NotEqual(t, first[i].ID, second[i].ID, "seeding must hand out fresh ids")
	}
}

func TestItemsValueAndScan(t *testing.T) {
	items := Items{{ID: "a", Name: "Milk"}, {ID: "b", Name: "Eggs"}}

	v, err := items.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","name":"Milk"},{"id":"b","name":"Eggs"}]`, v.(string))

	var fromBytes Items
	require.NoError(t, fromBytes.Scan([]byte(v.(string))))
	assert.Equal(t, items, fromBytes)

	var fromString Items
	require.NoError(t, fromString.Scan(v))
	assert.Equal(t, items, fromString)
}

func TestItemsNilAndEmpty(t *testing.T) {
	var nilItems Items
	v, err := nilItems.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var scanned Items
	require.NoError(t, scanned.Scan(nil))
	assert.NotNil(t, scanned)
	assert.Empty(t, scanned)

	require.NoError(t, scanned.Scan("null"))
	assert.NotNil(t, scanned)
	assert.Empty(t, scanned)
}

func TestItemsScanRejectsUnknownType(t *testing.T) {
	var items Items
	assert.Error(t, items.Scan(42))
	assert.Error(t, items.Scan([]byte("{not json")))
}
