package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemMergesByName(t *testing.T) {
	c := New()

	first := c.AddItem("Sword", 10)
	assert.NotEmpty(t, first.CartID)
	assert.Equal(t, 1, first.Quantity)

	second := c.AddItem("Sword", 10)
	assert.Equal(t, first.CartID, second.CartID)
	assert.Equal(t, 2, second.Quantity)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, 2, c.TotalItems())
	assert.Equal(t, 20.0, c.TotalPrice())
}

func TestUpdateQuantity(t *testing.T) {
	c := New()
	c.AddItem("Sword", 10)

	c.UpdateQuantity("Sword", 5)
	assert.Equal(t, 5, c.TotalItems())

	// unknown names are a no-op
	c.UpdateQuantity("Shield", 3)
	assert.Equal(t, 5, c.TotalItems())

	// zero or less removes the line
	c.UpdateQuantity("Sword", 0)
	assert.Empty(t, c.Items())
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	c.AddItem("Sword", 10)
	c.AddItem("Shield", 5)

	c.RemoveItem("Sword")
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Shield", items[0].Name)

	c.Clear()
	assert.Empty(t, c.Items())
	assert.Zero(t, c.TotalPrice())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New()
	c.AddItem("Sword", 10)

	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.TotalItems())
}

func TestSubscribe(t *testing.T) {
	c := New()
	var events []Event
	c.Subscribe(func(e Event) { events = append(events, e) })

	c.AddItem("Sword", 10)
	c.AddItem("Sword", 10)
	c.UpdateQuantity("Sword", 4)
	c.RemoveItem("Sword")
	c.Clear()

	require.Len(t, events, 5)
	assert.Equal(t, "added", events[0].Kind)
	assert.Equal(t, "updated", events[1].Kind)
	assert.Equal(t, 4, events[2].Item.Quantity)
	assert.Equal(t, "removed", events[3].Kind)
	assert.Equal(t, "cleared", events[4].Kind)
	assert.Zero(t, events[4].Item)
}
