// Package cart is the client-owned shopping cart: a value object mutated
// through explicit calls, with change notification for whatever renders it.
// The server never trusts this state; checkout re-derives the total and
// cross-checks prices against the catalog.
package cart

import (
	"sync"

	"github.com/google/uuid"
)

// Item is one cart line. CartID identifies the line itself, not the product.
type Item struct {
	CartID   string  `json:"cart_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Event describes a cart mutation delivered to subscribers.
type Event struct {
	Kind string // added, updated, removed, cleared
	Item Item   // zero value for cleared
}

type Cart struct {
	mu    sync.Mutex
	items []Item
	subs  []func(Event)
}

func New() *Cart {
	return &Cart{}
}

// Subscribe registers a change listener. Listeners run synchronously under
// the cart lock, so they must not call back into the cart.
func (c *Cart) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

// AddItem adds one unit of the named product, merging with an existing line
// of the same name.
func (c *Cart) AddItem(name string, price float64) Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].Name == name {
			c.items[i].Quantity++
			c.notify(Event{Kind: "updated", Item: c.items[i]})
			return c.items[i]
		}
	}

	item := Item{CartID: uuid.NewString(), Name: name, Price: price, Quantity: 1}
	c.items = append(c.items, item)
	c.notify(Event{Kind: "added", Item: item})
	return item
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(name string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(name)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Name == name {
			c.items[i].Quantity = quantity
			c.notify(Event{Kind: "updated", Item: c.items[i]})
			return
		}
	}
}

// RemoveItem drops the line with the given product name.
func (c *Cart) RemoveItem(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].Name == name {
			removed := c.items[i]
			c.items = append(c.items[:i], c.items[i+1:]...)
			c.notify(Event{Kind: "removed", Item: removed})
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.notify(Event{Kind: "cleared"})
}

// Items returns a copy of the current lines.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// TotalItems is the summed quantity across lines.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice is the summed price*quantity across lines.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, item := range c.items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

func (c *Cart) notify(e Event) {
	for _, fn := range c.subs {
		fn(e)
	}
}
