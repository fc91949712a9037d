// Package cart implements the shopper's cart: an ordered, index-addressed
// sequence of line items persisted through the KV port.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/potatoomann/11code-site/internal/events"
	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

const cartKey = "cart"

var ErrIndexOutOfRange = errors.New("cart index out of range")

// Log is the slice of the event layer the cart needs; *events.Log satisfies it.
type Log interface {
	Append(typ string, data map[string]any) error
}

type Cart struct {
	kv  store.KV
	log Log
}

func New(kv store.KV, log *events.Log) *Cart {
	c := &Cart{kv: kv}
	if log != nil {
		c.log = log
	}
	return c
}

// Items returns the current cart. Malformed entries (no name, negative
// price, zero quantity) are dropped and the cleaned cart is saved back,
// mirroring the defensive load the storefront always did.
func (c *Cart) Items() ([]models.CartItem, error) {
	raw, ok, err := c.kv.Get(cartKey)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parse cart: %w", err)
	}
	cleaned := items[:0]
	for _, it := range items {
		if it.Name == "" || it.Price < 0 || it.Quantity <= 0 {
			continue
		}
		cleaned = append(cleaned, it)
	}
	if len(cleaned) < len(items) {
		if err := c.save(cleaned); err != nil {
			return nil, err
		}
	}
	return cleaned, nil
}

func (c *Cart) save(items []models.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.kv.Set(cartKey, string(raw))
}

func (c *Cart) Add(item models.CartItem) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.Price < 0 {
		return fmt.Errorf("cart: negative price for %q", item.Name)
	}
	items, err := c.Items()
	if err != nil {
		return err
	}
	if err := c.save(append(items, item)); err != nil {
		return err
	}
	c.logEvent("add_to_cart", map[string]any{"id": item.ID, "name": item.Name, "price": item.Price})
	return nil
}

// Remove deletes the item at index. Indices of later items shift down.
func (c *Cart) Remove(index int) error {
	items, err := c.Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return ErrIndexOutOfRange
	}
	removed := items[index]
	items = append(items[:index], items[index+1:]...)
	if err := c.save(items); err != nil {
		return err
	}
	c.logEvent("remove_from_cart", map[string]any{"id": removed.ID, "name": removed.Name})
	return nil
}

// UpdateQuantity sets the quantity at index; values below 1 are coerced to 1.
func (c *Cart) UpdateQuantity(index, quantity int) error {
	items, err := c.Items()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(items) {
		return ErrIndexOutOfRange
	}
	if quantity < 1 {
		quantity = 1
	}
	items[index].Quantity = quantity
	return c.save(items)
}

func (c *Cart) Clear() error {
	return c.kv.Remove(cartKey)
}

// Subtotal is the sum of price times quantity over the cart.
func (c *Cart) Subtotal() (float64, error) {
	items, err := c.Items()
	if err != nil {
		return 0, err
	}
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total, nil
}

func (c *Cart) logEvent(typ string, data map[string]any) {
	if c.log == nil {
		return
	}
	if err := c.log.Append(typ, data); err != nil {
		// Analytics must never break the cart.
		return
	}
}
