// Package orders keeps each customer's completed-order history and the
// transient last-order slot read by the confirmation page.
package orders

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

const (
	historyKey   = "userOrders"
	lastOrderKey = "lastOrder"

	// HistoryCap bounds the per-user history, newest first.
	HistoryCap = 50
)

type HistoryStore struct {
	kv store.KV
}

func NewHistoryStore(kv store.KV) *HistoryStore {
	return &HistoryStore{kv: kv}
}

func (s *HistoryStore) load() (map[string][]models.Order, error) {
	raw, ok, err := s.kv.Get(historyKey)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}
	byUser := map[string][]models.Order{}
	if !ok || raw == "" {
		return byUser, nil
	}
	if err := json.Unmarshal([]byte(raw), &byUser); err != nil {
		return nil, fmt.Errorf("parse order history: %w", err)
	}
	return byUser, nil
}

// Append prepends the order to the user's history and trims to HistoryCap.
func (s *HistoryStore) Append(email string, order models.Order) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("order history: empty user identity")
	}
	byUser, err := s.load()
	if err != nil {
		return err
	}
	history := append([]models.Order{order}, byUser[email]...)
	if len(history) > HistoryCap {
		history = history[:HistoryCap]
	}
	byUser[email] = history
	raw, err := json.Marshal(byUser)
	if err != nil {
		return err
	}
	return s.kv.Set(historyKey, string(raw))
}

// History returns the user's orders, newest first.
func (s *HistoryStore) History(email string) ([]models.Order, error) {
	byUser, err := s.load()
	if err != nil {
		return nil, err
	}
	return byUser[strings.ToLower(strings.TrimSpace(email))], nil
}

// SetLast stores the single most recent order for the confirmation view.
func (s *HistoryStore) SetLast(order models.Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.kv.Set(lastOrderKey, string(raw))
}

func (s *HistoryStore) Last() (*models.Order, error) {
	raw, ok, err := s.kv.Get(lastOrderKey)
	if err != nil || !ok {
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, fmt.Errorf("parse last order: %w", err)
	}
	return &order, nil
}

func (s *HistoryStore) ClearLast() error {
	return s.kv.Remove(lastOrderKey)
}
