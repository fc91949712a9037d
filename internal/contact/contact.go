// Package contact keeps the site's admin-editable contact details under
// the siteContact key of the KV port.
package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/potatoomann/11code-site/internal/store"
)

const contactKey = "siteContact"

// ErrEmpty: a save must carry at least one detail.
var ErrEmpty = errors.New("contact: at least one detail is required")

type Contact struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Store struct {
	kv store.KV
}

func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

// Get returns the stored details, or a zero Contact when nothing has been
// saved yet.
func (s *Store) Get() (Contact, error) {
	raw, ok, err := s.kv.Get(contactKey)
	if err != nil {
		return Contact{}, fmt.Errorf("load contact: %w", err)
	}
	if !ok || raw == "" {
		return Contact{}, nil
	}
	var c Contact
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Contact{}, fmt.Errorf("parse contact: %w", err)
	}
	return c, nil
}

// Set replaces the details wholesale. Fields are trimmed and at least one
// must be non-empty.
func (s *Store) Set(c Contact) (Contact, error) {
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	if c.Email == "" && c.Phone == "" && c.Address == "" {
		return Contact{}, ErrEmpty
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return Contact{}, err
	}
	if err := s.kv.Set(contactKey, string(raw)); err != nil {
		return Contact{}, err
	}
	return c, nil
}
