// Package profile keeps customer accounts and their saved shipping
// details under the users / loggedInUser keys of the KV port.
package profile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

const (
	usersKey    = "users"
	loggedInKey = "loggedInUser"
)

type User struct {
	Email           string                  `json:"email"`
	Name            string                  `json:"name,omitempty"`
	Phone           string                  `json:"phone,omitempty"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress,omitempty"`
}

type Store struct {
	kv store.KV
}

func NewStore(kv store.KV) *Store {
	return &Store{kv: kv}
}

func (s *Store) load() ([]User, error) {
	raw, ok, err := s.kv.Get(usersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var users []User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("parse users: %w", err)
	}
	return users, nil
}

func (s *Store) save(users []User) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.kv.Set(usersKey, string(raw))
}

func (s *Store) Get(email string) (*User, error) {
	users, err := s.load()
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	for i := range users {
		if strings.ToLower(users[i].Email) == email {
			return &users[i], nil
		}
	}
	return nil, nil
}

// SaveShippingAddress records the address on the user's profile after a
// purchase, creating the profile if needed. Also refreshes the logged-in
// snapshot when it belongs to the same user.
func (s *Store) SaveShippingAddress(email string, addr models.ShippingAddress) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("profile: empty user identity")
	}
	users, err := s.load()
	if err != nil {
		return err
	}
	found := false
	for i := range users {
		if strings.ToLower(users[i].Email) == email {
			users[i].ShippingAddress = &addr
			if addr.Phone != "" {
				users[i].Phone = addr.Phone
			}
			found = true
			break
		}
	}
	if !found {
		users = append(users, User{Email: email, ShippingAddress: &addr, Phone: addr.Phone})
	}
	if err := s.save(users); err != nil {
		return err
	}

	if current, err := s.LoggedIn(); err == nil && current != nil && strings.ToLower(current.Email) == email {
		current.ShippingAddress = &addr
		if addr.Phone != "" {
			current.Phone = addr.Phone
		}
		return s.SetLoggedIn(*current)
	}
	return nil
}

func (s *Store) LoggedIn() (*User, error) {
	raw, ok, err := s.kv.Get(loggedInKey)
	if err != nil || !ok {
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("parse logged in user: %w", err)
	}
	return &u, nil
}

func (s *Store) SetLoggedIn(u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.kv.Set(loggedInKey, string(raw))
}

func (s *Store) ClearLoggedIn() error {
	return s.kv.Remove(loggedInKey)
}
