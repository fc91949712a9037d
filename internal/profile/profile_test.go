package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/store"
)

func addr() models.ShippingAddress {
	return models.ShippingAddress{
		FullName: "Priya Sharma",
		Email:    "priya@example.com",
		Address:  "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Zip:      "560001",
		Country:  "India",
		Phone:    "9876543210",
	}
}

func TestSaveShippingAddress_CreatesProfile(t *testing.T) {
	s := NewStore(store.NewMemKV())

	require.NoError(t, s.SaveShippingAddress("Priya@Example.com", addr()))

	u, err := s.Get("priya@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotNil(t, u.ShippingAddress)
	assert.Equal(t, "12 MG Road", u.ShippingAddress.Address)
	assert.Equal(t, "9876543210", u.Phone)
}

func TestSaveShippingAddress_UpdatesExistingAndLoggedIn(t *testing.T) {
	s := NewStore(store.NewMemKV())
	require.NoError(t, s.SetLoggedIn(User{Email: "priya@example.com"}))
	require.NoError(t, s.SaveShippingAddress("priya@example.com", addr()))

	updated := addr()
	updated.City = "Mumbai"
	require.NoError(t, s.SaveShippingAddress("priya@example.com", updated))

	u, err := s.Get("priya@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", u.ShippingAddress.City)

	current, err := s.LoggedIn()
	require.NoError(t, err)
	require.NotNil(t, current)
	require.NotNil(t, current.ShippingAddress)
	assert.Equal(t, "Mumbai", current.ShippingAddress.City)
}

func TestSaveShippingAddress_RequiresIdentity(t *testing.T) {
	s := NewStore(store.NewMemKV())
	assert.Error(t, s.SaveShippingAddress("  ", addr()))
}

func TestLoggedInLifecycle(t *testing.T) {
	s := NewStore(store.NewMemKV())

	u, err := s.LoggedIn()
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, s.SetLoggedIn(User{Email: "priya@example.com"}))
	u, err = s.LoggedIn()
	require.NoError(t, err)
	require.NotNil(t, u)

	require.NoError(t, s.ClearLoggedIn())
	u, err = s.LoggedIn()
	require.NoError(t, err)
	assert.Nil(t, u)
}
