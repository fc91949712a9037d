package models

import (
	"time"
)

// Printing options for a jersey line item.
const (
	PrintingNone       = "none"
	PrintingPrePrinted = "pre-printed"
	PrintingCustom     = "custom"
)

type CartItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	Size          string  `json:"size"`
	Printing      string  `json:"printing"`
	Customization string  `json:"customization"` // player name, or "name number" for custom prints
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
}

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// Payment methods accepted at checkout.
const (
	MethodCard       = "card"
	MethodUPI        = "upi"
	MethodNetbanking = "netbanking"
	MethodCOD        = "cod"
)

// Order is an immutable record of a completed checkout. Items is a snapshot
// of the cart at placement time; mutating the cart afterwards must not
// change a stored order.
type Order struct {
	OrderNumber     string          `json:"orderNumber"`
	Method          string          `json:"method"`
	Subtotal        float64         `json:"subtotal"`
	Shipping        float64         `json:"shipping"`
	Total           float64         `json:"total"`
	Token           string          `json:"token"` // opaque payment token, never raw credentials
	Items           []CartItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type ProductImages struct {
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
}

type Product struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Price            float64       `json:"price"`
	Description      string        `json:"description"`
	Images           ProductImages `json:"images"`
	OutOfStock       bool          `json:"outOfStock"`
	UnavailableSizes []string      `json:"unavailableSizes,omitempty"`
}

type AdminUser struct {
	Email     string    `json:"email"`
	Password  string    `json:"password"` // bcrypt hash; legacy records may still hold plaintext
	CreatedAt time.Time `json:"createdAt"`
}

// Event is a single analytics entry (add_to_cart, remove_from_cart,
// admin actions) shown on the admin dashboard.
type Event struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"` // unix milliseconds
}
