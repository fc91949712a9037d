// Package checkout drives the order placement flow: shipping entry,
// payment-method validation, simulated tokenization, order creation and the
// external UPI confirmation sub-flow.
package checkout

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/potatoomann/11code-site/internal/cart"
	"github.com/potatoomann/11code-site/internal/models"
	"github.com/potatoomann/11code-site/internal/orders"
)

// ShippingCost is the flat shipping charge added to every order.
const ShippingCost = 60

// merchantName appears in the UPI deep link (pn parameter).
const merchantName = "11 Code"

type State int

const (
	StateShippingEntry State = iota
	StatePaymentSelection
	StateValidating
	StateAwaitingExternalConfirmation
	StateOrderCreated
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateShippingEntry:
		return "shipping_entry"
	case StatePaymentSelection:
		return "payment_selection"
	case StateValidating:
		return "validating"
	case StateAwaitingExternalConfirmation:
		return "awaiting_external_confirmation"
	case StateOrderCreated:
		return "order_created"
	case StateConfirmed:
		return "confirmed"
	}
	return "unknown"
}

var (
	// ErrBusy: a submission is already in flight or an external payment is
	// pending; the submit control stays disabled.
	ErrBusy = errors.New("checkout: submission already in progress")
	// ErrCompleted: the checkout finished; start a new one.
	ErrCompleted = errors.New("checkout: already completed")
	// ErrShippingIncomplete: payment attempted before a valid shipping step.
	ErrShippingIncomplete = errors.New("checkout: shipping details incomplete")
	// ErrEmptyCart: nothing to order.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrNotVerified: the external payment could not be confirmed yet; the
	// user retries from the same state.
	ErrNotVerified = errors.New("checkout: payment not verified yet")
	// ErrNoPendingPayment: confirm called with no external payment waiting.
	ErrNoPendingPayment = errors.New("checkout: no pending payment")
)

// Verifier simulates the external payment check for the UPI flow.
type Verifier func(ctx context.Context, order models.Order) (bool, error)

// DefaultVerifier waits the delay the storefront always showed as
// "Verifying payment..." and reports success.
func DefaultVerifier(delay time.Duration) Verifier {
	return func(ctx context.Context, _ models.Order) (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(delay):
			return true, nil
		}
	}
}

// PaymentDetails carries method-specific input. Exactly one branch is
// consulted, selected by the method passed to PlaceOrder.
type PaymentDetails struct {
	Card *CardDetails
	UPI  string
	Bank string
}

// PendingPayment is the paused UPI sub-flow: the order is committed, the
// cart is cleared, and the machine waits for an explicit "I've paid".
type PendingPayment struct {
	Order   models.Order
	UPILink string
	QRImage string
}

// ProfileSaver persists the shipping address to the customer profile after
// a purchase. Failures are logged and never abort the checkout.
type ProfileSaver interface {
	SaveShippingAddress(email string, addr models.ShippingAddress) error
}

type Checkout struct {
	cart     *cart.Cart
	history  *orders.HistoryStore
	profile  ProfileSaver
	verifier Verifier

	now      func() time.Time
	newToken func() string

	state     State
	userEmail string
	shipping  models.ShippingAddress
	pending   *PendingPayment
}

type Option func(*Checkout)

// WithUser attaches the logged-in customer identity; orders are then
// recorded in that user's history.
func WithUser(email string) Option {
	return func(c *Checkout) { c.userEmail = strings.ToLower(strings.TrimSpace(email)) }
}

func WithProfileSaver(p ProfileSaver) Option {
	return func(c *Checkout) { c.profile = p }
}

func WithVerifier(v Verifier) Option {
	return func(c *Checkout) { c.verifier = v }
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Checkout) { c.now = now }
}

// WithTokenSource overrides payment token generation. Tests only.
func WithTokenSource(fn func() string) Option {
	return func(c *Checkout) { c.newToken = fn }
}

func New(cartStore *cart.Cart, history *orders.HistoryStore, opts ...Option) *Checkout {
	c := &Checkout{
		cart:     cartStore,
		history:  history,
		verifier: DefaultVerifier(1200 * time.Millisecond),
		now:      time.Now,
		newToken: newPaymentToken,
		state:    StateShippingEntry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checkout) State() State { return c.state }

// Pending returns the paused UPI payment, if any.
func (c *Checkout) Pending() *PendingPayment { return c.pending }

// SubmitShipping validates the address and advances to payment selection.
// On failure the machine stays put and the first invalid field is reported.
func (c *Checkout) SubmitShipping(addr models.ShippingAddress) error {
	switch c.state {
	case StateShippingEntry, StatePaymentSelection:
	case StateValidating, StateAwaitingExternalConfirmation:
		return ErrBusy
	default:
		return ErrCompleted
	}

	required := []struct{ field, value string }{
		{"full-name", addr.FullName},
		{"email", addr.Email},
		{"address", addr.Address},
		{"city", addr.City},
		{"state", addr.State},
		{"zip", addr.Zip},
		{"country", addr.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.field, Message: "This field is required"}
		}
	}
	if !emailShape.MatchString(strings.TrimSpace(addr.Email)) {
		return &FieldError{Field: "email", Message: "Please enter a valid email address"}
	}

	c.shipping = addr
	c.state = StatePaymentSelection
	return nil
}

// PlaceOrder runs method-specific validation, tokenizes the payment,
// snapshots the cart into an immutable Order, records it, and clears the
// cart. Non-UPI methods land in Confirmed; UPI pauses in
// AwaitingExternalConfirmation with a deep link and QR to scan.
func (c *Checkout) PlaceOrder(method string, details PaymentDetails) (*models.Order, error) {
	switch c.state {
	case StateShippingEntry:
		return nil, ErrShippingIncomplete
	case StatePaymentSelection:
	case StateValidating, StateAwaitingExternalConfirmation:
		return nil, ErrBusy
	default:
		return nil, ErrCompleted
	}

	c.state = StateValidating
	token, vpa, err := c.validatePayment(method, details)
	if err != nil {
		c.state = StatePaymentSelection
		return nil, err
	}

	items, err := c.cart.Items()
	if err != nil {
		c.state = StatePaymentSelection
		return nil, err
	}
	if len(items) == 0 {
		c.state = StatePaymentSelection
		return nil, ErrEmptyCart
	}

	subtotal := 0.0
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}

	order := models.Order{
		OrderNumber:     c.newOrderNumber(),
		Method:          method,
		Subtotal:        subtotal,
		Shipping:        ShippingCost,
		Total:           subtotal + ShippingCost,
		Token:           token,
		Items:           snapshotItems(items),
		ShippingAddress: c.shipping,
		CreatedAt:       c.now(),
	}

	// Best-effort bookkeeping: history and profile failures must not lose
	// the order the customer just placed.
	if c.userEmail != "" {
		if err := c.history.Append(c.userEmail, order); err != nil {
			slog.Warn("Failed to save order to history", "order", order.OrderNumber, "error", err)
		}
	}
	if err := c.history.SetLast(order); err != nil {
		slog.Warn("Failed to save last order", "order", order.OrderNumber, "error", err)
	}
	if c.profile != nil && c.userEmail != "" {
		if err := c.profile.SaveShippingAddress(c.userEmail, c.shipping); err != nil {
			slog.Warn("Failed to save shipping address to profile", "error", err)
		}
	}

	// The cart clear is best-effort too: the order is committed at this
	// point and a storage hiccup must not wedge the machine in a state
	// that blocks every retry.
	if err := c.cart.Clear(); err != nil {
		slog.Warn("Failed to clear cart after order", "order", order.OrderNumber, "error", err)
	}

	if method == models.MethodUPI {
		// The order is already committed; the machine waits indefinitely
		// for the customer's explicit "I've paid" action.
		link := upiLink(vpa, order.Total, order.OrderNumber)
		c.pending = &PendingPayment{Order: order, UPILink: link, QRImage: qrImageURL(link)}
		c.state = StateAwaitingExternalConfirmation
		return &order, nil
	}

	c.state = StateConfirmed
	return &order, nil
}

func (c *Checkout) validatePayment(method string, details PaymentDetails) (token, vpa string, err error) {
	switch method {
	case models.MethodCard:
		if details.Card == nil {
			return "", "", &FieldError{Field: "card-number", Message: "Card details are required"}
		}
		if ferr := validateCard(details.Card); ferr != nil {
			return "", "", ferr
		}
		// Tokenize and wipe raw card fields immediately; only the opaque
		// token survives validation.
		token = c.newToken()
		*details.Card = CardDetails{}
		return token, "", nil
	case models.MethodUPI:
		vpa = strings.TrimSpace(details.UPI)
		if ferr := validateUPI(vpa); ferr != nil {
			return "", "", ferr
		}
		return c.newToken(), vpa, nil
	case models.MethodNetbanking:
		if ferr := validateBank(details.Bank); ferr != nil {
			return "", "", ferr
		}
		return c.newToken(), "", nil
	case models.MethodCOD:
		return c.newToken(), "", nil
	}
	return "", "", &FieldError{Field: "payment-method", Message: "Unknown payment method"}
}

// ConfirmPayment runs the simulated verification for a pending UPI payment.
// A negative result keeps the machine in AwaitingExternalConfirmation so
// the customer can retry.
func (c *Checkout) ConfirmPayment(ctx context.Context) error {
	if c.state != StateAwaitingExternalConfirmation || c.pending == nil {
		return ErrNoPendingPayment
	}
	verified, err := c.verifier(ctx, c.pending.Order)
	if err != nil {
		return err
	}
	if !verified {
		return ErrNotVerified
	}
	c.pending = nil
	c.state = StateConfirmed
	return nil
}

// CancelPending discards the pending UPI prompt. The order was already
// committed and the cart cleared when the payment was initiated, so this
// only abandons the verification step.
func (c *Checkout) CancelPending() {
	if c.state != StateAwaitingExternalConfirmation {
		return
	}
	c.pending = nil
	c.state = StateOrderCreated
}

func (c *Checkout) newOrderNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(c.now().UnixMilli(), 36))
	return "11C" + ts + orderSuffix()
}

// orderSuffix is 4 chars from an alphabet without lookalike glyphs.
func orderSuffix() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().Unix(), 36)
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// newPaymentToken mints an opaque token standing in for a real
// payment-processor reference. It carries no cardholder data.
func newPaymentToken() string {
	return "tok_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

func snapshotItems(items []models.CartItem) []models.CartItem {
	snapshot := make([]models.CartItem, len(items))
	copy(snapshot, items)
	return snapshot
}

func upiLink(vpa string, amount float64, orderNumber string) string {
	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", merchantName)
	q.Set("am", strconv.FormatFloat(amount, 'f', -1, 64))
	q.Set("tn", "Order "+orderNumber)
	return "upi://pay?" + q.Encode()
}

func qrImageURL(link string) string {
	return "https://chart.googleapis.com/chart?cht=qr&chs=280x280&chl=" + url.QueryEscape(link)
}
