package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Order represents a persisted customer purchase with its derived monetary
// breakdown. Orders are never updated once created.
type Order struct {
	ID              int64
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	Currency        string
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	CreatedAt       time.Time
	Items           []Item
}

// Item is a line-item snapshot captured at order time. There is no catalog,
// so ItemID carries the same display name as Name.
type Item struct {
	ID       int64
	OrderID  int64
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create stores the order and its items atomically and assigns IDs.
	Create(ctx context.Context, o *Order) error
	// List returns every order with items, newest first.
	List(ctx context.Context) ([]Order, error)
	// Get returns ErrNotFound when no order has the given id.
	Get(ctx context.Context, id int64) (*Order, error)
}

// Publisher announces newly created orders to downstream consumers.
type Publisher interface {
	PublishCreated(ctx context.Context, o *Order) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// PublishCreated implements Publisher.
func (NopPublisher) PublishCreated(context.Context, *Order) error { return nil }
