package repositories

import (
	"context"

	domain "github.com/freshmandi/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation
// used by services to decide between not-found, conflict, and retryable paths.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CartRepository reads and clears buyer carts. The checkout engine reads the
// cart exactly once per attempt and treats the result as an immutable
// snapshot; ClearCart is only invoked after at least one seller order was
// created.
type CartRepository interface {
	GetCart(ctx context.Context, buyerID string) (domain.Cart, error)
	ClearCart(ctx context.Context, buyerID string) error
}

// AddressRepository persists buyer delivery addresses.
type AddressRepository interface {
	Get(ctx context.Context, buyerID string, addressID string) (domain.Address, error)
	List(ctx context.Context, buyerID string) ([]domain.Address, error)
	// Create persists a new address and, when addr.Default is set, clears the
	// default flag on the buyer's other addresses.
	Create(ctx context.Context, buyerID string, addr domain.Address) (domain.Address, error)
}

// CouponRepository looks up discount records by code. Lookups are case
// insensitive; callers pass codes already uppercased.
type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
}

// OrderListFilter narrows and pages order list queries.
type OrderListFilter struct {
	BuyerID string
	Status  *domain.OrderStatus
	Pager   domain.Pagination
}

// OrderRepository persists seller orders and their line items. Insert and
// InsertItems are deliberately separate operations: the backing store offers
// no transaction spanning both, so an order row can exist without items when
// the second write fails. Downstream readers treat such orders as invalid.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}
