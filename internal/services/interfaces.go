package services

import (
	"context"
	"time"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination       = domain.Pagination
	SortOrder        = domain.SortOrder
	Cart             = domain.Cart
	CartItem         = domain.CartItem
	SellerGroup      = domain.SellerGroup
	SellerAllocation = domain.SellerAllocation
	Coupon           = domain.Coupon
	Address          = domain.Address
	GeoPoint         = domain.GeoPoint
	Order            = domain.Order
	OrderItem        = domain.OrderItem
	OrderStatus      = domain.OrderStatus
	DeliveryMode     = domain.DeliveryMode
	PaymentMethod    = domain.PaymentMethod
)

// CheckoutService splits the buyer's cart into per-seller orders, allocating
// fees and discounts across sellers before persisting each order.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (CheckoutResult, error)
}

// CouponService resolves coupon codes against the coupon catalogue.
type CouponService interface {
	Validate(ctx context.Context, cmd ValidateCouponCommand) (Coupon, error)
}

// AddressService manages the buyer's saved delivery addresses.
type AddressService interface {
	Resolve(ctx context.Context, cmd ResolveAddressCommand) (Address, error)
	List(ctx context.Context, buyerID string) ([]Address, error)
	Create(ctx context.Context, cmd CreateAddressCommand) (Address, error)
}

// OrderService persists and reads orders produced by checkout.
type OrderService interface {
	CreateSellerOrder(ctx context.Context, cmd CreateSellerOrderCommand) (Order, error)
	GetOrder(ctx context.Context, buyerID, orderID string) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
}

// OrderEventPublisher emits order lifecycle events for downstream consumers
// such as seller notifications.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, message OrderCreatedMessage) (string, error)
}

// OrderListFilter is shared with the repository layer.
type OrderListFilter = repositories.OrderListFilter

// Command and DTO definitions ------------------------------------------------

// AddressInput carries the fields accepted when saving a new address.
type AddressInput struct {
	Recipient string
	Phone     string
	Street    string
	City      string
	Pincode   string
	Location  *GeoPoint
	Default   bool
}

// PlaceOrderCommand describes one checkout attempt for a buyer's cart.
type PlaceOrderCommand struct {
	BuyerID      string
	DeliveryMode DeliveryMode
	Payment      PaymentMethod
	CouponCode   string
	AddressID    string
	NewAddress   *AddressInput
	DeliveryDate string
	DeliverySlot string
}

// SellerResult reports the outcome of one seller's order write.
type SellerResult struct {
	SellerID    string
	OrderID     string
	OrderNumber string
	Total       int64
	Err         error
}

// Succeeded reports whether this seller's order was persisted.
func (r SellerResult) Succeeded() bool { return r.Err == nil }

// CheckoutResult summarises a completed checkout attempt.
type CheckoutResult struct {
	Orders       []Order
	Results      []SellerResult
	CouponCode   string
	Discount     int64
	TransportFee int64
	CartCleared  bool
}

// AnySucceeded reports whether at least one seller order was persisted.
func (r CheckoutResult) AnySucceeded() bool {
	for _, res := range r.Results {
		if res.Succeeded() {
			return true
		}
	}
	return false
}

type ValidateCouponCommand struct {
	Code string
}

type ResolveAddressCommand struct {
	BuyerID   string
	AddressID string
	New       *AddressInput
}

type CreateAddressCommand struct {
	BuyerID string
	Input   AddressInput
}

type CreateSellerOrderCommand struct {
	BuyerID      string
	Group        SellerGroup
	Allocation   SellerAllocation
	AddressID    string
	DeliveryMode DeliveryMode
	Payment      PaymentMethod
	CouponCode   string
	DeliveryDate string
	DeliverySlot string
}

// OrderCreatedMessage is the payload published when a seller order is created.
type OrderCreatedMessage struct {
	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	BuyerID      string    `json:"buyerId"`
	SellerID     string    `json:"sellerId"`
	Total        int64     `json:"total"`
	DeliveryMode string    `json:"deliveryMode"`
	PlacedAt     time.Time `json:"placedAt"`
}
