package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// CursorPage wraps a result set with the token required to fetch the next page.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// CartItem is one line of a buyer's cart. Prices are int64 paise. Once a cart
// is submitted to checkout the items are treated as an immutable snapshot.
type CartItem struct {
	ProductID string
	SellerID  string
	Title     string
	Unit      string
	UnitPrice int64
	Quantity  int
	ImageURL  string
}

// Cart is the buyer's cart header plus its items, keyed by buyer id.
type Cart struct {
	BuyerID   string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellerGroup holds the cart items belonging to a single seller, in the order
// they appeared in the cart.
type SellerGroup struct {
	SellerID string
	Items    []CartItem
}

// DeliveryMode enumerates how a sub-order reaches the buyer. Each mode carries
// a flat transport fee configured at the service level.
type DeliveryMode string

const (
	// DeliveryModeSellerDelivers means the seller transports the order to the buyer.
	DeliveryModeSellerDelivers DeliveryMode = "seller_delivers"
	// DeliveryModeBuyerPickup means the buyer collects from the seller's stall.
	DeliveryModeBuyerPickup DeliveryMode = "buyer_pickup"
)

// PaymentMethod enumerates accepted payment instruments. The engine records
// the choice; capture happens elsewhere.
type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCOD  PaymentMethod = "cod"
)

// PaymentStatus tracks whether payment has been captured for an order.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// OrderStatus enumerates valid lifecycle states for seller orders.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of every order created at checkout.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed indicates the seller accepted the order.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusInTransit indicates the order is on its way to the buyer.
	OrderStatusInTransit OrderStatus = "in_transit"
	// OrderStatusDelivered indicates the buyer received the order.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled indicates the order was cancelled before delivery.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Coupon is a read-only discount record fetched once per checkout attempt.
type Coupon struct {
	Code            string
	DiscountPercent int64
	Active          bool
}

// GeoPoint is an optional coordinate pair captured from a map pin.
type GeoPoint struct {
	Lat float64
	Lng float64
}

// Address is a buyer's saved delivery address.
type Address struct {
	ID        string
	Recipient string
	Phone     string
	Street    string
	City      string
	Pincode   string
	Location  *GeoPoint
	Default   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellerAllocation is one seller's share of a multi-seller cart's costs.
// Invariant: Total = Subtotal + TransportShare + PlatformFee - Discount, and
// Total is never negative.
type SellerAllocation struct {
	SellerID       string
	Subtotal       int64
	TransportShare int64
	PlatformFee    int64
	Discount       int64
	Total          int64
}

// Order is one seller's persisted order from a checkout. A checkout creates
// exactly one Order per distinct seller in the cart; orders are never merged.
type Order struct {
	ID            string
	OrderNumber   string
	BuyerID       string
	SellerID      string
	Status        OrderStatus
	Subtotal      int64
	TransportFee  int64
	PlatformFee   int64
	Discount      int64
	Total         int64
	DeliveryMode  DeliveryMode
	DeliveryDate  string
	DeliverySlot  string
	AddressID     string
	PaymentMethod PaymentMethod
	PaymentStatus PaymentStatus
	CouponCode    string
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is an immutable line-item snapshot taken at order time, so later
// catalog edits do not alter historical orders.
type OrderItem struct {
	ID        string
	ProductID string
	Title     string
	Unit      string
	UnitPrice int64
	Quantity  int
	LineTotal int64
	ImageURL  string
}
