package services

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/repositories"
)

const (
	orderIDPrefix          = "ord_"
	orderNumberPrefix      = "ORD"
	orderNumberSuffixLen   = 4
	orderNumberSuffixChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid order parameters.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order does not exist or belongs to another buyer.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderConflict indicates an order with the same ID already exists.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the order store could not be reached.
	ErrOrderUnavailable = errors.New("order: unavailable")
	// ErrOrderItemsNotPersisted indicates the order header was written but
	// its line items were not. The order exists in storage without items.
	ErrOrderItemsNotPersisted = errors.New("order: items not persisted")
)

// OrderServiceDeps wires the dependencies required by the order service.
type OrderServiceDeps struct {
	Orders repositories.OrderRepository
	Events OrderEventPublisher
	Clock  func() time.Time
	Logger func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders repositories.OrderRepository
	events OrderEventPublisher
	now    func() time.Time
	logger func(ctx context.Context, event string, fields map[string]any)

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// NewOrderService constructs an OrderService validating required dependencies.
// The event publisher is optional; order creation proceeds without it.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		orders: deps.Orders,
		events: deps.Events,
		now: func() time.Time {
			return clock().UTC()
		},
		logger:  logger,
		entropy: ulid.Monotonic(crand.Reader, 0),
	}, nil
}

// CreateSellerOrder persists one seller's order: first the order header, then
// the line items. The two writes are not atomic; when the items write fails
// the header remains and the error reports the dangling order.
func (s *orderService) CreateSellerOrder(ctx context.Context, cmd CreateSellerOrderCommand) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}

	buyerID := strings.TrimSpace(cmd.BuyerID)
	sellerID := strings.TrimSpace(cmd.Group.SellerID)
	if buyerID == "" || sellerID == "" || len(cmd.Group.Items) == 0 {
		return Order{}, ErrOrderInvalidInput
	}
	if cmd.Allocation.SellerID != sellerID {
		return Order{}, ErrOrderInvalidInput
	}

	now := s.now()
	order := domain.Order{
		ID:            s.newOrderID(now),
		OrderNumber:   s.newOrderNumber(now),
		BuyerID:       buyerID,
		SellerID:      sellerID,
		Status:        domain.OrderStatusPending,
		Subtotal:      cmd.Allocation.Subtotal,
		TransportFee:  cmd.Allocation.TransportShare,
		PlatformFee:   cmd.Allocation.PlatformFee,
		Discount:      cmd.Allocation.Discount,
		Total:         cmd.Allocation.Total,
		DeliveryMode:  cmd.DeliveryMode,
		DeliveryDate:  strings.TrimSpace(cmd.DeliveryDate),
		DeliverySlot:  strings.TrimSpace(cmd.DeliverySlot),
		AddressID:     strings.TrimSpace(cmd.AddressID),
		PaymentMethod: cmd.Payment,
		PaymentStatus: domain.PaymentStatusPending,
		CouponCode:    strings.TrimSpace(cmd.CouponCode),
		Items:         orderItemsFromCart(cmd.Group.Items),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if err := s.orders.InsertItems(ctx, order.ID, order.Items); err != nil {
		s.logger(ctx, "order.items_write_failed", map[string]any{
			"orderId":  order.ID,
			"sellerId": sellerID,
			"error":    err.Error(),
		})
		return Order{}, fmt.Errorf("%w: order %s: %v", ErrOrderItemsNotPersisted, order.ID, err)
	}

	s.publishCreated(ctx, order)
	return order, nil
}

// GetOrder loads an order with its items, scoped to the owning buyer.
func (s *orderService) GetOrder(ctx context.Context, buyerID, orderID string) (Order, error) {
	if s == nil || s.orders == nil {
		return Order{}, ErrOrderUnavailable
	}
	buyer := strings.TrimSpace(buyerID)
	id := strings.TrimSpace(orderID)
	if buyer == "" || id == "" {
		return Order{}, ErrOrderInvalidInput
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if order.BuyerID != buyer {
		// Another buyer's order looks like a missing one.
		return Order{}, ErrOrderNotFound
	}

	items, err := s.orders.ListItems(ctx, id)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.Items = items
	return order, nil
}

// ListOrders pages through the buyer's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	if s == nil || s.orders == nil {
		return domain.CursorPage[Order]{}, ErrOrderUnavailable
	}
	if strings.TrimSpace(filter.BuyerID) == "" {
		return domain.CursorPage[Order]{}, ErrOrderInvalidInput
	}

	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

func (s *orderService) publishCreated(ctx context.Context, order domain.Order) {
	if s.events == nil {
		return
	}
	message := OrderCreatedMessage{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		Total:        order.Total,
		DeliveryMode: string(order.DeliveryMode),
		PlacedAt:     order.CreatedAt,
	}
	if _, err := s.events.PublishOrderCreated(ctx, message); err != nil {
		// Event delivery is best effort; the order is already persisted.
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"orderId": order.ID,
			"error":   err.Error(),
		})
	}
}

func (s *orderService) newOrderID(now time.Time) string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(now), s.entropy)
	return orderIDPrefix + id.String()
}

// newOrderNumber builds a short human-readable reference of the form
// ORD-HHMMSS-XXXX. It is a display aid, not a uniqueness guarantee; the
// document ID is the canonical identifier.
func (s *orderService) newOrderNumber(now time.Time) string {
	suffix := make([]byte, orderNumberSuffixLen)
	random := make([]byte, orderNumberSuffixLen)
	if _, err := crand.Read(random); err != nil {
		for i := range random {
			random[i] = byte(now.UnixNano() >> (8 * i))
		}
	}
	for i, b := range random {
		suffix[i] = orderNumberSuffixChars[int(b)%len(orderNumberSuffixChars)]
	}
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.Format("150405"), suffix)
}

func orderItemsFromCart(items []CartItem) []domain.OrderItem {
	out := make([]domain.OrderItem, 0, len(items))
	for i, item := range items {
		out = append(out, domain.OrderItem{
			ID:        fmt.Sprintf("line-%03d", i+1),
			ProductID: item.ProductID,
			Title:     item.Title,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.UnitPrice * int64(item.Quantity),
			ImageURL:  item.ImageURL,
		})
	}
	return out
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}
