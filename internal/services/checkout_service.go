package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/repositories"
)

// checkoutState tracks the phase a checkout attempt is in. Transitions are
// strictly forward; a failed attempt ends in stateFailed and a successful one
// in stateCompleted.
type checkoutState string

const (
	stateValidating       checkoutState = "validating"
	stateResolvingAddress checkoutState = "resolving_address"
	stateAllocating       checkoutState = "allocating"
	statePersistingOrders checkoutState = "persisting_orders"
	stateCompleted        checkoutState = "completed"
	stateFailed           checkoutState = "failed"
)

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid checkout parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutEmptyCart indicates the buyer's cart has no items to order.
	ErrCheckoutEmptyCart = errors.New("checkout: cart is empty")
	// ErrCheckoutAddressFailed indicates the delivery address could not be resolved.
	ErrCheckoutAddressFailed = errors.New("checkout: address resolution failed")
	// ErrCheckoutAllOrdersFailed indicates no seller order could be persisted.
	ErrCheckoutAllOrdersFailed = errors.New("checkout: no orders created")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
)

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Carts     repositories.CartRepository
	Coupons   CouponService
	Addresses AddressService
	Orders    OrderService
	Engine    *AllocationEngine
	// TransportFees maps each delivery mode to the flat transport fee, in
	// paise, charged for the whole checkout and split across sellers.
	TransportFees map[DeliveryMode]int64
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	carts         repositories.CartRepository
	coupons       CouponService
	addresses     AddressService
	orders        OrderService
	engine        *AllocationEngine
	transportFees map[DeliveryMode]int64
	logger        func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Carts == nil {
		return nil, errors.New("checkout service: cart repository is required")
	}
	if deps.Coupons == nil {
		return nil, errors.New("checkout service: coupon service is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("checkout service: address service is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order service is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("checkout service: allocation engine is required")
	}

	fees := make(map[DeliveryMode]int64, len(deps.TransportFees))
	for mode, fee := range deps.TransportFees {
		if fee < 0 {
			return nil, fmt.Errorf("checkout service: negative transport fee for mode %q", mode)
		}
		fees[mode] = fee
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		carts:         deps.Carts,
		coupons:       deps.Coupons,
		addresses:     deps.Addresses,
		orders:        deps.Orders,
		engine:        deps.Engine,
		transportFees: fees,
		logger:        logger,
	}, nil
}

// PlaceOrder runs one checkout attempt: it validates the cart, resolves the
// delivery address, allocates fees across sellers, and persists one order per
// seller. Seller writes are sequential and independent; a failed seller never
// stops the remaining ones. The cart is cleared only when at least one order
// was created.
func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (CheckoutResult, error) {
	if s == nil || s.carts == nil || s.orders == nil {
		return CheckoutResult{}, ErrCheckoutUnavailable
	}

	s.transition(ctx, stateValidating, nil)

	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return s.fail(ctx, ErrCheckoutInvalidInput)
	}
	if !validDeliveryMode(cmd.DeliveryMode) || !validPaymentMethod(cmd.Payment) {
		return s.fail(ctx, ErrCheckoutInvalidInput)
	}

	cart, err := s.carts.GetCart(ctx, buyerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return s.fail(ctx, ErrCheckoutEmptyCart)
		}
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err))
	}

	groups := domain.GroupBySeller(cart.Items)
	if len(groups) == 0 {
		return s.fail(ctx, ErrCheckoutEmptyCart)
	}

	s.transition(ctx, stateResolvingAddress, map[string]any{"buyerId": buyerID})

	address, err := s.resolveAddress(ctx, buyerID, cmd)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrCheckoutAddressFailed, err))
	}

	s.transition(ctx, stateAllocating, map[string]any{
		"buyerId": buyerID,
		"sellers": len(groups),
	})

	// A rejected coupon never blocks checkout; the order simply carries no
	// discount.
	var discountPercent int64
	couponCode := ""
	if code := strings.TrimSpace(cmd.CouponCode); code != "" {
		coupon, err := s.coupons.Validate(ctx, ValidateCouponCommand{Code: code})
		if err != nil {
			s.logger(ctx, "checkout.coupon_skipped", map[string]any{
				"buyerId": buyerID,
				"error":   err.Error(),
			})
		} else {
			discountPercent = coupon.DiscountPercent
			couponCode = coupon.Code
		}
	}

	transportFee := s.transportFees[cmd.DeliveryMode]
	allocations, err := s.engine.Allocate(AllocateCommand{
		Groups:          groups,
		TransportFee:    transportFee,
		DiscountPercent: discountPercent,
	})
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err))
	}

	result := CheckoutResult{
		CouponCode:   couponCode,
		TransportFee: transportFee,
	}
	for _, alloc := range allocations {
		result.Discount += alloc.Discount
	}

	for i, group := range groups {
		s.transition(ctx, statePersistingOrders, map[string]any{
			"buyerId":  buyerID,
			"sellerId": group.SellerID,
			"index":    i,
		})

		order, err := s.orders.CreateSellerOrder(ctx, CreateSellerOrderCommand{
			BuyerID:      buyerID,
			Group:        group,
			Allocation:   allocations[i],
			AddressID:    address.ID,
			DeliveryMode: cmd.DeliveryMode,
			Payment:      cmd.Payment,
			CouponCode:   couponCode,
			DeliveryDate: cmd.DeliveryDate,
			DeliverySlot: cmd.DeliverySlot,
		})
		if err != nil {
			s.logger(ctx, "checkout.seller_order_failed", map[string]any{
				"buyerId":  buyerID,
				"sellerId": group.SellerID,
				"error":    err.Error(),
			})
			result.Results = append(result.Results, SellerResult{
				SellerID: group.SellerID,
				Err:      err,
			})
			continue
		}

		result.Orders = append(result.Orders, order)
		result.Results = append(result.Results, SellerResult{
			SellerID:    group.SellerID,
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Total:       order.Total,
		})
	}

	if !result.AnySucceeded() {
		s.transition(ctx, stateFailed, map[string]any{"buyerId": buyerID})
		return result, ErrCheckoutAllOrdersFailed
	}

	if err := s.carts.ClearCart(ctx, buyerID); err != nil {
		// Orders exist; a stale cart is recoverable and must not fail checkout.
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"buyerId": buyerID,
			"error":   err.Error(),
		})
	} else {
		result.CartCleared = true
	}

	s.transition(ctx, stateCompleted, map[string]any{
		"buyerId": buyerID,
		"orders":  len(result.Orders),
		"failed":  len(result.Results) - len(result.Orders),
	})
	return result, nil
}

func (s *checkoutService) resolveAddress(ctx context.Context, buyerID string, cmd PlaceOrderCommand) (Address, error) {
	resolve := ResolveAddressCommand{
		BuyerID:   buyerID,
		AddressID: cmd.AddressID,
		New:       cmd.NewAddress,
	}
	if cmd.DeliveryMode == domain.DeliveryModeBuyerPickup && strings.TrimSpace(resolve.AddressID) == "" && resolve.New == nil {
		// Pickup orders need no delivery address.
		return Address{}, nil
	}
	return s.addresses.Resolve(ctx, resolve)
}

func (s *checkoutService) transition(ctx context.Context, state checkoutState, fields map[string]any) {
	payload := map[string]any{"state": string(state)}
	for k, v := range fields {
		payload[k] = v
	}
	s.logger(ctx, "checkout.state", payload)
}

func (s *checkoutService) fail(ctx context.Context, err error) (CheckoutResult, error) {
	s.transition(ctx, stateFailed, map[string]any{"error": err.Error()})
	return CheckoutResult{}, err
}

func validDeliveryMode(mode DeliveryMode) bool {
	switch mode {
	case domain.DeliveryModeSellerDelivers, domain.DeliveryModeBuyerPickup:
		return true
	default:
		return false
	}
}

func validPaymentMethod(method PaymentMethod) bool {
	switch method {
	case domain.PaymentMethodUPI, domain.PaymentMethodCard, domain.PaymentMethodCOD:
		return true
	default:
		return false
	}
}
