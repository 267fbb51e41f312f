package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/platform/auth"
	"github.com/freshmandi/api/internal/platform/httpx"
	"github.com/freshmandi/api/internal/services"
)

const (
	maxCheckoutRequestBody = 8 * 1024

	checkoutRateLimit  = 10
	checkoutRateWindow = time.Minute
)

// CheckoutHandlers exposes the checkout endpoint for authenticated buyers.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
	limiter  rateLimiter
}

// NewCheckoutHandlers constructs checkout handlers guarded by Firebase authentication.
// Each buyer is limited to a handful of checkout attempts per minute.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:    authn,
		checkout: checkout,
		limiter:  newSimpleRateLimiter(checkoutRateLimit, checkoutRateWindow, nil),
	}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	group := r
	if h.authn != nil {
		group = group.With(h.authn.RequireFirebaseAuth())
	}
	group.Post("/", h.placeOrder)
}

type newAddressRequest struct {
	Recipient string   `json:"recipient"`
	Phone     string   `json:"phone"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Pincode   string   `json:"pincode"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Default   bool     `json:"default"`
}

type placeOrderRequest struct {
	DeliveryMode string             `json:"deliveryMode"`
	Payment      string             `json:"payment"`
	CouponCode   string             `json:"couponCode"`
	AddressID    string             `json:"addressId"`
	NewAddress   *newAddressRequest `json:"newAddress"`
	DeliveryDate string             `json:"deliveryDate"`
	DeliverySlot string             `json:"deliverySlot"`
}

type sellerResultPayload struct {
	SellerID    string `json:"sellerId"`
	OrderID     string `json:"orderId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Total       int64  `json:"total,omitempty"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
}

type placeOrderResponse struct {
	Orders       []orderPayload        `json:"orders"`
	Sellers      []sellerResultPayload `json:"sellers"`
	FirstOrderID string                `json:"firstOrderId,omitempty"`
	Summary      string                `json:"summary"`
	CouponCode   string                `json:"couponCode,omitempty"`
	CouponNotice string                `json:"couponNotice,omitempty"`
	Discount     int64                 `json:"discount"`
	TransportFee int64                 `json:"transportFee"`
	CartCleared  bool                  `json:"cartCleared"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many checkout attempts; try again shortly", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	cmd := services.PlaceOrderCommand{
		BuyerID:      identity.UID,
		DeliveryMode: domain.DeliveryMode(strings.TrimSpace(req.DeliveryMode)),
		Payment:      domain.PaymentMethod(strings.TrimSpace(req.Payment)),
		CouponCode:   strings.TrimSpace(req.CouponCode),
		AddressID:    strings.TrimSpace(req.AddressID),
		DeliveryDate: strings.TrimSpace(req.DeliveryDate),
		DeliverySlot: strings.TrimSpace(req.DeliverySlot),
	}
	if req.NewAddress != nil {
		input := services.AddressInput{
			Recipient: strings.TrimSpace(req.NewAddress.Recipient),
			Phone:     strings.TrimSpace(req.NewAddress.Phone),
			Street:    strings.TrimSpace(req.NewAddress.Street),
			City:      strings.TrimSpace(req.NewAddress.City),
			Pincode:   strings.TrimSpace(req.NewAddress.Pincode),
			Default:   req.NewAddress.Default,
		}
		if req.NewAddress.Lat != nil && req.NewAddress.Lng != nil {
			input.Location = &domain.GeoPoint{Lat: *req.NewAddress.Lat, Lng: *req.NewAddress.Lng}
		}
		cmd.NewAddress = &input
	}

	result, err := h.checkout.PlaceOrder(ctx, cmd)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildPlaceOrderResponse(result, cmd.CouponCode))
}

func buildPlaceOrderResponse(result services.CheckoutResult, requestedCoupon string) placeOrderResponse {
	orders := make([]orderPayload, 0, len(result.Orders))
	for _, order := range result.Orders {
		orders = append(orders, buildOrderPayload(order))
	}

	firstOrderID := ""
	created := 0
	sellers := make([]sellerResultPayload, 0, len(result.Results))
	for _, res := range result.Results {
		payload := sellerResultPayload{
			SellerID:    res.SellerID,
			OrderID:     res.OrderID,
			OrderNumber: res.OrderNumber,
			Total:       res.Total,
			Status:      "created",
		}
		if res.Succeeded() {
			created++
			if firstOrderID == "" {
				firstOrderID = res.OrderID
			}
		} else {
			payload.Status = "failed"
			payload.Error = "order could not be created"
		}
		sellers = append(sellers, payload)
	}

	notice := ""
	if requestedCoupon != "" && result.CouponCode == "" {
		notice = "coupon is invalid or expired; no discount applied"
	}

	return placeOrderResponse{
		Orders:       orders,
		Sellers:      sellers,
		FirstOrderID: firstOrderID,
		Summary:      fmt.Sprintf("%d of %d seller orders placed", created, len(result.Results)),
		CouponCode:   result.CouponCode,
		CouponNotice: notice,
		Discount:     result.Discount,
		TransportFee: result.TransportFee,
		CartCleared:  result.CartCleared,
	}
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart has no items to order", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutAddressFailed):
		httpx.WriteError(ctx, w, httpx.NewError("address_invalid", "delivery address could not be resolved", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutAllOrdersFailed):
		httpx.WriteError(ctx, w, httpx.NewError("orders_not_created", "no seller order could be created; cart preserved", http.StatusBadGateway))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout request", http.StatusInternalServerError))
	}
}
