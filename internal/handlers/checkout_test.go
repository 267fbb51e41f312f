package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/platform/auth"
	"github.com/freshmandi/api/internal/services"
)

type stubCheckoutService struct {
	placeFn func(context.Context, services.PlaceOrderCommand) (services.CheckoutResult, error)
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (services.CheckoutResult, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, cmd)
	}
	return services.CheckoutResult{}, errors.New("not implemented")
}

func newCheckoutRouter(service services.CheckoutService) chi.Router {
	handler := NewCheckoutHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/checkout", handler.Routes)
	return router
}

func authenticated(req *http.Request, uid string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid}))
}

func TestCheckoutHandlersPlaceOrder(t *testing.T) {
	var captured services.PlaceOrderCommand
	service := &stubCheckoutService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (services.CheckoutResult, error) {
			captured = cmd
			return services.CheckoutResult{
				Orders: []services.Order{
					{ID: "ord_1", OrderNumber: "ORD-103000-AB23", SellerID: "seller-1", Total: 17640},
				},
				Results: []services.SellerResult{
					{SellerID: "seller-1", OrderID: "ord_1", OrderNumber: "ORD-103000-AB23", Total: 17640},
					{SellerID: "seller-2", Err: services.ErrOrderUnavailable},
				},
				CouponCode:   "FRESH10",
				Discount:     2300,
				TransportFee: 4000,
				CartCleared:  true,
			}, nil
		},
	}
	router := newCheckoutRouter(service)

	payload := map[string]any{
		"deliveryMode": "seller_delivers",
		"payment":      "upi",
		"couponCode":   "fresh10",
		"addressId":    "addr-1",
		"deliveryDate": "2025-08-15",
		"deliverySlot": "morning",
	}
	body, _ := json.Marshal(payload)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if captured.BuyerID != "buyer-1" {
		t.Errorf("expected buyer from identity, got %q", captured.BuyerID)
	}
	if captured.DeliveryMode != domain.DeliveryModeSellerDelivers || captured.Payment != domain.PaymentMethodUPI {
		t.Errorf("unexpected command %#v", captured)
	}
	if captured.CouponCode != "fresh10" || captured.AddressID != "addr-1" {
		t.Errorf("unexpected command %#v", captured)
	}

	var resp placeOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].ID != "ord_1" {
		t.Fatalf("unexpected orders %#v", resp.Orders)
	}
	if len(resp.Sellers) != 2 {
		t.Fatalf("expected 2 seller results, got %d", len(resp.Sellers))
	}
	if resp.Sellers[0].Status != "created" || resp.Sellers[1].Status != "failed" {
		t.Errorf("unexpected seller statuses %#v", resp.Sellers)
	}
	if resp.Sellers[1].Error == "" {
		t.Error("failed seller result must carry an error message")
	}
	if !resp.CartCleared || resp.Discount != 2300 || resp.TransportFee != 4000 {
		t.Errorf("unexpected response %#v", resp)
	}
	if resp.FirstOrderID != "ord_1" {
		t.Errorf("expected first order id ord_1, got %q", resp.FirstOrderID)
	}
	if resp.Summary != "1 of 2 seller orders placed" {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
	if resp.CouponNotice != "" {
		t.Errorf("accepted coupon must not carry a notice, got %q", resp.CouponNotice)
	}
}

func TestCheckoutHandlersPlaceOrderRejectedCouponNotice(t *testing.T) {
	service := &stubCheckoutService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{
				Results: []services.SellerResult{
					{SellerID: "seller-1", OrderID: "ord_1", OrderNumber: "ORD-103000-AB23", Total: 17640},
				},
				CartCleared: true,
			}, nil
		},
	}
	router := newCheckoutRouter(service)

	body, _ := json.Marshal(map[string]any{
		"deliveryMode": "buyer_pickup",
		"payment":      "cod",
		"couponCode":   "EXPIRED5",
	})
	req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp placeOrderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.CouponNotice == "" {
		t.Error("rejected coupon must surface a notice")
	}
	if resp.CouponCode != "" {
		t.Errorf("rejected coupon must not echo a code, got %q", resp.CouponCode)
	}
	if resp.Summary != "1 of 1 seller orders placed" {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
}

func TestCheckoutHandlersPlaceOrderNewAddress(t *testing.T) {
	var captured services.PlaceOrderCommand
	service := &stubCheckoutService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (services.CheckoutResult, error) {
			captured = cmd
			return services.CheckoutResult{
				Orders:  []services.Order{{ID: "ord_1"}},
				Results: []services.SellerResult{{SellerID: "seller-1", OrderID: "ord_1"}},
			}, nil
		},
	}
	router := newCheckoutRouter(service)

	body := []byte(`{
		"deliveryMode": "seller_delivers",
		"payment": "cod",
		"newAddress": {
			"recipient": "Asha Patil",
			"phone": "9876543210",
			"street": "14 MG Road",
			"city": "Pune",
			"pincode": "411001",
			"lat": 18.52,
			"lng": 73.85,
			"default": true
		}
	}`)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.NewAddress == nil {
		t.Fatal("expected new address on command")
	}
	if captured.NewAddress.Recipient != "Asha Patil" || captured.NewAddress.Pincode != "411001" {
		t.Errorf("unexpected address input %#v", captured.NewAddress)
	}
	if captured.NewAddress.Location == nil || captured.NewAddress.Location.Lat != 18.52 {
		t.Errorf("expected location on address input, got %#v", captured.NewAddress.Location)
	}
}

func TestCheckoutHandlersPlaceOrderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", services.ErrCheckoutInvalidInput, http.StatusBadRequest, "invalid_request"},
		{"empty cart", services.ErrCheckoutEmptyCart, http.StatusConflict, "cart_empty"},
		{"address failed", services.ErrCheckoutAddressFailed, http.StatusBadRequest, "address_invalid"},
		{"all orders failed", services.ErrCheckoutAllOrdersFailed, http.StatusBadGateway, "orders_not_created"},
		{"unavailable", services.ErrCheckoutUnavailable, http.StatusServiceUnavailable, "checkout_unavailable"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			service := &stubCheckoutService{
				placeFn: func(context.Context, services.PlaceOrderCommand) (services.CheckoutResult, error) {
					return services.CheckoutResult{}, tc.err
				},
			}
			router := newCheckoutRouter(service)

			body := []byte(`{"deliveryMode":"seller_delivers","payment":"upi","addressId":"addr-1"}`)
			req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)), "buyer-1")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if resp.Error != tc.wantCode {
				t.Fatalf("expected code %s, got %s", tc.wantCode, resp.Error)
			}
		})
	}
}

func TestCheckoutHandlersRequiresAuthentication(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{})

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte(`{}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestCheckoutHandlersRejectsMalformedJSON(t *testing.T) {
	router := newCheckoutRouter(&stubCheckoutService{})

	req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader([]byte(`{nope`))), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCheckoutHandlersRateLimitsBuyer(t *testing.T) {
	service := &stubCheckoutService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{
				Orders:  []services.Order{{ID: "ord_1"}},
				Results: []services.SellerResult{{SellerID: "seller-1", OrderID: "ord_1"}},
			}, nil
		},
	}
	router := newCheckoutRouter(service)

	body := []byte(`{"deliveryMode":"buyer_pickup","payment":"cod"}`)
	var last int
	for i := 0; i < checkoutRateLimit+1; i++ {
		req := authenticated(httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewReader(body)), "buyer-1")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		last = rr.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after %d attempts, got %d", checkoutRateLimit+1, last)
	}
}
