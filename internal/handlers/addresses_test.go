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

	"github.com/freshmandi/api/internal/services"
)

type stubAddressService struct {
	resolveFn func(context.Context, services.ResolveAddressCommand) (services.Address, error)
	listFn    func(context.Context, string) ([]services.Address, error)
	createFn  func(context.Context, services.CreateAddressCommand) (services.Address, error)
}

func (s *stubAddressService) Resolve(ctx context.Context, cmd services.ResolveAddressCommand) (services.Address, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, cmd)
	}
	return services.Address{}, errors.New("not implemented")
}

func (s *stubAddressService) List(ctx context.Context, buyerID string) ([]services.Address, error) {
	if s.listFn != nil {
		return s.listFn(ctx, buyerID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubAddressService) Create(ctx context.Context, cmd services.CreateAddressCommand) (services.Address, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Address{}, errors.New("not implemented")
}

func newAddressRouter(service services.AddressService) chi.Router {
	handler := NewAddressHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/me", handler.Routes)
	return router
}

func TestAddressHandlersList(t *testing.T) {
	service := &stubAddressService{
		listFn: func(_ context.Context, buyerID string) ([]services.Address, error) {
			if buyerID != "buyer-1" {
				t.Fatalf("unexpected buyer %s", buyerID)
			}
			return []services.Address{
				{ID: "addr-1", Recipient: "Asha Patil", Street: "14 MG Road", City: "Pune", Pincode: "411001", Default: true},
			}, nil
		},
	}
	router := newAddressRouter(service)

	req := authenticated(httptest.NewRequest(http.MethodGet, "/me/addresses", nil), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp []addressPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "addr-1" || !resp[0].Default {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestAddressHandlersCreate(t *testing.T) {
	var captured services.CreateAddressCommand
	service := &stubAddressService{
		createFn: func(_ context.Context, cmd services.CreateAddressCommand) (services.Address, error) {
			captured = cmd
			return services.Address{ID: "addr-9", Recipient: cmd.Input.Recipient}, nil
		},
	}
	router := newAddressRouter(service)

	body := []byte(`{
		"recipient": "Asha Patil",
		"phone": "9876543210",
		"street": "14 MG Road",
		"city": "Pune",
		"pincode": "411001",
		"lat": 18.52,
		"lng": 73.85
	}`)

	req := authenticated(httptest.NewRequest(http.MethodPost, "/me/addresses", bytes.NewReader(body)), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.BuyerID != "buyer-1" || captured.Input.Recipient != "Asha Patil" {
		t.Fatalf("unexpected command %#v", captured)
	}
	if captured.Input.Location == nil || captured.Input.Location.Lng != 73.85 {
		t.Fatalf("expected location, got %#v", captured.Input.Location)
	}
	if loc := rr.Header().Get("Location"); loc != "/me/addresses/addr-9" {
		t.Fatalf("unexpected Location header %q", loc)
	}
}

func TestAddressHandlersCreateInvalidInput(t *testing.T) {
	service := &stubAddressService{
		createFn: func(context.Context, services.CreateAddressCommand) (services.Address, error) {
			return services.Address{}, services.ErrAddressInvalidInput
		},
	}
	router := newAddressRouter(service)

	body := []byte(`{"recipient":"","street":"","city":"","pincode":"bad"}`)
	req := authenticated(httptest.NewRequest(http.MethodPost, "/me/addresses", bytes.NewReader(body)), "buyer-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAddressHandlersRequireAuthentication(t *testing.T) {
	router := newAddressRouter(&stubAddressService{})

	req := httptest.NewRequest(http.MethodGet, "/me/addresses", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}
