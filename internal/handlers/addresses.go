package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/platform/auth"
	"github.com/freshmandi/api/internal/platform/httpx"
	"github.com/freshmandi/api/internal/services"
)

const maxAddressRequestBody = 16 * 1024

// AddressHandlers exposes the buyer's saved address endpoints under /me.
type AddressHandlers struct {
	authn     *auth.Authenticator
	addresses services.AddressService
}

// NewAddressHandlers constructs address handlers guarded by Firebase authentication.
func NewAddressHandlers(authn *auth.Authenticator, addresses services.AddressService) *AddressHandlers {
	return &AddressHandlers{
		authn:     authn,
		addresses: addresses,
	}
}

// Routes registers address endpoints under the provided router.
func (h *AddressHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	group := r
	if h.authn != nil {
		group = group.With(h.authn.RequireFirebaseAuth())
	}
	group.Get("/addresses", h.listAddresses)
	group.Post("/addresses", h.createAddress)
}

func (h *AddressHandlers) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.addresses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("address_service_unavailable", "address service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	addresses, err := h.addresses.List(ctx, identity.UID)
	if err != nil {
		writeAddressError(ctx, w, err)
		return
	}

	payload := make([]addressPayload, 0, len(addresses))
	for _, addr := range addresses {
		payload = append(payload, buildAddressPayload(addr))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *AddressHandlers) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.addresses == nil {
		httpx.WriteError(ctx, w, httpx.NewError("address_service_unavailable", "address service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxAddressRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		code := "invalid_request"
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
			code = "payload_too_large"
		}
		httpx.WriteError(ctx, w, httpx.NewError(code, err.Error(), status))
		return
	}

	var req newAddressRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	saved, err := h.addresses.Create(ctx, services.CreateAddressCommand{
		BuyerID: identity.UID,
		Input:   req.toAddressInput(),
	})
	if err != nil {
		writeAddressError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+saved.ID)
	writeJSONResponse(w, http.StatusCreated, buildAddressPayload(saved))
}

func (req newAddressRequest) toAddressInput() services.AddressInput {
	input := services.AddressInput{
		Recipient: strings.TrimSpace(req.Recipient),
		Phone:     strings.TrimSpace(req.Phone),
		Street:    strings.TrimSpace(req.Street),
		City:      strings.TrimSpace(req.City),
		Pincode:   strings.TrimSpace(req.Pincode),
		Default:   req.Default,
	}
	if req.Lat != nil && req.Lng != nil {
		input.Location = &domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng}
	}
	return input
}

type addressPayload struct {
	ID        string   `json:"id"`
	Recipient string   `json:"recipient"`
	Phone     string   `json:"phone,omitempty"`
	Street    string   `json:"street"`
	City      string   `json:"city"`
	Pincode   string   `json:"pincode"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Default   bool     `json:"default"`
	CreatedAt string   `json:"createdAt,omitempty"`
	UpdatedAt string   `json:"updatedAt,omitempty"`
}

func buildAddressPayload(addr services.Address) addressPayload {
	payload := addressPayload{
		ID:        addr.ID,
		Recipient: addr.Recipient,
		Phone:     addr.Phone,
		Street:    addr.Street,
		City:      addr.City,
		Pincode:   addr.Pincode,
		Default:   addr.Default,
		CreatedAt: formatTime(addr.CreatedAt),
		UpdatedAt: formatTime(addr.UpdatedAt),
	}
	if addr.Location != nil {
		lat := addr.Location.Lat
		lng := addr.Location.Lng
		payload.Lat = &lat
		payload.Lng = &lng
	}
	return payload
}

func writeAddressError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAddressInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_address", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "address not found", http.StatusNotFound))
	case errors.Is(err, services.ErrAddressUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("address_service_unavailable", "address service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("address_error", "failed to process address request", http.StatusInternalServerError))
	}
}
