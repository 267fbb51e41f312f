package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/freshmandi/api/internal/platform/auth"
	"github.com/freshmandi/api/internal/platform/httpx"
	"github.com/freshmandi/api/internal/services"
)

const maxCouponRequestBody = 2 * 1024

// CouponHandlers lets buyers check a coupon before checkout.
type CouponHandlers struct {
	authn   *auth.Authenticator
	coupons services.CouponService
}

// NewCouponHandlers constructs coupon handlers guarded by Firebase authentication.
func NewCouponHandlers(authn *auth.Authenticator, coupons services.CouponService) *CouponHandlers {
	return &CouponHandlers{
		authn:   authn,
		coupons: coupons,
	}
}

// Routes registers coupon endpoints under the provided router.
func (h *CouponHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	group := r
	if h.authn != nil {
		group = group.With(h.authn.RequireFirebaseAuth())
	}
	group.Post("/validate", h.validateCoupon)
}

type validateCouponRequest struct {
	Code string `json:"code"`
}

type couponPayload struct {
	Code            string `json:"code"`
	DiscountPercent int64  `json:"discountPercent"`
}

func (h *CouponHandlers) validateCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.coupons == nil {
		httpx.WriteError(ctx, w, httpx.NewError("coupon_service_unavailable", "coupon service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	body, err := readLimitedBody(r, maxCouponRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req validateCouponRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	coupon, err := h.coupons.Validate(ctx, services.ValidateCouponCommand{Code: strings.TrimSpace(req.Code)})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCouponInvalidInput):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "coupon code is required", http.StatusBadRequest))
		case errors.Is(err, services.ErrCouponRejected):
			// One message for every rejection, so callers cannot probe
			// which codes exist.
			httpx.WriteError(ctx, w, httpx.NewError("coupon_rejected", "coupon is invalid or expired", http.StatusUnprocessableEntity))
		case errors.Is(err, services.ErrCouponUnavailable):
			httpx.WriteError(ctx, w, httpx.NewError("coupon_service_unavailable", "coupon service unavailable", http.StatusServiceUnavailable))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("coupon_error", "failed to validate coupon", http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusOK, couponPayload{
		Code:            coupon.Code,
		DiscountPercent: coupon.DiscountPercent,
	})
}
