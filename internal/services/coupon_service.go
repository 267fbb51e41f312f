package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/freshmandi/api/internal/repositories"
)

var (
	// ErrCouponInvalidInput indicates the caller supplied no usable coupon code.
	ErrCouponInvalidInput = errors.New("coupon: invalid input")
	// ErrCouponRejected is returned for every unusable coupon, whether the
	// code is unknown, inactive, or malformed. Callers surface one uniform
	// "invalid or expired" message so the response does not reveal which
	// codes exist.
	ErrCouponRejected = errors.New("coupon: invalid or expired")
	// ErrCouponUnavailable indicates the coupon store could not be reached.
	ErrCouponUnavailable = errors.New("coupon: unavailable")
)

// CouponServiceDeps wires the dependencies required by the coupon service.
type CouponServiceDeps struct {
	Coupons repositories.CouponRepository
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type couponService struct {
	coupons repositories.CouponRepository
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewCouponService constructs a CouponService validating required dependencies.
func NewCouponService(deps CouponServiceDeps) (CouponService, error) {
	if deps.Coupons == nil {
		return nil, errors.New("coupon service: coupon repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &couponService{
		coupons: deps.Coupons,
		logger:  logger,
	}, nil
}

// Validate resolves the coupon code case-insensitively and rejects anything
// that cannot currently be applied.
func (s *couponService) Validate(ctx context.Context, cmd ValidateCouponCommand) (Coupon, error) {
	if s == nil || s.coupons == nil {
		return Coupon{}, ErrCouponUnavailable
	}

	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return Coupon{}, ErrCouponInvalidInput
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) {
			if repoErr.IsNotFound() {
				return Coupon{}, ErrCouponRejected
			}
			if repoErr.IsUnavailable() {
				return Coupon{}, fmt.Errorf("%w: %v", ErrCouponUnavailable, err)
			}
		}
		return Coupon{}, err
	}

	if !coupon.Active || coupon.DiscountPercent <= 0 || coupon.DiscountPercent > 100 {
		s.logger(ctx, "coupon.rejected", map[string]any{
			"code":   code,
			"active": coupon.Active,
		})
		return Coupon{}, ErrCouponRejected
	}

	coupon.Code = code
	return coupon, nil
}
