package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/freshmandi/api/internal/domain"
)

type stubCouponRepository struct {
	findFunc func(ctx context.Context, code string) (domain.Coupon, error)
}

func (s *stubCouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if s.findFunc == nil {
		return domain.Coupon{}, errors.New("unexpected FindByCode call")
	}
	return s.findFunc(ctx, code)
}

// stubRepoError implements repositories.RepositoryError for service tests.
type stubRepoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return e.msg }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return e.conflict }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

func newCouponService(t *testing.T, repo *stubCouponRepository) CouponService {
	t.Helper()
	svc, err := NewCouponService(CouponServiceDeps{Coupons: repo})
	if err != nil {
		t.Fatalf("NewCouponService: %v", err)
	}
	return svc
}

func TestCouponValidateUppercasesCode(t *testing.T) {
	var requested string
	repo := &stubCouponRepository{
		findFunc: func(_ context.Context, code string) (domain.Coupon, error) {
			requested = code
			return domain.Coupon{Code: code, DiscountPercent: 10, Active: true}, nil
		},
	}
	svc := newCouponService(t, repo)

	coupon, err := svc.Validate(context.Background(), ValidateCouponCommand{Code: "  fresh10 "})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if requested != "FRESH10" {
		t.Fatalf("expected repository lookup with FRESH10, got %q", requested)
	}
	if coupon.Code != "FRESH10" || coupon.DiscountPercent != 10 {
		t.Fatalf("unexpected coupon %#v", coupon)
	}
}

func TestCouponValidateUnknownCodeIsRejected(t *testing.T) {
	repo := &stubCouponRepository{
		findFunc: func(context.Context, string) (domain.Coupon, error) {
			return domain.Coupon{}, &stubRepoError{msg: "missing", notFound: true}
		},
	}
	svc := newCouponService(t, repo)

	_, err := svc.Validate(context.Background(), ValidateCouponCommand{Code: "NOPE"})
	if !errors.Is(err, ErrCouponRejected) {
		t.Fatalf("expected ErrCouponRejected, got %v", err)
	}
}

func TestCouponValidateRejectsUnusableCoupons(t *testing.T) {
	cases := []struct {
		name   string
		coupon domain.Coupon
	}{
		{name: "inactive", coupon: domain.Coupon{Code: "OLD", DiscountPercent: 10, Active: false}},
		{name: "zero percent", coupon: domain.Coupon{Code: "ZERO", DiscountPercent: 0, Active: true}},
		{name: "negative percent", coupon: domain.Coupon{Code: "NEG", DiscountPercent: -5, Active: true}},
		{name: "over hundred", coupon: domain.Coupon{Code: "BIG", DiscountPercent: 150, Active: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubCouponRepository{
				findFunc: func(context.Context, string) (domain.Coupon, error) {
					return tc.coupon, nil
				},
			}
			svc := newCouponService(t, repo)

			_, err := svc.Validate(context.Background(), ValidateCouponCommand{Code: tc.coupon.Code})
			if !errors.Is(err, ErrCouponRejected) {
				t.Fatalf("expected ErrCouponRejected, got %v", err)
			}
		})
	}
}

func TestCouponValidateEmptyCodeIsInvalidInput(t *testing.T) {
	svc := newCouponService(t, &stubCouponRepository{})

	_, err := svc.Validate(context.Background(), ValidateCouponCommand{Code: "   "})
	if !errors.Is(err, ErrCouponInvalidInput) {
		t.Fatalf("expected ErrCouponInvalidInput, got %v", err)
	}
}

func TestCouponValidateUnavailableStore(t *testing.T) {
	repo := &stubCouponRepository{
		findFunc: func(context.Context, string) (domain.Coupon, error) {
			return domain.Coupon{}, &stubRepoError{msg: "deadline exceeded", unavailable: true}
		},
	}
	svc := newCouponService(t, repo)

	_, err := svc.Validate(context.Background(), ValidateCouponCommand{Code: "FRESH10"})
	if !errors.Is(err, ErrCouponUnavailable) {
		t.Fatalf("expected ErrCouponUnavailable, got %v", err)
	}
}
