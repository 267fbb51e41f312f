package firestore

import (
	"context"
	"errors"
	"strings"

	domain "github.com/freshmandi/api/internal/domain"
	pfirestore "github.com/freshmandi/api/internal/platform/firestore"
)

const couponCollection = "coupons"

// CouponRepository reads coupon documents keyed by their uppercased code.
type CouponRepository struct {
	base *pfirestore.BaseRepository[couponDocument]
}

// NewCouponRepository constructs a Firestore-backed coupon repository.
func NewCouponRepository(provider *pfirestore.Provider) (*CouponRepository, error) {
	if provider == nil {
		return nil, errors.New("coupon repository requires firestore provider")
	}
	return &CouponRepository{
		base: pfirestore.NewBaseRepository[couponDocument](provider, couponCollection),
	}, nil
}

// FindByCode loads the coupon stored under the given code. Callers are
// expected to uppercase the code before lookup.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if r == nil || r.base == nil {
		return domain.Coupon{}, errors.New("coupon repository not initialised")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return domain.Coupon{}, errors.New("coupon repository: code is required")
	}

	doc, err := r.base.Get(ctx, trimmed)
	if err != nil {
		return domain.Coupon{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

type couponDocument struct {
	DiscountPercent int64 `firestore:"discountPercent"`
	Active          bool  `firestore:"active"`
}

func (d couponDocument) toDomain(code string) domain.Coupon {
	return domain.Coupon{
		Code:            code,
		DiscountPercent: d.DiscountPercent,
		Active:          d.Active,
	}
}
