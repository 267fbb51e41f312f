package services

import (
	"errors"
	"fmt"
	"math"

	domain "github.com/freshmandi/api/internal/domain"
)

const (
	// defaultPlatformFeeBps is the marketplace commission in basis points (2%).
	defaultPlatformFeeBps = 200

	percentDenominator = 100
	bpsDenominator     = 10000
)

var (
	// ErrAllocationInvalidInput signals bad checkout data such as an empty cart
	// or a negative unit price.
	ErrAllocationInvalidInput = errors.New("allocation: invalid input")
)

// AllocationEngine splits a grouped cart's shared costs across sellers. It is
// pure: no I/O, no clocks, identical output for identical input.
type AllocationEngine struct {
	platformFeeBps int64
}

// AllocationEngineConfig carries the tunable rates for the engine.
type AllocationEngineConfig struct {
	PlatformFeeBps int64
}

// NewAllocationEngine constructs an engine, defaulting the platform fee rate
// when unset.
func NewAllocationEngine(cfg AllocationEngineConfig) (*AllocationEngine, error) {
	bps := cfg.PlatformFeeBps
	if bps == 0 {
		bps = defaultPlatformFeeBps
	}
	if bps < 0 || bps > bpsDenominator {
		return nil, fmt.Errorf("%w: platform fee rate %d out of range", ErrAllocationInvalidInput, bps)
	}
	return &AllocationEngine{platformFeeBps: bps}, nil
}

// AllocateCommand is the input to one allocation run: the cart grouped by
// seller plus the checkout-wide parameters.
type AllocateCommand struct {
	Groups          []domain.SellerGroup
	TransportFee    int64
	DiscountPercent int64
}

// Allocate computes one SellerAllocation per group, in group order:
//
//	subtotal       = Σ qty·unitPrice (exact)
//	platformFee    = round half-up of subtotal × rate
//	discount       = round half-up of subtotal × discountPercent
//	transportShare = transportFee / sellerCount, remainder dropped
//	total          = subtotal + transportShare + platformFee − discount
//
// The transport fee is split evenly across sellers regardless of order size,
// so the shares can undershoot the nominal fee by up to sellerCount−1 paise.
func (e *AllocationEngine) Allocate(cmd AllocateCommand) ([]domain.SellerAllocation, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: engine not initialised", ErrAllocationInvalidInput)
	}
	if len(cmd.Groups) == 0 {
		return nil, fmt.Errorf("%w: no seller groups", ErrAllocationInvalidInput)
	}
	if cmd.TransportFee < 0 {
		return nil, fmt.Errorf("%w: transport fee cannot be negative", ErrAllocationInvalidInput)
	}
	if cmd.DiscountPercent < 0 || cmd.DiscountPercent > percentDenominator {
		return nil, fmt.Errorf("%w: discount percent %d out of range", ErrAllocationInvalidInput, cmd.DiscountPercent)
	}

	sellerCount := int64(len(cmd.Groups))
	transportShare := cmd.TransportFee / sellerCount

	allocations := make([]domain.SellerAllocation, 0, len(cmd.Groups))
	for _, group := range cmd.Groups {
		subtotal, err := groupSubtotal(group)
		if err != nil {
			return nil, err
		}

		platformFee, err := roundHalfUp(subtotal, e.platformFeeBps, bpsDenominator)
		if err != nil {
			return nil, fmt.Errorf("seller %s platform fee: %w", group.SellerID, err)
		}
		discount, err := roundHalfUp(subtotal, cmd.DiscountPercent, percentDenominator)
		if err != nil {
			return nil, fmt.Errorf("seller %s discount: %w", group.SellerID, err)
		}

		total := subtotal + transportShare + platformFee - discount
		if total < 0 {
			return nil, fmt.Errorf("%w: seller %s total is negative", ErrAllocationInvalidInput, group.SellerID)
		}

		allocations = append(allocations, domain.SellerAllocation{
			SellerID:       group.SellerID,
			Subtotal:       subtotal,
			TransportShare: transportShare,
			PlatformFee:    platformFee,
			Discount:       discount,
			Total:          total,
		})
	}

	return allocations, nil
}

func groupSubtotal(group domain.SellerGroup) (int64, error) {
	if len(group.Items) == 0 {
		return 0, fmt.Errorf("%w: seller %s has no items", ErrAllocationInvalidInput, group.SellerID)
	}
	var subtotal int64
	for _, item := range group.Items {
		if item.Quantity <= 0 {
			return 0, fmt.Errorf("%w: item %s quantity must be positive", ErrAllocationInvalidInput, item.ProductID)
		}
		if item.UnitPrice < 0 {
			return 0, fmt.Errorf("%w: item %s unit price cannot be negative", ErrAllocationInvalidInput, item.ProductID)
		}
		quantity := int64(item.Quantity)
		if item.UnitPrice > 0 && item.UnitPrice > math.MaxInt64/quantity {
			return 0, fmt.Errorf("%w: item %s line total overflow", ErrAllocationInvalidInput, item.ProductID)
		}
		line := item.UnitPrice * quantity
		if subtotal > math.MaxInt64-line {
			return 0, fmt.Errorf("%w: seller %s subtotal overflow", ErrAllocationInvalidInput, group.SellerID)
		}
		subtotal += line
	}
	return subtotal, nil
}

// roundHalfUp computes amount×rate/denominator rounded half-up to the nearest
// paise.
func roundHalfUp(amount, rate, denominator int64) (int64, error) {
	if amount == 0 || rate == 0 {
		return 0, nil
	}
	if amount > (math.MaxInt64-denominator/2)/rate {
		return 0, fmt.Errorf("%w: amount %d overflows at rate %d", ErrAllocationInvalidInput, amount, rate)
	}
	return (amount*rate + denominator/2) / denominator, nil
}
