package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/freshmandi/api/internal/domain"
	"github.com/freshmandi/api/internal/repositories"
)

var (
	// ErrAddressInvalidInput indicates the caller supplied invalid address parameters.
	ErrAddressInvalidInput = errors.New("address: invalid input")
	// ErrAddressNotFound indicates the referenced address does not exist for the buyer.
	ErrAddressNotFound = errors.New("address: not found")
	// ErrAddressUnavailable indicates the address store could not be reached.
	ErrAddressUnavailable = errors.New("address: unavailable")
)

// AddressServiceDeps wires the dependencies required by the address service.
type AddressServiceDeps struct {
	Addresses repositories.AddressRepository
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type addressService struct {
	addresses repositories.AddressRepository
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewAddressService constructs an AddressService validating required dependencies.
func NewAddressService(deps AddressServiceDeps) (AddressService, error) {
	if deps.Addresses == nil {
		return nil, errors.New("address service: address repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &addressService{
		addresses: deps.Addresses,
		logger:    logger,
	}, nil
}

// Resolve returns an existing address when an ID is supplied, otherwise
// creates one from the provided input. Exactly one of the two must be given.
func (s *addressService) Resolve(ctx context.Context, cmd ResolveAddressCommand) (Address, error) {
	if s == nil || s.addresses == nil {
		return Address{}, ErrAddressUnavailable
	}

	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return Address{}, ErrAddressInvalidInput
	}

	addressID := strings.TrimSpace(cmd.AddressID)
	switch {
	case addressID != "":
		addr, err := s.addresses.Get(ctx, buyerID, addressID)
		if err != nil {
			return Address{}, s.mapRepositoryError(err)
		}
		return addr, nil
	case cmd.New != nil:
		// An address captured mid-checkout becomes the buyer's default.
		input := *cmd.New
		input.Default = true
		return s.Create(ctx, CreateAddressCommand{BuyerID: buyerID, Input: input})
	default:
		return Address{}, ErrAddressInvalidInput
	}
}

// List returns the buyer's saved addresses.
func (s *addressService) List(ctx context.Context, buyerID string) ([]Address, error) {
	if s == nil || s.addresses == nil {
		return nil, ErrAddressUnavailable
	}
	id := strings.TrimSpace(buyerID)
	if id == "" {
		return nil, ErrAddressInvalidInput
	}

	addresses, err := s.addresses.List(ctx, id)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return addresses, nil
}

// Create validates and stores a new address for the buyer.
func (s *addressService) Create(ctx context.Context, cmd CreateAddressCommand) (Address, error) {
	if s == nil || s.addresses == nil {
		return Address{}, ErrAddressUnavailable
	}

	buyerID := strings.TrimSpace(cmd.BuyerID)
	if buyerID == "" {
		return Address{}, ErrAddressInvalidInput
	}
	addr, err := addressFromInput(cmd.Input)
	if err != nil {
		return Address{}, err
	}

	saved, err := s.addresses.Create(ctx, buyerID, addr)
	if err != nil {
		return Address{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "address.created", map[string]any{
		"buyerId":   buyerID,
		"addressId": saved.ID,
		"default":   saved.Default,
	})
	return saved, nil
}

func addressFromInput(input AddressInput) (domain.Address, error) {
	recipient := strings.TrimSpace(input.Recipient)
	phone := strings.TrimSpace(input.Phone)
	street := strings.TrimSpace(input.Street)
	city := strings.TrimSpace(input.City)
	pincode := strings.TrimSpace(input.Pincode)

	if recipient == "" || phone == "" || street == "" || city == "" {
		return domain.Address{}, ErrAddressInvalidInput
	}
	if !validPincode(pincode) {
		return domain.Address{}, ErrAddressInvalidInput
	}

	addr := domain.Address{
		Recipient: recipient,
		Phone:     phone,
		Street:    street,
		City:      city,
		Pincode:   pincode,
		Default:   input.Default,
	}
	if input.Location != nil {
		loc := *input.Location
		addr.Location = &loc
	}
	return addr, nil
}

// validPincode accepts six-digit Indian postal codes.
func validPincode(pincode string) bool {
	if len(pincode) != 6 {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return pincode[0] != '0'
}

func (s *addressService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrAddressNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrAddressUnavailable, err)
		}
	}
	return err
}
