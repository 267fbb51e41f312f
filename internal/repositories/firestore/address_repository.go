package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/freshmandi/api/internal/domain"
	pfirestore "github.com/freshmandi/api/internal/platform/firestore"
)

const addressCollectionPattern = "users/%s/addresses"

// AddressRepository persists buyer addresses in a per-user subcollection.
type AddressRepository struct {
	provider *pfirestore.Provider
}

// NewAddressRepository constructs a Firestore-backed address repository.
func NewAddressRepository(provider *pfirestore.Provider) (*AddressRepository, error) {
	if provider == nil {
		return nil, errors.New("address repository requires firestore provider")
	}
	return &AddressRepository{provider: provider}, nil
}

// Get loads one address belonging to the buyer.
func (r *AddressRepository) Get(ctx context.Context, buyerID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, buyerID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.get", err)
	}
	return decodeAddressDocument(snap)
}

// List returns all addresses for the buyer, most recently updated first.
func (r *AddressRepository) List(ctx context.Context, buyerID string) ([]domain.Address, error) {
	coll, err := r.collection(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var results []domain.Address
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("addresses.list", err)
		}
		addr, err := decodeAddressDocument(snap)
		if err != nil {
			return nil, err
		}
		results = append(results, addr)
	}
	return results, nil
}

// Create persists a new address. When the address is flagged as default, the
// default marker on the buyer's other addresses is cleared in the same
// transaction.
func (r *AddressRepository) Create(ctx context.Context, buyerID string, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, buyerID)
	if err != nil {
		return domain.Address{}, err
	}

	docRef := coll.NewDoc()
	now := time.Now().UTC()
	createdAt := addr.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	doc := addressDocument{
		Recipient: strings.TrimSpace(addr.Recipient),
		Phone:     strings.TrimSpace(addr.Phone),
		Street:    strings.TrimSpace(addr.Street),
		City:      strings.TrimSpace(addr.City),
		Pincode:   strings.TrimSpace(addr.Pincode),
		Default:   addr.Default,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	if addr.Location != nil {
		doc.Location = &geoPointDocument{
			Lat: addr.Location.Lat,
			Lng: addr.Location.Lng,
		}
	}

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if doc.Default {
			if err := clearDefaultAddresses(tx, coll, docRef.ID); err != nil {
				return err
			}
		}
		return tx.Set(docRef, doc)
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.create", err)
	}
	return doc.toDomain(docRef.ID), nil
}

func clearDefaultAddresses(tx *firestore.Transaction, coll *firestore.CollectionRef, exceptID string) error {
	iter := tx.Documents(coll.Where("default", "==", true))
	snaps, err := iter.GetAll()
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		if snap.Ref.ID == exceptID {
			continue
		}
		if err := tx.Update(snap.Ref, []firestore.Update{{Path: "default", Value: false}}); err != nil {
			return err
		}
	}
	return nil
}

func (r *AddressRepository) collection(ctx context.Context, buyerID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("address repository not initialised")
	}
	id := strings.TrimSpace(buyerID)
	if id == "" {
		return nil, errors.New("address repository: buyer id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(addressCollectionPattern, id)), nil
}

type addressDocument struct {
	Recipient string            `firestore:"recipient"`
	Phone     string            `firestore:"phone"`
	Street    string            `firestore:"street"`
	City      string            `firestore:"city"`
	Pincode   string            `firestore:"pincode"`
	Location  *geoPointDocument `firestore:"location,omitempty"`
	Default   bool              `firestore:"default"`
	CreatedAt time.Time         `firestore:"createdAt"`
	UpdatedAt time.Time         `firestore:"updatedAt"`
}

type geoPointDocument struct {
	Lat float64 `firestore:"lat"`
	Lng float64 `firestore:"lng"`
}

func (d addressDocument) toDomain(id string) domain.Address {
	addr := domain.Address{
		ID:        id,
		Recipient: d.Recipient,
		Phone:     d.Phone,
		Street:    d.Street,
		City:      d.City,
		Pincode:   d.Pincode,
		Default:   d.Default,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Location != nil {
		addr.Location = &domain.GeoPoint{
			Lat: d.Location.Lat,
			Lng: d.Location.Lng,
		}
	}
	return addr
}

func decodeAddressDocument(snap *firestore.DocumentSnapshot) (domain.Address, error) {
	var doc addressDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Address{}, fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}
