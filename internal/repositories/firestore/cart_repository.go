package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/freshmandi/api/internal/domain"
	pfirestore "github.com/freshmandi/api/internal/platform/firestore"
)

const cartCollection = "carts"

// CartRepository persists buyer carts within Firestore. The buyer ID doubles
// as the cart document ID, so each buyer has at most one cart.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection),
	}, nil
}

// GetCart loads the buyer's cart.
func (r *CartRepository) GetCart(ctx context.Context, buyerID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	id := strings.TrimSpace(buyerID)
	if id == "" {
		return domain.Cart{}, errors.New("cart repository: buyer id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Cart{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ClearCart removes the buyer's cart document. Clearing an absent cart is a no-op.
func (r *CartRepository) ClearCart(ctx context.Context, buyerID string) error {
	if r == nil || r.base == nil {
		return errors.New("cart repository not initialised")
	}
	id := strings.TrimSpace(buyerID)
	if id == "" {
		return errors.New("cart repository: buyer id is required")
	}
	return r.base.Delete(ctx, id)
}

type cartDocument struct {
	Items     []cartItemDocument `firestore:"items"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ProductID string `firestore:"productId"`
	SellerID  string `firestore:"sellerId"`
	Title     string `firestore:"title"`
	Unit      string `firestore:"unit,omitempty"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
	ImageURL  string `firestore:"imageUrl,omitempty"`
}

func (d cartDocument) toDomain(buyerID string) domain.Cart {
	items := make([]domain.CartItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.CartItem{
			ProductID: item.ProductID,
			SellerID:  item.SellerID,
			Title:     item.Title,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return domain.Cart{
		BuyerID:   buyerID,
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
