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
	"github.com/freshmandi/api/internal/platform/pagination"
	"github.com/freshmandi/api/internal/repositories"
)

const (
	orderCollection        = "orders"
	orderItemsSubcol       = "items"
	defaultOrderPageSize   = 20
	maxOrderPageSize       = 100
	orderListOrderingField = "createdAt"
)

// OrderRepository persists seller orders and their line items. The order
// header and the items batch are written as two independent operations; the
// backing store offers no transaction spanning a document and its
// subcollection writes from separate calls.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		base:     pfirestore.NewBaseRepository[orderDocument](provider, orderCollection),
		provider: provider,
	}, nil
}

// Insert writes the order header document, failing when the ID already exists.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}

	_, err := r.base.Create(ctx, id, encodeOrderDocument(order))
	return err
}

// InsertItems writes the order's line items into the items subcollection as a
// single batch.
func (r *OrderRepository) InsertItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	if len(items) == 0 {
		return errors.New("order repository: items are required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	subcol := client.Collection(orderCollection).Doc(id).Collection(orderItemsSubcol)
	batch := client.Batch()
	for i, item := range items {
		itemID := strings.TrimSpace(item.ID)
		if itemID == "" {
			itemID = fmt.Sprintf("line-%03d", i+1)
		}
		batch.Set(subcol.Doc(itemID), encodeOrderItemDocument(item))
	}
	if _, err := batch.Commit(ctx); err != nil {
		return pfirestore.WrapError("orders.insertItems", err)
	}
	return nil
}

// FindByID loads one order header by its document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListItems returns the order's line items in their stored line order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, errors.New("order repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	iter := client.Collection(orderCollection).Doc(id).Collection(orderItemsSubcol).
		OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var items []domain.OrderItem
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("orders.listItems", err)
		}
		var doc orderItemDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode order item %s: %w", snap.Ref.ID, err)
		}
		items = append(items, doc.toDomain(snap.Ref.ID))
	}
	return items, nil
}

// List pages through a buyer's orders, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}
	buyerID := strings.TrimSpace(filter.BuyerID)
	if buyerID == "" {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository: buyer id is required")
	}

	pageSize := filter.Pager.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}
	if pageSize > maxOrderPageSize {
		pageSize = maxOrderPageSize
	}

	cursor, err := pagination.DecodeToken(filter.Pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("buyerId", "==", buyerID)
		if filter.Status != nil {
			q = q.Where("status", "==", string(*filter.Status))
		}
		q = q.OrderBy(orderListOrderingField, firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	page := domain.CursorPage[domain.Order]{}
	hasMore := len(docs) > pageSize
	if hasMore {
		docs = docs[:pageSize]
	}
	for _, doc := range docs {
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}

	if hasMore && len(docs) > 0 {
		last := docs[len(docs)-1]
		token, err := pagination.EncodeToken(pagination.Cursor{
			StartAfter: []any{last.Data.CreatedAt, last.ID},
		})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.NextPageToken = token
	}
	return page, nil
}

type orderDocument struct {
	OrderNumber   string    `firestore:"orderNumber"`
	BuyerID       string    `firestore:"buyerId"`
	SellerID      string    `firestore:"sellerId"`
	Status        string    `firestore:"status"`
	Subtotal      int64     `firestore:"subtotal"`
	TransportFee  int64     `firestore:"transportFee"`
	PlatformFee   int64     `firestore:"platformFee"`
	Discount      int64     `firestore:"discountAmount"`
	Total         int64     `firestore:"totalAmount"`
	DeliveryMode  string    `firestore:"deliveryMode"`
	DeliveryDate  string    `firestore:"deliveryDate,omitempty"`
	DeliverySlot  string    `firestore:"deliverySlot,omitempty"`
	AddressID     string    `firestore:"addressId,omitempty"`
	PaymentMethod string    `firestore:"paymentMethod"`
	PaymentStatus string    `firestore:"paymentStatus"`
	CouponCode    string    `firestore:"couponCode,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ProductID string `firestore:"productId"`
	Title     string `firestore:"title"`
	Unit      string `firestore:"unit,omitempty"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
	LineTotal int64  `firestore:"lineTotal"`
	ImageURL  string `firestore:"imageUrl,omitempty"`
}

func encodeOrderDocument(order domain.Order) orderDocument {
	return orderDocument{
		OrderNumber:   order.OrderNumber,
		BuyerID:       order.BuyerID,
		SellerID:      order.SellerID,
		Status:        string(order.Status),
		Subtotal:      order.Subtotal,
		TransportFee:  order.TransportFee,
		PlatformFee:   order.PlatformFee,
		Discount:      order.Discount,
		Total:         order.Total,
		DeliveryMode:  string(order.DeliveryMode),
		DeliveryDate:  order.DeliveryDate,
		DeliverySlot:  order.DeliverySlot,
		AddressID:     order.AddressID,
		PaymentMethod: string(order.PaymentMethod),
		PaymentStatus: string(order.PaymentStatus),
		CouponCode:    order.CouponCode,
		CreatedAt:     order.CreatedAt.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
}

func encodeOrderItemDocument(item domain.OrderItem) orderItemDocument {
	return orderItemDocument{
		ProductID: item.ProductID,
		Title:     item.Title,
		Unit:      item.Unit,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
		LineTotal: item.LineTotal,
		ImageURL:  item.ImageURL,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	return domain.Order{
		ID:            id,
		OrderNumber:   d.OrderNumber,
		BuyerID:       d.BuyerID,
		SellerID:      d.SellerID,
		Status:        domain.OrderStatus(d.Status),
		Subtotal:      d.Subtotal,
		TransportFee:  d.TransportFee,
		PlatformFee:   d.PlatformFee,
		Discount:      d.Discount,
		Total:         d.Total,
		DeliveryMode:  domain.DeliveryMode(d.DeliveryMode),
		DeliveryDate:  d.DeliveryDate,
		DeliverySlot:  d.DeliverySlot,
		AddressID:     d.AddressID,
		PaymentMethod: domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus: domain.PaymentStatus(d.PaymentStatus),
		CouponCode:    d.CouponCode,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (d orderItemDocument) toDomain(id string) domain.OrderItem {
	return domain.OrderItem{
		ID:        id,
		ProductID: d.ProductID,
		Title:     d.Title,
		Unit:      d.Unit,
		UnitPrice: d.UnitPrice,
		Quantity:  d.Quantity,
		LineTotal: d.LineTotal,
		ImageURL:  d.ImageURL,
	}
}
