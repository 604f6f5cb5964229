package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/cameron-natural/api/internal/domain"
	pfirestore "github.com/cameron-natural/api/internal/platform/firestore"
	"github.com/cameron-natural/api/internal/repositories"
)

const (
	orderCollection = "orders"
)

// OrderRepository persists order documents within Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{
		base:     base,
		provider: provider,
	}, nil
}

// Insert creates the order document. The order ID is the document ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}

	_, err := r.base.Set(ctx, orderID, encodeOrder(order))
	return err
}

// Update rewrites the mutable fields of an existing order document. Line items
// and creation metadata are immutable and never touched by updates.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return errors.New("order repository: order id is required")
	}

	updates := []firestore.Update{
		{Path: "orderStatus", Value: string(order.OrderStatus)},
		{Path: "paymentStatus", Value: string(order.PaymentStatus)},
		{Path: "updatedAt", Value: order.UpdatedAt.UTC()},
	}
	if ref := strings.TrimSpace(order.StripeSessionID); ref != "" {
		updates = append(updates, firestore.Update{Path: "stripeSessionId", Value: ref})
	}

	_, err := r.base.Update(ctx, orderID, updates, firestore.Exists)
	return err
}

// FindByID loads a single order by its document ID.
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
	return decodeOrder(doc.ID, doc.Data), nil
}

// FindBySessionRef locates the order holding the given checkout session reference.
func (r *OrderRepository) FindBySessionRef(ctx context.Context, sessionRef string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	ref := strings.TrimSpace(sessionRef)
	if ref == "" {
		return domain.Order{}, errors.New("order repository: session ref is required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("stripeSessionId", "==", ref).Limit(1)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if len(docs) == 0 {
		return domain.Order{}, pfirestore.WrapError("orders.lookup", status.Error(codes.NotFound, "order not found for session"))
	}
	return decodeOrder(docs[0].ID, docs[0].Data), nil
}

// List returns orders newest-first, optionally narrowed by status and day.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if status := strings.TrimSpace(string(filter.Status)); status != "" {
			query = query.Where("orderStatus", "==", status)
		}
		if filter.Date != nil {
			dayStart := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, filter.Date.Location())
			query = query.
				Where("createdAt", ">=", dayStart).
				Where("createdAt", "<", dayStart.AddDate(0, 0, 1))
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

func encodeOrder(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, line := range order.Items {
		addons := make([]orderAddonDocument, 0, len(line.Addons))
		for _, addon := range line.Addons {
			addons = append(addons, orderAddonDocument{
				ID:     strings.TrimSpace(addon.ID),
				NameTH: strings.TrimSpace(addon.Name.TH),
				NameEN: strings.TrimSpace(addon.Name.EN),
				Price:  addon.Price,
			})
		}
		items = append(items, orderItemDocument{
			MenuItemID: strings.TrimSpace(line.MenuItemID),
			NameTH:     strings.TrimSpace(line.Name.TH),
			NameEN:     strings.TrimSpace(line.Name.EN),
			Temp:       string(line.Temp),
			Size:       string(line.Size),
			Addons:     addons,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: line.TotalPrice,
			Notes:      strings.TrimSpace(line.Notes),
		})
	}

	return orderDocument{
		Items:           items,
		Subtotal:        order.Subtotal,
		Total:           order.Total,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		OrderStatus:     string(order.OrderStatus),
		CustomerName:    strings.TrimSpace(order.CustomerName),
		CustomerPhone:   strings.TrimSpace(order.CustomerPhone),
		CustomerNote:    strings.TrimSpace(order.CustomerNote),
		UserID:          strings.TrimSpace(order.UserID),
		UserEmail:       strings.TrimSpace(order.UserEmail),
		UserPhone:       strings.TrimSpace(order.UserPhone),
		StripeSessionID: strings.TrimSpace(order.StripeSessionID),
		CreatedAt:       order.CreatedAt.UTC(),
		UpdatedAt:       order.UpdatedAt.UTC(),
	}
}

func decodeOrder(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderLine, 0, len(doc.Items))
	for _, item := range doc.Items {
		addons := make([]domain.Addon, 0, len(item.Addons))
		for _, addon := range item.Addons {
			addons = append(addons, domain.Addon{
				ID:    addon.ID,
				Name:  domain.BilingualName{TH: addon.NameTH, EN: addon.NameEN},
				Price: addon.Price,
			})
		}
		items = append(items, domain.OrderLine{
			MenuItemID: item.MenuItemID,
			Name:       domain.BilingualName{TH: item.NameTH, EN: item.NameEN},
			Temp:       domain.TempVariant(item.Temp),
			Size:       domain.DrinkSize(item.Size),
			Addons:     addons,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
			Notes:      item.Notes,
		})
	}

	return domain.Order{
		ID:              id,
		Items:           items,
		Subtotal:        doc.Subtotal,
		Total:           doc.Total,
		PaymentMethod:   domain.PaymentMethod(doc.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(doc.PaymentStatus),
		OrderStatus:     domain.OrderStatus(doc.OrderStatus),
		CustomerName:    doc.CustomerName,
		CustomerPhone:   doc.CustomerPhone,
		CustomerNote:    doc.CustomerNote,
		UserID:          doc.UserID,
		UserEmail:       doc.UserEmail,
		UserPhone:       doc.UserPhone,
		StripeSessionID: doc.StripeSessionID,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

type orderDocument struct {
	Items           []orderItemDocument `firestore:"items"`
	Subtotal        int64               `firestore:"subtotal"`
	Total           int64               `firestore:"total"`
	PaymentMethod   string              `firestore:"paymentMethod"`
	PaymentStatus   string              `firestore:"paymentStatus"`
	OrderStatus     string              `firestore:"orderStatus"`
	CustomerName    string              `firestore:"customerName"`
	CustomerPhone   string              `firestore:"customerPhone,omitempty"`
	CustomerNote    string              `firestore:"customerNote,omitempty"`
	UserID          string              `firestore:"userId,omitempty"`
	UserEmail       string              `firestore:"userEmail,omitempty"`
	UserPhone       string              `firestore:"userPhone,omitempty"`
	StripeSessionID string              `firestore:"stripeSessionId,omitempty"`
	CreatedAt       time.Time           `firestore:"createdAt"`
	UpdatedAt       time.Time           `firestore:"updatedAt"`
}

type orderItemDocument struct {
	MenuItemID string               `firestore:"menuItemId"`
	NameTH     string               `firestore:"name_th"`
	NameEN     string               `firestore:"name_en"`
	Temp       string               `firestore:"temp,omitempty"`
	Size       string               `firestore:"size,omitempty"`
	Addons     []orderAddonDocument `firestore:"addons,omitempty"`
	Quantity   int                  `firestore:"quantity"`
	UnitPrice  int64                `firestore:"unitPrice"`
	TotalPrice int64                `firestore:"totalPrice"`
	Notes      string               `firestore:"notes,omitempty"`
}

type orderAddonDocument struct {
	ID     string `firestore:"id"`
	NameTH string `firestore:"name_th"`
	NameEN string `firestore:"name_en"`
	Price  int64  `firestore:"price"`
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
