package order

import (
	"context"
	"sort"
	"time"

	"brigade/internal/apperr"
	"brigade/internal/audit"
	"brigade/internal/cache"
	"brigade/internal/database"
	"brigade/internal/models"
	"brigade/internal/monitoring"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

// ProductResolver resolves product ids to products, cache-first
type ProductResolver interface {
	ResolveProducts(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

// StepDeriver computes the workflow steps for a persisted order
type StepDeriver interface {
	DeriveSteps(ctx context.Context, orderID uint, items []models.OrderItem) ([]models.WorkflowStep, error)
}

// Service validates incoming orders, prices them from the catalog,
// and persists order, items and derived workflow steps as one atomic
// unit.
type Service struct {
	db       *gorm.DB
	catalog  ProductResolver
	deriver  StepDeriver
	audit    audit.Recorder
	store    cache.Store
	statsTTL time.Duration
	log      *zap.Logger
	metrics  *monitoring.Metrics
}

// NewService creates an order service
func NewService(db *gorm.DB, catalog ProductResolver, deriver StepDeriver, recorder audit.Recorder, store cache.Store, statsTTL time.Duration, log *zap.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{
		db:       db,
		catalog:  catalog,
		deriver:  deriver,
		audit:    recorder,
		store:    store,
		statsTTL: statsTTL,
		log:      log,
		metrics:  metrics,
	}
}

// OrderItemInput is one requested order line
type OrderItemInput struct {
	ProductID      uint                  `json:"product_id"`
	Quantity       int                   `json:"quantity"`
	Modifications  *models.Modifications `json:"modifications"`
	SpecialRequest string                `json:"special_request"`
}

// CreateOrderInput carries a complete order request
type CreateOrderInput struct {
	OrderNumber string           `json:"order_number"`
	CustomerID  string           `json:"customer_id"`
	Type        models.OrderType `json:"type"`
	Items       []OrderItemInput `json:"items"`
	Tax         float64          `json:"tax"`
	Discount    float64          `json:"discount"`
	DeliveryFee *float64         `json:"delivery_fee"`
	TableID     *string          `json:"table_id"`
	Notes       string           `json:"notes"`
}

// CreateOrder validates the request, snapshots unit prices from the
// catalog, and writes the order, its items and its workflow steps in
// one transaction. On any failure nothing is visible to later readers.
// The price snapshot means later catalog changes never retroactively
// alter this order's total.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	const op = "order.CreateOrder"

	if err := validateInput(op, input); err != nil {
		return nil, err
	}

	var created models.Order
	err := database.Transact(s.db, func(tx *gorm.DB) error {
		var count int
		if err := tx.Model(&models.Order{}).
			Where("order_number = ?", input.OrderNumber).
			Count(&count).Error; err != nil {
			return apperr.Internal(op, err)
		}
		if count > 0 {
			return apperr.Duplicate(op, "order number %q already exists", input.OrderNumber)
		}

		products, err := s.resolveRequested(ctx, op, input.Items)
		if err != nil {
			return err
		}

		items, subtotal := priceItems(input.Items, products)

		order := models.Order{
			OrderNumber: input.OrderNumber,
			CustomerID:  input.CustomerID,
			Type:        input.Type,
			Status:      models.OrderStatusPending,
			TotalAmount: subtotal,
			Tax:         input.Tax,
			Discount:    input.Discount,
			DeliveryFee: input.DeliveryFee,
			TableID:     input.TableID,
			Notes:       input.Notes,
		}
		if err := tx.Create(&order).Error; err != nil {
			// The count above races with concurrent inserts; the
			// unique index on order_number is the real arbiter.
			if database.IsUniqueViolation(err) {
				return apperr.Duplicate(op, "order number %q already exists", input.OrderNumber)
			}
			return apperr.Internal(op, err)
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return apperr.Internal(op, err)
			}
		}

		steps, err := s.deriver.DeriveSteps(ctx, order.ID, items)
		if err != nil {
			return err
		}
		for i := range steps {
			if err := tx.Create(&steps[i]).Error; err != nil {
				return apperr.Internal(op, err)
			}
		}

		order.Items = items
		order.Steps = steps
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Audit after commit: best-effort, never rolls the order back
	s.audit.Record(ctx, audit.NewEvent("order.created", created.CustomerID, map[string]interface{}{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"customer_id":  created.CustomerID,
		"total_amount": created.TotalAmount,
	}))
	s.metrics.RecordOrderCreated(created.TotalAmount, len(created.Steps))

	s.log.Info("order created",
		zap.Uint("order_id", created.ID),
		zap.String("order_number", created.OrderNumber),
		zap.Float64("total_amount", created.TotalAmount),
		zap.Int("steps", len(created.Steps)))

	return &created, nil
}

// GetOrder retrieves an order with its items and workflow steps
func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	const op = "order.GetOrder"

	var order models.Order
	err := s.db.Preload("Items").Preload("Steps").First(&order, id).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound(op, "order %d not found", id)
		}
		return nil, apperr.Internal(op, err)
	}
	return &order, nil
}

// GetOrderByNumber retrieves an order by its caller-supplied number
func (s *Service) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	const op = "order.GetOrderByNumber"

	var order models.Order
	err := s.db.Preload("Items").Preload("Steps").
		Where("order_number = ?", number).First(&order).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, apperr.NotFound(op, "order %q not found", number)
		}
		return nil, apperr.Internal(op, err)
	}
	return &order, nil
}

// resolveRequested resolves every distinct product id in the request
// and fails with the missing ids when any referenced product does not
// exist or is unavailable.
func (s *Service) resolveRequested(ctx context.Context, op string, items []OrderItemInput) (map[uint]models.Product, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.ResolveProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	var missing, unavailable []uint
	for _, id := range ids {
		product, ok := products[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !product.Available:
			unavailable = append(unavailable, id)
		}
	}
	if len(missing) > 0 {
		sortIDs(missing)
		return nil, apperr.Validation(op, "unknown product ids: %v", dedupeIDs(missing))
	}
	if len(unavailable) > 0 {
		sortIDs(unavailable)
		return nil, apperr.Validation(op, "unavailable product ids: %v", dedupeIDs(unavailable))
	}

	return products, nil
}

// priceItems snapshots unit prices onto the order lines and sums the
// subtotal.
func priceItems(inputs []OrderItemInput, products map[uint]models.Product) ([]models.OrderItem, float64) {
	items := make([]models.OrderItem, 0, len(inputs))
	var subtotal float64

	for _, in := range inputs {
		product := products[in.ProductID]

		var mods models.Modifications
		if in.Modifications != nil {
			mods = *in.Modifications
		}

		item := models.OrderItem{
			ProductID:      in.ProductID,
			Quantity:       in.Quantity,
			UnitPrice:      product.Price,
			Modifications:  mods,
			ExtraPrice:     mods.ExtraPrice(),
			SpecialRequest: in.SpecialRequest,
			Status:         models.ItemStatusPending,
		}
		subtotal += item.LineTotal()
		items = append(items, item)
	}

	return items, subtotal
}

func validateInput(op string, input CreateOrderInput) error {
	if input.OrderNumber == "" {
		return apperr.Validation(op, "order number is required")
	}
	if len(input.OrderNumber) > 50 {
		return apperr.Validation(op, "order number must be at most 50 characters")
	}
	if _, err := uuid.Parse(input.CustomerID); err != nil {
		return apperr.Validation(op, "customer id %q is not a well-formed identifier", input.CustomerID)
	}
	if !input.Type.Valid() {
		return apperr.Validation(op, "unknown order type %q", input.Type)
	}
	if len(input.Items) == 0 {
		return apperr.Validation(op, "at least one item is required")
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return apperr.Validation(op, "item %d: quantity must be positive", i)
		}
	}
	return nil
}

func sortIDs(ids []uint) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func dedupeIDs(ids []uint) []uint {
	out := ids[:0]
	var last uint
	for i, id := range ids {
		if i == 0 || id != last {
			out = append(out, id)
		}
		last = id
	}
	return out
}
