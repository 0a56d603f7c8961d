package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"order-fulfillment-service/internal/dto"
	"order-fulfillment-service/internal/model"
	"order-fulfillment-service/internal/repository"

	"github.com/google/uuid"
)

// Interfaces the service depends on. The Mongo implementations live in
// internal/repository; tests inject in-memory fakes.
type OrderRepository interface {
	Insert(ctx context.Context, o *model.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, completedAt *time.Time) error
	FindByUserID(ctx context.Context, userID string) ([]*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
}

type InventoryLedger interface {
	Reserve(ctx context.Context, productID string, qty int) (*model.InventoryRecord, error)
	Release(ctx context.Context, productID string, qty int) error
}

type ProductLookup interface {
	FindByProductID(ctx context.Context, productID string) (*model.Product, error)
}

type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *model.Order) error
	OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus) error
	StockLow(ctx context.Context, rec *model.InventoryRecord) error
}

// Business errors exported for the controller.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrProductNotFound       = errors.New("product not found")
	ErrProductUnavailable    = errors.New("product is not available for ordering")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidStatus         = errors.New("unknown order status")
	ErrInvalidTransition     = errors.New("invalid status transition")
)

// Permitted transitions. Delivered, cancelled and refunded-from edges are
// the only ways out of their source states; refunded is terminal.
var allowedTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.StatusPending:    {model.StatusProcessing, model.StatusCancelled},
	model.StatusProcessing: {model.StatusShipped, model.StatusCancelled},
	model.StatusShipped:    {model.StatusDelivered, model.StatusCancelled},
	model.StatusDelivered:  {model.StatusRefunded},
	model.StatusCancelled:  {model.StatusRefunded},
	model.StatusRefunded:   {},
}

type OrderService struct {
	orders   OrderRepository
	ledger   InventoryLedger
	products ProductLookup
	events   EventPublisher

	taxRate         float64
	defaultShipping float64
	// The legacy system accepted any status regardless of the current one.
	// Off by default; flip with WithUnrestrictedTransitions to match it.
	unrestrictedTransitions bool
}

type Option func(*OrderService)

func WithPricing(taxRate, defaultShipping float64) Option {
	return func(s *OrderService) {
		s.taxRate = taxRate
		s.defaultShipping = defaultShipping
	}
}

func WithUnrestrictedTransitions() Option {
	return func(s *OrderService) {
		s.unrestrictedTransitions = true
	}
}

func NewOrderService(orders OrderRepository, ledger InventoryLedger, products ProductLookup, events EventPublisher, opts ...Option) *OrderService {
	s := &OrderService{
		orders:          orders,
		ledger:          ledger,
		products:        products,
		events:          events,
		taxRate:         0.05,
		defaultShipping: 10.0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// reservation remembers a successful ledger decrement so it can be undone.
type reservation struct {
	productID string
	quantity  int
}

// CreateOrder turns a validated request into a priced, persisted order.
// Either a fully-formed order comes back, or no order exists and no
// inventory was consumed.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*model.Order, error) {
	// A client disconnect must not abandon the reserve/rollback sequence
	// half-done, so the whole operation runs detached from cancellation.
	ctx = context.WithoutCancel(ctx)

	if req.IdempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	var (
		items    []model.OrderItem
		reserved []reservation
		subtotal float64
	)

	for _, item := range req.Items {
		product, err := s.products.FindByProductID(ctx, item.ProductID)
		if err != nil {
			s.rollback(ctx, reserved)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
			}
			return nil, err
		}
		if !product.Available {
			s.rollback(ctx, reserved)
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.ProductID)
		}

		rec, err := s.ledger.Reserve(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.rollback(ctx, reserved)
			if errors.Is(err, repository.ErrInsufficientStock) || errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientInventory, item.ProductID)
			}
			return nil, err
		}
		reserved = append(reserved, reservation{productID: item.ProductID, quantity: item.Quantity})

		if rec.Quantity <= rec.ReorderPoint {
			if err := s.events.StockLow(ctx, rec); err != nil {
				log.Printf("failed to publish stock_low for %s: %v", rec.ProductID, err)
			}
		}

		lineSubtotal := product.Price * float64(item.Quantity)
		items = append(items, model.OrderItem{
			ProductID:   product.ProductID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.Price,
			Subtotal:    lineSubtotal,
		})
		subtotal += lineSubtotal
	}

	shippingCost := s.defaultShipping
	if req.ShippingCost != nil {
		shippingCost = *req.ShippingCost
	}
	tax := subtotal * s.taxRate

	now := time.Now().UTC()
	order := &model.Order{
		OrderID:      uuid.NewString(),
		UserID:       userID,
		Status:       model.StatusPending,
		Items:        items,
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shippingCost,
		Total:        subtotal + tax + shippingCost,
		PaymentDetails: model.PaymentDetails{
			Method:        req.PaymentDetails.Method,
			TransactionID: req.PaymentDetails.TransactionID,
			Status:        req.PaymentDetails.Status,
		},
		ShippingInfo: model.ShippingInfo{
			AddressLine1:   req.ShippingInfo.AddressLine1,
			City:           req.ShippingInfo.City,
			PostalCode:     req.ShippingInfo.PostalCode,
			Province:       req.ShippingInfo.Province,
			Country:        req.ShippingInfo.Country,
			Method:         req.ShippingInfo.Method,
			Carrier:        req.ShippingInfo.Carrier,
			TrackingNumber: req.ShippingInfo.TrackingNumber,
		},
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		s.rollback(ctx, reserved)
		return nil, err
	}

	if err := s.events.OrderPlaced(ctx, order); err != nil {
		log.Printf("failed to publish order_placed for %s: %v", order.OrderID, err)
	}

	return order, nil
}

// rollback releases every reservation made so far for one order, in reverse
// order. Release failures are logged and skipped so the remaining items
// still get released.
func (s *OrderService) rollback(ctx context.Context, reserved []reservation) {
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := s.ledger.Release(ctx, r.productID, r.quantity); err != nil {
			log.Printf("failed to release %d units of %s during rollback: %v", r.quantity, r.productID, err)
		}
	}
}

// UpdateOrderStatus moves an order along the state machine. Reaching
// delivered stamps completed_at.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID string, newStatus model.OrderStatus) (*model.Order, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, newStatus)
	}

	order, err := s.orders.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !s.unrestrictedTransitions && !transitionAllowed(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	now := time.Now().UTC()
	var completedAt *time.Time
	if newStatus == model.StatusDelivered {
		completedAt = &now
	}

	if err := s.orders.UpdateStatus(ctx, orderID, newStatus, completedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	previous := order.Status
	order.Status = newStatus
	order.UpdatedAt = now
	if completedAt != nil {
		order.CompletedAt = completedAt
	}

	if err := s.events.OrderStatusChanged(ctx, order, previous); err != nil {
		log.Printf("failed to publish order_status_changed for %s: %v", order.OrderID, err)
	}

	return order, nil
}

func transitionAllowed(from, to model.OrderStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// GetOrderTracking derives the delivery timeline for an order. No state is
// read beyond the order itself.
func (s *OrderService) GetOrderTracking(ctx context.Context, orderID string) (*model.TrackingView, error) {
	order, err := s.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ProjectTracking(order), nil
}

func (s *OrderService) GetOrderByID(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orders.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrdersByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.orders.FindByUserID(ctx, userID)
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]*model.Order, error) {
	return s.orders.FindAll(ctx)
}

func (s *OrderService) GetOrdersByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.orders.FindByStatus(ctx, status)
}
