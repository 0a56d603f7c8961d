package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"order-fulfillment-service/internal/dto"
	"order-fulfillment-service/internal/model"
	"order-fulfillment-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes. The ledger guards its map with a mutex so reserve is a
// single conditional decrement, same contract as the Mongo implementation.

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[string]*model.Order)}
}

func (m *memOrderRepo) Insert(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *memOrderRepo) FindByOrderID(_ context.Context, orderID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderRepo) FindByIdempotencyKey(_ context.Context, userID, key string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memOrderRepo) UpdateStatus(_ context.Context, orderID string, status model.OrderStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if completedAt != nil {
		o.CompletedAt = completedAt
	}
	return nil
}

func (m *memOrderRepo) FindByUserID(_ context.Context, userID string) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrderRepo) FindAll(_ context.Context) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.orders {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memOrderRepo) FindByStatus(_ context.Context, status model.OrderStatus) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.orders {
		if o.Status == status {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type memLedger struct {
	mu      sync.Mutex
	records map[string]*model.InventoryRecord
}

func newMemLedger(records ...*model.InventoryRecord) *memLedger {
	l := &memLedger{records: make(map[string]*model.InventoryRecord)}
	for _, r := range records {
		l.records[r.ProductID] = r
	}
	return l
}

func (m *memLedger) Reserve(_ context.Context, productID string, qty int) (*model.InventoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if rec.Quantity < qty {
		return nil, repository.ErrInsufficientStock
	}
	rec.Quantity -= qty
	cp := *rec
	return &cp, nil
}

func (m *memLedger) Release(_ context.Context, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Quantity += qty
	return nil
}

func (m *memLedger) quantity(productID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[productID].Quantity
}

type memProducts struct {
	products map[string]*model.Product
}

func newMemProducts(products ...*model.Product) *memProducts {
	p := &memProducts{products: make(map[string]*model.Product)}
	for _, prod := range products {
		p.products[prod.ProductID] = prod
	}
	return p
}

func (m *memProducts) FindByProductID(_ context.Context, productID string) (*model.Product, error) {
	p, ok := m.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type recordingEvents struct {
	mu            sync.Mutex
	placed        []string
	statusChanged []string
	stockLow      []string
}

func (e *recordingEvents) OrderPlaced(_ context.Context, o *model.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.placed = append(e.placed, o.OrderID)
	return nil
}

func (e *recordingEvents) OrderStatusChanged(_ context.Context, o *model.Order, _ model.OrderStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusChanged = append(e.statusChanged, o.OrderID)
	return nil
}

func (e *recordingEvents) StockLow(_ context.Context, rec *model.InventoryRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stockLow = append(e.stockLow, rec.ProductID)
	return nil
}

func validRequest(items ...dto.OrderItemRequest) *dto.CreateOrderRequest {
	return &dto.CreateOrderRequest{
		Items: items,
		ShippingInfo: dto.ShippingInfoDTO{
			AddressLine1: "221B Baker Street",
			City:         "London",
			PostalCode:   "NW1 6XE",
			Country:      "UK",
			Method:       "standard",
		},
		PaymentDetails: dto.PaymentDetailsDTO{
			Method:        "credit_card",
			TransactionID: "txn-123",
			Status:        "completed",
		},
	}
}

func newTestService(opts ...Option) (*OrderService, *memOrderRepo, *memLedger, *recordingEvents) {
	repo := newMemOrderRepo()
	ledger := newMemLedger(
		&model.InventoryRecord{ProductID: "p1", Quantity: 100, ReorderPoint: 5},
		&model.InventoryRecord{ProductID: "p2", Quantity: 100, ReorderPoint: 5},
	)
	products := newMemProducts(
		&model.Product{ProductID: "p1", Name: "Protein Powder", Price: 10.0, Available: true},
		&model.Product{ProductID: "p2", Name: "Vitamin D", Price: 5.0, Available: true},
		&model.Product{ProductID: "p3", Name: "Discontinued", Price: 8.0, Available: false},
	)
	events := &recordingEvents{}
	return NewOrderService(repo, ledger, products, events, opts...), repo, ledger, events
}

func TestCreateOrderPricing(t *testing.T) {
	svc, _, ledger, events := newTestService()

	order, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(
			dto.OrderItemRequest{ProductID: "p1", Quantity: 2},
			dto.OrderItemRequest{ProductID: "p2", Quantity: 1},
		))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
	assert.NotEmpty(t, order.OrderID)
	assert.InDelta(t, 25.0, order.Subtotal, 1e-9)
	assert.InDelta(t, 1.25, order.Tax, 1e-9)
	assert.InDelta(t, 10.0, order.ShippingCost, 1e-9)
	assert.InDelta(t, 36.25, order.Total, 1e-9)
	assert.Nil(t, order.CompletedAt)

	var itemSum float64
	for _, item := range order.Items {
		itemSum += item.Subtotal
	}
	assert.InDelta(t, order.Subtotal, itemSum, 1e-9)

	// Snapshots come from the catalog at order time.
	assert.Equal(t, "Protein Powder", order.Items[0].ProductName)
	assert.InDelta(t, 10.0, order.Items[0].UnitPrice, 1e-9)

	assert.Equal(t, 98, ledger.quantity("p1"))
	assert.Equal(t, 99, ledger.quantity("p2"))
	assert.Len(t, events.placed, 1)
}

func TestCreateOrderExplicitShippingCost(t *testing.T) {
	svc, _, _, _ := newTestService()

	req := validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1})
	cost := 4.5
	req.ShippingCost = &cost

	order, err := svc.CreateOrder(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, order.ShippingCost, 1e-9)
	assert.InDelta(t, 10.0+0.5+4.5, order.Total, 1e-9)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(dto.OrderItemRequest{ProductID: "missing", Quantity: 1}))
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, 0, repo.count())
}

func TestCreateOrderProductUnavailable(t *testing.T) {
	svc, repo, _, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(dto.OrderItemRequest{ProductID: "p3", Quantity: 1}))
	require.ErrorIs(t, err, ErrProductUnavailable)
	assert.Equal(t, 0, repo.count())
}

func TestCreateOrderInsufficientInventory(t *testing.T) {
	svc, repo, ledger, _ := newTestService()

	_, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 101}))
	require.ErrorIs(t, err, ErrInsufficientInventory)
	assert.Equal(t, 100, ledger.quantity("p1"))
	assert.Equal(t, 0, repo.count())
}

func TestCreateOrderRollbackOnSecondItem(t *testing.T) {
	repo := newMemOrderRepo()
	ledger := newMemLedger(
		&model.InventoryRecord{ProductID: "p1", Quantity: 5},
		&model.InventoryRecord{ProductID: "p2", Quantity: 0},
	)
	products := newMemProducts(
		&model.Product{ProductID: "p1", Name: "A", Price: 10, Available: true},
		&model.Product{ProductID: "p2", Name: "B", Price: 5, Available: true},
	)
	svc := NewOrderService(repo, ledger, products, &recordingEvents{})

	_, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(
			dto.OrderItemRequest{ProductID: "p1", Quantity: 2},
			dto.OrderItemRequest{ProductID: "p2", Quantity: 1},
		))
	require.ErrorIs(t, err, ErrInsufficientInventory)

	// The first item's reservation was released; nothing persisted.
	assert.Equal(t, 5, ledger.quantity("p1"))
	assert.Equal(t, 0, ledger.quantity("p2"))
	assert.Equal(t, 0, repo.count())
}

func TestCreateOrderConcurrentReservations(t *testing.T) {
	const stock = 5
	const requests = 20

	repo := newMemOrderRepo()
	ledger := newMemLedger(&model.InventoryRecord{ProductID: "p1", Quantity: stock})
	products := newMemProducts(&model.Product{ProductID: "p1", Name: "A", Price: 10, Available: true})
	svc := NewOrderService(repo, ledger, products, &recordingEvents{})

	var wg sync.WaitGroup
	errs := make(chan error, requests)
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(context.Background(), "user-1",
				validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, failed int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInsufficientInventory)
			failed++
		}
	}

	assert.Equal(t, stock, succeeded)
	assert.Equal(t, requests-stock, failed)
	assert.Equal(t, 0, ledger.quantity("p1"))
	assert.Equal(t, stock, repo.count())
}

func TestCreateOrderIdempotencyKey(t *testing.T) {
	svc, repo, ledger, _ := newTestService()

	req := validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1})
	req.IdempotencyKey = "retry-1"

	first, err := svc.CreateOrder(context.Background(), "user-1", req)
	require.NoError(t, err)

	second, err := svc.CreateOrder(context.Background(), "user-1", req)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, repo.count())
	// The retry consumed no additional stock.
	assert.Equal(t, 99, ledger.quantity("p1"))
}

func TestCreateOrderStockLowEvent(t *testing.T) {
	repo := newMemOrderRepo()
	ledger := newMemLedger(&model.InventoryRecord{ProductID: "p1", Quantity: 6, ReorderPoint: 5})
	products := newMemProducts(&model.Product{ProductID: "p1", Name: "A", Price: 10, Available: true})
	events := &recordingEvents{}
	svc := NewOrderService(repo, ledger, products, events)

	_, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, events.stockLow)
}

func createPendingOrder(t *testing.T, svc *OrderService) *model.Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), "user-1",
		validRequest(dto.OrderItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	return order
}

func TestUpdateOrderStatusHappyPath(t *testing.T) {
	svc, _, _, events := newTestService()
	order := createPendingOrder(t, svc)

	order, err := svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, order.Status)

	order, err = svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, order.Status)
	assert.Nil(t, order.CompletedAt)

	order, err = svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, order.Status)
	require.NotNil(t, order.CompletedAt)
	assert.False(t, order.CompletedAt.IsZero())

	assert.Len(t, events.statusChanged, 3)
}

func TestUpdateOrderStatusRejectsInvalidTransitions(t *testing.T) {
	svc, _, _, _ := newTestService()

	cases := []struct {
		from model.OrderStatus
		to   model.OrderStatus
	}{
		{model.StatusPending, model.StatusShipped},
		{model.StatusPending, model.StatusDelivered},
		{model.StatusPending, model.StatusRefunded},
		{model.StatusProcessing, model.StatusDelivered},
		{model.StatusShipped, model.StatusProcessing},
		{model.StatusDelivered, model.StatusPending},
		{model.StatusRefunded, model.StatusPending},
		{model.StatusRefunded, model.StatusCancelled},
	}

	for _, tc := range cases {
		order := createPendingOrder(t, svc)
		// Force the starting status directly through the repository.
		require.NoError(t, svc.orders.UpdateStatus(context.Background(), order.OrderID, tc.from, nil))

		_, err := svc.UpdateOrderStatus(context.Background(), order.OrderID, tc.to)
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestUpdateOrderStatusCancelAndRefund(t *testing.T) {
	svc, _, _, _ := newTestService()
	order := createPendingOrder(t, svc)

	order, err := svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, order.Status)
	assert.Nil(t, order.CompletedAt)

	order, err = svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, order.Status)
}

func TestUpdateOrderStatusUnknownStatus(t *testing.T) {
	svc, _, _, _ := newTestService()
	order := createPendingOrder(t, svc)

	_, err := svc.UpdateOrderStatus(context.Background(), order.OrderID, "teleported")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateOrderStatusOrderNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.UpdateOrderStatus(context.Background(), "nope", model.StatusProcessing)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderStatusUnrestrictedPolicy(t *testing.T) {
	svc, _, _, _ := newTestService(WithUnrestrictedTransitions())
	order := createPendingOrder(t, svc)

	// Legacy behavior: any enum member is accepted regardless of state.
	updated, err := svc.UpdateOrderStatus(context.Background(), order.OrderID, model.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestGetOrderTracking(t *testing.T) {
	svc, _, _, _ := newTestService()
	order := createPendingOrder(t, svc)

	view, err := svc.GetOrderTracking(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderID, view.OrderID)
	assert.False(t, view.TrackingAvailable)

	_, err = svc.GetOrderTracking(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
