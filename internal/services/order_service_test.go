package services

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memOrderRepo is an in-memory OrderRepository. Transitions mutate stored
// orders the way the SQL implementation would; reads hand out copies.
type memOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
	items  map[int64][]models.OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[int64]*models.Order{}, items: map[int64][]models.OrderItem{}}
}

func (r *memOrderRepo) put(order *models.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *order
	r.orders[order.ID] = &stored
	if len(order.OrderItems) > 0 {
		r.items[order.ID] = append([]models.OrderItem(nil), order.OrderItems...)
	}
}

func (r *memOrderRepo) CreateOrder(executor repositories.SQLExecutor, order *models.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	stored := *order
	r.orders[order.ID] = &stored
	return order.ID, nil
}

func (r *memOrderRepo) GetOrderByID(orderID int64) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[orderID]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *memOrderRepo) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		orders = append(orders, *order)
	}
	return orders, len(orders), nil
}

func (r *memOrderRepo) UpdateOrderStatus(executor repositories.SQLExecutor, orderID int64, newStatus string, stamps map[string]time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	order.Status = newStatus
	order.UpdatedAt = time.Now()
	for column, value := range stamps {
		v := value
		switch column {
		case "estimated_time":
			order.EstimatedTime = &v
		case "confirmed_at":
			order.ConfirmedAt = &v
		case "ready_at":
			order.ReadyAt = &v
		case "delivered_at":
			order.DeliveredAt = &v
		case "cancelled_at":
			order.CancelledAt = &v
		}
	}
	return nil
}

func (r *memOrderRepo) CreateOrderItem(executor repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = int64(len(r.items[item.OrderID]) + 1)
	r.items[item.OrderID] = append(r.items[item.OrderID], *item)
	return item.ID, nil
}

func (r *memOrderRepo) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OrderItem(nil), r.items[orderID]...), nil
}

// fakeBroadcaster records published events in order.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeBroadcaster) Publish(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeBroadcaster) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// fakeTx satisfies repositories.Tx. The in-memory repositories ignore the
// executor, so the statement methods never run.
type fakeTx struct{}

func (fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (fakeTx) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (fakeTx) Commit() error                                              { return nil }
func (fakeTx) Rollback() error                                            { return nil }

type fakeTxBeginner struct {
	fakeTx
}

func (fakeTxBeginner) Begin() (repositories.Tx, error) { return fakeTx{}, nil }

type orderTestEnv struct {
	svc         OrderService
	orders      *memOrderRepo
	invoices    *memInvoiceRepo
	settings    *memSettingsRepo
	sender      *fakeSender
	broadcaster *fakeBroadcaster
}

func newOrderTestEnv() *orderTestEnv {
	env := &orderTestEnv{
		orders:      newMemOrderRepo(),
		invoices:    newMemInvoiceRepo(),
		settings:    newMemSettingsRepo(),
		sender:      &fakeSender{},
		broadcaster: &fakeBroadcaster{},
	}
	invoiceSvc := NewInvoiceService(env.invoices, env.settings, env.orders, testCatalog(), &fakeRenderer{}, env.sender, nil)
	pricingSvc := NewPricingService(testCatalog())
	env.svc = NewOrderService(env.orders, env.settings, pricingSvc, invoiceSvc, env.sender, env.broadcaster, fakeTxBeginner{})
	return env
}

func (env *orderTestEnv) seedOrder(status string) *models.Order {
	order := sampleOrder(1, PaymentMethodCash, OrderTypePickup)
	order.Status = status
	env.orders.put(order)
	return order
}

// --- validation ---

func TestCreateOrder_RejectsUnknownOrderType(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     "DRIVE_THROUGH",
		PaymentMethod: PaymentMethodCash,
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_RejectsUnknownPaymentMethod(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypePickup,
		PaymentMethod: "CRYPTO",
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_DeliveryRequiresAddress(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypeDelivery,
		PaymentMethod: PaymentMethodCash,
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_RejectsMalformedEmail(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentMethodCash,
		CustomerName:  "Jana",
		CustomerEmail: strPtr("not-an-email"),
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 1, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_RejectsEmptyCart(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentMethodCash,
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrder_PaymentMismatchRejected(t *testing.T) {
	env := newOrderTestEnv()

	// one wrap: total 6.50, captured 10.00 is outside the 0.01 tolerance
	paid := dec("10.00")
	_, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentMethodOnline,
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 2, Quantity: 1}},
		PaidAmount:    &paid,
	})
	require.ErrorIs(t, err, ErrPaymentMismatch)
}

// --- placement ---

func TestCreateOrder_PersistsOrderInvoiceAndBroadcast(t *testing.T) {
	env := newOrderTestEnv()
	// a broken SMTP server must not fail placement
	env.sender.failInvoices = true
	addr := "Hlavná 12, Bratislava"

	order, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:       OrderTypeDelivery,
		PaymentMethod:   PaymentMethodCash,
		CustomerName:    "Jana Nováková",
		CustomerEmail:   strPtr("jana@example.com"),
		CustomerPhone:   "+421900111222",
		DeliveryAddress: &addr,
		OrderItems: []OrderLineRequest{
			{MenuItemID: 1, Quantity: 1},
			{MenuItemID: 2, Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Contains(t, order.OrderNumber, "PCB-")
	require.Len(t, order.OrderItems, 2)

	// 8.90 + 2x6.50, delivery fee on top
	assert.True(t, dec("21.90").Equal(order.Subtotal), order.Subtotal.String())
	assert.True(t, dec("2.50").Equal(order.DeliveryFee))
	assert.True(t, order.Subtotal.Add(order.DeliveryFee).Equal(order.Total), order.Total.String())
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)

	// the invoice exists before CreateOrder returns
	invoice, err := env.invoices.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "12500001", invoice.InvoiceNumber)
	assert.True(t, dec("24.40").Equal(invoice.TotalGross), invoice.TotalGross.String())

	assert.Equal(t, []string{EventNewOrder}, env.broadcaster.published())
}

func TestCreateOrder_CapturedPaymentWithinTolerance(t *testing.T) {
	env := newOrderTestEnv()

	paid := dec("6.49")
	order, err := env.svc.CreateOrder(CreateOrderRequest{
		OrderType:     OrderTypePickup,
		PaymentMethod: PaymentMethodOnline,
		CustomerName:  "Jana",
		CustomerPhone: "+421900111222",
		OrderItems:    []OrderLineRequest{{MenuItemID: 2, Quantity: 1}},
		PaidAmount:    &paid,
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentStatusPaid, order.PaymentStatus)
	assert.True(t, dec("0").Equal(order.DeliveryFee))

	invoice, err := env.invoices.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "22500001", invoice.InvoiceNumber)
}

// --- lifecycle transitions ---

func TestAcceptOrder_SetsEstimateAndConfirms(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusPending)

	before := time.Now()
	updated, err := env.svc.AcceptOrder(1, AcceptOrderRequest{EstimatedMinutes: 30})
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, updated.Status)
	require.NotNil(t, updated.ConfirmedAt)
	require.NotNil(t, updated.EstimatedTime)
	minEstimate := before.Add(29 * time.Minute)
	assert.True(t, updated.EstimatedTime.After(minEstimate), "estimate %s should be ~30m out", updated.EstimatedTime)
	assert.Contains(t, env.broadcaster.published(), EventOrderStatusUpdate)
}

func TestAcceptOrder_RejectsNonPositiveEstimate(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusPending)

	_, err := env.svc.AcceptOrder(1, AcceptOrderRequest{EstimatedMinutes: 0})
	require.ErrorIs(t, err, ErrInvalidEstimate)

	_, err = env.svc.AcceptOrder(1, AcceptOrderRequest{EstimatedMinutes: -15})
	require.ErrorIs(t, err, ErrInvalidEstimate)
}

func TestAcceptOrder_OnlyFromPendingOrConfirmed(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusPreparing)

	_, err := env.svc.AcceptOrder(1, AcceptOrderRequest{EstimatedMinutes: 20})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCompleteOrder_StampsDeliveryAndBroadcastsCompletion(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusOutForDelivery)

	updated, err := env.svc.CompleteOrder(1)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, updated.Status)
	require.NotNil(t, updated.DeliveredAt)
	assert.Contains(t, env.broadcaster.published(), EventOrderCompleted)
}

func TestCancelOrder_StampsCancellation(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusConfirmed)

	updated, err := env.svc.CancelOrder(1)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, updated.Status)
	require.NotNil(t, updated.CancelledAt)
}

func TestTransitions_TerminalStatusesAreFinal(t *testing.T) {
	for _, terminal := range []string{StatusDelivered, StatusCancelled, StatusRefunded} {
		env := newOrderTestEnv()
		env.seedOrder(terminal)

		_, err := env.svc.MarkPreparing(1)
		require.ErrorIs(t, err, ErrInvalidTransition, "from %s", terminal)

		_, err = env.svc.CancelOrder(1)
		require.ErrorIs(t, err, ErrInvalidTransition, "from %s", terminal)

		_, err = env.svc.SetOrderStatus(1, UpdateOrderStatusRequest{Status: StatusPending})
		require.ErrorIs(t, err, ErrInvalidTransition, "from %s", terminal)
	}
}

func TestSetOrderStatus_RejectsUnknownStatus(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusPending)

	_, err := env.svc.SetOrderStatus(1, UpdateOrderStatusRequest{Status: "LOST"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestSetOrderStatus_StampsDerivedTimestamps(t *testing.T) {
	env := newOrderTestEnv()
	env.seedOrder(StatusPreparing)

	updated, err := env.svc.SetOrderStatus(1, UpdateOrderStatusRequest{Status: StatusReady})
	require.NoError(t, err)

	assert.Equal(t, StatusReady, updated.Status)
	require.NotNil(t, updated.ReadyAt)

	updated, err = env.svc.SetOrderStatus(1, UpdateOrderStatusRequest{Status: StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.Contains(t, env.broadcaster.published(), EventOrderCompleted)
}

func TestTransitions_UnknownOrder(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.svc.MarkReady(99)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderByNumber_LoadsItems(t *testing.T) {
	env := newOrderTestEnv()
	order := env.seedOrder(StatusPending)

	found, err := env.svc.GetOrderByNumber(order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.OrderItems, 1)
	assert.Equal(t, "Bistro Burger", found.OrderItems[0].ItemName)

	_, err = env.svc.GetOrderByNumber("PCB-NOPE")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeliveryFee_SettingOverridesDefault(t *testing.T) {
	env := newOrderTestEnv()
	svc := env.svc.(*orderService)

	assert.True(t, svc.deliveryFee().Equal(DefaultDeliveryFee))

	fee := "3.90"
	require.NoError(t, env.settings.UpsertSetting(&models.ApplicationSetting{SettingKey: "delivery_fee", SettingValue: &fee}))
	assert.True(t, svc.deliveryFee().Equal(dec("3.90")))

	bad := "free!"
	require.NoError(t, env.settings.UpsertSetting(&models.ApplicationSetting{SettingKey: "delivery_fee", SettingValue: &bad}))
	assert.True(t, svc.deliveryFee().Equal(DefaultDeliveryFee))
}
