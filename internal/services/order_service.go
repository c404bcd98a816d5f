package services

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/notifications"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/money"
	"pcb_bistro_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// Custom Errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order is in a terminal status")
	ErrInvalidEstimate   = errors.New("estimated time must be a positive number of minutes")
	ErrPaymentMismatch   = errors.New("captured payment amount does not match order total")
)

// Order status constants (wire-level strings).
const (
	StatusPending        = "PENDING"
	StatusConfirmed      = "CONFIRMED"
	StatusPreparing      = "PREPARING"
	StatusReady          = "READY"
	StatusOutForDelivery = "OUT_FOR_DELIVERY"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
	StatusRefunded       = "REFUNDED"
)

// Order type constants.
const (
	OrderTypeDelivery = "DELIVERY"
	OrderTypePickup   = "PICKUP"
)

// Payment method constants.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodCard     = "CARD"
	PaymentMethodOnline   = "ONLINE"
	PaymentMethodTransfer = "TRANSFER"
)

// Payment status constants.
const (
	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

// Broadcast event names for the admin realtime feed.
const (
	EventNewOrder          = "newOrder"
	EventOrderStatusUpdate = "orderStatusUpdate"
	EventOrderCompleted    = "orderCompleted"
)

// paymentTolerance is the accepted rounding slack between the captured
// payment amount and the computed order total.
var paymentTolerance = decimal.New(1, -2) // 0.01

// DefaultDeliveryFee applies when no delivery_fee setting is configured.
var DefaultDeliveryFee = decimal.New(250, -2) // 2.50

// --- Data Transfer Objects (DTOs) ---

// CreateOrderRequest is used for placing a new order.
type CreateOrderRequest struct {
	OrderType       string             `json:"order_type" binding:"required"`
	PaymentMethod   string             `json:"payment_method" binding:"required"`
	CustomerName    string             `json:"customer_name" binding:"required"`
	CustomerEmail   *string            `json:"customer_email,omitempty"`
	CustomerPhone   string             `json:"customer_phone" binding:"required"`
	DeliveryAddress *string            `json:"delivery_address,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	OrderItems      []OrderLineRequest `json:"order_items" binding:"required,dive"`

	// PaidAmount is set by the hosted-payment callback flow. When present it
	// must match the computed total within paymentTolerance.
	PaidAmount *decimal.Decimal `json:"paid_amount,omitempty"`
}

// AcceptOrderRequest carries the kitchen's preparation estimate.
type AcceptOrderRequest struct {
	EstimatedMinutes int `json:"estimated_minutes" binding:"required"`
}

// UpdateOrderStatusRequest is used for direct status-set requests.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Broadcaster is the fire-and-forget event sink for the admin dashboard.
// No delivery guarantee, no retry, no backpressure.
type Broadcaster interface {
	Publish(event string, payload interface{})
}

// StatusEvent is the payload broadcast on every committed transition.
type StatusEvent struct {
	ID            int64      `json:"id"`
	OrderNumber   string     `json:"order_number"`
	Status        string     `json:"status"`
	OrderType     string     `json:"order_type"`
	EstimatedTime *time.Time `json:"estimated_time,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	ReadyAt       *time.Time `json:"ready_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// --- OrderService Interface ---

// OrderService is the order lifecycle state machine. Orders are created once
// by CreateOrder and afterwards move only through the transition methods.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)

	AcceptOrder(orderID int64, req AcceptOrderRequest) (*models.Order, error)
	MarkPreparing(orderID int64) (*models.Order, error)
	MarkReady(orderID int64) (*models.Order, error)
	MarkOutForDelivery(orderID int64) (*models.Order, error)
	CompleteOrder(orderID int64) (*models.Order, error)
	CancelOrder(orderID int64) (*models.Order, error)
	RefundOrder(orderID int64) (*models.Order, error)
	SetOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error)
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	settingsRepo repositories.SettingsRepository
	pricing      PricingService
	invoices     InvoiceService
	sender       notifications.Sender
	broadcaster  Broadcaster
	db           repositories.TxBeginner // For managing transactions
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	sr repositories.SettingsRepository,
	pricing PricingService,
	invoices InvoiceService,
	sender notifications.Sender,
	broadcaster Broadcaster,
	db repositories.TxBeginner,
) OrderService {
	return &orderService{
		orderRepo:    or,
		settingsRepo: sr,
		pricing:      pricing,
		invoices:     invoices,
		sender:       sender,
		broadcaster:  broadcaster,
		db:           db,
	}
}

// --- Method Implementations ---

// CreateOrder runs the full placement flow: price the cart, persist order and
// items, issue the invoice, then detach the email work and broadcast. The
// call succeeds once order and invoice are durably persisted; email outcome
// never affects the result.
func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrderRequest(&req); err != nil {
		return nil, err
	}

	items, subtotal, err := s.pricing.PriceOrder(req.OrderItems)
	if err != nil {
		return nil, err
	}

	deliveryFee := decimal.Zero
	if req.OrderType == OrderTypeDelivery {
		deliveryFee = s.deliveryFee()
	}
	total := money.Round2(subtotal.Add(deliveryFee))

	paymentStatus := PaymentStatusPending
	if req.PaidAmount != nil {
		if total.Sub(*req.PaidAmount).Abs().GreaterThan(paymentTolerance) {
			return nil, fmt.Errorf("%w: captured %s, order total %s", ErrPaymentMismatch, req.PaidAmount, total)
		}
		paymentStatus = PaymentStatusPaid
	}

	order := models.Order{
		OrderNumber:     generateOrderNumber(time.Now()),
		Status:          StatusPending,
		OrderType:       req.OrderType,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   paymentStatus,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		DiscountAmount:  decimal.Zero,
		Total:           total,
		Notes:           req.Notes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	orderID, err := s.orderRepo.CreateOrder(tx, &order)
	if err != nil {
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}
	order.ID = orderID

	for i := range items {
		items[i].OrderID = orderID
		if _, err := s.orderRepo.CreateOrderItem(tx, &items[i]); err != nil {
			return nil, fmt.Errorf("failed to create order item (menu_item_id: %d): %w", items[i].MenuItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order transaction: %w", err)
	}
	order.OrderItems = items

	// Invoice issuance is synchronous: placement is only complete once the
	// numbered invoice exists.
	invoice, doc, err := s.invoices.IssueForOrder(&order)
	if err != nil {
		return nil, fmt.Errorf("order %s persisted but invoice issuance failed: %w", order.OrderNumber, err)
	}

	// Email dispatch runs detached; a slow or failing SMTP server must not
	// hold up the placement response.
	go func() {
		s.invoices.EmailInvoice(invoice, doc)
		if order.CustomerEmail != nil && *order.CustomerEmail != "" {
			if err := s.sender.SendOrderConfirmation(&order, *order.CustomerEmail); err != nil {
				utils.LogError(err, "CreateOrder: failed to send confirmation email for "+order.OrderNumber)
			}
		}
	}()

	s.broadcaster.Publish(EventNewOrder, statusEvent(&order))

	return s.GetOrderByID(orderID)
}

func validateCreateOrderRequest(req *CreateOrderRequest) error {
	switch req.OrderType {
	case OrderTypeDelivery, OrderTypePickup:
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrValidation, req.OrderType)
	}
	switch req.PaymentMethod {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodOnline, PaymentMethodTransfer:
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, req.PaymentMethod)
	}
	if req.OrderType == OrderTypeDelivery && (req.DeliveryAddress == nil || *req.DeliveryAddress == "") {
		return fmt.Errorf("%w: delivery address is required for delivery orders", ErrValidation)
	}
	if req.CustomerEmail != nil && *req.CustomerEmail != "" && !utils.IsValidEmail(*req.CustomerEmail) {
		return fmt.Errorf("%w: invalid customer email %q", ErrValidation, *req.CustomerEmail)
	}
	if len(req.OrderItems) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	return nil
}

// generateOrderNumber produces a human-readable number encoding placement
// date and time plus a random suffix against same-second collisions.
func generateOrderNumber(now time.Time) string {
	return fmt.Sprintf("PCB-%s-%s-%03d", now.Format("20060102"), now.Format("150405"), rand.Intn(1000))
}

func (s *orderService) deliveryFee() decimal.Decimal {
	setting, err := s.settingsRepo.GetSetting("delivery_fee")
	if err != nil || setting.SettingValue == nil {
		return DefaultDeliveryFee
	}
	fee, err := decimal.NewFromString(*setting.SettingValue)
	if err != nil {
		utils.LogError(err, "deliveryFee: delivery_fee setting is not a valid amount")
		return DefaultDeliveryFee
	}
	return fee
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetOrderByID(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by ID from repository: %w", err)
	}

	items, err := s.orderRepo.GetOrderItemsByOrderID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order ID %d: %w", orderID, err)
	}
	order.OrderItems = items
	return order, nil
}

func (s *orderService) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order by number from repository: %w", err)
	}
	return s.GetOrderByID(order.ID)
}

// --- Lifecycle transitions ---

// AcceptOrder confirms a pending order with a preparation estimate.
func (s *orderService) AcceptOrder(orderID int64, req AcceptOrderRequest) (*models.Order, error) {
	if req.EstimatedMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidEstimate, req.EstimatedMinutes)
	}

	order, err := s.loadTransitionable(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != StatusPending && order.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot accept order in status %s", ErrInvalidTransition, order.Status)
	}

	now := time.Now()
	stamps := map[string]time.Time{
		"confirmed_at":   now,
		"estimated_time": now.Add(time.Duration(req.EstimatedMinutes) * time.Minute),
	}
	return s.applyTransition(orderID, StatusConfirmed, stamps, EventOrderStatusUpdate)
}

func (s *orderService) MarkPreparing(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusPreparing, nil, EventOrderStatusUpdate)
}

func (s *orderService) MarkReady(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusReady, map[string]time.Time{"ready_at": time.Now()}, EventOrderStatusUpdate)
}

func (s *orderService) MarkOutForDelivery(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusOutForDelivery, nil, EventOrderStatusUpdate)
}

// CompleteOrder marks the terminal success state.
func (s *orderService) CompleteOrder(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusDelivered, map[string]time.Time{"delivered_at": time.Now()}, EventOrderCompleted)
}

// CancelOrder is unconditional from any non-terminal status. No payment
// reversal happens here; refunding a charged gateway payment is a manual
// admin action.
func (s *orderService) CancelOrder(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusCancelled, map[string]time.Time{"cancelled_at": time.Now()}, EventOrderStatusUpdate)
}

func (s *orderService) RefundOrder(orderID int64) (*models.Order, error) {
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}
	return s.applyTransition(orderID, StatusRefunded, map[string]time.Time{"cancelled_at": time.Now()}, EventOrderStatusUpdate)
}

// SetOrderStatus applies a direct status set from the admin dashboard. The
// value must be a known status and the order must not be terminal; beyond
// that, conflicting concurrent admin actions are last-write-wins.
func (s *orderService) SetOrderStatus(orderID int64, req UpdateOrderStatusRequest) (*models.Order, error) {
	if !isValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}
	if _, err := s.loadTransitionable(orderID); err != nil {
		return nil, err
	}

	now := time.Now()
	stamps := map[string]time.Time{}
	event := EventOrderStatusUpdate
	switch req.Status {
	case StatusConfirmed:
		stamps["confirmed_at"] = now
	case StatusReady:
		stamps["ready_at"] = now
	case StatusDelivered:
		stamps["delivered_at"] = now
		event = EventOrderCompleted
	case StatusCancelled, StatusRefunded:
		stamps["cancelled_at"] = now
	}
	return s.applyTransition(orderID, req.Status, stamps, event)
}

// loadTransitionable fetches the order and rejects transitions out of
// terminal statuses.
func (s *orderService) loadTransitionable(orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for transition: %w", err)
	}
	if isTerminalStatus(order.Status) {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, order.OrderNumber, order.Status)
	}
	return order, nil
}

// applyTransition persists the status change, broadcasts it and fires the
// best-effort customer notification.
func (s *orderService) applyTransition(orderID int64, newStatus string, stamps map[string]time.Time, event string) (*models.Order, error) {
	if err := s.orderRepo.UpdateOrderStatus(s.db, orderID, newStatus, stamps); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order status in repository: %w", err)
	}

	updated, err := s.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}

	s.broadcaster.Publish(event, statusEvent(updated))

	if updated.CustomerEmail != nil && *updated.CustomerEmail != "" {
		go func(order models.Order, email string) {
			if err := s.sender.SendStatusNotification(&order, email); err != nil {
				utils.LogError(err, "applyTransition: failed to send status notification for "+order.OrderNumber)
			}
		}(*updated, *updated.CustomerEmail)
	}

	return updated, nil
}

func statusEvent(order *models.Order) StatusEvent {
	return StatusEvent{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		OrderType:     order.OrderType,
		EstimatedTime: order.EstimatedTime,
		ConfirmedAt:   order.ConfirmedAt,
		ReadyAt:       order.ReadyAt,
		DeliveredAt:   order.DeliveredAt,
		CancelledAt:   order.CancelledAt,
	}
}

// Helper function to validate order status values.
func isValidOrderStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusReady,
		StatusOutForDelivery, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

func isTerminalStatus(status string) bool {
	switch status {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}
