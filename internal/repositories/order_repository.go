package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pcb_bistro_backend/internal/models"

	"github.com/lib/pq" // For pq.Error and array columns
)

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetOrderByNumber(orderNumber string) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus string, stamps map[string]time.Time) error

	// OrderItem methods
	CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error)
	GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (order_number, status, order_type, payment_method, payment_status,
	             customer_name, customer_email, customer_phone, delivery_address,
	             subtotal, delivery_fee, discount_amount, total, notes,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.OrderNumber, order.Status, order.OrderType, order.PaymentMethod, order.PaymentStatus,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.DeliveryAddress,
		order.Subtotal, order.DeliveryFee, order.DiscountAmount, order.Total, order.Notes,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: order number '%s' already exists", ErrDuplicateKey, order.OrderNumber)
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

const orderColumns = `id, order_number, status, order_type, payment_method, payment_status,
	customer_name, customer_email, customer_phone, delivery_address,
	subtotal, delivery_fee, discount_amount, total, notes,
	estimated_time, confirmed_at, ready_at, delivered_at, cancelled_at,
	created_at, updated_at`

func scanOrder(row scanner, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.OrderNumber, &o.Status, &o.OrderType, &o.PaymentMethod, &o.PaymentStatus,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.DeliveryAddress,
		&o.Subtotal, &o.DeliveryFee, &o.DiscountAmount, &o.Total, &o.Notes,
		&o.EstimatedTime, &o.ConfirmedAt, &o.ReadyAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	err := scanOrder(r.db.QueryRow(query, orderID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrderByNumber(orderNumber string) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	err := scanOrder(r.db.QueryRow(query, orderNumber), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by number %s: %v", ErrDatabaseError, orderNumber, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.OrderType != nil && *filters.OrderType != "" {
		conditions = append(conditions, fmt.Sprintf("order_type = $%d", argCounter))
		args = append(args, *filters.OrderType)
		argCounter++
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("payment_method = $%d", argCounter))
		args = append(args, *filters.PaymentMethod)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.Status, &o.OrderType, &o.PaymentMethod, &o.PaymentStatus,
			&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.DeliveryAddress,
			&o.Subtotal, &o.DeliveryFee, &o.DiscountAmount, &o.Total, &o.Notes,
			&o.EstimatedTime, &o.ConfirmedAt, &o.ReadyAt, &o.DeliveredAt, &o.CancelledAt,
			&o.CreatedAt, &o.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

// allowed transition timestamp columns; anything else would be an SQL
// injection vector through the stamps map
var stampColumns = map[string]bool{
	"estimated_time": true,
	"confirmed_at":   true,
	"ready_at":       true,
	"delivered_at":   true,
	"cancelled_at":   true,
}

// UpdateOrderStatus sets the order status and any transition timestamps in a
// single statement. The stamps map keys must be known timestamp columns.
func (r *orderRepository) UpdateOrderStatus(executor SQLExecutor, orderID int64, newStatus string, stamps map[string]time.Time) error {
	var setClauses []string
	var args []interface{}

	setClauses = append(setClauses, "status = $1", "updated_at = $2")
	args = append(args, newStatus, time.Now())
	argCounter := 3

	for column, value := range stamps {
		if !stampColumns[column] {
			return fmt.Errorf("%w: unknown order timestamp column %q", ErrDatabaseError, column)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argCounter))
		args = append(args, value)
		argCounter++
	}

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = $%d", strings.Join(setClauses, ", "), argCounter)
	args = append(args, orderID)

	result, err := executor.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- OrderItem Methods ---

func (r *orderRepository) CreateOrderItem(executor SQLExecutor, item *models.OrderItem) (int64, error) {
	query := `INSERT INTO order_items
	            (order_id, menu_item_id, item_name, quantity, unit_price, total_price,
	             selected_sauce, fries_upgrade, extras, remove_items, special_notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.OrderID, item.MenuItemID, item.ItemName, item.Quantity, item.UnitPrice, item.TotalPrice,
		item.SelectedSauce, item.FriesUpgrade, item.Extras, item.RemoveItems, item.SpecialNotes,
		item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating order item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating order item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *orderRepository) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	query := `SELECT id, order_id, menu_item_id, item_name, quantity, unit_price, total_price,
	                 selected_sauce, fries_upgrade, extras, remove_items, special_notes, created_at
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`

	rows, err := r.db.Query(query, orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order items for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.MenuItemID, &item.ItemName, &item.Quantity,
			&item.UnitPrice, &item.TotalPrice,
			&item.SelectedSauce, &item.FriesUpgrade, &item.Extras, &item.RemoveItems,
			&item.SpecialNotes, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order item for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order item rows for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return items, nil
}
