package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Order is created once by order placement and afterwards mutated only by
// the lifecycle state machine. Cancellation is a terminal status, never a
// row deletion.
type Order struct {
	ID              int64           `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	Status          string          `json:"status" db:"status"`
	OrderType       string          `json:"order_type" db:"order_type"`
	PaymentMethod   string          `json:"payment_method" db:"payment_method"`
	PaymentStatus   string          `json:"payment_status" db:"payment_status"`
	CustomerName    string          `json:"customer_name" db:"customer_name"`
	CustomerEmail   *string         `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone   string          `json:"customer_phone" db:"customer_phone"`
	DeliveryAddress *string         `json:"delivery_address,omitempty" db:"delivery_address"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	Total           decimal.Decimal `json:"total" db:"total"`
	Notes           *string         `json:"notes,omitempty" db:"notes"`
	EstimatedTime   *time.Time      `json:"estimated_time,omitempty" db:"estimated_time"`
	ConfirmedAt     *time.Time      `json:"confirmed_at,omitempty" db:"confirmed_at"`
	ReadyAt         *time.Time      `json:"ready_at,omitempty" db:"ready_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty" db:"delivered_at"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	OrderItems []OrderItem `json:"order_items,omitempty"`
}

// OrderItem is a priced order line. UnitPrice is the menu price snapshot at
// placement time; TotalPrice = (UnitPrice + applied addons) * Quantity.
// Immutable once created.
type OrderItem struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	MenuItemID    int64           `json:"menu_item_id" db:"menu_item_id"`
	ItemName      string          `json:"item_name" db:"item_name"`
	Quantity      int             `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price" db:"total_price"`
	SelectedSauce *string         `json:"selected_sauce,omitempty" db:"selected_sauce"`
	FriesUpgrade  *string         `json:"fries_upgrade,omitempty" db:"fries_upgrade"`
	Extras        pq.StringArray  `json:"extras" db:"extras"`
	RemoveItems   pq.StringArray  `json:"remove_items" db:"remove_items"`
	SpecialNotes  *string         `json:"special_notes,omitempty" db:"special_notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	Status        *string `form:"status"`
	OrderType     *string `form:"order_type"`
	PaymentMethod *string `form:"payment_method"`
	Date          *string `form:"date"` // Expected format YYYY-MM-DD
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
