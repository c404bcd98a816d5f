package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is issued exactly once per order, synchronously during order
// placement. Customer fields are snapshots, not references. After issuance
// only the email bookkeeping fields (EmailSent, EmailSentAt, EmailAttempts)
// ever change.
type Invoice struct {
	ID            int64           `json:"id" db:"id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	CustomerName  string          `json:"customer_name" db:"customer_name"`
	CustomerEmail *string         `json:"customer_email,omitempty" db:"customer_email"`
	CustomerPhone string          `json:"customer_phone" db:"customer_phone"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee" db:"delivery_fee"`
	TotalNet      decimal.Decimal `json:"total_net" db:"total_net"`
	VATAmount     decimal.Decimal `json:"vat_amount" db:"vat_amount"`
	TotalGross    decimal.Decimal `json:"total_gross" db:"total_gross"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	ItemsSnapshot string          `json:"-" db:"items_snapshot"` // JSON-encoded []InvoiceLine
	EmailSent     bool            `json:"email_sent" db:"email_sent"`
	EmailSentAt   *time.Time      `json:"email_sent_at,omitempty" db:"email_sent_at"`
	EmailAttempts int             `json:"email_attempts" db:"email_attempts"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// InvoiceLine is one rendered row of an invoice, with customizations already
// flattened into display text. The delivery fee appears as a synthetic line.
type InvoiceLine struct {
	Name          string          `json:"name"`
	Customization string          `json:"customization,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// CompanyInfo identifies the issuing business on an invoice.
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	ICO     string `json:"ico"`
	DIC     string `json:"dic"`
	ICDPH   string `json:"ic_dph"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// InvoiceDocument is the layout-neutral invoice model handed to renderers
// and mailers. It is a passive data structure with no rendering coupling.
type InvoiceDocument struct {
	InvoiceNumber string          `json:"invoice_number"`
	IssuedAt      time.Time       `json:"issued_at"`
	Company       CompanyInfo     `json:"company"`
	CustomerName  string          `json:"customer_name"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	CustomerPhone string          `json:"customer_phone"`
	OrderNumber   string          `json:"order_number"`
	OrderType     string          `json:"order_type"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []InvoiceLine   `json:"lines"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	TotalNet      decimal.Decimal `json:"total_net"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	TotalGross    decimal.Decimal `json:"total_gross"`
}
