package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuItem is a sellable dish. Price and IncludesSides are copied onto order
// items at placement time, so edits here never change historical orders.
type MenuItem struct {
	ID            int64           `json:"id" db:"id"`
	Slug          string          `json:"slug" db:"slug" binding:"required"`
	Name          string          `json:"name" db:"name" binding:"required"`
	Description   *string         `json:"description,omitempty" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	Category      *string         `json:"category,omitempty" db:"category"`
	ImageURL      *string         `json:"image_url,omitempty" db:"image_url"`
	IncludesSides bool            `json:"includes_sides" db:"includes_sides"`
	IsAvailable   bool            `json:"is_available" db:"is_available"`
	IsDeleted     bool            `json:"is_deleted" db:"is_deleted"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// SauceOption is referenced from order lines by slug, not by foreign key,
// so historical orders stay valid if the option is deleted later.
type SauceOption struct {
	ID        int64           `json:"id" db:"id"`
	Slug      string          `json:"slug" db:"slug" binding:"required"`
	Name      string          `json:"name" db:"name" binding:"required"`
	Price     decimal.Decimal `json:"price" db:"price"`
	IsDefault bool            `json:"is_default" db:"is_default"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// FriesOption is a side upgrade. PriceAddon is charged per order-line unit
// unless the menu item bundles a regular portion for free.
type FriesOption struct {
	ID         int64           `json:"id" db:"id"`
	Slug       string          `json:"slug" db:"slug" binding:"required"`
	Name       string          `json:"name" db:"name" binding:"required"`
	PriceAddon decimal.Decimal `json:"price_addon" db:"price_addon"`
	IsDefault  bool            `json:"is_default" db:"is_default"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}
