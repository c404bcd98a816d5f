package services

import (
	"errors"
	"fmt"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/money"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Custom Errors
var (
	ErrValidation       = errors.New("validation error")
	ErrMenuItemNotFound = errors.New("menu item not found or not available")
)

// ExtraUnitPrice is charged per extra, per ordered unit.
var ExtraUnitPrice = decimal.New(30, -2) // 0.30

// bundledFriesSlugs name the regular fries portion that is already included
// with menu items flagged includes_sides.
var bundledFriesSlugs = map[string]bool{
	"regular":       true,
	"regular-fries": true,
}

// CatalogLookup is the slice of the menu repository the pricing engine needs.
type CatalogLookup interface {
	FindMenuItem(id int64) (*models.MenuItem, error)
	FindSauce(slug string) (*models.SauceOption, error)
	FindFriesOption(slug string) (*models.FriesOption, error)
}

// OrderLineRequest is one cart line as submitted by the customer.
type OrderLineRequest struct {
	MenuItemID    int64    `json:"menu_item_id" binding:"required"`
	Quantity      int      `json:"quantity" binding:"required,gt=0"`
	SelectedSauce *string  `json:"selected_sauce,omitempty"`
	FriesUpgrade  *string  `json:"fries_upgrade,omitempty"`
	Extras        []string `json:"extras"`
	RemoveItems   []string `json:"remove_items"`
	SpecialNotes  *string  `json:"special_notes,omitempty"`
}

// --- PricingService Interface ---

// PricingService computes authoritative order prices from cart lines and the
// current catalog. Unit prices are snapshotted onto the returned items, so
// later menu edits never change a placed order.
type PricingService interface {
	PriceOrder(lines []OrderLineRequest) ([]models.OrderItem, decimal.Decimal, error)
}

type pricingService struct {
	catalog CatalogLookup
}

// NewPricingService creates a new instance of PricingService.
func NewPricingService(catalog CatalogLookup) PricingService {
	return &pricingService{catalog: catalog}
}

// PriceOrder prices every line or fails the whole cart; no partial orders.
//
// An unknown menu item ID aborts with ErrMenuItemNotFound. An unknown fries
// or sauce slug is silently ignored instead (no cost, no error) - customers
// with a stale menu in the browser should not lose the whole cart over a
// renamed side option.
func (s *pricingService) PriceOrder(lines []OrderLineRequest) ([]models.OrderItem, decimal.Decimal, error) {
	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: quantity for menu item ID %d must be positive", ErrValidation, line.MenuItemID)
		}

		menuItem, err := s.catalog.FindMenuItem(line.MenuItemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("%w: menu item ID %d", ErrMenuItemNotFound, line.MenuItemID)
			}
			return nil, decimal.Zero, fmt.Errorf("failed to fetch menu item %d: %w", line.MenuItemID, err)
		}

		quantity := decimal.NewFromInt(int64(line.Quantity))
		itemTotal := menuItem.Price.Mul(quantity)

		if line.FriesUpgrade != nil && *line.FriesUpgrade != "" {
			fries, err := s.catalog.FindFriesOption(*line.FriesUpgrade)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return nil, decimal.Zero, fmt.Errorf("failed to fetch fries option '%s': %w", *line.FriesUpgrade, err)
			}
			if fries != nil {
				// The bundled regular portion is free only when the item
				// includes sides; otherwise every option charges its addon.
				if !(menuItem.IncludesSides && bundledFriesSlugs[fries.Slug]) {
					itemTotal = itemTotal.Add(fries.PriceAddon.Mul(quantity))
				}
			}
		}

		// Sauces are informational at order time and carry no charge,
		// even though the catalog stores a price for them.
		if extrasCount := len(line.Extras); extrasCount > 0 {
			extrasCharge := ExtraUnitPrice.Mul(decimal.NewFromInt(int64(extrasCount))).Mul(quantity)
			itemTotal = itemTotal.Add(extrasCharge)
		}

		itemTotal = money.Round2(itemTotal)
		subtotal = subtotal.Add(itemTotal)

		items = append(items, models.OrderItem{
			MenuItemID:    menuItem.ID,
			ItemName:      menuItem.Name,
			Quantity:      line.Quantity,
			UnitPrice:     menuItem.Price,
			TotalPrice:    itemTotal,
			SelectedSauce: line.SelectedSauce,
			FriesUpgrade:  line.FriesUpgrade,
			Extras:        pq.StringArray(line.Extras),
			RemoveItems:   pq.StringArray(line.RemoveItems),
			SpecialNotes:  line.SpecialNotes,
		})
	}

	return items, subtotal, nil
}
