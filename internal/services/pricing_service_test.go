package services

import (
	"testing"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory CatalogLookup backed by plain maps.
type fakeCatalog struct {
	items  map[int64]*models.MenuItem
	sauces map[string]*models.SauceOption
	fries  map[string]*models.FriesOption
}

func (f *fakeCatalog) FindMenuItem(id int64) (*models.MenuItem, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeCatalog) FindSauce(slug string) (*models.SauceOption, error) {
	if sauce, ok := f.sauces[slug]; ok {
		return sauce, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeCatalog) FindFriesOption(slug string) (*models.FriesOption, error) {
	if fries, ok := f.fries[slug]; ok {
		return fries, nil
	}
	return nil, repositories.ErrNotFound
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strPtr(s string) *string { return &s }

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		items: map[int64]*models.MenuItem{
			1: {ID: 1, Slug: "bistro-burger", Name: "Bistro Burger", Price: dec("8.90"), IncludesSides: true},
			2: {ID: 2, Slug: "wrap-kura", Name: "Kurací wrap", Price: dec("6.50"), IncludesSides: false},
		},
		sauces: map[string]*models.SauceOption{
			"garlic": {ID: 1, Slug: "garlic", Name: "Cesnaková", Price: dec("0.50")},
		},
		fries: map[string]*models.FriesOption{
			"regular": {ID: 1, Slug: "regular", Name: "Hranolky", PriceAddon: dec("1.00")},
			"cheesy":  {ID: 2, Slug: "cheesy", Name: "Syrové hranolky", PriceAddon: dec("1.30")},
		},
	}
}

func TestPriceOrder_BasicLine(t *testing.T) {
	svc := NewPricingService(testCatalog())

	items, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 2, Quantity: 3},
	})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Kurací wrap", items[0].ItemName)
	assert.True(t, items[0].UnitPrice.Equal(dec("6.50")), "unit price snapshot")
	assert.True(t, items[0].TotalPrice.Equal(dec("19.50")))
	assert.True(t, subtotal.Equal(dec("19.50")))
}

func TestPriceOrder_FriesUpgradeCharged(t *testing.T) {
	svc := NewPricingService(testCatalog())

	// two burgers with the cheesy upgrade: (8.90 + 1.30) * 2
	_, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: 2, FriesUpgrade: strPtr("cheesy")},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("20.40")), "got %s", subtotal)
}

func TestPriceOrder_BundledRegularFriesFree(t *testing.T) {
	svc := NewPricingService(testCatalog())

	// burger includes sides, so the regular portion costs nothing
	_, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: 1, FriesUpgrade: strPtr("regular")},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("8.90")), "got %s", subtotal)
}

func TestPriceOrder_RegularFriesChargedWithoutBundledSides(t *testing.T) {
	svc := NewPricingService(testCatalog())

	// the wrap does not include sides, so even regular fries cost their addon
	_, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 2, Quantity: 1, FriesUpgrade: strPtr("regular")},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("7.50")), "got %s", subtotal)
}

func TestPriceOrder_UnknownFriesSlugIgnored(t *testing.T) {
	svc := NewPricingService(testCatalog())

	items, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: 1, FriesUpgrade: strPtr("truffle-fries")},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("8.90")))
	// the slug is still recorded on the line for the kitchen to see
	require.NotNil(t, items[0].FriesUpgrade)
	assert.Equal(t, "truffle-fries", *items[0].FriesUpgrade)
}

func TestPriceOrder_ExtrasChargedPerUnit(t *testing.T) {
	svc := NewPricingService(testCatalog())

	// 2 extras on 2 units: 0.30 * 2 * 2 = 1.20 on top of 17.80
	_, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: 2, Extras: []string{"cheese", "bacon"}},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("19.00")), "got %s", subtotal)
}

func TestPriceOrder_SauceNeverCharged(t *testing.T) {
	svc := NewPricingService(testCatalog())

	// the garlic sauce carries a catalog price of 0.50 that must not apply
	items, subtotal, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 2, Quantity: 1, SelectedSauce: strPtr("garlic")},
	})

	require.NoError(t, err)
	assert.True(t, subtotal.Equal(dec("6.50")))
	require.NotNil(t, items[0].SelectedSauce)
	assert.Equal(t, "garlic", *items[0].SelectedSauce)
}

func TestPriceOrder_UnknownMenuItemAbortsCart(t *testing.T) {
	svc := NewPricingService(testCatalog())

	items, _, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 2, Quantity: 1},
		{MenuItemID: 999, Quantity: 1},
	})

	require.ErrorIs(t, err, ErrMenuItemNotFound)
	assert.Nil(t, items, "no partial orders")
}

func TestPriceOrder_NonPositiveQuantityRejected(t *testing.T) {
	svc := NewPricingService(testCatalog())

	_, _, err := svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: 0},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.PriceOrder([]OrderLineRequest{
		{MenuItemID: 1, Quantity: -2},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPriceOrder_Deterministic(t *testing.T) {
	svc := NewPricingService(testCatalog())
	lines := []OrderLineRequest{
		{MenuItemID: 1, Quantity: 2, FriesUpgrade: strPtr("cheesy"), Extras: []string{"cheese"}},
		{MenuItemID: 2, Quantity: 1, SelectedSauce: strPtr("garlic")},
	}

	_, first, err := svc.PriceOrder(lines)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, again, err := svc.PriceOrder(lines)
		require.NoError(t, err)
		assert.True(t, first.Equal(again), "run %d: %s != %s", i, first, again)
	}
}
