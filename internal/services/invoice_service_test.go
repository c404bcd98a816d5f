package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory fakes ---

type memSettingsRepo struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
}

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{values: map[string]string{}, counters: map[string]int64{}}
}

func (r *memSettingsRepo) GetSetting(key string) (*models.ApplicationSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.values[key]; ok {
		value := v
		return &models.ApplicationSetting{SettingKey: key, SettingValue: &value}, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *memSettingsRepo) GetSettings() ([]models.ApplicationSetting, error) { return nil, nil }

func (r *memSettingsRepo) UpsertSetting(setting *models.ApplicationSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if setting.SettingValue != nil {
		r.values[setting.SettingKey] = *setting.SettingValue
	}
	return nil
}

func (r *memSettingsRepo) DeleteSetting(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}

func (r *memSettingsRepo) IncrementCounter(key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key]++
	return r.counters[key], nil
}

type memInvoiceRepo struct {
	mu      sync.Mutex
	nextID  int64
	byOrder map[int64]*models.Invoice
}

func newMemInvoiceRepo() *memInvoiceRepo {
	return &memInvoiceRepo{byOrder: map[int64]*models.Invoice{}}
}

func (r *memInvoiceRepo) CreateInvoice(executor repositories.SQLExecutor, invoice *models.Invoice) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOrder[invoice.OrderID]; exists {
		return 0, fmt.Errorf("%w: invoice for order %d already exists", repositories.ErrDuplicateKey, invoice.OrderID)
	}
	r.nextID++
	invoice.ID = r.nextID
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}
	stored := *invoice
	r.byOrder[invoice.OrderID] = &stored
	return invoice.ID, nil
}

func (r *memInvoiceRepo) GetInvoiceByID(invoiceID int64) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byOrder {
		if inv.ID == invoiceID {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *memInvoiceRepo) GetInvoiceByOrderID(orderID int64) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inv, ok := r.byOrder[orderID]; ok {
		copied := *inv
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *memInvoiceRepo) GetInvoices(page, pageSize int) ([]models.Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoices := make([]models.Invoice, 0, len(r.byOrder))
	for _, inv := range r.byOrder {
		invoices = append(invoices, *inv)
	}
	return invoices, len(invoices), nil
}

func (r *memInvoiceRepo) RecordEmailAttempt(invoiceID int64, sent bool, attemptedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.byOrder {
		if inv.ID == invoiceID {
			inv.EmailAttempts++
			if sent {
				inv.EmailSent = true
				inv.EmailSentAt = &attemptedAt
			}
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeRenderer struct {
	fail bool
}

func (f *fakeRenderer) Render(doc *models.InvoiceDocument) ([]byte, error) {
	if f.fail {
		return nil, errors.New("render failed")
	}
	return []byte("%PDF-fake"), nil
}

type fakeSender struct {
	mu            sync.Mutex
	failInvoices  bool
	invoicesSent  []string // invoice numbers
	confirmations []string // order numbers
	statusUpdates []string // order numbers
}

func (f *fakeSender) SendInvoice(doc *models.InvoiceDocument, pdf []byte, toEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInvoices {
		return errors.New("smtp unavailable")
	}
	f.invoicesSent = append(f.invoicesSent, doc.InvoiceNumber)
	return nil
}

func (f *fakeSender) SendOrderConfirmation(order *models.Order, toEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, order.OrderNumber)
	return nil
}

func (f *fakeSender) SendStatusNotification(order *models.Order, toEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, order.OrderNumber)
	return nil
}

func (f *fakeSender) sentInvoiceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invoicesSent)
}

// --- test setup ---

type invoiceTestEnv struct {
	svc         InvoiceService
	invoiceRepo *memInvoiceRepo
	settings    *memSettingsRepo
	orders      *memOrderRepo
	sender      *fakeSender
	renderer    *fakeRenderer
}

func newInvoiceTestEnv() *invoiceTestEnv {
	env := &invoiceTestEnv{
		invoiceRepo: newMemInvoiceRepo(),
		settings:    newMemSettingsRepo(),
		orders:      newMemOrderRepo(),
		sender:      &fakeSender{},
		renderer:    &fakeRenderer{},
	}
	env.svc = NewInvoiceService(env.invoiceRepo, env.settings, env.orders, testCatalog(), env.renderer, env.sender, nil)
	return env
}

func sampleOrder(id int64, paymentMethod, orderType string) *models.Order {
	order := &models.Order{
		ID:            id,
		OrderNumber:   fmt.Sprintf("PCB-20250830-1200%02d-001", id),
		Status:        StatusPending,
		OrderType:     orderType,
		PaymentMethod: paymentMethod,
		PaymentStatus: PaymentStatusPending,
		CustomerName:  "Jana Nová",
		CustomerPhone: "+421900111222",
		Subtotal:      dec("17.90"),
		Total:         dec("17.90"),
		OrderItems: []models.OrderItem{
			{MenuItemID: 1, ItemName: "Bistro Burger", Quantity: 2, UnitPrice: dec("8.95"), TotalPrice: dec("17.90")},
		},
	}
	if orderType == OrderTypeDelivery {
		order.DeliveryFee = dec("2.50")
		order.Total = dec("20.40")
		addr := "Hlavná 1, Bratislava"
		order.DeliveryAddress = &addr
	}
	return order
}

// --- tests ---

func TestIssueForOrder_NumberingPerPaymentMethod(t *testing.T) {
	env := newInvoiceTestEnv()

	cash1, _, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)
	cash2, _, err := env.svc.IssueForOrder(sampleOrder(2, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)
	card1, _, err := env.svc.IssueForOrder(sampleOrder(3, PaymentMethodCard, OrderTypePickup))
	require.NoError(t, err)
	online1, _, err := env.svc.IssueForOrder(sampleOrder(4, PaymentMethodOnline, OrderTypePickup))
	require.NoError(t, err)

	assert.Equal(t, "12500001", cash1.InvoiceNumber)
	assert.Equal(t, "12500002", cash2.InvoiceNumber)
	// non-cash methods share the prefix but each method numbers independently
	assert.Equal(t, "22500001", card1.InvoiceNumber)
	assert.Equal(t, "22500001", online1.InvoiceNumber)
}

func TestIssueForOrder_RepeatedVisibleNumbersBothPersist(t *testing.T) {
	env := newInvoiceTestEnv()

	// CARD and ONLINE run separate counters behind the shared non-cash
	// prefix: their first invoices carry the same visible number and both
	// rows must be stored. Nothing may treat invoice_number as unique.
	card, _, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCard, OrderTypePickup))
	require.NoError(t, err)
	online, _, err := env.svc.IssueForOrder(sampleOrder(2, PaymentMethodOnline, OrderTypePickup))
	require.NoError(t, err)
	assert.Equal(t, card.InvoiceNumber, online.InvoiceNumber)

	invoices, total, err := env.svc.GetInvoices(1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, invoices, 2)
}

func TestGetInvoiceByID(t *testing.T) {
	env := newInvoiceTestEnv()

	issued, _, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)

	invoice, err := env.svc.GetInvoiceByID(issued.ID)
	require.NoError(t, err)
	assert.Equal(t, issued.InvoiceNumber, invoice.InvoiceNumber)
	assert.Equal(t, issued.OrderID, invoice.OrderID)

	_, err = env.svc.GetInvoiceByID(issued.ID + 99)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestIssueForOrder_ConcurrentNumbersAreGapFree(t *testing.T) {
	env := newInvoiceTestEnv()
	const workers = 25

	var wg sync.WaitGroup
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(orderID int64) {
			defer wg.Done()
			invoice, _, err := env.svc.IssueForOrder(sampleOrder(orderID, PaymentMethodCash, OrderTypePickup))
			if assert.NoError(t, err) {
				results <- invoice.InvoiceNumber
			}
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for number := range results {
		assert.False(t, seen[number], "duplicate invoice number %s", number)
		seen[number] = true
	}
	for i := 1; i <= workers; i++ {
		expected := fmt.Sprintf("1250%04d", i)
		assert.True(t, seen[expected], "missing invoice number %s", expected)
	}
}

func TestIssueForOrder_DeliveryLineAndVAT(t *testing.T) {
	env := newInvoiceTestEnv()

	invoice, doc, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCard, OrderTypeDelivery))
	require.NoError(t, err)

	last := doc.Lines[len(doc.Lines)-1]
	assert.Equal(t, DeliveryFeeLineLabel, last.Name)
	assert.True(t, last.TotalPrice.Equal(dec("2.50")))

	// 19% VAT decomposed from the gross total of 20.40
	assert.True(t, invoice.TotalGross.Equal(dec("20.40")))
	assert.True(t, invoice.VATAmount.Equal(dec("3.88")), "got %s", invoice.VATAmount)
	assert.True(t, invoice.TotalNet.Equal(dec("16.52")), "got %s", invoice.TotalNet)
}

func TestIssueForOrder_PickupHasNoDeliveryLine(t *testing.T) {
	env := newInvoiceTestEnv()

	_, doc, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)

	for _, line := range doc.Lines {
		assert.NotEqual(t, DeliveryFeeLineLabel, line.Name)
	}
}

func TestDescribeCustomization_FixedOrderAndBundledOmission(t *testing.T) {
	env := newInvoiceTestEnv()
	svc := env.svc.(*invoiceService)

	note := "extra chrumkavé"
	item := models.OrderItem{
		SelectedSauce: strPtr("garlic"),
		FriesUpgrade:  strPtr("cheesy"),
		Extras:        []string{"syr", "slanina"},
		RemoveItems:   []string{"cibuľa"},
		SpecialNotes:  &note,
	}

	text := svc.describeCustomization(item)
	assert.Equal(t, "Omáčka: Cesnaková; Hranolky: Syrové hranolky; Extra: syr, slanina; Bez: cibuľa; Poznámka: extra chrumkavé", text)

	// the bundled regular portion is not mentioned
	bundled := models.OrderItem{FriesUpgrade: strPtr("regular")}
	assert.Equal(t, "", svc.describeCustomization(bundled))

	// deleted options fall back to their slug
	stale := models.OrderItem{SelectedSauce: strPtr("smoky-bbq")}
	assert.Equal(t, "Omáčka: smoky-bbq", svc.describeCustomization(stale))
}

func TestEmailInvoice_RecordsAttempts(t *testing.T) {
	env := newInvoiceTestEnv()
	order := sampleOrder(1, PaymentMethodCash, OrderTypePickup)
	email := "jana@example.com"
	order.CustomerEmail = &email

	invoice, doc, err := env.svc.IssueForOrder(order)
	require.NoError(t, err)

	env.sender.failInvoices = true
	env.svc.EmailInvoice(invoice, doc)

	stored, err := env.invoiceRepo.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.EmailAttempts)
	assert.False(t, stored.EmailSent)

	env.sender.failInvoices = false
	env.svc.EmailInvoice(invoice, doc)

	stored, err = env.invoiceRepo.GetInvoiceByOrderID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.EmailAttempts)
	assert.True(t, stored.EmailSent)
	require.NotNil(t, stored.EmailSentAt)
}

func TestEmailInvoice_SkippedWithoutCustomerEmail(t *testing.T) {
	env := newInvoiceTestEnv()

	invoice, doc, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)

	env.svc.EmailInvoice(invoice, doc)

	stored, err := env.invoiceRepo.GetInvoiceByOrderID(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.EmailAttempts)
	assert.Equal(t, 0, env.sender.sentInvoiceCount())
}

func TestResendInvoice_IdempotentNumbering(t *testing.T) {
	env := newInvoiceTestEnv()
	order := sampleOrder(1, PaymentMethodCash, OrderTypeDelivery)
	email := "jana@example.com"
	order.CustomerEmail = &email
	env.orders.put(order)

	issued, _, err := env.svc.IssueForOrder(order)
	require.NoError(t, err)

	resent, err := env.svc.ResendInvoice(order.ID)
	require.NoError(t, err)

	assert.Equal(t, issued.InvoiceNumber, resent.InvoiceNumber)
	assert.True(t, issued.TotalGross.Equal(resent.TotalGross))
	assert.True(t, resent.EmailSent)
	assert.Equal(t, 1, resent.EmailAttempts)

	// resending consumed no counter value
	env.settings.mu.Lock()
	defer env.settings.mu.Unlock()
	for key, value := range env.settings.counters {
		assert.Equal(t, int64(1), value, "counter %s", key)
	}
}

func TestResendInvoice_RequiresCustomerEmail(t *testing.T) {
	env := newInvoiceTestEnv()
	order := sampleOrder(1, PaymentMethodCash, OrderTypePickup)
	env.orders.put(order)

	_, _, err := env.svc.IssueForOrder(order)
	require.NoError(t, err)

	_, err = env.svc.ResendInvoice(order.ID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestResendInvoice_UnknownOrder(t *testing.T) {
	env := newInvoiceTestEnv()

	_, err := env.svc.ResendInvoice(42)
	require.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestCompanyInfo_SettingsOverrideDefaults(t *testing.T) {
	env := newInvoiceTestEnv()
	name := "Iná Firma s.r.o."
	require.NoError(t, env.settings.UpsertSetting(&models.ApplicationSetting{SettingKey: "company_name", SettingValue: &name}))

	_, doc, err := env.svc.IssueForOrder(sampleOrder(1, PaymentMethodCash, OrderTypePickup))
	require.NoError(t, err)

	assert.Equal(t, "Iná Firma s.r.o.", doc.Company.Name)
	// unset keys keep their compiled-in defaults
	assert.Equal(t, "SK2021234567", doc.Company.ICDPH)
}
