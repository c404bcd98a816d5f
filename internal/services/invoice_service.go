package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/notifications"
	"pcb_bistro_backend/internal/repositories"
	"pcb_bistro_backend/pkg/money"
	"pcb_bistro_backend/pkg/utils"
)

// Custom Errors
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// Invoice number prefixes. Cash invoices run on their own numbering circuit.
const (
	invoicePrefixCash    = "1250"
	invoicePrefixNonCash = "2250"
)

// DeliveryFeeLineLabel is the display label of the synthetic delivery line.
const DeliveryFeeLineLabel = "Donáška"

// --- InvoiceService Interface ---

// InvoiceService is the invoice numbering authority and document builder.
// Every order gets exactly one invoice, issued synchronously at placement.
type InvoiceService interface {
	IssueForOrder(order *models.Order) (*models.Invoice, *models.InvoiceDocument, error)
	GetInvoiceByID(invoiceID int64) (*models.Invoice, error)
	GetInvoiceByOrderID(orderID int64) (*models.Invoice, error)
	GetInvoices(page, pageSize int) ([]models.Invoice, int, error)

	// EmailInvoice renders and emails the invoice, best-effort. Failures are
	// logged and counted on the invoice row, never returned to order flow.
	EmailInvoice(invoice *models.Invoice, doc *models.InvoiceDocument)

	// ResendInvoice re-emails an already issued invoice. Idempotent with
	// respect to invoice numbering and amounts.
	ResendInvoice(orderID int64) (*models.Invoice, error)
}

type invoiceService struct {
	invoiceRepo  repositories.InvoiceRepository
	settingsRepo repositories.SettingsRepository
	orderRepo    repositories.OrderRepository
	catalog      CatalogLookup
	renderer     notifications.InvoiceRenderer
	sender       notifications.Sender
	db           repositories.SQLExecutor
}

// NewInvoiceService creates a new instance of InvoiceService.
func NewInvoiceService(
	ir repositories.InvoiceRepository,
	sr repositories.SettingsRepository,
	or repositories.OrderRepository,
	catalog CatalogLookup,
	renderer notifications.InvoiceRenderer,
	sender notifications.Sender,
	db repositories.SQLExecutor,
) InvoiceService {
	return &invoiceService{
		invoiceRepo:  ir,
		settingsRepo: sr,
		orderRepo:    or,
		catalog:      catalog,
		renderer:     renderer,
		sender:       sender,
		db:           db,
	}
}

// nextInvoiceNumber hands out the next number for the payment method's
// circuit in the given year. The underlying counter increment is a single
// atomic upsert, so concurrent orders always get distinct consecutive
// numbers with no gaps.
//
// The visible number does not embed the year, while the counter resets each
// year - "12500001" can therefore appear in two different calendar years.
// Issued invoices depend on this numbering, so it stays as is.
func (s *invoiceService) nextInvoiceNumber(paymentMethod string, year int) (string, error) {
	key := fmt.Sprintf("invoice_counter_%s_%d", strings.ToLower(paymentMethod), year)
	counter, err := s.settingsRepo.IncrementCounter(key)
	if err != nil {
		return "", fmt.Errorf("failed to increment invoice counter %s: %w", key, err)
	}

	prefix := invoicePrefixNonCash
	if paymentMethod == PaymentMethodCash {
		prefix = invoicePrefixCash
	}
	return fmt.Sprintf("%s%04d", prefix, counter), nil
}

// IssueForOrder assigns the next invoice number, builds the invoice document
// and persists the invoice row. Called exactly once per order, after the
// order itself is durably persisted.
func (s *invoiceService) IssueForOrder(order *models.Order) (*models.Invoice, *models.InvoiceDocument, error) {
	invoiceNumber, err := s.nextInvoiceNumber(order.PaymentMethod, time.Now().Year())
	if err != nil {
		return nil, nil, err
	}

	doc := s.buildDocument(order, invoiceNumber, time.Now())

	snapshot, err := json.Marshal(doc.Lines)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize invoice lines for order %s: %w", order.OrderNumber, err)
	}

	invoice := &models.Invoice{
		InvoiceNumber: invoiceNumber,
		OrderID:       order.ID,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		CustomerPhone: order.CustomerPhone,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		TotalNet:      doc.TotalNet,
		VATAmount:     doc.VATAmount,
		TotalGross:    doc.TotalGross,
		PaymentMethod: order.PaymentMethod,
		ItemsSnapshot: string(snapshot),
	}

	if _, err := s.invoiceRepo.CreateInvoice(s.db, invoice); err != nil {
		return nil, nil, fmt.Errorf("failed to persist invoice %s for order %s: %w", invoiceNumber, order.OrderNumber, err)
	}
	return invoice, doc, nil
}

// buildDocument assembles the layout-neutral invoice document: customer
// snapshot, rendered line items, the synthetic delivery line for delivery
// orders, and the VAT breakdown of the order total.
func (s *invoiceService) buildDocument(order *models.Order, invoiceNumber string, issuedAt time.Time) *models.InvoiceDocument {
	lines := make([]models.InvoiceLine, 0, len(order.OrderItems)+1)
	for _, item := range order.OrderItems {
		lines = append(lines, models.InvoiceLine{
			Name:          item.ItemName,
			Customization: s.describeCustomization(item),
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.TotalPrice,
		})
	}

	if order.OrderType == OrderTypeDelivery {
		lines = append(lines, models.InvoiceLine{
			Name:       DeliveryFeeLineLabel,
			Quantity:   1,
			UnitPrice:  order.DeliveryFee,
			TotalPrice: order.DeliveryFee,
		})
	}

	breakdown := money.Breakdown(order.Total)

	customerEmail := ""
	if order.CustomerEmail != nil {
		customerEmail = *order.CustomerEmail
	}

	return &models.InvoiceDocument{
		InvoiceNumber: invoiceNumber,
		IssuedAt:      issuedAt,
		Company:       s.companyInfo(),
		CustomerName:  order.CustomerName,
		CustomerEmail: customerEmail,
		CustomerPhone: order.CustomerPhone,
		OrderNumber:   order.OrderNumber,
		OrderType:     order.OrderType,
		PaymentMethod: order.PaymentMethod,
		Lines:         lines,
		Subtotal:      order.Subtotal,
		DeliveryFee:   order.DeliveryFee,
		TotalNet:      breakdown.NetAmount,
		VATAmount:     breakdown.VATAmount,
		TotalGross:    breakdown.GrossAmount,
	}
}

// describeCustomization flattens a line's customizations into display text,
// in fixed order: sauce, fries, extras, removed ingredients, note. The
// bundled regular fries portion is not worth mentioning on an invoice.
func (s *invoiceService) describeCustomization(item models.OrderItem) string {
	var parts []string

	if item.SelectedSauce != nil && *item.SelectedSauce != "" {
		parts = append(parts, "Omáčka: "+s.optionName(*item.SelectedSauce, s.sauceName))
	}
	if item.FriesUpgrade != nil && *item.FriesUpgrade != "" && !bundledFriesSlugs[*item.FriesUpgrade] {
		parts = append(parts, "Hranolky: "+s.optionName(*item.FriesUpgrade, s.friesName))
	}
	if len(item.Extras) > 0 {
		parts = append(parts, "Extra: "+strings.Join(item.Extras, ", "))
	}
	if len(item.RemoveItems) > 0 {
		parts = append(parts, "Bez: "+strings.Join(item.RemoveItems, ", "))
	}
	if item.SpecialNotes != nil && *item.SpecialNotes != "" {
		parts = append(parts, "Poznámka: "+*item.SpecialNotes)
	}

	return strings.Join(parts, "; ")
}

// optionName resolves a slug to its display name, falling back to the slug
// for options that were deleted after the order was placed.
func (s *invoiceService) optionName(slug string, lookup func(string) (string, error)) string {
	name, err := lookup(slug)
	if err != nil {
		return slug
	}
	return name
}

func (s *invoiceService) sauceName(slug string) (string, error) {
	sauce, err := s.catalog.FindSauce(slug)
	if err != nil {
		return "", err
	}
	return sauce.Name, nil
}

func (s *invoiceService) friesName(slug string) (string, error) {
	fries, err := s.catalog.FindFriesOption(slug)
	if err != nil {
		return "", err
	}
	return fries.Name, nil
}

// companyInfo reads the issuing company identity from application settings,
// with compiled-in defaults so invoices never go out blank.
func (s *invoiceService) companyInfo() models.CompanyInfo {
	return models.CompanyInfo{
		Name:    s.settingOr("company_name", "PCB Bistro s.r.o."),
		Address: s.settingOr("company_address", "Hlavná 12, 811 01 Bratislava"),
		ICO:     s.settingOr("company_ico", "12345678"),
		DIC:     s.settingOr("company_dic", "2021234567"),
		ICDPH:   s.settingOr("company_ic_dph", "SK2021234567"),
		Email:   s.settingOr("company_email", "objednavky@pcbbistro.sk"),
		Phone:   s.settingOr("company_phone", "+421 900 123 456"),
	}
}

func (s *invoiceService) settingOr(key, fallback string) string {
	setting, err := s.settingsRepo.GetSetting(key)
	if err != nil || setting.SettingValue == nil || *setting.SettingValue == "" {
		return fallback
	}
	return *setting.SettingValue
}

func (s *invoiceService) GetInvoiceByID(invoiceID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByID(invoiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice %d: %w", invoiceID, err)
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoiceByOrderID(orderID int64) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetInvoiceByOrderID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to get invoice for order %d: %w", orderID, err)
	}
	return invoice, nil
}

func (s *invoiceService) GetInvoices(page, pageSize int) ([]models.Invoice, int, error) {
	invoices, totalCount, err := s.invoiceRepo.GetInvoices(page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get invoices: %w", err)
	}
	return invoices, totalCount, nil
}

// EmailInvoice renders the PDF and sends it to the invoice's customer email.
// Any failure is logged and recorded on the attempt counter; there is no
// automatic retry, resending is a manual admin action.
func (s *invoiceService) EmailInvoice(invoice *models.Invoice, doc *models.InvoiceDocument) {
	if invoice.CustomerEmail == nil || *invoice.CustomerEmail == "" {
		return
	}

	pdf, err := s.renderer.Render(doc)
	if err != nil {
		utils.LogError(err, "EmailInvoice: failed to render invoice PDF "+invoice.InvoiceNumber)
		s.recordAttempt(invoice.ID, false)
		return
	}

	if err := s.sender.SendInvoice(doc, pdf, *invoice.CustomerEmail); err != nil {
		utils.LogError(err, "EmailInvoice: failed to send invoice "+invoice.InvoiceNumber)
		s.recordAttempt(invoice.ID, false)
		return
	}
	s.recordAttempt(invoice.ID, true)
}

func (s *invoiceService) recordAttempt(invoiceID int64, sent bool) {
	if err := s.invoiceRepo.RecordEmailAttempt(invoiceID, sent, time.Now()); err != nil {
		utils.LogError(err, fmt.Sprintf("failed to record email attempt for invoice %d", invoiceID))
	}
}

// ResendInvoice rebuilds the document from the persisted snapshot and emails
// it again. Numbering, totals and line items are read back, never recomputed,
// so a resend can be retried freely.
func (s *invoiceService) ResendInvoice(orderID int64) (*models.Invoice, error) {
	invoice, err := s.GetInvoiceByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	if invoice.CustomerEmail == nil || *invoice.CustomerEmail == "" {
		return nil, fmt.Errorf("%w: invoice %s has no customer email", ErrValidation, invoice.InvoiceNumber)
	}

	order, err := s.orderRepo.GetOrderByID(invoice.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d for invoice resend: %w", invoice.OrderID, err)
	}

	var lines []models.InvoiceLine
	if err := json.Unmarshal([]byte(invoice.ItemsSnapshot), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode items snapshot of invoice %s: %w", invoice.InvoiceNumber, err)
	}

	doc := &models.InvoiceDocument{
		InvoiceNumber: invoice.InvoiceNumber,
		IssuedAt:      invoice.CreatedAt,
		Company:       s.companyInfo(),
		CustomerName:  invoice.CustomerName,
		CustomerEmail: *invoice.CustomerEmail,
		CustomerPhone: invoice.CustomerPhone,
		OrderNumber:   order.OrderNumber,
		OrderType:     order.OrderType,
		PaymentMethod: invoice.PaymentMethod,
		Lines:         lines,
		Subtotal:      invoice.Subtotal,
		DeliveryFee:   invoice.DeliveryFee,
		TotalNet:      invoice.TotalNet,
		VATAmount:     invoice.VATAmount,
		TotalGross:    invoice.TotalGross,
	}

	s.EmailInvoice(invoice, doc)
	return s.GetInvoiceByOrderID(orderID)
}
