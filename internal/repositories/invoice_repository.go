package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pcb_bistro_backend/internal/models"

	"github.com/lib/pq"
)

// InvoiceRepository defines the interface for invoice persistence. An invoice
// row is written once at issuance; only the email bookkeeping columns are
// ever updated afterwards.
type InvoiceRepository interface {
	CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (int64, error)
	GetInvoiceByID(invoiceID int64) (*models.Invoice, error)
	GetInvoiceByOrderID(orderID int64) (*models.Invoice, error)
	GetInvoices(page, pageSize int) ([]models.Invoice, int, error)
	RecordEmailAttempt(invoiceID int64, sent bool, attemptedAt time.Time) error
}

type invoiceRepository struct {
	db *sql.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository.
func NewInvoiceRepository(db *sql.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

const invoiceColumns = `id, invoice_number, order_id, customer_name, customer_email, customer_phone,
	subtotal, delivery_fee, total_net, vat_amount, total_gross, payment_method,
	items_snapshot, email_sent, email_sent_at, email_attempts, created_at`

func scanInvoice(row scanner, inv *models.Invoice) error {
	return row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.CustomerName, &inv.CustomerEmail, &inv.CustomerPhone,
		&inv.Subtotal, &inv.DeliveryFee, &inv.TotalNet, &inv.VATAmount, &inv.TotalGross, &inv.PaymentMethod,
		&inv.ItemsSnapshot, &inv.EmailSent, &inv.EmailSentAt, &inv.EmailAttempts, &inv.CreatedAt,
	)
}

func (r *invoiceRepository) CreateInvoice(executor SQLExecutor, invoice *models.Invoice) (int64, error) {
	query := `INSERT INTO invoices
	            (invoice_number, order_id, customer_name, customer_email, customer_phone,
	             subtotal, delivery_fee, total_net, vat_amount, total_gross, payment_method,
	             items_snapshot, email_sent, email_attempts, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		invoice.InvoiceNumber, invoice.OrderID, invoice.CustomerName, invoice.CustomerEmail, invoice.CustomerPhone,
		invoice.Subtotal, invoice.DeliveryFee, invoice.TotalNet, invoice.VATAmount, invoice.TotalGross, invoice.PaymentMethod,
		invoice.ItemsSnapshot, invoice.EmailSent, invoice.EmailAttempts, invoice.CreatedAt,
	).Scan(&invoice.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: invoice for order %d already exists (constraint: %s)",
				ErrDuplicateKey, invoice.OrderID, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating invoice: %v", ErrDatabaseError, err)
	}
	return invoice.ID, nil
}

func (r *invoiceRepository) GetInvoiceByID(invoiceID int64) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	err := scanInvoice(r.db.QueryRow(query, invoiceID), invoice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invoice by ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	return invoice, nil
}

func (r *invoiceRepository) GetInvoiceByOrderID(orderID int64) (*models.Invoice, error) {
	invoice := &models.Invoice{}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE order_id = $1`
	err := scanInvoice(r.db.QueryRow(query, orderID), invoice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting invoice for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return invoice, nil
}

func (r *invoiceRepository) GetInvoices(page, pageSize int) ([]models.Invoice, int, error) {
	invoices := []models.Invoice{}
	totalCount := 0
	query := `SELECT ` + invoiceColumns + `, COUNT(*) OVER() AS total_count
	          FROM invoices
	          ORDER BY created_at DESC
	          LIMIT $1 OFFSET $2`

	offset := (page - 1) * pageSize
	rows, err := r.db.Query(query, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying invoices: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var inv models.Invoice
		err := rows.Scan(
			&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.CustomerName, &inv.CustomerEmail, &inv.CustomerPhone,
			&inv.Subtotal, &inv.DeliveryFee, &inv.TotalNet, &inv.VATAmount, &inv.TotalGross, &inv.PaymentMethod,
			&inv.ItemsSnapshot, &inv.EmailSent, &inv.EmailSentAt, &inv.EmailAttempts, &inv.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning invoice: %v", ErrDatabaseError, err)
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating invoice rows: %v", ErrDatabaseError, err)
	}
	return invoices, totalCount, nil
}

// RecordEmailAttempt bumps the attempt counter and, on success, marks the
// invoice as emailed. Nothing else on the row is touched.
func (r *invoiceRepository) RecordEmailAttempt(invoiceID int64, sent bool, attemptedAt time.Time) error {
	var result sql.Result
	var err error
	if sent {
		query := `UPDATE invoices
		          SET email_attempts = email_attempts + 1, email_sent = TRUE, email_sent_at = $1
		          WHERE id = $2`
		result, err = r.db.Exec(query, attemptedAt, invoiceID)
	} else {
		query := `UPDATE invoices
		          SET email_attempts = email_attempts + 1
		          WHERE id = $1`
		result, err = r.db.Exec(query, invoiceID)
	}
	if err != nil {
		return fmt.Errorf("%w: recording email attempt for invoice ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for invoice email attempt ID %d: %v", ErrDatabaseError, invoiceID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
