package notifications

import (
	"fmt"
	"io"
	"strings"

	"pcb_bistro_backend/internal/models"

	"gopkg.in/gomail.v2"
)

// Sender is the outbound email capability. All sends are best-effort; the
// caller decides what a failure means (usually: log and move on).
type Sender interface {
	SendInvoice(doc *models.InvoiceDocument, pdf []byte, toEmail string) error
	SendOrderConfirmation(order *models.Order, toEmail string) error
	SendStatusNotification(order *models.Order, toEmail string) error
}

// InvoiceRenderer turns an invoice document into attachment bytes.
type InvoiceRenderer interface {
	Render(doc *models.InvoiceDocument) ([]byte, error)
}

// SMTPConfig carries the mail transport settings loaded at process start.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends transactional mail over SMTP. Constructed once in main and
// injected into the services that need it; there is no package-level
// transporter state.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer creates a Mailer from the given SMTP configuration.
func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// SendInvoice emails the invoice PDF to the customer.
func (m *Mailer) SendInvoice(doc *models.InvoiceDocument, pdf []byte, toEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Faktúra %s – %s", doc.InvoiceNumber, doc.Company.Name))
	msg.SetBody("text/html", invoiceBodyHTML(doc))
	msg.Attach(fmt.Sprintf("faktura-%s.pdf", doc.InvoiceNumber),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send invoice %s to %s: %w", doc.InvoiceNumber, toEmail, err)
	}
	return nil
}

// SendOrderConfirmation emails a short confirmation, independent of the
// invoice email.
func (m *Mailer) SendOrderConfirmation(order *models.Order, toEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Potvrdenie objednávky %s", order.OrderNumber))
	msg.SetBody("text/html", confirmationBodyHTML(order))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s to %s: %w", order.OrderNumber, toEmail, err)
	}
	return nil
}

// SendStatusNotification tells the customer about an order status change.
func (m *Mailer) SendStatusNotification(order *models.Order, toEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", fmt.Sprintf("Objednávka %s – %s", order.OrderNumber, statusLabel(order.Status)))
	msg.SetBody("text/html", statusBodyHTML(order))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send status notification for order %s to %s: %w", order.OrderNumber, toEmail, err)
	}
	return nil
}

func invoiceBodyHTML(doc *models.InvoiceDocument) string {
	var b strings.Builder
	b.WriteString("<p>Dobrý deň " + doc.CustomerName + ",</p>")
	b.WriteString("<p>ďakujeme za Vašu objednávku <strong>" + doc.OrderNumber + "</strong>.")
	b.WriteString(" V prílohe nájdete faktúru <strong>" + doc.InvoiceNumber + "</strong>")
	b.WriteString(" na sumu <strong>" + doc.TotalGross.StringFixed(2) + " €</strong>.</p>")
	b.WriteString("<p>" + doc.Company.Name + "</p>")
	return b.String()
}

func confirmationBodyHTML(order *models.Order) string {
	var b strings.Builder
	b.WriteString("<p>Dobrý deň " + order.CustomerName + ",</p>")
	b.WriteString("<p>prijali sme Vašu objednávku <strong>" + order.OrderNumber + "</strong>")
	b.WriteString(" v hodnote <strong>" + order.Total.StringFixed(2) + " €</strong>.")
	if order.OrderType == "DELIVERY" {
		b.WriteString(" Doručíme ju na adresu, ktorú ste uviedli.")
	} else {
		b.WriteString(" Objednávku si môžete vyzdvihnúť na prevádzke.")
	}
	b.WriteString("</p>")
	return b.String()
}

func statusBodyHTML(order *models.Order) string {
	var b strings.Builder
	b.WriteString("<p>Dobrý deň " + order.CustomerName + ",</p>")
	b.WriteString("<p>stav Vašej objednávky <strong>" + order.OrderNumber + "</strong> sa zmenil: ")
	b.WriteString("<strong>" + statusLabel(order.Status) + "</strong>.</p>")
	return b.String()
}

func statusLabel(status string) string {
	switch status {
	case "PENDING":
		return "prijatá"
	case "CONFIRMED":
		return "potvrdená"
	case "PREPARING":
		return "pripravuje sa"
	case "READY":
		return "pripravená"
	case "OUT_FOR_DELIVERY":
		return "na ceste"
	case "DELIVERED":
		return "doručená"
	case "CANCELLED":
		return "zrušená"
	case "REFUNDED":
		return "refundovaná"
	default:
		return status
	}
}
