package notifications

import (
	"bytes"
	"fmt"

	"pcb_bistro_backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer renders an InvoiceDocument to a single-page A4 PDF. It is the
// only invoice renderer; anything that needs different output should consume
// the InvoiceDocument model, not add another renderer.
type PDFRenderer struct{}

// NewPDFRenderer creates a new PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render produces the PDF bytes for the given invoice document.
func (r *PDFRenderer) Render(doc *models.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// cp1250 covers Slovak diacritics in the built-in fonts
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1250")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Faktúra "+doc.InvoiceNumber))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(95, 5, tr("Dodávateľ:"))
	pdf.Cell(95, 5, tr("Odberateľ:"))
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(95, 5, tr(doc.Company.Name))
	pdf.Cell(95, 5, tr(doc.CustomerName))
	pdf.Ln(5)
	pdf.Cell(95, 5, tr(doc.Company.Address))
	pdf.Cell(95, 5, tr(doc.CustomerPhone))
	pdf.Ln(5)
	pdf.Cell(95, 5, tr("IČO: "+doc.Company.ICO+"  DIČ: "+doc.Company.DIC))
	pdf.Cell(95, 5, tr(doc.CustomerEmail))
	pdf.Ln(5)
	pdf.Cell(95, 5, tr("IČ DPH: "+doc.Company.ICDPH))
	pdf.Ln(10)

	pdf.Cell(60, 5, tr("Dátum vystavenia: "+doc.IssuedAt.Format("02.01.2006")))
	pdf.Cell(60, 5, tr("Objednávka: "+doc.OrderNumber))
	pdf.Cell(60, 5, tr("Úhrada: "+doc.PaymentMethod))
	pdf.Ln(10)

	// line item table
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(80, 7, tr("Položka"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, tr("Množstvo"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, tr("Jedn. cena"), "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, tr("Spolu"), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(80, 6, tr(line.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, line.UnitPrice.StringFixed(2)+" EUR", "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, line.TotalPrice.StringFixed(2)+" EUR", "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		if line.Customization != "" {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(160, 5, tr("  "+line.Customization), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
			pdf.SetFont("Helvetica", "", 9)
		}
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(130, 6, "")
	pdf.Cell(30, 6, tr("Základ dane:"))
	pdf.CellFormat(30, 6, doc.TotalNet.StringFixed(2)+" EUR", "", 0, "R", false, 0, "")
	pdf.Ln(6)
	pdf.Cell(130, 6, "")
	pdf.Cell(30, 6, tr("DPH 19 %:"))
	pdf.CellFormat(30, 6, doc.VATAmount.StringFixed(2)+" EUR", "", 0, "R", false, 0, "")
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(130, 7, "")
	pdf.Cell(30, 7, tr("Spolu s DPH:"))
	pdf.CellFormat(30, 7, doc.TotalGross.StringFixed(2)+" EUR", "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", doc.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
