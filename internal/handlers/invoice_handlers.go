package handlers

import (
	"errors"
	"net/http"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/services"
	"pcb_bistro_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InvoiceHandler holds the invoice service.
type InvoiceHandler struct {
	invoiceService services.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(is services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: is}
}

// GetInvoices lists issued invoices for the admin dashboard.
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	page, pageSize := parsePagination(c, 20)
	invoices, totalCount, err := h.invoiceService.GetInvoices(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetInvoices: Error from invoiceService.GetInvoices")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch invoices.", "Internal error"))
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices, "total": totalCount})
}

// GetInvoiceByID fetches a single invoice by its row ID.
func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	invoiceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoiceByID(invoiceID)
	if err != nil {
		h.respondInvoiceError(c, err, "GetInvoiceByID")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// GetInvoiceByOrderID fetches the invoice issued for an order.
func (h *InvoiceHandler) GetInvoiceByOrderID(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetInvoiceByOrderID(orderID)
	if err != nil {
		h.respondInvoiceError(c, err, "GetInvoiceByOrderID")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// ResendInvoice re-emails an issued invoice. Safe to retry; numbering and
// amounts never change, only the email bookkeeping fields.
func (h *InvoiceHandler) ResendInvoice(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.ResendInvoice(orderID)
	if err != nil {
		h.respondInvoiceError(c, err, "ResendInvoice")
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) respondInvoiceError(c *gin.Context, err error, opName string) {
	switch {
	case errors.Is(err, services.ErrInvoiceNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Invoice not found.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid invoice request.", err.Error()))
	default:
		utils.LogError(err, opName+": Error from invoiceService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Invoice operation failed.", "Internal error"))
	}
}
