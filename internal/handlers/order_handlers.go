package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"pcb_bistro_backend/internal/models"
	"pcb_bistro_backend/internal/services"
	"pcb_bistro_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// CreateOrder handles public order placement, including pricing, invoice
// issuance and the detached email dispatch.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	createdOrder, err := h.orderService.CreateOrder(req)
	if err != nil {
		utils.LogError(err, "CreateOrder: Error from orderService.CreateOrder")
		switch {
		case errors.Is(err, services.ErrMenuItemNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "One or more menu items not found or unavailable.", err.Error()))
		case errors.Is(err, services.ErrPaymentMismatch):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Captured payment does not match the order total.", err.Error()))
		case errors.Is(err, services.ErrValidation):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order data.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create order.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, createdOrder)
}

// GetOrders handles fetching all orders with filters for the admin dashboard.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	var filters models.OrderFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid filter parameters.", err.Error()))
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}

	orders, totalCount, err := h.orderService.GetOrders(filters)
	if err != nil {
		utils.LogError(err, "GetOrders: Error from orderService.GetOrders")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch orders.", "Internal error"))
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      orders,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

// GetOrderByID handles fetching one order with its items.
func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		h.respondTransitionError(c, err, "GetOrderByID")
		return
	}
	c.JSON(http.StatusOK, order)
}

// TrackOrder lets a customer look up their order by its public number.
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	orderNumber := c.Param("number")
	order, err := h.orderService.GetOrderByNumber(orderNumber)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", orderNumber))
			return
		}
		utils.LogError(err, "TrackOrder: Error from orderService.GetOrderByNumber")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch order.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, order)
}

// AcceptOrder confirms an order with a preparation estimate.
func (h *OrderHandler) AcceptOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.AcceptOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	order, err := h.orderService.AcceptOrder(orderID, req)
	if err != nil {
		h.respondTransitionError(c, err, "AcceptOrder")
		return
	}
	c.JSON(http.StatusOK, order)
}

// MarkPreparing moves the order into the kitchen.
func (h *OrderHandler) MarkPreparing(c *gin.Context) {
	h.simpleTransition(c, h.orderService.MarkPreparing, "MarkPreparing")
}

// MarkReady stamps the order as ready for pickup or dispatch.
func (h *OrderHandler) MarkReady(c *gin.Context) {
	h.simpleTransition(c, h.orderService.MarkReady, "MarkReady")
}

// MarkOutForDelivery flags a delivery order as on the road.
func (h *OrderHandler) MarkOutForDelivery(c *gin.Context) {
	h.simpleTransition(c, h.orderService.MarkOutForDelivery, "MarkOutForDelivery")
}

// CompleteOrder stamps the terminal success state.
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	h.simpleTransition(c, h.orderService.CompleteOrder, "CompleteOrder")
}

// CancelOrder cancels from any non-terminal status.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	h.simpleTransition(c, h.orderService.CancelOrder, "CancelOrder")
}

// RefundOrder marks a manual refund.
func (h *OrderHandler) RefundOrder(c *gin.Context) {
	h.simpleTransition(c, h.orderService.RefundOrder, "RefundOrder")
}

// UpdateOrderStatus handles a direct status-set request.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	order, err := h.orderService.SetOrderStatus(orderID, req)
	if err != nil {
		h.respondTransitionError(c, err, "UpdateOrderStatus")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) simpleTransition(c *gin.Context, transition func(int64) (*models.Order, error), opName string) {
	orderID, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := transition(orderID)
	if err != nil {
		h.respondTransitionError(c, err, opName)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) respondTransitionError(c *gin.Context, err error, opName string) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Order not found.", err.Error()))
	case errors.Is(err, services.ErrInvalidStatus):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid order status provided.", err.Error()))
	case errors.Is(err, services.ErrInvalidEstimate):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Estimated time must be positive.", err.Error()))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Order is already in a terminal status.", err.Error()))
	default:
		utils.LogError(err, opName+": Error from orderService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update order.", "Internal error"))
	}
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid id format.", err.Error()))
		return 0, false
	}
	return id, true
}
