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

// MenuHandler holds the menu service.
type MenuHandler struct {
	menuService services.MenuService
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// GetMenu is the public menu listing: available items plus active options.
func (h *MenuHandler) GetMenu(c *gin.Context) {
	page, pageSize := parsePagination(c, 100)

	items, totalCount, err := h.menuService.GetMenuItems(false, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMenu: failed to fetch menu items")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}
	sauces, err := h.menuService.GetSauceOptions(true)
	if err != nil {
		utils.LogError(err, "GetMenu: failed to fetch sauce options")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}
	friesOptions, err := h.menuService.GetFriesOptions(true)
	if err != nil {
		utils.LogError(err, "GetMenu: failed to fetch fries options")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu.", "Internal error"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":         items,
		"total":         totalCount,
		"sauces":        sauces,
		"fries_options": friesOptions,
	})
}

// GetMenuItems is the admin listing, including unavailable items.
func (h *MenuHandler) GetMenuItems(c *gin.Context) {
	page, pageSize := parsePagination(c, 50)
	items, totalCount, err := h.menuService.GetMenuItems(true, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMenuItems: failed to fetch menu items")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch menu items.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": totalCount})
}

// GetMenuItemByID fetches a single menu item.
func (h *MenuHandler) GetMenuItemByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	item, err := h.menuService.GetMenuItemByID(id)
	if err != nil {
		h.respondMenuError(c, err, "GetMenuItemByID")
		return
	}
	c.JSON(http.StatusOK, item)
}

// CreateMenuItem handles admin creation of menu items.
func (h *MenuHandler) CreateMenuItem(c *gin.Context) {
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if err := h.menuService.CreateMenuItem(&item); err != nil {
		h.respondMenuError(c, err, "CreateMenuItem")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateMenuItem handles admin updates. Historical orders keep their price
// snapshots, so price edits here are safe.
func (h *MenuHandler) UpdateMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var item models.MenuItem
	if err := c.ShouldBindJSON(&item); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	item.ID = id
	if err := h.menuService.UpdateMenuItem(&item); err != nil {
		h.respondMenuError(c, err, "UpdateMenuItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteMenuItem soft-deletes a menu item.
func (h *MenuHandler) DeleteMenuItem(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.menuService.DeleteMenuItem(id); err != nil {
		h.respondMenuError(c, err, "DeleteMenuItem")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}

// SetMenuItemAvailability toggles whether an item can be ordered.
func (h *MenuHandler) SetMenuItemAvailability(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if err := h.menuService.SetMenuItemAvailability(id, *req.IsAvailable); err != nil {
		h.respondMenuError(c, err, "SetMenuItemAvailability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated"})
}

// CreateSauceOption handles admin creation of sauces.
func (h *MenuHandler) CreateSauceOption(c *gin.Context) {
	var sauce models.SauceOption
	if err := c.ShouldBindJSON(&sauce); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if err := h.menuService.CreateSauceOption(&sauce); err != nil {
		h.respondMenuError(c, err, "CreateSauceOption")
		return
	}
	c.JSON(http.StatusCreated, sauce)
}

// CreateFriesOption handles admin creation of fries upgrades.
func (h *MenuHandler) CreateFriesOption(c *gin.Context) {
	var fries models.FriesOption
	if err := c.ShouldBindJSON(&fries); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if err := h.menuService.CreateFriesOption(&fries); err != nil {
		h.respondMenuError(c, err, "CreateFriesOption")
		return
	}
	c.JSON(http.StatusCreated, fries)
}

func (h *MenuHandler) respondMenuError(c *gin.Context, err error, opName string) {
	switch {
	case errors.Is(err, services.ErrMenuItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, services.ErrMenuItemExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu item slug already exists.", err.Error()))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid menu data.", err.Error()))
	default:
		utils.LogError(err, opName+": Error from menuService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Menu operation failed.", "Internal error"))
	}
}

func parsePagination(c *gin.Context, defaultPageSize int) (int, int) {
	page := 1
	pageSize := defaultPageSize
	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 {
			pageSize = ps
		}
	}
	return page, pageSize
}
