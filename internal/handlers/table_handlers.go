package handlers

import (
	"errors"
	"net/http"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/services"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// TableHandler holds the table and cart services. The cart service is needed
// so deleting a table also drops any cashier selection pointing at it.
type TableHandler struct {
	tableService services.TableService
	cartService  services.CartService
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(ts services.TableService, cs services.CartService) *TableHandler {
	return &TableHandler{tableService: ts, cartService: cs}
}

// CreateTable handles the creation of a new dining table.
func (h *TableHandler) CreateTable(c *gin.Context) {
	var req services.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.CreateTable(req)
	if err != nil {
		utils.LogError(err, "CreateTable: Error from tableService.CreateTable")
		if errors.Is(err, services.ErrDuplicateTableNumber) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		} else if errors.Is(err, services.ErrTableValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, table)
}

// GetTables handles fetching all tables with an optional status filter.
func (h *TableHandler) GetTables(c *gin.Context) {
	var filters models.TableFilters
	if statusStr := c.Query("status"); statusStr != "" {
		if !models.IsValidTableStatus(statusStr) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid status value.", "status: "+statusStr))
			return
		}
		filters.Status = &statusStr
	}

	tables, err := h.tableService.GetTables(filters)
	if err != nil {
		utils.LogError(err, "GetTables: Error from tableService.GetTables")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch tables.", "Internal error"))
		return
	}
	if tables == nil {
		tables = []models.Table{}
	}
	c.JSON(http.StatusOK, gin.H{"data": tables})
}

// GetTableByID handles fetching a single table by ID.
func (h *TableHandler) GetTableByID(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	table, err := h.tableService.GetTableByID(tableID)
	if err != nil {
		utils.LogError(err, "GetTableByID: Error from tableService.GetTableByID")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTable handles updating a table's number or capacity.
func (h *TableHandler) UpdateTable(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.UpdateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.UpdateTable(tableID, req)
	if err != nil {
		utils.LogError(err, "UpdateTable: Error from tableService.UpdateTable")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrDuplicateTableNumber) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		} else if errors.Is(err, services.ErrTableValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update table.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateTableStatus handles a direct status change on a table.
func (h *TableHandler) UpdateTableStatus(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.UpdateTableStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.UpdateTableStatus(tableID, req)
	if err != nil {
		utils.LogError(err, "UpdateTableStatus: Error from tableService.UpdateTableStatus")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidTableStatus) || errors.Is(err, services.ErrBookingValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update table status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// DeleteTable handles deleting a table. Any held bill for the table is
// removed and cashier carts pointing at it are cleared.
func (h *TableHandler) DeleteTable(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.tableService.DeleteTable(tableID); err != nil {
		utils.LogError(err, "DeleteTable: Error from tableService.DeleteTable")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete table.", "Internal error"))
		}
		return
	}
	h.cartService.ReleaseTable(tableID)
	c.JSON(http.StatusOK, gin.H{"message": "Table deleted successfully"})
}

// AddBooking handles reserving a table for a customer.
func (h *TableHandler) AddBooking(c *gin.Context) {
	var req services.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	table, err := h.tableService.AddBooking(req)
	if err != nil {
		utils.LogError(err, "AddBooking: Error from tableService.AddBooking")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else if errors.Is(err, services.ErrTableOccupied) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
		} else if errors.Is(err, services.ErrBookingValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create booking.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, table)
}

// CancelBooking handles releasing a booked table back to available.
func (h *TableHandler) CancelBooking(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	table, err := h.tableService.CancelBooking(tableID)
	if err != nil {
		utils.LogError(err, "CancelBooking: Error from tableService.CancelBooking")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel booking.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// parseIDParam parses a numeric path parameter and writes the error response
// itself, so callers just return on failure.
func parseIDParam(c *gin.Context, name string) (int64, error) {
	idStr := c.Param(name)
	id, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, err
	}
	return id, nil
}
