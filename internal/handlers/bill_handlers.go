package handlers

import (
	"errors"
	"net/http"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/services"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BillHandler holds the bill service.
type BillHandler struct {
	billService services.BillService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(bs services.BillService) *BillHandler {
	return &BillHandler{billService: bs}
}

// HoldBill handles creating or replacing the active bill for a table.
func (h *BillHandler) HoldBill(c *gin.Context) {
	var req services.HoldBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billService.HoldBill(req)
	if err != nil {
		utils.LogError(err, "HoldBill: Error from billService.HoldBill")
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Table not found.", err.Error()))
		} else if errors.Is(err, services.ErrBillValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to hold bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// GetBills handles fetching all active bills.
func (h *BillHandler) GetBills(c *gin.Context) {
	bills, err := h.billService.GetBills()
	if err != nil {
		utils.LogError(err, "GetBills: Error from billService.GetBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", "Internal error"))
		return
	}
	if bills == nil {
		bills = []models.ActiveBill{}
	}
	c.JSON(http.StatusOK, gin.H{"data": bills})
}

// GetBillByID handles fetching a single active bill by ID.
func (h *BillHandler) GetBillByID(c *gin.Context) {
	billID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	bill, err := h.billService.GetBillByID(billID)
	if err != nil {
		utils.LogError(err, "GetBillByID: Error from billService.GetBillByID")
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, bill)
}

// GetBillByTable handles fetching the active bill held against a table.
func (h *BillHandler) GetBillByTable(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	bill, err := h.billService.GetBillByTableID(tableID)
	if err != nil {
		utils.LogError(err, "GetBillByTable: Error from billService.GetBillByTableID")
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No active bill for this table.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, bill)
}

// CancelHold handles discarding a table's held bill and freeing the table.
func (h *BillHandler) CancelHold(c *gin.Context) {
	tableID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.billService.CancelHold(tableID); err != nil {
		utils.LogError(err, "CancelHold: Error from billService.CancelHold")
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No active bill for this table.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to cancel hold.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Hold cancelled successfully"})
}

// CompletePayment handles settling an active bill.
func (h *BillHandler) CompletePayment(c *gin.Context) {
	billID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.CompletePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	if req.CashierID == nil {
		if userID, exists := c.Get("userID"); exists {
			if id, ok := userID.(int64); ok {
				req.CashierID = &id
			}
		}
	}

	record, err := h.billService.CompletePayment(c.Request.Context(), billID, req)
	if err != nil {
		utils.LogError(err, "CompletePayment: Error from billService.CompletePayment")
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else if errors.Is(err, services.ErrInsufficientPayment) || errors.Is(err, services.ErrPaymentValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else if errors.Is(err, services.ErrPaymentFailed) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodePaymentFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, record)
}
