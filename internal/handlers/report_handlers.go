package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/services"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler holds the report service.
type ReportHandler struct {
	reportService services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GetPayments handles fetching the payment history with filters and pagination.
func (h *ReportHandler) GetPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.PaymentFilters{Page: page, PageSize: pageSize}
	if tableIDStr := c.Query("table_id"); tableIDStr != "" {
		id, err := utils.StrToInt64(tableIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid table_id format.", err.Error()))
			return
		}
		filters.TableID = &id
	}
	if method := c.Query("method"); method != "" {
		filters.Method = &method
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}

	records, totalCount, err := h.reportService.GetPayments(filters)
	if err != nil {
		utils.LogError(err, "GetPayments: Error from reportService.GetPayments")
		if errors.Is(err, services.ErrReportValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payments.", "Internal error"))
		}
		return
	}
	if records == nil {
		records = []models.PaymentRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      records,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetPaymentByID handles fetching a single payment record.
func (h *ReportHandler) GetPaymentByID(c *gin.Context) {
	paymentID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	record, err := h.reportService.GetPaymentByID(paymentID)
	if err != nil {
		utils.LogError(err, "GetPaymentByID: Error from reportService.GetPaymentByID")
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment record not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetSalesReport handles building the daily sales summary. Defaults to today
// when no date is given.
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	date := c.Query("date")

	report, err := h.reportService.GetSalesReport(date)
	if err != nil {
		utils.LogError(err, "GetSalesReport: Error from reportService.GetSalesReport")
		if errors.Is(err, services.ErrInvalidReportPeriod) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build sales report.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, report)
}
