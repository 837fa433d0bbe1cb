package handlers

import (
	"errors"
	"net/http"

	"kasir_pos_backend/internal/services"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CartHandler holds the cart service. Every route is scoped to the
// authenticated cashier, taken from the JWT claims.
type CartHandler struct {
	cartService services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cs services.CartService) *CartHandler {
	return &CartHandler{cartService: cs}
}

// cashierID extracts the authenticated user's ID set by AuthMiddleware.
func cashierID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", ""))
		return 0, false
	}
	id, ok := userID.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Invalid user ID in token.", ""))
		return 0, false
	}
	return id, true
}

// respondCartError maps cart service errors to HTTP responses.
func respondCartError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from cartService")
	switch {
	case errors.Is(err, services.ErrTableNotFound), errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCartItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), err.Error()))
	case errors.Is(err, services.ErrTableReserved):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), err.Error()))
	case errors.Is(err, services.ErrNoTableSelected), errors.Is(err, services.ErrCartEmpty),
		errors.Is(err, services.ErrInsufficientStock), errors.Is(err, services.ErrCartValidation),
		errors.Is(err, services.ErrInsufficientPayment), errors.Is(err, services.ErrPaymentValidation),
		errors.Is(err, services.ErrBillValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
	case errors.Is(err, services.ErrPaymentFailed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodePaymentFailed, err.Error(), err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to "+action+".", "Internal error"))
	}
}

// GetSession handles fetching the cashier's current cart.
func (h *CartHandler) GetSession(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.cartService.GetSession(id))
}

// SelectTable handles binding the cart to a dining table.
func (h *CartHandler) SelectTable(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}
	tableID, err := parseIDParam(c, "tableId")
	if err != nil {
		return
	}

	session, err := h.cartService.SelectTable(id, tableID)
	if err != nil {
		respondCartError(c, err, "select table")
		return
	}
	c.JSON(http.StatusOK, session)
}

// AddItem handles adding a product line to the cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}

	var req services.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	session, err := h.cartService.AddItem(id, req)
	if err != nil {
		respondCartError(c, err, "add item")
		return
	}
	c.JSON(http.StatusOK, session)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItemQuantity handles changing a cart line's quantity. A quantity
// below one removes the line.
func (h *CartHandler) UpdateItemQuantity(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	session, err := h.cartService.UpdateItemQuantity(id, productID, req.Quantity)
	if err != nil {
		respondCartError(c, err, "update item quantity")
		return
	}
	c.JSON(http.StatusOK, session)
}

// RemoveItem handles removing a product line from the cart.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		return
	}

	session, err := h.cartService.RemoveItem(id, productID)
	if err != nil {
		respondCartError(c, err, "remove item")
		return
	}
	c.JSON(http.StatusOK, session)
}

type setCustomerRequest struct {
	CustomerName string `json:"customer_name"`
}

// SetCustomer handles attaching a customer name to the cart.
func (h *CartHandler) SetCustomer(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}

	var req setCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.cartService.SetCustomerName(id, req.CustomerName))
}

type setPaymentMethodRequest struct {
	Method string `json:"method" binding:"required"`
}

// SetPaymentMethod handles selecting how the cart will be paid.
func (h *CartHandler) SetPaymentMethod(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}

	var req setPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.cartService.SetPaymentMethod(id, req.Method))
}

// OpenBill handles holding the cart as the table's active bill.
func (h *CartHandler) OpenBill(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}

	bill, err := h.cartService.OpenBill(id)
	if err != nil {
		respondCartError(c, err, "open bill")
		return
	}
	c.JSON(http.StatusCreated, bill)
}

// Checkout handles settling the cart in one step.
func (h *CartHandler) Checkout(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	record, err := h.cartService.Checkout(c.Request.Context(), id, req)
	if err != nil {
		respondCartError(c, err, "checkout")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Reset handles clearing the order in progress. The table selection survives.
func (h *CartHandler) Reset(c *gin.Context) {
	id, ok := cashierID(c)
	if !ok {
		return
	}
	h.cartService.Reset(id)
	c.JSON(http.StatusOK, h.cartService.GetSession(id))
}
