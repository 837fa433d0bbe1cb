package handlers

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/services"
	"kasir_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/nfnt/resize"
)

const (
	productUploadDir   = "./uploads/products"
	productImageWidth  = 800
	productJPEGQuality = 80
)

// ProductHandler holds the product service.
type ProductHandler struct {
	productService services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService) *ProductHandler {
	return &ProductHandler{productService: ps}
}

// CreateProduct handles adding a product to the catalog.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(req)
	if err != nil {
		utils.LogError(err, "CreateProduct: Error from productService.CreateProduct")
		if errors.Is(err, services.ErrProductValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles fetching products with optional category and search filters.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	if search := c.Query("search"); search != "" {
		filters.Search = &search
	}

	products, err := h.productService.GetProducts(filters)
	if err != nil {
		utils.LogError(err, "GetProducts: Error from productService.GetProducts")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch products.", "Internal error"))
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"data": products})
}

// GetProductByID handles fetching a single product by ID.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	product, err := h.productService.GetProductByID(productID)
	if err != nil {
		utils.LogError(err, "GetProductByID: Error from productService.GetProductByID")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct handles updating a product's catalog fields.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(productID, req)
	if err != nil {
		utils.LogError(err, "UpdateProduct: Error from productService.UpdateProduct")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrProductValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles removing a product from the catalog.
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	if err := h.productService.DeleteProduct(productID); err != nil {
		utils.LogError(err, "DeleteProduct: Error from productService.DeleteProduct")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete product.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// UploadProductPhoto handles a multipart image upload for a product. The
// image is resized to a fixed width and stored on local disk as JPEG.
func (h *ProductHandler) UploadProductPhoto(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}
	if _, err := h.productService.GetProductByID(productID); err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch product.", "Internal error"))
		}
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Photo file is required.", err.Error()))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.LogError(err, "UploadProductPhoto: Failed to open uploaded file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to read uploaded file.", "Internal error"))
		return
	}
	defer file.Close()

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext {
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(file)
	case ".png":
		img, err = png.Decode(file)
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Unsupported image format. Use JPEG or PNG.", "ext: "+ext))
		return
	}
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Could not decode image.", err.Error()))
		return
	}

	resized := resize.Resize(productImageWidth, 0, img, resize.Lanczos3)

	if err := os.MkdirAll(productUploadDir, 0o755); err != nil {
		utils.LogError(err, "UploadProductPhoto: Failed to create upload directory")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store photo.", "Internal error"))
		return
	}

	filename := fmt.Sprintf("product_%d_%d.jpg", productID, time.Now().UnixNano())
	fullPath := filepath.Join(productUploadDir, filename)
	out, err := os.Create(fullPath)
	if err != nil {
		utils.LogError(err, "UploadProductPhoto: Failed to create photo file")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store photo.", "Internal error"))
		return
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: productJPEGQuality}); err != nil {
		utils.LogError(err, "UploadProductPhoto: Failed to encode photo")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to store photo.", "Internal error"))
		return
	}

	imagePath := "/uploads/products/" + filename
	product, err := h.productService.UpdateProduct(productID, services.UpdateProductRequest{Image: &imagePath})
	if err != nil {
		utils.LogError(err, "UploadProductPhoto: Failed to save image path")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to save photo reference.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, product)
}

// StockOpname handles reconciling a product's stock against a physical count.
func (h *ProductHandler) StockOpname(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.StockOpnameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, record, err := h.productService.StockOpname(productID, req)
	if err != nil {
		utils.LogError(err, "StockOpname: Error from productService.StockOpname")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else if errors.Is(err, services.ErrStockValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record stock opname.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product, "history": record})
}

// AdjustStock handles a restock or manual stock correction.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return
	}

	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, record, err := h.productService.AdjustStock(productID, req)
	if err != nil {
		utils.LogError(err, "AdjustStock: Error from productService.AdjustStock")
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else if errors.Is(err, services.ErrStockValidation) || errors.Is(err, services.ErrInvalidStockHistory) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to adjust stock.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product, "history": record})
}

// GetStockHistory handles fetching the stock movement log with filters and
// pagination.
func (h *ProductHandler) GetStockHistory(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filters := models.StockHistoryFilters{Page: page, PageSize: pageSize}
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		id, err := utils.StrToInt64(productIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product_id format.", err.Error()))
			return
		}
		filters.ProductID = &id
	}
	if typeStr := c.Query("type"); typeStr != "" {
		filters.Type = &typeStr
	}

	records, totalCount, err := h.productService.GetStockHistory(filters)
	if err != nil {
		utils.LogError(err, "GetStockHistory: Error from productService.GetStockHistory")
		if errors.Is(err, services.ErrInvalidStockHistory) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock history.", "Internal error"))
		}
		return
	}
	if records == nil {
		records = []models.StockHistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      records,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}
