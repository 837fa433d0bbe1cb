package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// --- Custom Service Errors for Products ---
var (
	ErrProductNotFound        = errors.New("product not found")
	ErrProductValidation      = errors.New("product data validation error")
	ErrStockValidation        = errors.New("stock adjustment validation error")
	ErrInvalidStockHistory    = errors.New("invalid stock history type")
	ErrStockHistoryPagination = errors.New("invalid pagination parameters")
)

// --- Product DTOs ---

type CreateProductRequest struct {
	Name     string  `json:"name" binding:"required"`
	Category string  `json:"category" binding:"required"`
	Price    float64 `json:"price" binding:"required,gte=0"`
	Stock    int     `json:"stock" binding:"gte=0"`
	Image    *string `json:"image"`
}

type UpdateProductRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Image    *string  `json:"image"`
}

// StockOpnameRequest carries the physically counted quantity for one product.
type StockOpnameRequest struct {
	ActualStock int     `json:"actual_stock" binding:"gte=0"`
	Notes       *string `json:"notes"`
}

// AdjustStockRequest applies a signed delta outside of opname, e.g. a
// supplier restock or a manual correction.
type AdjustStockRequest struct {
	Adjustment int     `json:"adjustment" binding:"required"`
	Type       string  `json:"type" binding:"required"`
	Notes      *string `json:"notes"`
}

// --- ProductService Interface ---
type ProductService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, error)
	GetProductByID(productID int64) (*models.Product, error)
	UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(productID int64) error
	// StockOpname reconciles recorded stock against a physical count and
	// appends the difference to the stock history.
	StockOpname(productID int64, req StockOpnameRequest) (*models.Product, *models.StockHistoryRecord, error)
	AdjustStock(productID int64, req AdjustStockRequest) (*models.Product, *models.StockHistoryRecord, error)
	GetStockHistory(filters models.StockHistoryFilters) ([]models.StockHistoryRecord, int, error)
}

type productService struct {
	productRepo repositories.ProductRepository
	historyRepo repositories.StockHistoryRepository
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, hr repositories.StockHistoryRepository) ProductService {
	return &productService{productRepo: pr, historyRepo: hr}
}

func (s *productService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" || category == "" {
		return nil, fmt.Errorf("%w: name and category are required", ErrProductValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be a non-negative number", ErrProductValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be a non-negative number", ErrProductValidation)
	}

	product := &models.Product{
		Name:     name,
		Category: category,
		Price:    req.Price,
		Stock:    req.Stock,
		Image:    req.Image,
	}
	created, err := s.productRepo.CreateProduct(product)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return created, nil
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, error) {
	products, err := s.productRepo.GetProducts(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

func (s *productService) GetProductByID(productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return product, nil
}

func (s *productService) UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetProductByID(productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrProductValidation)
		}
		product.Name = name
	}
	if req.Category != nil {
		category := strings.TrimSpace(*req.Category)
		if category == "" {
			return nil, fmt.Errorf("%w: category cannot be empty", ErrProductValidation)
		}
		product.Category = category
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price must be a non-negative number", ErrProductValidation)
		}
		product.Price = *req.Price
	}
	if req.Image != nil {
		product.Image = req.Image
	}

	updated, err := s.productRepo.UpdateProduct(product)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return updated, nil
}

func (s *productService) DeleteProduct(productID int64) error {
	err := s.productRepo.DeleteProduct(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) StockOpname(productID int64, req StockOpnameRequest) (*models.Product, *models.StockHistoryRecord, error) {
	if req.ActualStock < 0 {
		return nil, nil, fmt.Errorf("%w: actual stock must be a non-negative number", ErrStockValidation)
	}

	product, err := s.GetProductByID(productID)
	if err != nil {
		return nil, nil, err
	}

	difference := req.ActualStock - product.Stock
	now := time.Now()
	updated, err := s.productRepo.SetStock(productID, req.ActualStock, &now, &difference)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to apply opname for product %d: %w", productID, err)
	}

	record, err := s.appendHistory(product, difference, req.ActualStock, models.StockHistoryOpname, req.Notes, now)
	if err != nil {
		return nil, nil, err
	}
	return updated, record, nil
}

func (s *productService) AdjustStock(productID int64, req AdjustStockRequest) (*models.Product, *models.StockHistoryRecord, error) {
	historyType := models.StockHistoryType(req.Type)
	if historyType != models.StockHistoryRestock && historyType != models.StockHistoryCorrection {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidStockHistory, req.Type)
	}
	if req.Adjustment == 0 {
		return nil, nil, fmt.Errorf("%w: adjustment cannot be zero", ErrStockValidation)
	}

	product, err := s.GetProductByID(productID)
	if err != nil {
		return nil, nil, err
	}

	newStock := product.Stock + req.Adjustment
	if newStock < 0 {
		return nil, nil, fmt.Errorf("%w: adjustment would take %s below zero stock", ErrStockValidation, product.Name)
	}

	updated, err := s.productRepo.SetStock(productID, newStock, nil, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to adjust stock for product %d: %w", productID, err)
	}

	record, err := s.appendHistory(product, req.Adjustment, newStock, historyType, req.Notes, time.Now())
	if err != nil {
		return nil, nil, err
	}
	return updated, record, nil
}

// appendHistory writes one immutable stock history entry. ValueImpact is the
// money value of the stock moved at the product's current price.
func (s *productService) appendHistory(product *models.Product, adjustment, newStock int, historyType models.StockHistoryType, notes *string, at time.Time) (*models.StockHistoryRecord, error) {
	record := &models.StockHistoryRecord{
		ProductID:   product.ID,
		ProductName: product.Name,
		OldStock:    product.Stock,
		Adjustment:  adjustment,
		NewStock:    newStock,
		Type:        historyType,
		Notes:       notes,
		ValueImpact: math.Round(float64(adjustment) * product.Price),
		Date:        at,
	}
	saved, err := s.historyRepo.CreateRecord(record)
	if err != nil {
		return nil, fmt.Errorf("failed to record stock history: %w", err)
	}
	return saved, nil
}

func (s *productService) GetStockHistory(filters models.StockHistoryFilters) ([]models.StockHistoryRecord, int, error) {
	if filters.Page < 0 || filters.PageSize < 0 {
		return nil, 0, ErrStockHistoryPagination
	}
	if filters.Type != nil && !models.IsValidStockHistoryType(*filters.Type) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStockHistory, *filters.Type)
	}
	records, total, err := s.historyRepo.GetRecords(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock history: %w", err)
	}
	return records, total, nil
}
