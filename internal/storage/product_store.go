package storage

import (
	"sort"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// Product catalog and stock history operations. FileStore satisfies
// repositories.ProductRepository and repositories.StockHistoryRepository.

func (s *FileStore) CreateProduct(product *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	currentTime := time.Now()
	product.ID = s.nextID("products")
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime

	s.data.Products = append(s.data.Products, copyProduct(*product))
	s.markDirty()
	return product, nil
}

func (s *FileStore) GetProducts(filters models.ProductFilters) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := []models.Product{}
	for _, product := range s.data.Products {
		if filters.Category != nil && *filters.Category != "" && product.Category != *filters.Category {
			continue
		}
		if filters.Search != nil && *filters.Search != "" &&
			!strings.Contains(strings.ToLower(product.Name), strings.ToLower(*filters.Search)) {
			continue
		}
		products = append(products, copyProduct(product))
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

func (s *FileStore) GetProductByID(id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, product := range s.data.Products {
		if product.ID == id {
			out := copyProduct(product)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) UpdateProduct(product *models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Products {
		if s.data.Products[i].ID == product.ID {
			s.data.Products[i].Name = product.Name
			s.data.Products[i].Category = product.Category
			s.data.Products[i].Price = product.Price
			s.data.Products[i].Stock = product.Stock
			s.data.Products[i].Image = copyStringPtr(product.Image)
			s.data.Products[i].UpdatedAt = time.Now()
			s.markDirty()
			out := copyProduct(s.data.Products[i])
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) SetStock(id int64, newStock int, opnameDate *time.Time, opnameDifference *int) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Products {
		if s.data.Products[i].ID == id {
			s.data.Products[i].Stock = newStock
			if opnameDate != nil {
				v := *opnameDate
				s.data.Products[i].LastOpnameDate = &v
			}
			if opnameDifference != nil {
				s.data.Products[i].LastOpnameDifference = copyIntPtr(opnameDifference)
			}
			s.data.Products[i].UpdatedAt = time.Now()
			s.markDirty()
			out := copyProduct(s.data.Products[i])
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) DeleteProduct(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Products {
		if s.data.Products[i].ID == id {
			s.data.Products = append(s.data.Products[:i], s.data.Products[i+1:]...)
			s.markDirty()
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *FileStore) CreateRecord(record *models.StockHistoryRecord) (*models.StockHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.nextID("stock_history")
	if record.Date.IsZero() {
		record.Date = time.Now()
	}

	s.data.StockHistory = append(s.data.StockHistory, copyStockHistory(*record))
	s.markDirty()
	return record, nil
}

func (s *FileStore) GetRecords(filters models.StockHistoryFilters) ([]models.StockHistoryRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.StockHistoryRecord{}
	for _, record := range s.data.StockHistory {
		if filters.ProductID != nil && record.ProductID != *filters.ProductID {
			continue
		}
		if filters.Type != nil && *filters.Type != "" && string(record.Type) != *filters.Type {
			continue
		}
		matched = append(matched, copyStockHistory(record))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Date.After(matched[j].Date) })

	totalCount := len(matched)
	return paginate(matched, filters.Page, filters.PageSize), totalCount, nil
}

// paginate slices a result set the same way the SQL LIMIT/OFFSET path does.
func paginate[T any](items []T, page, pageSize int) []T {
	if pageSize <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
