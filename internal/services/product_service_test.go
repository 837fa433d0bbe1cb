package services

import (
	"errors"
	"testing"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/storage"
)

func newTestProductService(t *testing.T) (ProductService, *storage.FileStore) {
	t.Helper()
	store := newTestStore(t)
	return NewProductService(store, store), store
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestProductService(t)

	if _, err := svc.CreateProduct(CreateProductRequest{Name: " ", Category: "Food", Price: 1000}); !errors.Is(err, ErrProductValidation) {
		t.Errorf("blank name: got %v, want ErrProductValidation", err)
	}
	if _, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: -1}); !errors.Is(err, ErrProductValidation) {
		t.Errorf("negative price: got %v, want ErrProductValidation", err)
	}

	product, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: 30000, Stock: 15})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.LastOpnameDate != nil || product.LastOpnameDifference != nil {
		t.Errorf("new product should have no opname fields set: %+v", product)
	}
}

func TestStockOpnameRecordsDifference(t *testing.T) {
	svc, _ := newTestProductService(t)
	product, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: 30000, Stock: 20})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	// Physical count found 17, three short of the recorded 20.
	updated, record, err := svc.StockOpname(product.ID, StockOpnameRequest{ActualStock: 17})
	if err != nil {
		t.Fatalf("StockOpname: %v", err)
	}

	if updated.Stock != 17 {
		t.Errorf("stock after opname = %d, want 17", updated.Stock)
	}
	if updated.LastOpnameDate == nil {
		t.Errorf("opname should stamp LastOpnameDate")
	}
	if updated.LastOpnameDifference == nil || *updated.LastOpnameDifference != -3 {
		t.Errorf("LastOpnameDifference = %v, want -3", updated.LastOpnameDifference)
	}

	if record.Type != models.StockHistoryOpname {
		t.Errorf("record type = %s, want opname", record.Type)
	}
	if record.OldStock != 20 || record.NewStock != 17 || record.Adjustment != -3 {
		t.Errorf("record = %+v, want 20 -> 17 adjustment -3", record)
	}
	if record.ValueImpact != -90000 {
		t.Errorf("value impact = %v, want -90000 (-3 x 30000)", record.ValueImpact)
	}
}

func TestStockOpnameMatchingCountIsZeroDifference(t *testing.T) {
	svc, _ := newTestProductService(t)
	product, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: 30000, Stock: 20})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	updated, record, err := svc.StockOpname(product.ID, StockOpnameRequest{ActualStock: 20})
	if err != nil {
		t.Fatalf("StockOpname: %v", err)
	}
	if updated.Stock != 20 {
		t.Errorf("stock = %d, want unchanged 20", updated.Stock)
	}
	if record.Adjustment != 0 || record.ValueImpact != 0 {
		t.Errorf("matching count should record zero adjustment: %+v", record)
	}
}

func TestAdjustStock(t *testing.T) {
	svc, _ := newTestProductService(t)
	product, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: 30000, Stock: 5})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	updated, record, err := svc.AdjustStock(product.ID, AdjustStockRequest{Adjustment: 10, Type: "restock"})
	if err != nil {
		t.Fatalf("AdjustStock restock: %v", err)
	}
	if updated.Stock != 15 {
		t.Errorf("stock after restock = %d, want 15", updated.Stock)
	}
	if record.Type != models.StockHistoryRestock {
		t.Errorf("record type = %s, want restock", record.Type)
	}
	// Restock must not touch opname bookkeeping.
	if updated.LastOpnameDate != nil {
		t.Errorf("restock should not set LastOpnameDate")
	}

	if _, _, err := svc.AdjustStock(product.ID, AdjustStockRequest{Adjustment: -100, Type: "correction"}); !errors.Is(err, ErrStockValidation) {
		t.Errorf("below-zero adjustment: got %v, want ErrStockValidation", err)
	}
	if _, _, err := svc.AdjustStock(product.ID, AdjustStockRequest{Adjustment: 1, Type: "opname"}); !errors.Is(err, ErrInvalidStockHistory) {
		t.Errorf("opname via AdjustStock: got %v, want ErrInvalidStockHistory", err)
	}
}

func TestStockHistoryIsAppendOnlyLog(t *testing.T) {
	svc, _ := newTestProductService(t)
	product, err := svc.CreateProduct(CreateProductRequest{Name: "Sate", Category: "Food", Price: 30000, Stock: 10})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if _, _, err := svc.AdjustStock(product.ID, AdjustStockRequest{Adjustment: 5, Type: "restock"}); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if _, _, err := svc.StockOpname(product.ID, StockOpnameRequest{ActualStock: 12}); err != nil {
		t.Fatalf("StockOpname: %v", err)
	}

	records, total, err := svc.GetStockHistory(models.StockHistoryFilters{})
	if err != nil {
		t.Fatalf("GetStockHistory: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Fatalf("history entries = %d, want 2", total)
	}

	opnameType := "opname"
	records, total, err = svc.GetStockHistory(models.StockHistoryFilters{Type: &opnameType})
	if err != nil {
		t.Fatalf("GetStockHistory filtered: %v", err)
	}
	if total != 1 || records[0].Type != models.StockHistoryOpname {
		t.Errorf("type filter returned %d entries of %s", total, records[0].Type)
	}

	badType := "theft"
	if _, _, err := svc.GetStockHistory(models.StockHistoryFilters{Type: &badType}); !errors.Is(err, ErrInvalidStockHistory) {
		t.Errorf("invalid type filter: got %v, want ErrInvalidStockHistory", err)
	}
}

func TestUpdateProductMissingIsError(t *testing.T) {
	svc, _ := newTestProductService(t)
	name := "Ghost"
	if _, err := svc.UpdateProduct(99, UpdateProductRequest{Name: &name}); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("update missing product: got %v, want ErrProductNotFound", err)
	}
	if err := svc.DeleteProduct(99); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("delete missing product: got %v, want ErrProductNotFound", err)
	}
}
