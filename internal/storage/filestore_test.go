package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	table, err := store.CreateTable(&models.Table{Number: "T1", Capacity: 4, Status: models.TableStatusAvailable})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	product, err := store.CreateProduct(&models.Product{Name: "Nasi Goreng", Category: "Food", Price: 25000, Stock: 10})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if _, err := store.UpsertForTable(&models.ActiveBill{
		TableID:       table.ID,
		Items:         []models.BillItem{{ID: product.ID, Name: product.Name, Price: product.Price, Quantity: 2, Subtotal: 50000}},
		Subtotal:      50000,
		Tax:           5000,
		Total:         55000,
		PaymentStatus: models.PaymentStatusHold,
	}); err != nil {
		t.Fatalf("UpsertForTable: %v", err)
	}

	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore (reopen): %v", err)
	}

	gotTable, err := reopened.GetTableByID(table.ID)
	if err != nil {
		t.Fatalf("GetTableByID after reopen: %v", err)
	}
	if gotTable.Number != "T1" || gotTable.Capacity != 4 {
		t.Errorf("reopened table = %+v, want number T1 capacity 4", gotTable)
	}

	bill, err := reopened.GetBillByTableID(table.ID)
	if err != nil {
		t.Fatalf("GetBillByTableID after reopen: %v", err)
	}
	if bill.Total != 55000 || len(bill.Items) != 1 {
		t.Errorf("reopened bill = %+v, want total 55000 with one item", bill)
	}
	if bill.TableNumber != "T1" {
		t.Errorf("bill.TableNumber = %q, want T1", bill.TableNumber)
	}
}

func TestFileStoreMalformedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore on malformed file: %v", err)
	}
	tables, err := store.GetTables(models.TableFilters{})
	if err != nil {
		t.Fatalf("GetTables: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("expected empty store after malformed file, got %d tables", len(tables))
	}
}

func TestFileStoreDuplicateTableNumber(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateTable(&models.Table{Number: "T1", Capacity: 2}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	_, err := store.CreateTable(&models.Table{Number: "T1", Capacity: 6})
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey for duplicate number, got %v", err)
	}
}

func TestFileStoreUpsertReplacesPriorBill(t *testing.T) {
	store := newTestStore(t)
	table, err := store.CreateTable(&models.Table{Number: "T2", Capacity: 2})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	first, err := store.UpsertForTable(&models.ActiveBill{TableID: table.ID, Items: []models.BillItem{}, Total: 10000, PaymentStatus: models.PaymentStatusHold})
	if err != nil {
		t.Fatalf("first UpsertForTable: %v", err)
	}
	second, err := store.UpsertForTable(&models.ActiveBill{TableID: table.ID, Items: []models.BillItem{}, Total: 20000, PaymentStatus: models.PaymentStatusHold})
	if err != nil {
		t.Fatalf("second UpsertForTable: %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("expected replacement bill to get a fresh ID")
	}

	bills, err := store.GetBills()
	if err != nil {
		t.Fatalf("GetBills: %v", err)
	}
	if len(bills) != 1 {
		t.Fatalf("expected exactly one bill per table, got %d", len(bills))
	}
	if bills[0].Total != 20000 {
		t.Errorf("surviving bill total = %v, want 20000", bills[0].Total)
	}

	if _, err := store.GetBillByID(first.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("expected replaced bill to be gone, got %v", err)
	}
}

func TestFileStoreUpdateTableStatusDropsBooking(t *testing.T) {
	store := newTestStore(t)
	table, err := store.CreateTable(&models.Table{Number: "T3", Capacity: 2})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	booking := &models.BookingInfo{CustomerName: "Budi", BookingTime: time.Now().Add(time.Hour), CreatedAt: time.Now()}
	booked, err := store.UpdateTableStatus(table.ID, models.TableStatusBooked, booking)
	if err != nil {
		t.Fatalf("UpdateTableStatus to booked: %v", err)
	}
	if booked.BookingInfo == nil || booked.BookingInfo.CustomerName != "Budi" {
		t.Fatalf("expected booking info to be attached, got %+v", booked.BookingInfo)
	}

	freed, err := store.UpdateTableStatus(table.ID, models.TableStatusAvailable, nil)
	if err != nil {
		t.Fatalf("UpdateTableStatus to available: %v", err)
	}
	if freed.BookingInfo != nil {
		t.Errorf("expected booking info to be dropped, got %+v", freed.BookingInfo)
	}
}

func TestFileStoreStockHistoryPagination(t *testing.T) {
	store := newTestStore(t)
	product, err := store.CreateProduct(&models.Product{Name: "Es Teh", Category: "Drink", Price: 5000, Stock: 50})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := store.CreateRecord(&models.StockHistoryRecord{
			ProductID:   product.ID,
			ProductName: product.Name,
			OldStock:    50 - i,
			Adjustment:  -1,
			NewStock:    49 - i,
			Type:        models.StockHistoryCorrection,
			Date:        time.Now(),
		}); err != nil {
			t.Fatalf("CreateRecord %d: %v", i, err)
		}
	}

	records, total, err := store.GetRecords(models.StockHistoryFilters{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(records) != 2 {
		t.Errorf("page of records = %d entries, want 2", len(records))
	}
}

func TestFileStorePaymentDateFilter(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)

	for _, paidAt := range []time.Time{now, now, yesterday} {
		if _, err := store.CreatePayment(&models.PaymentRecord{
			Items:  []models.BillItem{},
			Total:  10000,
			Method: "cash",
			PaidAt: paidAt,
		}); err != nil {
			t.Fatalf("CreatePayment: %v", err)
		}
	}

	today := now.Format("2006-01-02")
	records, total, err := store.GetPayments(models.PaymentFilters{Date: &today})
	if err != nil {
		t.Fatalf("GetPayments: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Errorf("payments on %s: total=%d len=%d, want 2 and 2", today, total, len(records))
	}
}
