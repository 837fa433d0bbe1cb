package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/payment"
	"kasir_pos_backend/internal/storage"
	"kasir_pos_backend/pkg/utils"
)

func newTestBillService(t *testing.T) (BillService, TableService, *storage.FileStore) {
	t.Helper()
	store := newTestStore(t)
	billSvc := NewBillService(store, store, store, store, &payment.MockProcessor{}, time.Second)
	tableSvc := NewTableService(store, store)
	return billSvc, tableSvc, store
}

func seedProduct(t *testing.T, store *storage.FileStore, name string, price float64, stock int) *models.Product {
	t.Helper()
	product, err := store.CreateProduct(&models.Product{Name: name, Category: "Food", Price: price, Stock: stock})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", name, err)
	}
	return product
}

func TestHoldBillComputesTotalsAndOccupiesTable(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	productID := product.ID
	bill, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	if bill.Subtotal != 50000 {
		t.Errorf("subtotal = %v, want 50000", bill.Subtotal)
	}
	if bill.Tax != 5000 {
		t.Errorf("tax = %v, want 5000 (10%% of subtotal)", bill.Tax)
	}
	if bill.Total != 55000 {
		t.Errorf("total = %v, want 55000", bill.Total)
	}
	if bill.PaymentStatus != models.PaymentStatusHold {
		t.Errorf("payment status = %s, want hold", bill.PaymentStatus)
	}
	if bill.TableNumber != "T1" {
		t.Errorf("table number = %q, want T1", bill.TableNumber)
	}

	gotTable, err := tableSvc.GetTableByID(table.ID)
	if err != nil {
		t.Fatalf("GetTableByID: %v", err)
	}
	if gotTable.Status != models.TableStatusOccupied {
		t.Errorf("table status after hold = %s, want occupied", gotTable.Status)
	}
}

func TestHoldBillTaxIsRounded(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Kerupuk", 1115, 100)

	productID := product.ID
	bill, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}
	// 10% of 1115 is 111.5, which rounds to 112.
	if bill.Tax != 112 {
		t.Errorf("tax = %v, want 112", bill.Tax)
	}
	if bill.Total != 1227 {
		t.Errorf("total = %v, want 1227", bill.Total)
	}
}

func TestHoldBillEmptyItemsIsTransientDraft(t *testing.T) {
	billSvc, tableSvc, _ := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)

	bill, err := billSvc.HoldBill(HoldBillRequest{TableID: table.ID})
	if err != nil {
		t.Fatalf("HoldBill with no items: %v", err)
	}
	if bill.PaymentStatus != models.PaymentStatusDraft {
		t.Errorf("payment status = %s, want draft", bill.PaymentStatus)
	}

	bills, err := billSvc.GetBills()
	if err != nil {
		t.Fatalf("GetBills: %v", err)
	}
	if len(bills) != 0 {
		t.Errorf("draft bill should not be persisted, got %d bills", len(bills))
	}

	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("table should stay available after empty hold, got %s", gotTable.Status)
	}
}

func TestHoldBillValidationNamesItemIndex(t *testing.T) {
	billSvc, tableSvc, _ := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)

	_, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items: []HoldBillItemRequest{
			{Name: "Teh Manis", Price: 5000, Quantity: 1},
			{Name: "Kopi", Price: 8000, Quantity: 0},
		},
	})
	if !errors.Is(err, ErrBillValidation) {
		t.Fatalf("got %v, want ErrBillValidation", err)
	}
	if !strings.Contains(err.Error(), "item 2") {
		t.Errorf("error should name the offending 1-based item index, got %q", err.Error())
	}
}

func TestReHoldReplacesBillAndKeepsCreatedAt(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)
	productID := product.ID

	first, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("first HoldBill: %v", err)
	}

	second, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("second HoldBill: %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("re-hold should keep original CreatedAt: first=%v second=%v", first.CreatedAt, second.CreatedAt)
	}
	if second.UpdatedAt == nil {
		t.Errorf("re-hold should set UpdatedAt")
	}

	bills, _ := billSvc.GetBills()
	if len(bills) != 1 {
		t.Fatalf("expected one bill per table, got %d", len(bills))
	}
	if bills[0].Subtotal != 75000 {
		t.Errorf("surviving bill subtotal = %v, want 75000", bills[0].Subtotal)
	}
}

func TestCancelHoldFreesTable(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)
	productID := product.ID

	if _, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	}); err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	if err := billSvc.CancelHold(table.ID); err != nil {
		t.Fatalf("CancelHold: %v", err)
	}

	if _, err := billSvc.GetBillByTableID(table.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("bill should be gone after cancel, got %v", err)
	}
	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("table status after cancel = %s, want available", gotTable.Status)
	}

	if err := billSvc.CancelHold(table.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("cancelling again should report no bill, got %v", err)
	}
}

func TestCompletePaymentRejectsUnderpayment(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 50000, 10)
	productID := product.ID

	bill, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	_, err = billSvc.CompletePayment(context.Background(), bill.ID, CompletePaymentRequest{Amount: 50000, Method: "cash"})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("got %v, want ErrInsufficientPayment", err)
	}
	if want := utils.FormatRupiah(bill.Total); !strings.Contains(err.Error(), want) {
		t.Errorf("error %q should state the formatted minimum %q", err.Error(), want)
	}

	// The hold must survive a rejected payment.
	if _, err := billSvc.GetBillByID(bill.ID); err != nil {
		t.Errorf("bill should still exist after rejected payment: %v", err)
	}
}

func TestCompletePaymentSettlesBill(t *testing.T) {
	billSvc, tableSvc, store := newTestBillService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 50000, 10)
	productID := product.ID

	bill, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	record, err := billSvc.CompletePayment(context.Background(), bill.ID, CompletePaymentRequest{Amount: 60000, Method: "cash"})
	if err != nil {
		t.Fatalf("CompletePayment: %v", err)
	}
	if record.AmountPaid != 60000 {
		t.Errorf("amount paid = %v, want 60000", record.AmountPaid)
	}
	if record.Change != 60000-bill.Total {
		t.Errorf("change = %v, want %v", record.Change, 60000-bill.Total)
	}
	if record.Method != "cash" {
		t.Errorf("method = %q, want cash", record.Method)
	}

	if _, err := billSvc.GetBillByID(bill.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("bill should be closed after payment, got %v", err)
	}
	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("table status after payment = %s, want available", gotTable.Status)
	}

	payments, total, err := store.GetPayments(models.PaymentFilters{})
	if err != nil {
		t.Fatalf("GetPayments: %v", err)
	}
	if total != 1 || len(payments) != 1 {
		t.Fatalf("expected one payment record, got %d", total)
	}
}

func TestCompletePaymentDeclinedKeepsBill(t *testing.T) {
	store := newTestStore(t)
	declining := &payment.MockProcessor{FailureRate: 1}
	billSvc := NewBillService(store, store, store, store, declining, time.Second)
	tableSvc := NewTableService(store, store)

	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 50000, 10)
	productID := product.ID

	bill, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	_, err = billSvc.CompletePayment(context.Background(), bill.ID, CompletePaymentRequest{Amount: 60000, Method: "card"})
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("got %v, want ErrPaymentFailed", err)
	}

	if _, err := billSvc.GetBillByID(bill.ID); err != nil {
		t.Errorf("declined charge must leave the bill held: %v", err)
	}
	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusOccupied {
		t.Errorf("declined charge must leave the table occupied, got %s", gotTable.Status)
	}
}
