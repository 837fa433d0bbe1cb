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
)

const testCashierID int64 = 7

func newTestCartService(t *testing.T) (CartService, BillService, TableService, *storage.FileStore) {
	t.Helper()
	store := newTestStore(t)
	billSvc := NewBillService(store, store, store, store, &payment.MockProcessor{}, time.Second)
	cartSvc := NewCartService(store, store, billSvc)
	tableSvc := NewTableService(store, store)
	return cartSvc, billSvc, tableSvc, store
}

func TestAddItemRequiresTableSelection(t *testing.T) {
	cartSvc, _, _, store := newTestCartService(t)
	product := seedProduct(t, store, "Es Teh", 5000, 10)

	_, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID})
	if !errors.Is(err, ErrNoTableSelected) {
		t.Errorf("got %v, want ErrNoTableSelected", err)
	}
}

func TestSelectTableRejectsBooked(t *testing.T) {
	cartSvc, _, tableSvc, _ := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)

	if _, err := tableSvc.AddBooking(CreateBookingRequest{
		TableID:      table.ID,
		CustomerName: "Siti",
		BookingTime:  time.Now().Add(time.Hour).Format(time.RFC3339),
	}); err != nil {
		t.Fatalf("AddBooking: %v", err)
	}

	_, err := cartSvc.SelectTable(testCashierID, table.ID)
	if !errors.Is(err, ErrTableReserved) {
		t.Fatalf("got %v, want ErrTableReserved", err)
	}
	if !strings.Contains(err.Error(), "T1") || !strings.Contains(err.Error(), "Siti") {
		t.Errorf("error should name the table and customer, got %q", err.Error())
	}
}

func TestAddItemMergesLinesAndChecksStock(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Es Teh", 5000, 3)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}

	session, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("first AddItem: %v", err)
	}
	if len(session.Items) != 1 || session.Items[0].Quantity != 2 {
		t.Fatalf("session after first add = %+v", session.Items)
	}

	session, err = cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID})
	if err != nil {
		t.Fatalf("second AddItem: %v", err)
	}
	if len(session.Items) != 1 || session.Items[0].Quantity != 3 {
		t.Errorf("lines should merge by product: %+v", session.Items)
	}
	if session.Items[0].Subtotal != 15000 {
		t.Errorf("line subtotal = %v, want 15000", session.Items[0].Subtotal)
	}

	_, err = cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}
	if !strings.Contains(err.Error(), "Es Teh") {
		t.Errorf("stock error should name the product, got %q", err.Error())
	}
}

func TestUpdateItemQuantityBelowOneRemoves(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Es Teh", 5000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	session, err := cartSvc.UpdateItemQuantity(testCashierID, product.ID, 0)
	if err != nil {
		t.Fatalf("UpdateItemQuantity(0): %v", err)
	}
	if len(session.Items) != 0 {
		t.Errorf("quantity 0 should remove the line, got %+v", session.Items)
	}
}

func TestCartTotalsIncludeTax(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	session, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if session.Subtotal != 50000 || session.Tax != 5000 || session.Total != 55000 {
		t.Errorf("totals = %v/%v/%v, want 50000/5000/55000", session.Subtotal, session.Tax, session.Total)
	}
}

func TestOpenBillHoldsAndClearsSession(t *testing.T) {
	cartSvc, billSvc, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cartSvc.SetCustomerName(testCashierID, "Pak Joko")

	bill, err := cartSvc.OpenBill(testCashierID)
	if err != nil {
		t.Fatalf("OpenBill: %v", err)
	}
	if bill.CustomerName == nil || *bill.CustomerName != "Pak Joko" {
		t.Errorf("bill customer = %v, want Pak Joko", bill.CustomerName)
	}
	if bill.PaymentStatus != models.PaymentStatusHold {
		t.Errorf("bill status = %s, want hold", bill.PaymentStatus)
	}

	if _, err := billSvc.GetBillByTableID(table.ID); err != nil {
		t.Errorf("bill should be held against the table: %v", err)
	}

	session := cartSvc.GetSession(testCashierID)
	if session.SelectedTable != nil || len(session.Items) != 0 || session.CustomerName != nil {
		t.Errorf("session should be fully cleared after opening a bill: %+v", session)
	}
}

func TestSelectTableWithHeldBillPreloadsItems(t *testing.T) {
	cartSvc, billSvc, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)
	productID := product.ID

	if _, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	session, err := cartSvc.SelectTable(testCashierID, table.ID)
	if err != nil {
		t.Fatalf("SelectTable on occupied table: %v", err)
	}
	if !session.IsUpdatingBill {
		t.Errorf("session should flag that it edits a held bill")
	}
	if len(session.Items) != 1 || session.Items[0].Quantity != 2 {
		t.Errorf("held bill lines should be preloaded: %+v", session.Items)
	}
}

func TestCheckoutSettlesAndResets(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cartSvc.SetPaymentMethod(testCashierID, "cash")

	_, err := cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 50000})
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("underpayment: got %v, want ErrInsufficientPayment", err)
	}

	record, err := cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 60000})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if record.Change != 5000 {
		t.Errorf("change = %v, want 5000", record.Change)
	}
	if record.CashierID == nil || *record.CashierID != testCashierID {
		t.Errorf("payment should carry the cashier ID, got %v", record.CashierID)
	}

	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("table after checkout = %s, want available", gotTable.Status)
	}

	session := cartSvc.GetSession(testCashierID)
	if session.SelectedTable != nil || len(session.Items) != 0 {
		t.Errorf("session should be cleared after checkout: %+v", session)
	}

	_, total, err := store.GetPayments(models.PaymentFilters{})
	if err != nil {
		t.Fatalf("GetPayments: %v", err)
	}
	if total != 1 {
		t.Errorf("payments recorded = %d, want 1", total)
	}
}

func TestCheckoutRequiresPaymentMethod(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err := cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 100000})
	if !errors.Is(err, ErrPaymentValidation) {
		t.Errorf("got %v, want ErrPaymentValidation", err)
	}
}

func TestResetKeepsSelection(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Es Teh", 5000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	cartSvc.SetCustomerName(testCashierID, "Ibu Rina")
	cartSvc.SetPaymentMethod(testCashierID, "qris")

	cartSvc.Reset(testCashierID)
	// Reset is idempotent.
	cartSvc.Reset(testCashierID)

	session := cartSvc.GetSession(testCashierID)
	if session.SelectedTable == nil || session.SelectedTable.ID != table.ID {
		t.Errorf("reset should keep the table selection, got %+v", session.SelectedTable)
	}
	if len(session.Items) != 0 || session.CustomerName != nil || session.PaymentMethod != "" {
		t.Errorf("reset should clear the order in progress: %+v", session)
	}
}

func TestSelectTablePastBookingIsAllowed(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)

	// The reservation time has passed, so the customer is assumed seated
	// and the cashier may start the order.
	if _, err := store.UpdateTableStatus(table.ID, models.TableStatusBooked, &models.BookingInfo{
		CustomerName: "Siti",
		BookingTime:  time.Now().Add(-10 * time.Minute),
		CreatedAt:    time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("book table: %v", err)
	}

	session, err := cartSvc.SelectTable(testCashierID, table.ID)
	if err != nil {
		t.Fatalf("past booking should not block selection: %v", err)
	}
	if session.SelectedTable == nil || session.SelectedTable.ID != table.ID {
		t.Errorf("selection = %+v, want table %d", session.SelectedTable, table.ID)
	}
}

func TestCheckoutDeclinedChargeLeavesStateUntouched(t *testing.T) {
	store := newTestStore(t)
	billSvc := NewBillService(store, store, store, store, &payment.MockProcessor{FailureRate: 1}, time.Second)
	cartSvc := NewCartService(store, store, billSvc)
	tableSvc := NewTableService(store, store)

	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err := cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 60000, Method: "cash"})
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("got %v, want ErrPaymentFailed", err)
	}

	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("declined charge should leave the table available, got %s", gotTable.Status)
	}
	if _, err := billSvc.GetBillByTableID(table.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("declined charge should not persist a bill, got %v", err)
	}

	session := cartSvc.GetSession(testCashierID)
	if len(session.Items) != 1 {
		t.Errorf("declined charge should keep the cart intact: %+v", session.Items)
	}
	_, total, err := store.GetPayments(models.PaymentFilters{})
	if err != nil {
		t.Fatalf("GetPayments: %v", err)
	}
	if total != 0 {
		t.Errorf("payments recorded = %d, want 0", total)
	}
}

func TestCheckoutDeclinedChargeKeepsHeldBill(t *testing.T) {
	store := newTestStore(t)
	billSvc := NewBillService(store, store, store, store, &payment.MockProcessor{FailureRate: 1}, time.Second)
	cartSvc := NewCartService(store, store, billSvc)
	tableSvc := NewTableService(store, store)

	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)
	productID := product.ID

	held, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	_, err = cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 100000, Method: "cash"})
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("got %v, want ErrPaymentFailed", err)
	}

	bill, err := billSvc.GetBillByTableID(table.ID)
	if err != nil {
		t.Fatalf("held bill should survive a declined charge: %v", err)
	}
	if bill.ID != held.ID || len(bill.Items) != 1 || bill.Items[0].Quantity != 2 {
		t.Errorf("held bill changed by declined charge: %+v", bill)
	}
	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusOccupied {
		t.Errorf("table should stay occupied, got %s", gotTable.Status)
	}
}

func TestCheckoutSettlesHeldBill(t *testing.T) {
	cartSvc, billSvc, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Nasi Goreng", 25000, 10)
	productID := product.ID

	held, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{ProductID: &productID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	record, err := cartSvc.Checkout(context.Background(), testCashierID, CheckoutRequest{Amount: 60000, Method: "cash"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if record.BillID == nil || *record.BillID != held.ID {
		t.Errorf("payment should reference the settled bill, got %v", record.BillID)
	}

	if _, err := billSvc.GetBillByTableID(table.ID); !errors.Is(err, ErrBillNotFound) {
		t.Errorf("settled bill should come off the table, got %v", err)
	}
	gotTable, _ := tableSvc.GetTableByID(table.ID)
	if gotTable.Status != models.TableStatusAvailable {
		t.Errorf("table after settling = %s, want available", gotTable.Status)
	}
}

func TestReheldCustomLineStaysCustom(t *testing.T) {
	cartSvc, billSvc, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	seedProduct(t, store, "Nasi Goreng", 25000, 10)

	if _, err := billSvc.HoldBill(HoldBillRequest{
		TableID: table.ID,
		Items:   []HoldBillItemRequest{{Name: "Extra Sambal", Price: 2000, Quantity: 1}},
	}); err != nil {
		t.Fatalf("HoldBill: %v", err)
	}

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	bill, err := cartSvc.OpenBill(testCashierID)
	if err != nil {
		t.Fatalf("OpenBill: %v", err)
	}
	if len(bill.Items) != 1 || bill.Items[0].Name != "Extra Sambal" || bill.Items[0].Price != 2000 {
		t.Errorf("custom line must survive the re-hold untouched: %+v", bill.Items)
	}
	if bill.Items[0].ID > 0 {
		t.Errorf("custom line ID = %d, must not look like a product reference", bill.Items[0].ID)
	}
}

func TestReleaseTableClearsSelections(t *testing.T) {
	cartSvc, _, tableSvc, store := newTestCartService(t)
	table := mustCreateTable(t, tableSvc, "T1", 4)
	product := seedProduct(t, store, "Es Teh", 5000, 10)

	if _, err := cartSvc.SelectTable(testCashierID, table.ID); err != nil {
		t.Fatalf("SelectTable: %v", err)
	}
	if _, err := cartSvc.AddItem(testCashierID, AddCartItemRequest{ProductID: product.ID}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	cartSvc.ReleaseTable(table.ID)

	session := cartSvc.GetSession(testCashierID)
	if session.SelectedTable != nil || len(session.Items) != 0 {
		t.Errorf("releasing the table should clear the session: %+v", session)
	}
}
