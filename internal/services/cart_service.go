package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
	"kasir_pos_backend/pkg/utils"
)

// --- Custom Service Errors for the Cart ---
var (
	ErrNoTableSelected   = errors.New("no table selected")
	ErrTableReserved     = errors.New("table is reserved")
	ErrCartEmpty         = errors.New("cart has no items")
	ErrCartItemNotFound  = errors.New("item not found in cart")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCartValidation    = errors.New("cart data validation error")
)

// --- Cart DTOs ---

type AddCartItemRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

type CheckoutRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Method string  `json:"method"`
}

// CartSession is the read view of one cashier's in-progress order. Totals are
// recomputed on every read.
type CartSession struct {
	CashierID      int64             `json:"cashier_id"`
	SelectedTable  *models.Table     `json:"selected_table,omitempty"`
	Items          []models.BillItem `json:"items"`
	CustomerName   *string           `json:"customer_name,omitempty"`
	PaymentMethod  string            `json:"payment_method,omitempty"`
	IsUpdatingBill bool              `json:"is_updating_bill"`
	Subtotal       float64           `json:"subtotal"`
	Tax            float64           `json:"tax"`
	Total          float64           `json:"total"`
}

// --- CartService Interface ---
type CartService interface {
	GetSession(cashierID int64) *CartSession
	// SelectTable binds the cashier's cart to a table. Selecting a table
	// with a held bill preloads that bill's lines for editing.
	SelectTable(cashierID, tableID int64) (*CartSession, error)
	AddItem(cashierID int64, req AddCartItemRequest) (*CartSession, error)
	UpdateItemQuantity(cashierID, productID int64, quantity int) (*CartSession, error)
	RemoveItem(cashierID, productID int64) (*CartSession, error)
	SetCustomerName(cashierID int64, name string) *CartSession
	SetPaymentMethod(cashierID int64, method string) *CartSession
	// OpenBill holds the cart as the table's active bill and clears the
	// session.
	OpenBill(cashierID int64) (*models.ActiveBill, error)
	// Checkout settles the cart immediately: hold then pay in one step.
	Checkout(ctx context.Context, cashierID int64, req CheckoutRequest) (*models.PaymentRecord, error)
	// Reset clears the order in progress but keeps the table selection.
	Reset(cashierID int64)
	// ReleaseTable drops any cart selection pointing at the table. Called
	// when a table is deleted so no session keeps a stale reference.
	ReleaseTable(tableID int64)
}

type cartSession struct {
	selectedTable  *models.Table
	items          []models.BillItem
	customerName   *string
	paymentMethod  string
	isUpdatingBill bool
}

type cartService struct {
	mu          sync.Mutex
	sessions    map[int64]*cartSession
	tableRepo   repositories.TableRepository
	productRepo repositories.ProductRepository
	billService BillService
}

// NewCartService creates a new instance of CartService. Sessions live in
// memory only and are scoped to one cashier each.
func NewCartService(tr repositories.TableRepository, pr repositories.ProductRepository, bs BillService) CartService {
	return &cartService{
		sessions:    make(map[int64]*cartSession),
		tableRepo:   tr,
		productRepo: pr,
		billService: bs,
	}
}

// session returns the cashier's session, creating an empty one on first use.
// Caller must hold s.mu.
func (s *cartService) session(cashierID int64) *cartSession {
	sess, ok := s.sessions[cashierID]
	if !ok {
		sess = &cartSession{items: []models.BillItem{}}
		s.sessions[cashierID] = sess
	}
	return sess
}

// view builds the read snapshot. Caller must hold s.mu.
func (s *cartService) view(cashierID int64, sess *cartSession) *CartSession {
	var subtotal float64
	items := make([]models.BillItem, len(sess.items))
	copy(items, sess.items)
	for _, item := range items {
		subtotal += item.Subtotal
	}
	tax := RoundedTax(subtotal)
	return &CartSession{
		CashierID:      cashierID,
		SelectedTable:  sess.selectedTable,
		Items:          items,
		CustomerName:   sess.customerName,
		PaymentMethod:  sess.paymentMethod,
		IsUpdatingBill: sess.isUpdatingBill,
		Subtotal:       subtotal,
		Tax:            tax,
		Total:          subtotal + tax,
	}
}

func (s *cartService) GetSession(cashierID int64) *CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(cashierID, s.session(cashierID))
}

func (s *cartService) SelectTable(cashierID, tableID int64) (*CartSession, error) {
	table, err := s.tableRepo.GetTableByID(tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to resolve table for cart: %w", err)
	}

	// A reservation only blocks the table until its booking time. Once that
	// passes the customer is assumed seated and the cashier may take orders.
	if table.Status == models.TableStatusBooked && table.BookingInfo != nil &&
		table.BookingInfo.BookingTime.After(time.Now()) {
		return nil, fmt.Errorf("%w: table %s is reserved for %s at %s",
			ErrTableReserved, table.Number, table.BookingInfo.CustomerName,
			table.BookingInfo.BookingTime.Format("2006-01-02 15:04"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	sess.selectedTable = table
	sess.items = []models.BillItem{}
	sess.customerName = nil
	sess.paymentMethod = ""
	sess.isUpdatingBill = false

	// Picking an occupied table means the cashier is amending its hold.
	bill, err := s.billService.GetBillByTableID(tableID)
	if err == nil {
		sess.items = make([]models.BillItem, len(bill.Items))
		copy(sess.items, bill.Items)
		sess.customerName = bill.CustomerName
		sess.isUpdatingBill = true
	} else if !errors.Is(err, ErrBillNotFound) {
		return nil, err
	}
	return s.view(cashierID, sess), nil
}

func (s *cartService) AddItem(cashierID int64, req AddCartItemRequest) (*CartSession, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", ErrCartValidation)
	}

	product, err := s.productRepo.GetProductByID(req.ProductID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to resolve product for cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	if sess.selectedTable == nil {
		return nil, ErrNoTableSelected
	}

	existingQty := 0
	existingIdx := -1
	for i, item := range sess.items {
		if item.ID == product.ID {
			existingQty = item.Quantity
			existingIdx = i
			break
		}
	}
	if existingQty+quantity > product.Stock {
		return nil, fmt.Errorf("%w: %s has only %d in stock", ErrInsufficientStock, product.Name, product.Stock)
	}

	if existingIdx >= 0 {
		sess.items[existingIdx].Quantity += quantity
		if req.Notes != nil {
			sess.items[existingIdx].Notes = req.Notes
		}
		sess.items[existingIdx].Subtotal = sess.items[existingIdx].Price * float64(sess.items[existingIdx].Quantity)
	} else {
		sess.items = append(sess.items, models.BillItem{
			ID:       product.ID,
			Name:     product.Name,
			Price:    product.Price,
			Quantity: quantity,
			Notes:    req.Notes,
			Subtotal: product.Price * float64(quantity),
		})
	}
	return s.view(cashierID, sess), nil
}

func (s *cartService) UpdateItemQuantity(cashierID, productID int64, quantity int) (*CartSession, error) {
	// A quantity below one removes the line.
	if quantity < 1 {
		return s.RemoveItem(cashierID, productID)
	}

	product, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to resolve product for cart: %w", err)
	}
	if quantity > product.Stock {
		return nil, fmt.Errorf("%w: %s has only %d in stock", ErrInsufficientStock, product.Name, product.Stock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	for i := range sess.items {
		if sess.items[i].ID == productID {
			sess.items[i].Quantity = quantity
			sess.items[i].Subtotal = sess.items[i].Price * float64(quantity)
			return s.view(cashierID, sess), nil
		}
	}
	return nil, ErrCartItemNotFound
}

func (s *cartService) RemoveItem(cashierID, productID int64) (*CartSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	for i := range sess.items {
		if sess.items[i].ID == productID {
			sess.items = append(sess.items[:i], sess.items[i+1:]...)
			return s.view(cashierID, sess), nil
		}
	}
	return nil, ErrCartItemNotFound
}

func (s *cartService) SetCustomerName(cashierID int64, name string) *CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	sess.customerName = utils.NewNullString(strings.TrimSpace(name))
	return s.view(cashierID, sess)
}

func (s *cartService) SetPaymentMethod(cashierID int64, method string) *CartSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	sess.paymentMethod = strings.TrimSpace(method)
	return s.view(cashierID, sess)
}

// holdRequest converts the session into a hold payload. Caller must hold s.mu.
func holdRequest(sess *cartSession) HoldBillRequest {
	itemReqs := make([]HoldBillItemRequest, 0, len(sess.items))
	for _, item := range sess.items {
		itemReq := HoldBillItemRequest{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		}
		// Only positive IDs are product references; non-catalog lines
		// carry their name and price themselves.
		if item.ID > 0 {
			productID := item.ID
			itemReq.ProductID = &productID
		}
		itemReqs = append(itemReqs, itemReq)
	}
	return HoldBillRequest{
		TableID:      sess.selectedTable.ID,
		Items:        itemReqs,
		CustomerName: sess.customerName,
	}
}

func (s *cartService) OpenBill(cashierID int64) (*models.ActiveBill, error) {
	s.mu.Lock()
	sess := s.session(cashierID)
	if sess.selectedTable == nil {
		s.mu.Unlock()
		return nil, ErrNoTableSelected
	}
	if len(sess.items) == 0 {
		s.mu.Unlock()
		return nil, ErrCartEmpty
	}
	req := holdRequest(sess)
	s.mu.Unlock()

	bill, err := s.billService.HoldBill(req)
	if err != nil {
		return nil, err
	}

	// Hold succeeded: the order now lives on the table, so the session
	// starts over completely.
	s.mu.Lock()
	s.sessions[cashierID] = &cartSession{items: []models.BillItem{}}
	s.mu.Unlock()
	return bill, nil
}

func (s *cartService) Checkout(ctx context.Context, cashierID int64, req CheckoutRequest) (*models.PaymentRecord, error) {
	s.mu.Lock()
	sess := s.session(cashierID)
	if sess.selectedTable == nil {
		s.mu.Unlock()
		return nil, ErrNoTableSelected
	}
	if len(sess.items) == 0 {
		s.mu.Unlock()
		return nil, ErrCartEmpty
	}

	method := req.Method
	if method == "" {
		method = sess.paymentMethod
	}
	if strings.TrimSpace(method) == "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: payment method is required", ErrPaymentValidation)
	}

	var subtotal float64
	for _, item := range sess.items {
		subtotal += item.Subtotal
	}
	total := subtotal + RoundedTax(subtotal)
	if req.Amount < total {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: minimum payment is %s", ErrInsufficientPayment, utils.FormatRupiah(total))
	}
	holdReq := holdRequest(sess)
	s.mu.Unlock()

	// The charge runs before anything is persisted, so a declined charge
	// leaves the cart, the table and any held bill exactly as they were.
	record, err := s.billService.SettleCart(ctx, holdReq, CompletePaymentRequest{
		Amount:    req.Amount,
		Method:    method,
		CashierID: &cashierID,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[cashierID] = &cartSession{items: []models.BillItem{}}
	s.mu.Unlock()
	return record, nil
}

func (s *cartService) Reset(cashierID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(cashierID)
	sess.items = []models.BillItem{}
	sess.customerName = nil
	sess.paymentMethod = ""
	sess.isUpdatingBill = false
}

func (s *cartService) ReleaseTable(tableID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.selectedTable != nil && sess.selectedTable.ID == tableID {
			sess.selectedTable = nil
			sess.items = []models.BillItem{}
			sess.customerName = nil
			sess.paymentMethod = ""
			sess.isUpdatingBill = false
		}
	}
}
