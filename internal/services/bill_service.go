package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/payment"
	"kasir_pos_backend/internal/repositories"
	"kasir_pos_backend/pkg/utils"
)

// --- Custom Service Errors for Bills ---
var (
	ErrBillNotFound        = errors.New("active bill not found")
	ErrBillValidation      = errors.New("bill data validation error")
	ErrPaymentValidation   = errors.New("payment data validation error")
	ErrInsufficientPayment = errors.New("payment amount is below the bill total")
	ErrPaymentFailed       = errors.New("payment processing failed")
)

// --- Bill DTOs ---

// HoldBillItemRequest is one order line submitted for a hold. Items either
// name themselves directly or reference a product by id.
type HoldBillItemRequest struct {
	ProductID *int64  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Notes     *string `json:"notes"`
}

type HoldBillRequest struct {
	TableID      int64                 `json:"table_id" binding:"required"`
	Items        []HoldBillItemRequest `json:"items"`
	CustomerName *string               `json:"customer_name"`
}

type CompletePaymentRequest struct {
	Amount    float64 `json:"amount" binding:"required"`
	Method    string  `json:"method" binding:"required"`
	CashierID *int64  `json:"cashier_id"`
}

// --- BillService Interface ---
type BillService interface {
	// HoldBill creates or replaces the active bill for a table. An empty item
	// list yields a transient draft bill that is not persisted.
	HoldBill(req HoldBillRequest) (*models.ActiveBill, error)
	GetBills() ([]models.ActiveBill, error)
	GetBillByID(billID int64) (*models.ActiveBill, error)
	GetBillByTableID(tableID int64) (*models.ActiveBill, error)
	CancelHold(tableID int64) error
	CompletePayment(ctx context.Context, billID int64, req CompletePaymentRequest) (*models.PaymentRecord, error)
	// SettleCart charges for a cart's contents and records the payment in
	// one step. Nothing is persisted until the charge succeeds.
	SettleCart(ctx context.Context, holdReq HoldBillRequest, payReq CompletePaymentRequest) (*models.PaymentRecord, error)
}

type billService struct {
	billRepo      repositories.BillRepository
	tableRepo     repositories.TableRepository
	productRepo   repositories.ProductRepository
	paymentRepo   repositories.PaymentRepository
	processor     payment.Processor
	chargeTimeout time.Duration
}

// NewBillService creates a new instance of BillService.
func NewBillService(
	br repositories.BillRepository,
	tr repositories.TableRepository,
	pr repositories.ProductRepository,
	payr repositories.PaymentRepository,
	proc payment.Processor,
	chargeTimeout time.Duration,
) BillService {
	return &billService{
		billRepo:      br,
		tableRepo:     tr,
		productRepo:   pr,
		paymentRepo:   payr,
		processor:     proc,
		chargeTimeout: chargeTimeout,
	}
}

// RoundedTax computes the flat tax on a subtotal.
func RoundedTax(subtotal float64) float64 {
	return math.Round(subtotal * models.TaxRate)
}

// buildBillItems validates and normalizes the submitted lines. Violations are
// reported by 1-based item index so the cashier can find the bad line.
func (s *billService) buildBillItems(reqs []HoldBillItemRequest) ([]models.BillItem, float64, error) {
	items := make([]models.BillItem, 0, len(reqs))
	var subtotal float64

	for i, itemReq := range reqs {
		name := strings.TrimSpace(itemReq.Name)
		price := itemReq.Price
		var lineID int64

		if itemReq.ProductID != nil {
			product, err := s.productRepo.GetProductByID(*itemReq.ProductID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return nil, 0, fmt.Errorf("%w: item %d: product %d not found", ErrBillValidation, i+1, *itemReq.ProductID)
				}
				return nil, 0, fmt.Errorf("failed to resolve product for item %d: %w", i+1, err)
			}
			lineID = product.ID
			if name == "" {
				name = product.Name
			}
			if price == 0 {
				price = product.Price
			}
		} else {
			// Non-catalog lines get negative IDs so they can never be
			// mistaken for product references later.
			lineID = -int64(i + 1)
		}

		if name == "" {
			return nil, 0, fmt.Errorf("%w: item %d: name is required", ErrBillValidation, i+1)
		}
		if price < 0 {
			return nil, 0, fmt.Errorf("%w: item %d: price must be a non-negative number", ErrBillValidation, i+1)
		}
		if itemReq.Quantity < 1 {
			return nil, 0, fmt.Errorf("%w: item %d: quantity must be at least 1", ErrBillValidation, i+1)
		}

		lineSubtotal := price * float64(itemReq.Quantity)
		subtotal += lineSubtotal
		items = append(items, models.BillItem{
			ID:       lineID,
			Name:     name,
			Price:    price,
			Quantity: itemReq.Quantity,
			Notes:    itemReq.Notes,
			Subtotal: lineSubtotal,
		})
	}
	return items, subtotal, nil
}

func (s *billService) HoldBill(req HoldBillRequest) (*models.ActiveBill, error) {
	if req.TableID == 0 {
		return nil, fmt.Errorf("%w: table id is required", ErrBillValidation)
	}

	// Defensive default: a missing items field behaves like an empty cart.
	itemReqs := req.Items
	if itemReqs == nil {
		itemReqs = []HoldBillItemRequest{}
	}

	items, subtotal, err := s.buildBillItems(itemReqs)
	if err != nil {
		return nil, err
	}

	table, err := s.tableRepo.GetTableByID(req.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to resolve table for hold: %w", err)
	}

	// Nothing to hold: hand back a draft so the caller can tell without an
	// error path. The draft is never written to the store.
	if len(items) == 0 {
		return &models.ActiveBill{
			TableID:       table.ID,
			TableNumber:   table.Number,
			Items:         []models.BillItem{},
			CustomerName:  req.CustomerName,
			PaymentStatus: models.PaymentStatusDraft,
			CreatedAt:     time.Now(),
		}, nil
	}

	tax := RoundedTax(subtotal)
	bill := &models.ActiveBill{
		TableID:       table.ID,
		Items:         items,
		CustomerName:  req.CustomerName,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         subtotal + tax,
		PaymentStatus: models.PaymentStatusHold,
	}

	// Re-holding against the same table keeps the original creation time and
	// marks the update.
	if existing, err := s.billRepo.GetBillByTableID(table.ID); err == nil {
		bill.CreatedAt = existing.CreatedAt
		now := time.Now()
		bill.UpdatedAt = &now
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for a prior bill: %w", err)
	}

	held, err := s.billRepo.UpsertForTable(bill)
	if err != nil {
		return nil, fmt.Errorf("failed to hold bill: %w", err)
	}
	if _, err := s.tableRepo.UpdateTableStatus(table.ID, models.TableStatusOccupied, nil); err != nil {
		return nil, fmt.Errorf("bill held but failed to mark table occupied: %w", err)
	}
	return held, nil
}

func (s *billService) GetBills() ([]models.ActiveBill, error) {
	bills, err := s.billRepo.GetBills()
	if err != nil {
		return nil, fmt.Errorf("failed to get active bills: %w", err)
	}
	return bills, nil
}

func (s *billService) GetBillByID(billID int64) (*models.ActiveBill, error) {
	bill, err := s.billRepo.GetBillByID(billID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to get bill by ID: %w", err)
	}
	return bill, nil
}

func (s *billService) GetBillByTableID(tableID int64) (*models.ActiveBill, error) {
	bill, err := s.billRepo.GetBillByTableID(tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to get bill for table: %w", err)
	}
	return bill, nil
}

func (s *billService) CancelHold(tableID int64) error {
	if _, err := s.GetBillByTableID(tableID); err != nil {
		return err
	}
	if err := s.billRepo.DeleteBillByTableID(tableID); err != nil {
		return fmt.Errorf("failed to remove bill for table %d: %w", tableID, err)
	}
	if _, err := s.tableRepo.UpdateTableStatus(tableID, models.TableStatusAvailable, nil); err != nil {
		return fmt.Errorf("bill removed but failed to free table %d: %w", tableID, err)
	}
	return nil
}

func (s *billService) CompletePayment(ctx context.Context, billID int64, req CompletePaymentRequest) (*models.PaymentRecord, error) {
	if req.Amount <= 0 || strings.TrimSpace(req.Method) == "" {
		return nil, fmt.Errorf("%w: amount and method are required", ErrPaymentValidation)
	}

	bill, err := s.GetBillByID(billID)
	if err != nil {
		return nil, err
	}
	if req.Amount < bill.Total {
		return nil, fmt.Errorf("%w: minimum payment is %s", ErrInsufficientPayment, utils.FormatRupiah(bill.Total))
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()
	if _, err := s.processor.Charge(chargeCtx, payment.ChargeRequest{
		Amount:    bill.Total,
		Method:    req.Method,
		Reference: "bill-" + utils.Int64ToStr(bill.ID),
	}); err != nil {
		// Bill and table are untouched; the cashier can retry.
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	record := &models.PaymentRecord{
		BillID:       &bill.ID,
		TableID:      &bill.TableID,
		CashierID:    req.CashierID,
		Items:        bill.Items,
		CustomerName: bill.CustomerName,
		Subtotal:     bill.Subtotal,
		Tax:          bill.Tax,
		Total:        bill.Total,
		Method:       strings.TrimSpace(req.Method),
		AmountPaid:   req.Amount,
		Change:       req.Amount - bill.Total,
		PaidAt:       time.Now(),
	}
	saved, err := s.paymentRepo.CreatePayment(record)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := s.billRepo.DeleteBillByID(bill.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("payment recorded but failed to close bill %d: %w", bill.ID, err)
	}
	if _, err := s.tableRepo.UpdateTableStatus(bill.TableID, models.TableStatusAvailable, nil); err != nil {
		return nil, fmt.Errorf("payment recorded but failed to free table %d: %w", bill.TableID, err)
	}
	return saved, nil
}

func (s *billService) SettleCart(ctx context.Context, holdReq HoldBillRequest, payReq CompletePaymentRequest) (*models.PaymentRecord, error) {
	if holdReq.TableID == 0 {
		return nil, fmt.Errorf("%w: table id is required", ErrBillValidation)
	}
	if payReq.Amount <= 0 || strings.TrimSpace(payReq.Method) == "" {
		return nil, fmt.Errorf("%w: amount and method are required", ErrPaymentValidation)
	}

	items, subtotal, err := s.buildBillItems(holdReq.Items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrBillValidation)
	}

	table, err := s.tableRepo.GetTableByID(holdReq.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to resolve table for settlement: %w", err)
	}

	tax := RoundedTax(subtotal)
	total := subtotal + tax
	if payReq.Amount < total {
		return nil, fmt.Errorf("%w: minimum payment is %s", ErrInsufficientPayment, utils.FormatRupiah(total))
	}

	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()
	if _, err := s.processor.Charge(chargeCtx, payment.ChargeRequest{
		Amount:    total,
		Method:    payReq.Method,
		Reference: "table-" + utils.Int64ToStr(table.ID),
	}); err != nil {
		// Nothing was written yet; the table and any held bill stay as
		// they were.
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	record := &models.PaymentRecord{
		TableID:      &table.ID,
		CashierID:    payReq.CashierID,
		Items:        items,
		CustomerName: holdReq.CustomerName,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		Method:       strings.TrimSpace(payReq.Method),
		AmountPaid:   payReq.Amount,
		Change:       payReq.Amount - total,
		PaidAt:       time.Now(),
	}
	// When the cart was amending a held bill, this payment settles that bill
	// and it comes off the table.
	if existing, err := s.billRepo.GetBillByTableID(table.ID); err == nil {
		record.BillID = &existing.ID
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for a prior bill: %w", err)
	}

	saved, err := s.paymentRepo.CreatePayment(record)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err := s.billRepo.DeleteBillByTableID(table.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("payment recorded but failed to close bill for table %d: %w", table.ID, err)
	}
	if _, err := s.tableRepo.UpdateTableStatus(table.ID, models.TableStatusAvailable, nil); err != nil {
		return nil, fmt.Errorf("payment recorded but failed to free table %d: %w", table.ID, err)
	}
	return saved, nil
}
