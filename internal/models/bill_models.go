package models

import "time"

// PaymentStatus defines the lifecycle state of a bill.
type PaymentStatus string

const (
	PaymentStatusDraft PaymentStatus = "draft"
	PaymentStatusHold  PaymentStatus = "hold"
	PaymentStatusPaid  PaymentStatus = "paid"
)

// TaxRate is the flat tax applied on top of every bill subtotal.
const TaxRate = 0.10

// BillItem is a single order line. Subtotal is always Price * Quantity.
type BillItem struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes,omitempty"`
	Subtotal float64 `json:"subtotal"`
}

// ActiveBill is an order held open against a table until it is paid or the
// hold is cancelled. At most one active bill exists per table.
type ActiveBill struct {
	ID            int64         `json:"id" db:"id"`
	TableID       int64         `json:"table_id" db:"table_id"`
	TableNumber   string        `json:"table_number,omitempty" db:"table_number"`
	Items         []BillItem    `json:"items" db:"items"`
	CustomerName  *string       `json:"customer_name,omitempty" db:"customer_name"`
	Subtotal      float64       `json:"subtotal" db:"subtotal"`
	Tax           float64       `json:"tax" db:"tax"`
	Total         float64       `json:"total" db:"total"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     *time.Time    `json:"updated_at,omitempty" db:"updated_at"`
}

// PaymentRecord is the append-only trail of a completed payment. Items are a
// snapshot of the bill/cart at the moment the payment went through.
type PaymentRecord struct {
	ID           int64      `json:"id" db:"id"`
	BillID       *int64     `json:"bill_id,omitempty" db:"bill_id"`
	TableID      *int64     `json:"table_id,omitempty" db:"table_id"`
	CashierID    *int64     `json:"cashier_id,omitempty" db:"cashier_id"`
	Items        []BillItem `json:"items" db:"items"`
	CustomerName *string    `json:"customer_name,omitempty" db:"customer_name"`
	Subtotal     float64    `json:"subtotal" db:"subtotal"`
	Tax          float64    `json:"tax" db:"tax"`
	Total        float64    `json:"total" db:"total"`
	Method       string     `json:"method" db:"method"`
	AmountPaid   float64    `json:"amount_paid" db:"amount_paid"`
	Change       float64    `json:"change" db:"change"`
	PaidAt       time.Time  `json:"paid_at" db:"paid_at"`
}

// PaymentFilters defines the available filters for querying payment records.
type PaymentFilters struct {
	TableID  *int64  `form:"table_id"`
	Method   *string `form:"method"`
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
