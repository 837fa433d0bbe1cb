package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
)

// PaymentRepository defines the interface for the append-only payment trail.
type PaymentRepository interface {
	CreatePayment(payment *models.PaymentRecord) (*models.PaymentRecord, error)
	GetPayments(filters models.PaymentFilters) ([]models.PaymentRecord, int, error)
	GetPaymentByID(id int64) (*models.PaymentRecord, error)
}

type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new PostgreSQL-backed PaymentRepository.
func NewPaymentRepository(db *sql.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

const selectPaymentFields = `
	id, bill_id, table_id, cashier_id, items, customer_name,
	subtotal, tax, total, method, amount_paid, change, paid_at
`

func scanPaymentRow(row scanner, isList bool) (*models.PaymentRecord, int, error) {
	var payment models.PaymentRecord
	var itemsRaw []byte
	var totalCount int

	scanDest := []interface{}{
		&payment.ID, &payment.BillID, &payment.TableID, &payment.CashierID,
		&itemsRaw, &payment.CustomerName,
		&payment.Subtotal, &payment.Tax, &payment.Total,
		&payment.Method, &payment.AmountPaid, &payment.Change, &payment.PaidAt,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning payment: %v", ErrDatabaseError, err)
	}

	payment.Items = []models.BillItem{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &payment.Items); err != nil {
			return nil, 0, fmt.Errorf("%w: decoding items of payment %d: %v", ErrDatabaseError, payment.ID, err)
		}
	}
	return &payment, totalCount, nil
}

func (r *paymentRepository) CreatePayment(payment *models.PaymentRecord) (*models.PaymentRecord, error) {
	itemsRaw, err := json.Marshal(payment.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding payment items: %v", ErrDatabaseError, err)
	}

	query := `INSERT INTO payments
	            (bill_id, table_id, cashier_id, items, customer_name, subtotal, tax, total, method, amount_paid, change, paid_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now()
	}
	err = r.db.QueryRow(query,
		payment.BillID, payment.TableID, payment.CashierID, itemsRaw, payment.CustomerName,
		payment.Subtotal, payment.Tax, payment.Total,
		payment.Method, payment.AmountPaid, payment.Change, payment.PaidAt,
	).Scan(&payment.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating payment record: %v", ErrDatabaseError, err)
	}
	return payment, nil
}

func (r *paymentRepository) GetPayments(filters models.PaymentFilters) ([]models.PaymentRecord, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectPaymentFields + ", COUNT(*) OVER() as total_count FROM payments")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.TableID != nil {
		conditions = append(conditions, fmt.Sprintf("table_id = $%d", argCount))
		args = append(args, *filters.TableID)
		argCount++
	}
	if filters.Method != nil && *filters.Method != "" {
		conditions = append(conditions, fmt.Sprintf("method = $%d", argCount))
		args = append(args, *filters.Method)
		argCount++
	}
	if filters.Date != nil && *filters.Date != "" {
		conditions = append(conditions, fmt.Sprintf("paid_at::date = $%d", argCount))
		args = append(args, *filters.Date)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY paid_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying payments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	payments := []models.PaymentRecord{}
	var totalCount int
	for rows.Next() {
		payment, scannedCount, scanErr := scanPaymentRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		payments = append(payments, *payment)
		totalCount = scannedCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating payment rows: %v", ErrDatabaseError, err)
	}
	return payments, totalCount, nil
}

func (r *paymentRepository) GetPaymentByID(id int64) (*models.PaymentRecord, error) {
	query := "SELECT " + selectPaymentFields + " FROM payments WHERE id = $1"
	payment, _, err := scanPaymentRow(r.db.QueryRow(query, id), false)
	return payment, err
}
