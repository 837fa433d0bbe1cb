package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kasir_pos_backend/internal/models"
)

// BillRepository defines the interface for the active bill store.
// The store holds at most one bill per table; UpsertForTable enforces this by
// replacing any prior bill for the same table.
type BillRepository interface {
	UpsertForTable(bill *models.ActiveBill) (*models.ActiveBill, error)
	GetBills() ([]models.ActiveBill, error)
	GetBillByID(id int64) (*models.ActiveBill, error)
	GetBillByTableID(tableID int64) (*models.ActiveBill, error)
	DeleteBillByID(id int64) error
	DeleteBillByTableID(tableID int64) error
}

type billRepository struct {
	db *sql.DB
}

// NewBillRepository creates a new PostgreSQL-backed BillRepository.
func NewBillRepository(db *sql.DB) BillRepository {
	return &billRepository{db: db}
}

const selectBillFields = `
	b.id, b.table_id, COALESCE(t.number, ''), b.items, b.customer_name,
	b.subtotal, b.tax, b.total, b.payment_status, b.created_at, b.updated_at
`
const billJoins = ` FROM active_bills b LEFT JOIN tables t ON b.table_id = t.id`

func scanBillRow(row scanner) (*models.ActiveBill, error) {
	var bill models.ActiveBill
	var itemsRaw []byte

	err := row.Scan(
		&bill.ID, &bill.TableID, &bill.TableNumber, &itemsRaw, &bill.CustomerName,
		&bill.Subtotal, &bill.Tax, &bill.Total, &bill.PaymentStatus,
		&bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning active bill: %v", ErrDatabaseError, err)
	}

	bill.Items = []models.BillItem{}
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &bill.Items); err != nil {
			return nil, fmt.Errorf("%w: decoding items of bill %d: %v", ErrDatabaseError, bill.ID, err)
		}
	}
	return &bill, nil
}

// UpsertForTable writes the bill and removes any prior bill held for the same
// table, all within a single transaction.
func (r *billRepository) UpsertForTable(bill *models.ActiveBill) (*models.ActiveBill, error) {
	itemsRaw, err := json.Marshal(bill.Items)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding bill items: %v", ErrDatabaseError, err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec(`DELETE FROM active_bills WHERE table_id = $1`, bill.TableID); err != nil {
		return nil, fmt.Errorf("%w: clearing prior bill for table %d: %v", ErrDatabaseError, bill.TableID, err)
	}

	query := `INSERT INTO active_bills
	            (table_id, items, customer_name, subtotal, tax, total, payment_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at`

	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	err = tx.QueryRow(query,
		bill.TableID, itemsRaw, bill.CustomerName,
		bill.Subtotal, bill.Tax, bill.Total, bill.PaymentStatus,
		bill.CreatedAt, bill.UpdatedAt,
	).Scan(&bill.ID, &bill.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting active bill for table %d: %v", ErrDatabaseError, bill.TableID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: committing active bill: %v", ErrDatabaseError, err)
	}
	return r.GetBillByID(bill.ID)
}

func (r *billRepository) GetBills() ([]models.ActiveBill, error) {
	rows, err := r.db.Query("SELECT " + selectBillFields + billJoins + " ORDER BY b.created_at")
	if err != nil {
		return nil, fmt.Errorf("%w: querying active bills: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	bills := []models.ActiveBill{}
	for rows.Next() {
		bill, scanErr := scanBillRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		bills = append(bills, *bill)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating bill rows: %v", ErrDatabaseError, err)
	}
	return bills, nil
}

func (r *billRepository) GetBillByID(id int64) (*models.ActiveBill, error) {
	query := "SELECT " + selectBillFields + billJoins + " WHERE b.id = $1"
	return scanBillRow(r.db.QueryRow(query, id))
}

func (r *billRepository) GetBillByTableID(tableID int64) (*models.ActiveBill, error) {
	query := "SELECT " + selectBillFields + billJoins + " WHERE b.table_id = $1"
	return scanBillRow(r.db.QueryRow(query, tableID))
}

func (r *billRepository) DeleteBillByID(id int64) error {
	result, err := r.db.Exec(`DELETE FROM active_bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting bill ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *billRepository) DeleteBillByTableID(tableID int64) error {
	// Cascade path for table deletion: a table without a bill is not an error.
	if _, err := r.db.Exec(`DELETE FROM active_bills WHERE table_id = $1`, tableID); err != nil {
		return fmt.Errorf("%w: deleting bill for table %d: %v", ErrDatabaseError, tableID, err)
	}
	return nil
}
