package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for table registry storage.
// Two implementations exist: the PostgreSQL one below and the file-backed
// store in internal/storage.
type TableRepository interface {
	CreateTable(table *models.Table) (*models.Table, error)
	GetTables(filters models.TableFilters) ([]models.Table, error)
	GetTableByID(id int64) (*models.Table, error)
	GetTableByNumber(number string) (*models.Table, error)
	UpdateTable(table *models.Table) (*models.Table, error)
	UpdateTableStatus(id int64, status models.TableStatus, booking *models.BookingInfo) (*models.Table, error)
	DeleteTable(id int64) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new PostgreSQL-backed TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

const selectTableFields = `id, number, capacity, status, booking_info, created_at, updated_at`

// scanTableRow scans one table row. booking_info is a nullable JSONB column.
func scanTableRow(row scanner) (*models.Table, error) {
	var table models.Table
	var bookingRaw []byte

	err := row.Scan(
		&table.ID, &table.Number, &table.Capacity, &table.Status,
		&bookingRaw, &table.CreatedAt, &table.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
	}

	if len(bookingRaw) > 0 {
		var info models.BookingInfo
		if err := json.Unmarshal(bookingRaw, &info); err != nil {
			return nil, fmt.Errorf("%w: decoding booking info for table %d: %v", ErrDatabaseError, table.ID, err)
		}
		table.BookingInfo = &info
	}
	return &table, nil
}

func encodeBookingInfo(info *models.BookingInfo) (interface{}, error) {
	if info == nil {
		return nil, nil
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding booking info: %v", ErrDatabaseError, err)
	}
	return raw, nil
}

func (r *tableRepository) CreateTable(table *models.Table) (*models.Table, error) {
	query := `INSERT INTO tables (number, capacity, status, booking_info, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`

	bookingRaw, err := encodeBookingInfo(table.BookingInfo)
	if err != nil {
		return nil, err
	}

	currentTime := time.Now()
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime

	err = r.db.QueryRow(query,
		table.Number, table.Capacity, table.Status, bookingRaw,
		table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID, &table.CreatedAt, &table.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: table number '%s'", ErrDuplicateKey, table.Number)
		}
		return nil, fmt.Errorf("%w: creating table: %v", ErrDatabaseError, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(filters models.TableFilters) ([]models.Table, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectTableFields + " FROM tables")

	var args []interface{}
	if filters.Status != nil && *filters.Status != "" {
		queryBuilder.WriteString(" WHERE status = $1")
		args = append(args, *filters.Status)
	}
	queryBuilder.WriteString(" ORDER BY number")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		table, scanErr := scanTableRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tables = append(tables, *table)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) GetTableByID(id int64) (*models.Table, error) {
	query := "SELECT " + selectTableFields + " FROM tables WHERE id = $1"
	return scanTableRow(r.db.QueryRow(query, id))
}

func (r *tableRepository) GetTableByNumber(number string) (*models.Table, error) {
	query := "SELECT " + selectTableFields + " FROM tables WHERE number = $1"
	return scanTableRow(r.db.QueryRow(query, number))
}

func (r *tableRepository) UpdateTable(table *models.Table) (*models.Table, error) {
	query := `UPDATE tables SET number = $1, capacity = $2, updated_at = $3
	          WHERE id = $4
	          RETURNING updated_at`
	table.UpdatedAt = time.Now()

	err := r.db.QueryRow(query, table.Number, table.Capacity, table.UpdatedAt, table.ID).
		Scan(&table.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: table number '%s'", ErrDuplicateKey, table.Number)
		}
		return nil, fmt.Errorf("%w: updating table ID %d: %v", ErrDatabaseError, table.ID, err)
	}
	return r.GetTableByID(table.ID)
}

func (r *tableRepository) UpdateTableStatus(id int64, status models.TableStatus, booking *models.BookingInfo) (*models.Table, error) {
	// booking_info follows the status: set only on transition to booked,
	// cleared on any other transition.
	if status != models.TableStatusBooked {
		booking = nil
	}
	bookingRaw, err := encodeBookingInfo(booking)
	if err != nil {
		return nil, err
	}

	query := `UPDATE tables SET status = $1, booking_info = $2, updated_at = $3
	          WHERE id = $4
	          RETURNING updated_at`

	var updatedAt time.Time
	err = r.db.QueryRow(query, status, bookingRaw, time.Now(), id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating status of table ID %d: %v", ErrDatabaseError, id, err)
	}
	return r.GetTableByID(id)
}

func (r *tableRepository) DeleteTable(id int64) error {
	result, err := r.db.Exec(`DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting table ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
