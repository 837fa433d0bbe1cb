package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
)

// StockHistoryRepository defines the interface for the append-only stock
// movement log. There is deliberately no update or delete operation.
type StockHistoryRepository interface {
	CreateRecord(record *models.StockHistoryRecord) (*models.StockHistoryRecord, error)
	GetRecords(filters models.StockHistoryFilters) ([]models.StockHistoryRecord, int, error)
}

type stockHistoryRepository struct {
	db *sql.DB
}

// NewStockHistoryRepository creates a new PostgreSQL-backed StockHistoryRepository.
func NewStockHistoryRepository(db *sql.DB) StockHistoryRepository {
	return &stockHistoryRepository{db: db}
}

const selectStockHistoryFields = `id, product_id, product_name, old_stock, adjustment, new_stock, type, notes, value_impact, date`

func scanStockHistoryRow(row scanner, isList bool) (*models.StockHistoryRecord, int, error) {
	var record models.StockHistoryRecord
	var totalCount int

	scanDest := []interface{}{
		&record.ID, &record.ProductID, &record.ProductName,
		&record.OldStock, &record.Adjustment, &record.NewStock,
		&record.Type, &record.Notes, &record.ValueImpact, &record.Date,
	}
	if isList {
		scanDest = append(scanDest, &totalCount)
	}

	if err := row.Scan(scanDest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: scanning stock history record: %v", ErrDatabaseError, err)
	}
	return &record, totalCount, nil
}

func (r *stockHistoryRepository) CreateRecord(record *models.StockHistoryRecord) (*models.StockHistoryRecord, error) {
	query := `INSERT INTO stock_history
	            (product_id, product_name, old_stock, adjustment, new_stock, type, notes, value_impact, date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`

	if record.Date.IsZero() {
		record.Date = time.Now()
	}
	err := r.db.QueryRow(query,
		record.ProductID, record.ProductName,
		record.OldStock, record.Adjustment, record.NewStock,
		record.Type, record.Notes, record.ValueImpact, record.Date,
	).Scan(&record.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating stock history record: %v", ErrDatabaseError, err)
	}
	return record, nil
}

func (r *stockHistoryRepository) GetRecords(filters models.StockHistoryFilters) ([]models.StockHistoryRecord, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectStockHistoryFields + ", COUNT(*) OVER() as total_count FROM stock_history")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.Type != nil && *filters.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argCount))
		args = append(args, *filters.Type)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY date DESC")

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
		return nil, 0, fmt.Errorf("%w: querying stock history: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	records := []models.StockHistoryRecord{}
	var totalCount int
	for rows.Next() {
		record, scannedCount, scanErr := scanStockHistoryRow(rows, true)
		if scanErr != nil {
			return nil, 0, scanErr
		}
		records = append(records, *record)
		totalCount = scannedCount
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock history rows: %v", ErrDatabaseError, err)
	}
	return records, totalCount, nil
}
