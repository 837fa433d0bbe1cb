package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
)

// ProductRepository defines the interface for the product catalog.
type ProductRepository interface {
	CreateProduct(product *models.Product) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	UpdateProduct(product *models.Product) (*models.Product, error)
	// SetStock overwrites a product's stock level. For opname passes the
	// reconciliation date and counted difference are stored on the product.
	SetStock(id int64, newStock int, opnameDate *time.Time, opnameDifference *int) (*models.Product, error)
	DeleteProduct(id int64) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new PostgreSQL-backed ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const selectProductFields = `id, name, category, price, stock, image, last_opname_date, last_opname_difference, created_at, updated_at`

func scanProductRow(row scanner) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
		&product.ID, &product.Name, &product.Category, &product.Price, &product.Stock,
		&product.Image, &product.LastOpnameDate, &product.LastOpnameDifference,
		&product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
	}
	return &product, nil
}

func (r *productRepository) CreateProduct(product *models.Product) (*models.Product, error) {
	query := `INSERT INTO products (name, category, price, stock, image, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime

	err := r.db.QueryRow(query,
		product.Name, product.Category, product.Price, product.Stock, product.Image,
		product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product, nil
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString("SELECT " + selectProductFields + " FROM products")

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category, name")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, scanErr := scanProductRow(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}
	return products, nil
}

func (r *productRepository) GetProductByID(id int64) (*models.Product, error) {
	query := "SELECT " + selectProductFields + " FROM products WHERE id = $1"
	return scanProductRow(r.db.QueryRow(query, id))
}

func (r *productRepository) UpdateProduct(product *models.Product) (*models.Product, error) {
	query := `UPDATE products SET name = $1, category = $2, price = $3, stock = $4, image = $5, updated_at = $6
	          WHERE id = $7
	          RETURNING updated_at`
	product.UpdatedAt = time.Now()

	err := r.db.QueryRow(query,
		product.Name, product.Category, product.Price, product.Stock, product.Image,
		product.UpdatedAt, product.ID,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	return r.GetProductByID(product.ID)
}

func (r *productRepository) SetStock(id int64, newStock int, opnameDate *time.Time, opnameDifference *int) (*models.Product, error) {
	query := `UPDATE products SET stock = $1,
	            last_opname_date = COALESCE($2, last_opname_date),
	            last_opname_difference = COALESCE($3, last_opname_difference),
	            updated_at = $4
	          WHERE id = $5
	          RETURNING updated_at`

	var updatedAt time.Time
	err := r.db.QueryRow(query, newStock, opnameDate, opnameDifference, time.Now(), id).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: setting stock of product ID %d: %v", ErrDatabaseError, id, err)
	}
	return r.GetProductByID(id)
}

func (r *productRepository) DeleteProduct(id int64) error {
	result, err := r.db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
