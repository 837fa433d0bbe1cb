package models

import "time"

// StockHistoryType defines why a stock level changed.
type StockHistoryType string

const (
	StockHistoryOpname     StockHistoryType = "opname"
	StockHistoryRestock    StockHistoryType = "restock"
	StockHistoryCorrection StockHistoryType = "correction"
)

// IsValidStockHistoryType checks if the provided type string is a valid StockHistoryType.
func IsValidStockHistoryType(t string) bool {
	switch StockHistoryType(t) {
	case StockHistoryOpname, StockHistoryRestock, StockHistoryCorrection:
		return true
	default:
		return false
	}
}

// Product is a sellable menu item with a tracked stock level.
// LastOpnameDate/LastOpnameDifference are set by the most recent physical
// stock reconciliation and are nil until one has run.
type Product struct {
	ID                   int64      `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name" binding:"required"`
	Category             string     `json:"category" db:"category" binding:"required"`
	Price                float64    `json:"price" db:"price" binding:"required,gte=0"`
	Stock                int        `json:"stock" db:"stock"`
	Image                *string    `json:"image,omitempty" db:"image"`
	LastOpnameDate       *time.Time `json:"last_opname_date,omitempty" db:"last_opname_date"`
	LastOpnameDifference *int       `json:"last_opname_difference,omitempty" db:"last_opname_difference"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// StockHistoryRecord is one entry of the append-only stock movement log.
// Records are never mutated after creation. ValueImpact is the adjustment
// valued at the product's price at the time of the change.
type StockHistoryRecord struct {
	ID          int64            `json:"id" db:"id"`
	ProductID   int64            `json:"product_id" db:"product_id"`
	ProductName string           `json:"product_name" db:"product_name"`
	OldStock    int              `json:"old_stock" db:"old_stock"`
	Adjustment  int              `json:"adjustment" db:"adjustment"`
	NewStock    int              `json:"new_stock" db:"new_stock"`
	Type        StockHistoryType `json:"type" db:"type"`
	Notes       *string          `json:"notes,omitempty" db:"notes"`
	ValueImpact float64          `json:"value_impact" db:"value_impact"`
	Date        time.Time        `json:"date" db:"date"`
}

// ProductFilters defines the available filters for querying products.
type ProductFilters struct {
	Category *string `form:"category"`
	Search   *string `form:"search"`
}

// StockHistoryFilters defines the available filters for querying stock history.
type StockHistoryFilters struct {
	ProductID *int64  `form:"product_id"`
	Type      *string `form:"type"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
