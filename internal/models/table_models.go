package models

import "time"

// TableStatus defines the type for dining table statuses.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusBooked    TableStatus = "booked"
)

// IsValidTableStatus checks if the provided status string is a valid TableStatus.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableStatusAvailable, TableStatusOccupied, TableStatusBooked:
		return true
	default:
		return false
	}
}

// BookingInfo is the reservation sub-record attached to a table while its
// status is "booked". It never exists on its own.
type BookingInfo struct {
	CustomerName string    `json:"customer_name" binding:"required"`
	Phone        *string   `json:"phone,omitempty"`
	Email        *string   `json:"email,omitempty"`
	BookingTime  time.Time `json:"booking_time" binding:"required"`
	PartySize    *int      `json:"party_size,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Table represents a dining table in the restaurant.
// Invariants: Number is unique across tables; BookingInfo is non-nil exactly
// when Status is "booked".
type Table struct {
	ID          int64        `json:"id" db:"id"`
	Number      string       `json:"number" db:"number" binding:"required"`
	Capacity    int          `json:"capacity" db:"capacity" binding:"required,gt=0"`
	Status      TableStatus  `json:"status" db:"status"`
	BookingInfo *BookingInfo `json:"booking_info,omitempty" db:"booking_info"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// TableFilters defines the available filters for querying tables.
type TableFilters struct {
	Status *string `form:"status"`
}
