package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// --- Custom Service Errors for Tables ---
var (
	ErrTableNotFound        = errors.New("table not found")
	ErrDuplicateTableNumber = errors.New("a table with this number already exists")
	ErrTableValidation      = errors.New("table data validation error")
	ErrInvalidTableStatus   = errors.New("invalid table status")
	ErrTableOccupied        = errors.New("table is occupied")
	ErrBookingValidation    = errors.New("booking data validation error")
)

// --- Table DTOs ---
type CreateTableRequest struct {
	Number   string `json:"number" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
}

type UpdateTableRequest struct {
	Number   *string `json:"number"`
	Capacity *int    `json:"capacity"`
}

type UpdateTableStatusRequest struct {
	Status      string              `json:"status" binding:"required"`
	BookingInfo *models.BookingInfo `json:"booking_info"`
}

type CreateBookingRequest struct {
	TableID      int64   `json:"table_id" binding:"required"`
	CustomerName string  `json:"customer_name" binding:"required"`
	BookingTime  string  `json:"booking_time" binding:"required"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	PartySize    *int    `json:"party_size"`
	Notes        *string `json:"notes"`
}

// --- TableService Interface ---
type TableService interface {
	CreateTable(req CreateTableRequest) (*models.Table, error)
	GetTables(filters models.TableFilters) ([]models.Table, error)
	GetTableByID(tableID int64) (*models.Table, error)
	UpdateTable(tableID int64, req UpdateTableRequest) (*models.Table, error)
	UpdateTableStatus(tableID int64, req UpdateTableStatusRequest) (*models.Table, error)
	DeleteTable(tableID int64) error
	AddBooking(req CreateBookingRequest) (*models.Table, error)
	CancelBooking(tableID int64) (*models.Table, error)
	ReleaseExpiredBookings(hold time.Duration) (int, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	billRepo  repositories.BillRepository
}

// NewTableService creates a new instance of TableService.
func NewTableService(tr repositories.TableRepository, br repositories.BillRepository) TableService {
	return &tableService{tableRepo: tr, billRepo: br}
}

func (s *tableService) CreateTable(req CreateTableRequest) (*models.Table, error) {
	if strings.TrimSpace(req.Number) == "" {
		return nil, fmt.Errorf("%w: table number is required", ErrTableValidation)
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive number", ErrTableValidation)
	}

	table := &models.Table{
		Number:   strings.TrimSpace(req.Number),
		Capacity: req.Capacity,
		Status:   models.TableStatusAvailable,
	}
	created, err := s.tableRepo.CreateTable(table)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateTableNumber, table.Number)
		}
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return created, nil
}

func (s *tableService) GetTables(filters models.TableFilters) ([]models.Table, error) {
	if filters.Status != nil && *filters.Status != "" && !models.IsValidTableStatus(*filters.Status) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidTableStatus, *filters.Status)
	}
	tables, err := s.tableRepo.GetTables(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) GetTableByID(tableID int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to get table by ID: %w", err)
	}
	return table, nil
}

// UpdateTable merges the provided fields onto the existing record. A missing
// id is a hard error, not a silent no-op.
func (s *tableService) UpdateTable(tableID int64, req UpdateTableRequest) (*models.Table, error) {
	table, err := s.GetTableByID(tableID)
	if err != nil {
		return nil, err
	}

	if req.Number != nil {
		if strings.TrimSpace(*req.Number) == "" {
			return nil, fmt.Errorf("%w: table number cannot be empty", ErrTableValidation)
		}
		table.Number = strings.TrimSpace(*req.Number)
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, fmt.Errorf("%w: capacity must be a positive number", ErrTableValidation)
		}
		table.Capacity = *req.Capacity
	}

	updated, err := s.tableRepo.UpdateTable(table)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicateTableNumber, table.Number)
		}
		return nil, fmt.Errorf("failed to update table: %w", err)
	}
	return updated, nil
}

func (s *tableService) UpdateTableStatus(tableID int64, req UpdateTableStatusRequest) (*models.Table, error) {
	if !models.IsValidTableStatus(req.Status) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidTableStatus, req.Status)
	}
	status := models.TableStatus(req.Status)

	if status == models.TableStatusBooked {
		if req.BookingInfo == nil {
			return nil, fmt.Errorf("%w: booking info is required when marking a table as booked", ErrBookingValidation)
		}
		if strings.TrimSpace(req.BookingInfo.CustomerName) == "" {
			return nil, fmt.Errorf("%w: customer name is required", ErrBookingValidation)
		}
		if req.BookingInfo.CreatedAt.IsZero() {
			req.BookingInfo.CreatedAt = time.Now()
		}
	}

	table, err := s.tableRepo.UpdateTableStatus(tableID, status, req.BookingInfo)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to update table status: %w", err)
	}
	return table, nil
}

// DeleteTable removes the table and cascades removal of any active bill held
// against it. The occupied-table guard lives in the UI, not here.
func (s *tableService) DeleteTable(tableID int64) error {
	if _, err := s.GetTableByID(tableID); err != nil {
		return err
	}

	if err := s.billRepo.DeleteBillByTableID(tableID); err != nil {
		return fmt.Errorf("failed to remove active bill of table %d: %w", tableID, err)
	}
	if err := s.tableRepo.DeleteTable(tableID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return nil
}

// parseBookingTime accepts RFC3339 and the dashboard's local format.
func parseBookingTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or 'YYYY-MM-DD HH:MM', got '%s'", value)
	}
	return t, nil
}

func (s *tableService) AddBooking(req CreateBookingRequest) (*models.Table, error) {
	if req.TableID == 0 {
		return nil, fmt.Errorf("%w: table id is required", ErrBookingValidation)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrBookingValidation)
	}
	if strings.TrimSpace(req.BookingTime) == "" {
		return nil, fmt.Errorf("%w: booking time is required", ErrBookingValidation)
	}
	bookingTime, err := parseBookingTime(req.BookingTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBookingValidation, err)
	}

	table, err := s.GetTableByID(req.TableID)
	if err != nil {
		return nil, err
	}
	if table.Status == models.TableStatusOccupied {
		return nil, fmt.Errorf("%w: table '%s' cannot be booked right now", ErrTableOccupied, table.Number)
	}

	info := &models.BookingInfo{
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        req.Phone,
		Email:        req.Email,
		BookingTime:  bookingTime,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		CreatedAt:    time.Now(),
	}
	return s.UpdateTableStatus(req.TableID, UpdateTableStatusRequest{
		Status:      string(models.TableStatusBooked),
		BookingInfo: info,
	})
}

// CancelBooking returns a booked table to available; the booking sub-record
// is dropped by the status transition.
func (s *tableService) CancelBooking(tableID int64) (*models.Table, error) {
	return s.UpdateTableStatus(tableID, UpdateTableStatusRequest{
		Status: string(models.TableStatusAvailable),
	})
}

// ReleaseExpiredBookings returns booked tables whose reservation time passed
// more than hold ago to available. Run periodically by the scheduler.
func (s *tableService) ReleaseExpiredBookings(hold time.Duration) (int, error) {
	status := string(models.TableStatusBooked)
	tables, err := s.tableRepo.GetTables(models.TableFilters{Status: &status})
	if err != nil {
		return 0, fmt.Errorf("failed to list booked tables: %w", err)
	}

	released := 0
	cutoff := time.Now().Add(-hold)
	for _, table := range tables {
		if table.BookingInfo == nil || table.BookingInfo.BookingTime.After(cutoff) {
			continue
		}
		if _, err := s.tableRepo.UpdateTableStatus(table.ID, models.TableStatusAvailable, nil); err != nil {
			return released, fmt.Errorf("failed to release table %d: %w", table.ID, err)
		}
		released++
	}
	return released, nil
}
