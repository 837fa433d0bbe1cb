package storage

import (
	"fmt"
	"sort"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// Table registry operations. FileStore satisfies repositories.TableRepository.

func (s *FileStore) CreateTable(table *models.Table) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data.Tables {
		if existing.Number == table.Number {
			return nil, fmt.Errorf("%w: table number '%s'", repositories.ErrDuplicateKey, table.Number)
		}
	}

	currentTime := time.Now()
	table.ID = s.nextID("tables")
	table.CreatedAt = currentTime
	table.UpdatedAt = currentTime

	s.data.Tables = append(s.data.Tables, copyTable(*table))
	s.markDirty()
	return table, nil
}

func (s *FileStore) GetTables(filters models.TableFilters) ([]models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := []models.Table{}
	for _, table := range s.data.Tables {
		if filters.Status != nil && *filters.Status != "" && string(table.Status) != *filters.Status {
			continue
		}
		tables = append(tables, copyTable(table))
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Number < tables[j].Number })
	return tables, nil
}

func (s *FileStore) GetTableByID(id int64) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, table := range s.data.Tables {
		if table.ID == id {
			out := copyTable(table)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) GetTableByNumber(number string) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, table := range s.data.Tables {
		if table.Number == number {
			out := copyTable(table)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) UpdateTable(table *models.Table) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Tables {
		if s.data.Tables[i].ID != table.ID && s.data.Tables[i].Number == table.Number {
			return nil, fmt.Errorf("%w: table number '%s'", repositories.ErrDuplicateKey, table.Number)
		}
	}

	for i := range s.data.Tables {
		if s.data.Tables[i].ID == table.ID {
			s.data.Tables[i].Number = table.Number
			s.data.Tables[i].Capacity = table.Capacity
			s.data.Tables[i].UpdatedAt = time.Now()
			s.markDirty()
			out := copyTable(s.data.Tables[i])
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) UpdateTableStatus(id int64, status models.TableStatus, booking *models.BookingInfo) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// booking info follows the status: attached only when entering booked,
	// dropped on every other transition.
	if status != models.TableStatusBooked {
		booking = nil
	}

	for i := range s.data.Tables {
		if s.data.Tables[i].ID == id {
			s.data.Tables[i].Status = status
			s.data.Tables[i].BookingInfo = copyBookingInfo(booking)
			s.data.Tables[i].UpdatedAt = time.Now()
			s.markDirty()
			out := copyTable(s.data.Tables[i])
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) DeleteTable(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Tables {
		if s.data.Tables[i].ID == id {
			s.data.Tables = append(s.data.Tables[:i], s.data.Tables[i+1:]...)
			s.markDirty()
			return nil
		}
	}
	return repositories.ErrNotFound
}
