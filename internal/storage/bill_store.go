package storage

import (
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// Active bill store operations. FileStore satisfies repositories.BillRepository.

func (s *FileStore) tableNumberLocked(tableID int64) string {
	for _, table := range s.data.Tables {
		if table.ID == tableID {
			return table.Number
		}
	}
	return ""
}

// UpsertForTable filters out any prior bill for the same table before
// appending, which is what keeps the at-most-one-bill-per-table invariant.
func (s *FileStore) UpsertForTable(bill *models.ActiveBill) (*models.ActiveBill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.ActiveBills[:0]
	for _, existing := range s.data.ActiveBills {
		if existing.TableID != bill.TableID {
			kept = append(kept, existing)
		}
	}
	s.data.ActiveBills = kept

	bill.ID = s.nextID("active_bills")
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	bill.TableNumber = s.tableNumberLocked(bill.TableID)

	s.data.ActiveBills = append(s.data.ActiveBills, copyBill(*bill))
	s.markDirty()
	out := copyBill(*bill)
	return &out, nil
}

func (s *FileStore) GetBills() ([]models.ActiveBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bills := make([]models.ActiveBill, 0, len(s.data.ActiveBills))
	for _, bill := range s.data.ActiveBills {
		out := copyBill(bill)
		out.TableNumber = s.tableNumberLocked(bill.TableID)
		bills = append(bills, out)
	}
	return bills, nil
}

func (s *FileStore) GetBillByID(id int64) (*models.ActiveBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bill := range s.data.ActiveBills {
		if bill.ID == id {
			out := copyBill(bill)
			out.TableNumber = s.tableNumberLocked(bill.TableID)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) GetBillByTableID(tableID int64) (*models.ActiveBill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, bill := range s.data.ActiveBills {
		if bill.TableID == tableID {
			out := copyBill(bill)
			out.TableNumber = s.tableNumberLocked(bill.TableID)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *FileStore) DeleteBillByID(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.ActiveBills {
		if s.data.ActiveBills[i].ID == id {
			s.data.ActiveBills = append(s.data.ActiveBills[:i], s.data.ActiveBills[i+1:]...)
			s.markDirty()
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (s *FileStore) DeleteBillByTableID(tableID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Cascade path for table deletion: no bill is not an error.
	for i := range s.data.ActiveBills {
		if s.data.ActiveBills[i].TableID == tableID {
			s.data.ActiveBills = append(s.data.ActiveBills[:i], s.data.ActiveBills[i+1:]...)
			s.markDirty()
			return nil
		}
	}
	return nil
}
