package storage

import (
	"sort"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// Payment trail operations. FileStore satisfies repositories.PaymentRepository.
// Records are append-only; there is no update or delete.

func (s *FileStore) CreatePayment(payment *models.PaymentRecord) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment.ID = s.nextID("payments")
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now()
	}

	s.data.Payments = append(s.data.Payments, copyPayment(*payment))
	s.markDirty()
	return payment, nil
}

func (s *FileStore) GetPayments(filters models.PaymentFilters) ([]models.PaymentRecord, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.PaymentRecord{}
	for _, payment := range s.data.Payments {
		if filters.TableID != nil && (payment.TableID == nil || *payment.TableID != *filters.TableID) {
			continue
		}
		if filters.Method != nil && *filters.Method != "" && payment.Method != *filters.Method {
			continue
		}
		if filters.Date != nil && *filters.Date != "" && payment.PaidAt.Format("2006-01-02") != *filters.Date {
			continue
		}
		matched = append(matched, copyPayment(payment))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PaidAt.After(matched[j].PaidAt) })

	totalCount := len(matched)
	return paginate(matched, filters.Page, filters.PageSize), totalCount, nil
}

func (s *FileStore) GetPaymentByID(id int64) (*models.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, payment := range s.data.Payments {
		if payment.ID == id {
			out := copyPayment(payment)
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}
