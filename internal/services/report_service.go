package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"kasir_pos_backend/internal/models"
	"kasir_pos_backend/internal/repositories"
)

// --- Custom Service Errors for Reports ---
var (
	ErrPaymentNotFound     = errors.New("payment record not found")
	ErrReportValidation    = errors.New("report parameter validation error")
	ErrInvalidReportPeriod = errors.New("invalid report date")
)

// SalesReportItem is one aggregated product line in a daily report.
type SalesReportItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// SalesReport is the aggregate of all payments settled on one calendar day.
type SalesReport struct {
	Date             string             `json:"date"`
	TransactionCount int                `json:"transaction_count"`
	GrossSales       float64            `json:"gross_sales"`
	TaxCollected     float64            `json:"tax_collected"`
	TotalRevenue     float64            `json:"total_revenue"`
	ByMethod         map[string]float64 `json:"by_method"`
	TopItems         []SalesReportItem  `json:"top_items"`
}

// --- ReportService Interface ---
type ReportService interface {
	GetPayments(filters models.PaymentFilters) ([]models.PaymentRecord, int, error)
	GetPaymentByID(paymentID int64) (*models.PaymentRecord, error)
	// GetSalesReport aggregates all payments for the given day (YYYY-MM-DD).
	GetSalesReport(date string) (*SalesReport, error)
}

type reportService struct {
	paymentRepo repositories.PaymentRepository
}

// NewReportService creates a new instance of ReportService.
func NewReportService(pr repositories.PaymentRepository) ReportService {
	return &reportService{paymentRepo: pr}
}

func (s *reportService) GetPayments(filters models.PaymentFilters) ([]models.PaymentRecord, int, error) {
	if filters.Page < 0 || filters.PageSize < 0 {
		return nil, 0, fmt.Errorf("%w: page and page size must be non-negative", ErrReportValidation)
	}
	records, total, err := s.paymentRepo.GetPayments(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payments: %w", err)
	}
	return records, total, nil
}

func (s *reportService) GetPaymentByID(paymentID int64) (*models.PaymentRecord, error) {
	record, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment by ID: %w", err)
	}
	return record, nil
}

func (s *reportService) GetSalesReport(date string) (*SalesReport, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReportPeriod, date)
	}

	records, _, err := s.paymentRepo.GetPayments(models.PaymentFilters{Date: &date})
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for report: %w", err)
	}

	report := &SalesReport{
		Date:     date,
		ByMethod: make(map[string]float64),
	}
	itemTotals := make(map[string]*SalesReportItem)

	for _, record := range records {
		report.TransactionCount++
		report.GrossSales += record.Subtotal
		report.TaxCollected += record.Tax
		report.TotalRevenue += record.Total
		report.ByMethod[record.Method] += record.Total

		for _, item := range record.Items {
			agg, ok := itemTotals[item.Name]
			if !ok {
				agg = &SalesReportItem{Name: item.Name}
				itemTotals[item.Name] = agg
			}
			agg.Quantity += item.Quantity
			agg.Revenue += item.Subtotal
		}
	}

	report.TopItems = make([]SalesReportItem, 0, len(itemTotals))
	for _, item := range itemTotals {
		report.TopItems = append(report.TopItems, *item)
	}
	sort.Slice(report.TopItems, func(i, j int) bool {
		if report.TopItems[i].Revenue != report.TopItems[j].Revenue {
			return report.TopItems[i].Revenue > report.TopItems[j].Revenue
		}
		return report.TopItems[i].Name < report.TopItems[j].Name
	})
	return report, nil
}
