package storage

import (
	"kasir_pos_backend/internal/models"
)

// SchemaVersion identifies the snapshot layout. Bump on incompatible changes
// so a future loader can migrate instead of silently misreading old files.
const SchemaVersion = 1

// userRecord carries the password hash alongside the user. models.User tags
// the hash out of JSON, which is right for API responses but not for the
// snapshot file.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

// snapshot is the single persisted document. It replaces the original
// application's scattered storage keys with one versioned schema.
type snapshot struct {
	SchemaVersion int                         `json:"schema_version"`
	Sequences     map[string]int64            `json:"sequences"`
	Tables        []models.Table              `json:"tables"`
	ActiveBills   []models.ActiveBill         `json:"active_bills"`
	Products      []models.Product            `json:"products"`
	StockHistory  []models.StockHistoryRecord `json:"stock_history"`
	Payments      []models.PaymentRecord      `json:"payments"`
	Users         []userRecord                `json:"users"`
}

func emptySnapshot() *snapshot {
	return &snapshot{
		SchemaVersion: SchemaVersion,
		Sequences:     map[string]int64{},
		Tables:        []models.Table{},
		ActiveBills:   []models.ActiveBill{},
		Products:      []models.Product{},
		StockHistory:  []models.StockHistoryRecord{},
		Payments:      []models.PaymentRecord{},
		Users:         []userRecord{},
	}
}

// normalize repairs nil slices and maps after decoding a snapshot so the rest
// of the store never has to nil-check.
func (s *snapshot) normalize() {
	if s.Sequences == nil {
		s.Sequences = map[string]int64{}
	}
	if s.Tables == nil {
		s.Tables = []models.Table{}
	}
	if s.ActiveBills == nil {
		s.ActiveBills = []models.ActiveBill{}
	}
	if s.Products == nil {
		s.Products = []models.Product{}
	}
	if s.StockHistory == nil {
		s.StockHistory = []models.StockHistoryRecord{}
	}
	if s.Payments == nil {
		s.Payments = []models.PaymentRecord{}
	}
	if s.Users == nil {
		s.Users = []userRecord{}
	}
}

// --- copy helpers: the store hands out copies so callers cannot mutate
// persisted state through returned pointers.

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyBookingInfo(info *models.BookingInfo) *models.BookingInfo {
	if info == nil {
		return nil
	}
	out := *info
	out.Phone = copyStringPtr(info.Phone)
	out.Email = copyStringPtr(info.Email)
	out.PartySize = copyIntPtr(info.PartySize)
	out.Notes = copyStringPtr(info.Notes)
	return &out
}

func copyTable(t models.Table) models.Table {
	out := t
	out.BookingInfo = copyBookingInfo(t.BookingInfo)
	return out
}

func copyBillItems(items []models.BillItem) []models.BillItem {
	out := make([]models.BillItem, len(items))
	for i, item := range items {
		out[i] = item
		out[i].Notes = copyStringPtr(item.Notes)
	}
	return out
}

func copyBill(b models.ActiveBill) models.ActiveBill {
	out := b
	out.Items = copyBillItems(b.Items)
	out.CustomerName = copyStringPtr(b.CustomerName)
	if b.UpdatedAt != nil {
		v := *b.UpdatedAt
		out.UpdatedAt = &v
	}
	return out
}

func copyProduct(p models.Product) models.Product {
	out := p
	out.Image = copyStringPtr(p.Image)
	if p.LastOpnameDate != nil {
		v := *p.LastOpnameDate
		out.LastOpnameDate = &v
	}
	out.LastOpnameDifference = copyIntPtr(p.LastOpnameDifference)
	return out
}

func copyPayment(p models.PaymentRecord) models.PaymentRecord {
	out := p
	out.BillID = copyInt64Ptr(p.BillID)
	out.TableID = copyInt64Ptr(p.TableID)
	out.CashierID = copyInt64Ptr(p.CashierID)
	out.Items = copyBillItems(p.Items)
	out.CustomerName = copyStringPtr(p.CustomerName)
	return out
}

func copyStockHistory(rec models.StockHistoryRecord) models.StockHistoryRecord {
	out := rec
	out.Notes = copyStringPtr(rec.Notes)
	return out
}

func copyUser(u models.User) models.User {
	out := u
	out.FullName = copyStringPtr(u.FullName)
	out.PasswordHash = ""
	return out
}
