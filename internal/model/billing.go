package model

import "time"

// OrderBill holds the derived price breakdown for one order. All amounts are
// computed by the billing service, never entered by hand.
type OrderBill struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	OrderID string `gorm:"type:varchar(36);uniqueIndex;not null"`
	Order   *Order `gorm:"foreignKey:OrderID"`

	BaseGarmentPrice  float64 `gorm:"type:decimal(10,2);not null"`
	WorkTypeCharges   float64 `gorm:"type:decimal(10,2);default:0"`
	AlterationCharges float64 `gorm:"type:decimal(10,2);default:0"`
	UrgencySurcharge  float64 `gorm:"type:decimal(10,2);default:0"`

	TaxRatePercent float64 `gorm:"type:decimal(5,2);default:0"`
	AdvanceAmount  float64 `gorm:"type:decimal(10,2);default:0"`

	GeneratedAt time.Time `gorm:"index:idx_bill_generated"`
	UpdatedAt   time.Time
}

func (OrderBill) TableName() string { return "order_bills" }

func (b OrderBill) Subtotal() float64 {
	return b.BaseGarmentPrice + b.WorkTypeCharges + b.AlterationCharges + b.UrgencySurcharge
}

func (b OrderBill) TaxAmount() float64 { return b.Subtotal() * b.TaxRatePercent / 100 }

func (b OrderBill) TotalAmount() float64 { return b.Subtotal() + b.TaxAmount() }

func (b OrderBill) BalanceAmount() float64 { return b.TotalAmount() - b.AdvanceAmount }

// Invoice statuses.
const (
	InvoiceDraft         = "DRAFT"
	InvoiceIssued        = "ISSUED"
	InvoicePaid          = "PAID"
	InvoicePartiallyPaid = "PARTIALLY_PAID"
	InvoiceOverdue       = "OVERDUE"
	InvoiceCancelled     = "CANCELLED"
)

// Invoice is issued from a bill with immutable customer snapshots.
type Invoice struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)"`
	InvoiceNumber string     `gorm:"type:varchar(50);uniqueIndex;not null"` // INV-2026-0001
	BillID        string     `gorm:"type:varchar(36);uniqueIndex;not null"`
	Bill          *OrderBill `gorm:"foreignKey:BillID"`

	InvoiceDate time.Time `gorm:"type:date;not null"`
	DueDate     time.Time `gorm:"type:date;index:idx_invoice_due;not null"`

	CustomerName  string `gorm:"type:varchar(255);not null"`
	CustomerEmail string `gorm:"type:varchar(254);not null"`
	CustomerPhone string `gorm:"type:varchar(20)"`

	PDFURL string `gorm:"type:varchar(500)"`

	Status        string `gorm:"type:varchar(20);index:idx_invoice_status;default:DRAFT"`
	GeneratedByID string `gorm:"type:varchar(36);not null"`
	IssuedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Invoice) TableName() string { return "invoices" }
