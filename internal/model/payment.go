package model

import "time"

// Payment mode names.
const (
	ModeGateway = "gateway"
	ModeCash    = "cash"
	ModeCheque  = "cheque"
)

type PaymentMode struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	ModeName    string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"default:true"`
}

func (PaymentMode) TableName() string { return "payment_modes" }

// Gateway order statuses.
const (
	GatewayOrderCreated = "CREATED"
	GatewayOrderPaid    = "PAID"
	GatewayOrderFailed  = "FAILED"
	GatewayOrderExpired = "EXPIRED"
)

// GatewayOrder mirrors an order created at the online payment gateway.
// Amounts are stored in minor currency units, as the gateway reports them.
type GatewayOrder struct {
	ID        string   `gorm:"primaryKey;type:varchar(36)"`
	InvoiceID string   `gorm:"type:varchar(36);index:idx_gw_invoice;not null"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID"`

	GatewayOrderID string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Signature      string `gorm:"type:varchar(255)"`
	AmountMinor    int64  `gorm:"not null"`
	Currency       string `gorm:"type:varchar(3);default:INR"`
	Status         string `gorm:"type:varchar(20);index:idx_gw_status;default:CREATED"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GatewayOrder) TableName() string { return "gateway_orders" }

func (o GatewayOrder) AmountMajor() float64 { return float64(o.AmountMinor) / 100 }

// Payment statuses.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
)

// Payment is one captured payment against an invoice. Gateway references are
// empty for cash entries.
type Payment struct {
	ID            string   `gorm:"primaryKey;type:varchar(36)"`
	InvoiceID     string   `gorm:"type:varchar(36);index:idx_payment_invoice;not null"`
	Invoice       *Invoice `gorm:"foreignKey:InvoiceID"`
	PaymentModeID string   `gorm:"type:varchar(36);not null"`

	GatewayPaymentID *string `gorm:"type:varchar(50);uniqueIndex"`
	GatewayOrderRef  string  `gorm:"type:varchar(50)"`

	AmountPaid       float64 `gorm:"type:decimal(10,2);not null"`
	ReceiptReference string  `gorm:"type:varchar(100)"`
	Status           string  `gorm:"type:varchar(20);index:idx_payment_status;default:COMPLETED"`

	RecordedByID string `gorm:"type:varchar(36)"` // empty when webhook-created
	Notes        string `gorm:"type:text"`

	PaidAt    time.Time `gorm:"index:idx_payment_date"`
	CreatedAt time.Time
}

func (Payment) TableName() string { return "payments" }

// Refund statuses.
const (
	RefundInitiated  = "INITIATED"
	RefundProcessing = "PROCESSING"
	RefundCompleted  = "COMPLETED"
	RefundFailed     = "FAILED"
)

type Refund struct {
	ID        string   `gorm:"primaryKey;type:varchar(36)"`
	PaymentID string   `gorm:"type:varchar(36);index:idx_refund_payment;not null"`
	Payment   *Payment `gorm:"foreignKey:PaymentID"`

	Reason string  `gorm:"type:varchar(255);not null"`
	Amount float64 `gorm:"type:decimal(10,2);not null"`

	GatewayRefundID *string `gorm:"type:varchar(50);uniqueIndex"`
	Status          string  `gorm:"type:varchar(20);index:idx_refund_status;default:INITIATED"`

	InitiatedByID string `gorm:"type:varchar(36);not null"`
	Notes         string `gorm:"type:text"`

	InitiatedAt time.Time
	CompletedAt *time.Time
}

func (Refund) TableName() string { return "refunds" }

// Webhook event statuses.
const (
	WebhookProcessing = "processing"
	WebhookSuccess    = "success"
	WebhookFailed     = "failed"
)

// WebhookEvent ledger guarantees at-most-once processing per external event
// id via the unique index.
type WebhookEvent struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	EventID     string `gorm:"type:varchar(100);uniqueIndex;not null"`
	EventType   string `gorm:"type:varchar(50);not null"`
	PayloadHash string `gorm:"type:varchar(64)"` // SHA256 of raw payload
	Status      string `gorm:"type:varchar(20);not null"`
	ProcessedAt time.Time `gorm:"index:idx_webhook_processed"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
