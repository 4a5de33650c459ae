package model

import "time"

// Audit action types.
const (
	AuditCreate       = "CREATE"
	AuditUpdate       = "UPDATE"
	AuditDelete       = "DELETE"
	AuditStatusChange = "STATUS_CHANGE"
	AuditAssign       = "ASSIGN"
	AuditAllocate     = "ALLOCATE"
)

// ActivityLog is the append-only audit trail shared by all domains.
// idx_audit_entity = (entity_type, entity_id)
type ActivityLog struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	EntityType  string `gorm:"type:varchar(100);index:idx_audit_entity;not null"` // order, payment, fabric, user
	EntityID    string `gorm:"type:varchar(36);index:idx_audit_entity;not null"`
	ActionType  string `gorm:"type:varchar(50);not null"`
	Description string `gorm:"type:text"`
	ChangesJSON string `gorm:"type:text"`

	PerformedByID string `gorm:"type:varchar(36);index:idx_audit_actor;not null"`
	IPAddress     string `gorm:"type:varchar(45)"`

	PerformedAt time.Time `gorm:"index:idx_audit_performed_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }

// PaymentAuditLog keeps the payment-specific trail separate from the general
// activity log.
type PaymentAuditLog struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	PaymentID string `gorm:"type:varchar(36);index:idx_payment_audit_payment;not null"`

	Amount       float64 `gorm:"type:decimal(10,2)"`
	StatusBefore string  `gorm:"type:varchar(50)"`
	StatusAfter  string  `gorm:"type:varchar(50)"`
	Reason       string  `gorm:"type:text"`

	ChangedByID string    `gorm:"type:varchar(36)"`
	ChangedAt   time.Time `gorm:"index:idx_payment_audit_changed"`
}

func (PaymentAuditLog) TableName() string { return "payment_audit_logs" }
