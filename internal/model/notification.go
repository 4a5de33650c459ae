package model

import "time"

// Notification types.
const (
	NotifyOrderConfirmation = "order_confirmation"
	NotifyOrderStatusUpdate = "order_status_update"
	NotifyOrderReady        = "order_ready"
	NotifyPaymentSuccess    = "payment_success"
	NotifyTrialScheduled    = "trial_scheduled"
)

// Notification statuses. SENDING marks rows claimed by a dispatcher worker
// so other workers skip them.
const (
	NotificationQueued  = "QUEUED"
	NotificationSending = "SENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)

// Notification is the outbox row for outbound customer messaging. Rows are
// enqueued inside the business transaction and dispatched after commit by
// the polling dispatcher; delivery failure never affects the transaction
// that enqueued it.
type Notification struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	Type           string `gorm:"type:varchar(100);not null"`
	RecipientID    string `gorm:"type:varchar(36);index:idx_notification_recipient;not null"`
	RecipientEmail string `gorm:"type:varchar(254);not null"`
	Channel        string `gorm:"type:varchar(20);default:email"`

	Subject string `gorm:"type:varchar(255)"`
	Body    string `gorm:"type:text"`

	OrderID *string `gorm:"type:varchar(36);index:idx_notification_order"`

	Status   string `gorm:"type:varchar(20);index:idx_notification_status;default:QUEUED"`
	Attempts int    `gorm:"default:0"`

	CreatedAt time.Time `gorm:"index"`
	SentAt    *time.Time
}

func (Notification) TableName() string { return "notifications" }
