package model

import "time"

// Trial statuses.
const (
	TrialScheduled = "SCHEDULED"
	TrialCompleted = "COMPLETED"
	TrialNoShow    = "NO_SHOW"
)

// Trial is the single fitting appointment for an order.
type Trial struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	OrderID string `gorm:"type:varchar(36);uniqueIndex;not null"`

	TrialDate     time.Time `gorm:"type:date;not null"`
	Location      string    `gorm:"type:varchar(20);default:shop"`
	Status        string    `gorm:"type:varchar(20);default:SCHEDULED"`
	ScheduledByID string    `gorm:"type:varchar(36);not null"`

	CustomerFeedback string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Trial) TableName() string { return "trials" }

// Alteration statuses.
const (
	AlterationPending   = "PENDING"
	AlterationCompleted = "COMPLETED"
)

// Alteration is one change requested after a trial. Non-included alterations
// feed the bill's alteration charges.
type Alteration struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	TrialID string `gorm:"type:varchar(36);index:idx_alteration_trial;not null"`

	AlterationType string  `gorm:"type:varchar(100);not null"` // sleeve_shorten, waist_reduce
	Description    string  `gorm:"type:text"`
	EstimatedCost  float64 `gorm:"type:decimal(10,2);default:0"`

	IsIncludedInOriginal bool   `gorm:"default:false"`
	Status               string `gorm:"type:varchar(20);default:PENDING"`

	CreatedAt time.Time
}

func (Alteration) TableName() string { return "alterations" }
