package model

// NumberSequence is the dedicated counter backing order and invoice numbers.
// One row per (scope, year); the value is bumped with an atomic upsert inside
// the surrounding transaction, so concurrent writers never reuse a number.
type NumberSequence struct {
	Scope string `gorm:"primaryKey;type:varchar(20)"` // ORD, INV
	Year  int    `gorm:"primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (NumberSequence) TableName() string { return "number_sequences" }
