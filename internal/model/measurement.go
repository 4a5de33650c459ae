package model

import "time"

// MeasurementSet groups the measurements taken for one customer and garment
// type; orders reference a set, values live in MeasurementValue rows.
type MeasurementSet struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	CustomerID    string `gorm:"type:varchar(36);index:idx_mset_customer;not null"`
	GarmentTypeID string `gorm:"type:varchar(36);not null"`

	MeasurementDate time.Time `gorm:"type:date"`
	TakenByID       string    `gorm:"type:varchar(36)"`
	IsDefault       bool      `gorm:"default:false"`
	Notes           string    `gorm:"type:text"`
	IsDeleted       bool      `gorm:"default:false"`

	CreatedAt time.Time
}

func (MeasurementSet) TableName() string { return "measurement_sets" }

// idx_mval_pair = (measurement_set_id, field_name)
type MeasurementValue struct {
	ID               string  `gorm:"primaryKey;type:varchar(36)"`
	MeasurementSetID string  `gorm:"type:varchar(36);index:idx_mval_set;index:idx_mval_pair,unique;not null"`
	FieldName        string  `gorm:"type:varchar(100);not null;index:idx_mval_pair,unique"`
	Value            float64 `gorm:"type:decimal(8,2);not null"`
	Unit             string  `gorm:"type:varchar(20);default:inches"`
}

func (MeasurementValue) TableName() string { return "measurement_values" }
