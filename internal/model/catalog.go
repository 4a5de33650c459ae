package model

import "time"

// GarmentType is a catalog entry carrying the base price used by billing.
type GarmentType struct {
	ID                      string  `gorm:"primaryKey;type:varchar(36)"`
	Name                    string  `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description             string  `gorm:"type:text"`
	BasePrice               float64 `gorm:"type:decimal(10,2);not null"`
	FabricRequirementMeters float64 `gorm:"type:decimal(10,3);default:0"`
	StitchingDaysEstimate   int     `gorm:"default:7"`
	IsActive                bool    `gorm:"default:true"`
	IsDeleted               bool    `gorm:"default:false"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (GarmentType) TableName() string { return "garment_types" }

// WorkType is an optional add-on (embroidery, lining, ...) with a flat charge.
type WorkType struct {
	ID                 string  `gorm:"primaryKey;type:varchar(36)"`
	Name               string  `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description        string  `gorm:"type:text"`
	ExtraCharge        float64 `gorm:"type:decimal(10,2);not null"`
	LaborHoursEstimate int     `gorm:"default:8"`
	IsDeleted          bool    `gorm:"default:false"`
	CreatedAt          time.Time
}

func (WorkType) TableName() string { return "work_types" }
