package service

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/tailorshop/internal/model"
)

// nextNumber allocates the next document number for scope ("ORD", "INV") in
// the current calendar year via an atomic counter upsert. Runs inside the
// caller's transaction, so an aborted unit of work returns its number to the
// counter and two committed allocations never collide.
func nextNumber(tx *gorm.DB, prefix string, now time.Time) (string, error) {
	year := now.Year()
	seq := model.NumberSequence{Scope: prefix, Year: year, Value: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("value + 1")}),
	}).Create(&seq).Error
	if err != nil {
		return "", err
	}

	var cur model.NumberSequence
	if err := tx.Where("scope = ? AND year = ?", prefix, year).First(&cur).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, cur.Value), nil
}
