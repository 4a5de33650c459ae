package model

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SeedReferenceData inserts the immutable reference rows: order statuses,
// the transition graph, payment modes and roles. Idempotent; existing rows
// are left untouched.
func SeedReferenceData(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		statuses := []OrderStatus{
			{StatusName: StatusBooked, DisplayLabel: "Booked", SequenceOrder: 1},
			{StatusName: StatusFabricAllocated, DisplayLabel: "Fabric Allocated", SequenceOrder: 2},
			{StatusName: StatusStitching, DisplayLabel: "Stitching", SequenceOrder: 3},
			{StatusName: StatusTrialScheduled, DisplayLabel: "Trial Scheduled", SequenceOrder: 4},
			{StatusName: StatusAlteration, DisplayLabel: "Alteration", SequenceOrder: 5},
			{StatusName: StatusReady, DisplayLabel: "Ready", SequenceOrder: 6},
			{StatusName: StatusDelivered, DisplayLabel: "Delivered", SequenceOrder: 7, IsFinalState: true},
			{StatusName: StatusClosed, DisplayLabel: "Closed", SequenceOrder: 8, IsFinalState: true},
		}
		byName := map[string]string{}
		for _, s := range statuses {
			var existing OrderStatus
			err := tx.Where("status_name = ?", s.StatusName).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.ID = uuid.New().String()
				if err := tx.Create(&s).Error; err != nil {
					return err
				}
				byName[s.StatusName] = s.ID
				continue
			}
			if err != nil {
				return err
			}
			byName[existing.StatusName] = existing.ID
		}

		edges := []struct {
			from, to, roles string
		}{
			{StatusBooked, StatusFabricAllocated, "admin,staff,designer"},
			{StatusFabricAllocated, StatusStitching, "admin,staff,tailor"},
			{StatusStitching, StatusTrialScheduled, "admin,staff,tailor"},
			{StatusStitching, StatusReady, "admin,staff,tailor"},
			{StatusTrialScheduled, StatusAlteration, "admin,staff"},
			{StatusTrialScheduled, StatusReady, "admin,staff,tailor"},
			{StatusAlteration, StatusReady, "admin,staff,tailor"},
			{StatusReady, StatusDelivered, "admin,staff,delivery"},
			{StatusDelivered, StatusClosed, "admin,staff"},
		}
		for _, e := range edges {
			var existing OrderStatusTransition
			err := tx.Where("from_status_id = ? AND to_status_id = ?", byName[e.from], byName[e.to]).
				First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&OrderStatusTransition{
					ID:           uuid.New().String(),
					FromStatusID: byName[e.from],
					ToStatusID:   byName[e.to],
					AllowedRoles: e.roles,
				}).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
		}

		for _, mode := range []string{ModeGateway, ModeCash, ModeCheque} {
			var existing PaymentMode
			err := tx.Where("mode_name = ?", mode).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&PaymentMode{
					ID:       uuid.New().String(),
					ModeName: mode,
					IsActive: true,
				}).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
		}

		for _, role := range []string{RoleAdmin, RoleStaff, RoleTailor, RoleDesigner, RoleDelivery, RoleCustomer} {
			var existing Role
			err := tx.Where("name = ?", role).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if err := tx.Create(&Role{ID: uuid.New().String(), Name: role}).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}
