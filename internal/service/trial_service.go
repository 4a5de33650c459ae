package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
)

// TrialService schedules fittings and records the alterations they produce.
// Non-included alterations feed the bill's alteration charges on the next
// regeneration.
type TrialService struct {
	db            *gorm.DB
	billing       *BillingService
	notifications *NotificationService
	audit         *AuditService
}

func NewTrialService(db *gorm.DB, billing *BillingService, notifications *NotificationService, audit *AuditService) *TrialService {
	return &TrialService{db: db, billing: billing, notifications: notifications, audit: audit}
}

// Schedule books the single trial for an order and enqueues the appointment
// notification.
func (s *TrialService) Schedule(ctx context.Context, actor Actor, orderID string, trialDate time.Time, location string) (*model.Trial, error) {
	if location == "" {
		location = "shop"
	}
	trial := &model.Trial{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		TrialDate:     trialDate,
		Location:      location,
		Status:        model.TrialScheduled,
		ScheduledByID: actor.ID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Preload("Customer").Preload("Customer.User").
			Where("id = ? AND is_deleted = ?", orderID, false).
			First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Create(trial).Error; err != nil {
			return err
		}
		if err := s.audit.LogActivity(tx, "trial", trial.ID, model.AuditCreate, actor.ID,
			"trial scheduled for order "+order.OrderNumber, nil); err != nil {
			return err
		}
		if order.Customer == nil || order.Customer.User == nil {
			return nil
		}
		name := order.Customer.User.FullName
		if name == "" {
			name = order.Customer.User.Username
		}
		return s.notifications.EnqueueTrialScheduledTx(tx, &order, order.Customer.UserID,
			order.Customer.User.Email, name, trialDate)
	})
	if err != nil {
		return nil, err
	}
	return trial, nil
}

// Complete records the trial outcome and customer feedback.
func (s *TrialService) Complete(ctx context.Context, actor Actor, trialID, status, feedback string) error {
	if status != model.TrialCompleted && status != model.TrialNoShow {
		return &PreconditionFailedError{OrderNumber: trialID, Reason: "invalid trial outcome"}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Trial{}).Where("id = ? AND status = ?", trialID, model.TrialScheduled).
			Updates(map[string]interface{}{"status": status, "customer_feedback": feedback})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.audit.LogActivity(tx, "trial", trialID, model.AuditUpdate, actor.ID,
			"trial marked "+status, nil)
	})
}

type AddAlterationInput struct {
	TrialID              string
	AlterationType       string
	Description          string
	EstimatedCost        float64
	IsIncludedInOriginal bool
}

// AddAlteration records a requested change and refreshes the order's bill so
// chargeable alterations show up immediately.
func (s *TrialService) AddAlteration(ctx context.Context, actor Actor, in AddAlterationInput) (*model.Alteration, error) {
	alteration := &model.Alteration{
		ID:                   uuid.New().String(),
		TrialID:              in.TrialID,
		AlterationType:       in.AlterationType,
		Description:          in.Description,
		EstimatedCost:        in.EstimatedCost,
		IsIncludedInOriginal: in.IsIncludedInOriginal,
		Status:               model.AlterationPending,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trial model.Trial
		if err := tx.Where("id = ?", in.TrialID).First(&trial).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Create(alteration).Error; err != nil {
			return err
		}

		var order model.Order
		if err := tx.Where("id = ?", trial.OrderID).First(&order).Error; err != nil {
			return err
		}
		if _, err := s.billing.GenerateBillTx(tx, &order); err != nil {
			return err
		}
		return s.audit.LogActivity(tx, "alteration", alteration.ID, model.AuditCreate, actor.ID,
			in.AlterationType+" recorded", nil)
	})
	if err != nil {
		return nil, err
	}
	return alteration, nil
}

// CompleteAlteration marks one alteration done.
func (s *TrialService) CompleteAlteration(ctx context.Context, actor Actor, alterationID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Alteration{}).
			Where("id = ? AND status = ?", alterationID, model.AlterationPending).
			Update("status", model.AlterationCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.audit.LogActivity(tx, "alteration", alterationID, model.AuditUpdate, actor.ID,
			"alteration completed", nil)
	})
}

// ForOrder returns the order's trial with its alterations, if scheduled.
func (s *TrialService) ForOrder(ctx context.Context, orderID string) (*model.Trial, []model.Alteration, error) {
	var trial model.Trial
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&trial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	var alterations []model.Alteration
	if err := s.db.WithContext(ctx).Where("trial_id = ?", trial.ID).
		Order("created_at").Find(&alterations).Error; err != nil {
		return nil, nil, err
	}
	return &trial, alterations, nil
}
