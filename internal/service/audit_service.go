package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
)

// AuditService appends audit rows. Methods take the caller's transaction so
// the audit entry commits or rolls back with the operation it describes.
type AuditService struct{}

func NewAuditService() *AuditService { return &AuditService{} }

func (s *AuditService) LogActivity(tx *gorm.DB, entityType, entityID, action, actorID, description string, changes map[string]interface{}) error {
	var changesJSON string
	if changes != nil {
		if b, err := json.Marshal(changes); err == nil {
			changesJSON = string(b)
		}
	}
	return tx.Create(&model.ActivityLog{
		ID:            uuid.New().String(),
		EntityType:    entityType,
		EntityID:      entityID,
		ActionType:    action,
		Description:   description,
		ChangesJSON:   changesJSON,
		PerformedByID: actorID,
		PerformedAt:   time.Now(),
	}).Error
}

func (s *AuditService) LogStatusChange(tx *gorm.DB, orderID, from, to, actorID, reason string) error {
	return s.LogActivity(tx, "order", orderID, model.AuditStatusChange, actorID,
		"status changed from "+from+" to "+to,
		map[string]interface{}{"from": from, "to": to, "reason": reason})
}

func (s *AuditService) LogPayment(tx *gorm.DB, paymentID string, amount float64, before, after, reason, actorID string) error {
	return tx.Create(&model.PaymentAuditLog{
		ID:           uuid.New().String(),
		PaymentID:    paymentID,
		Amount:       amount,
		StatusBefore: before,
		StatusAfter:  after,
		Reason:       reason,
		ChangedByID:  actorID,
		ChangedAt:    time.Now(),
	}).Error
}
