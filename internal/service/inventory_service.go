package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/pkg/logger"
)

// InventoryService owns the fabric stock ledger. Every mutation writes one
// immutable StockTransaction row and updates the cached fabric quantity in
// the same transaction; quantity never goes negative.
type InventoryService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewInventoryService(db *gorm.DB, audit *AuditService) *InventoryService {
	return &InventoryService{db: db, audit: audit}
}

type CreateFabricInput struct {
	Name             string
	Color            string
	Pattern          string
	CostPerMeter     float64
	InitialQuantity  float64
	ReorderThreshold float64
	RecordedByID     string
}

func (s *InventoryService) CreateFabric(ctx context.Context, in CreateFabricInput) (*model.Fabric, error) {
	fabric := &model.Fabric{
		ID:               uuid.New().String(),
		Name:             in.Name,
		Color:            in.Color,
		Pattern:          in.Pattern,
		CostPerMeter:     in.CostPerMeter,
		QuantityInStock:  in.InitialQuantity,
		ReorderThreshold: in.ReorderThreshold,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fabric).Error; err != nil {
			return err
		}
		if in.InitialQuantity > 0 {
			rec := &model.StockTransaction{
				ID:              uuid.New().String(),
				FabricID:        fabric.ID,
				TransactionType: model.TxStockIn,
				QuantityMeters:  in.InitialQuantity,
				PreviousQty:     0,
				NewQty:          in.InitialQuantity,
				Notes:           "initial stock entry",
				RecordedByID:    in.RecordedByID,
				RecordedAt:      time.Now(),
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		}
		return s.checkLowStock(tx, fabric)
	})
	if err != nil {
		return nil, err
	}
	return fabric, nil
}

func (s *InventoryService) StockIn(ctx context.Context, fabricID string, qty float64, actorID, notes string) (*model.StockTransaction, error) {
	var rec *model.StockTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.applyMovement(tx, fabricID, model.TxStockIn, qty, nil, actorID, notes)
		return err
	})
	return rec, err
}

// StockOut records an outgoing movement, optionally tagged with the order it
// serves. Fails with InsufficientStockError and no mutation when the ledger
// cannot cover the quantity.
func (s *InventoryService) StockOut(ctx context.Context, fabricID string, qty float64, orderID *string, actorID, notes string) (*model.StockTransaction, error) {
	var rec *model.StockTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.StockOutTx(tx, fabricID, qty, orderID, actorID, notes)
		return err
	})
	return rec, err
}

// StockOutTx is the in-transaction variant used by material allocation so the
// deduction commits atomically with the allocation record.
func (s *InventoryService) StockOutTx(tx *gorm.DB, fabricID string, qty float64, orderID *string, actorID, notes string) (*model.StockTransaction, error) {
	return s.applyMovement(tx, fabricID, model.TxStockOut, qty, orderID, actorID, notes)
}

func (s *InventoryService) RecordDamage(ctx context.Context, fabricID string, qty float64, actorID, notes string) (*model.StockTransaction, error) {
	var rec *model.StockTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = s.applyMovement(tx, fabricID, model.TxDamage, qty, nil, actorID, notes)
		return err
	})
	return rec, err
}

// Adjust sets the cached quantity to an absolute value, recording the signed
// difference as an ADJUSTMENT ledger row.
func (s *InventoryService) Adjust(ctx context.Context, fabricID string, newQty float64, actorID, notes string) (*model.StockTransaction, error) {
	if newQty < 0 {
		return nil, &InsufficientStockError{FabricID: fabricID, Available: 0, Requested: -newQty}
	}
	var rec *model.StockTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fabric, err := s.getFabric(tx, fabricID)
		if err != nil {
			return err
		}
		prev := fabric.QuantityInStock
		rec = &model.StockTransaction{
			ID:              uuid.New().String(),
			FabricID:        fabric.ID,
			TransactionType: model.TxAdjustment,
			QuantityMeters:  newQty - prev,
			PreviousQty:     prev,
			NewQty:          newQty,
			Notes:           notes,
			RecordedByID:    actorID,
			RecordedAt:      time.Now(),
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Fabric{}).Where("id = ?", fabric.ID).
			Update("quantity_in_stock", newQty).Error; err != nil {
			return err
		}
		if newQty < prev {
			fabric.QuantityInStock = newQty
			return s.checkLowStock(tx, fabric)
		}
		return nil
	})
	return rec, err
}

func (s *InventoryService) applyMovement(tx *gorm.DB, fabricID, txType string, qty float64, orderID *string, actorID, notes string) (*model.StockTransaction, error) {
	fabric, err := s.getFabric(tx, fabricID)
	if err != nil {
		return nil, err
	}

	prev := fabric.QuantityInStock
	var next float64
	switch txType {
	case model.TxStockIn:
		next = prev + qty
	case model.TxStockOut, model.TxDamage:
		if prev < qty {
			return nil, &InsufficientStockError{FabricID: fabricID, Available: prev, Requested: qty}
		}
		next = prev - qty
	}

	rec := &model.StockTransaction{
		ID:              uuid.New().String(),
		FabricID:        fabric.ID,
		TransactionType: txType,
		QuantityMeters:  qty,
		PreviousQty:     prev,
		NewQty:          next,
		OrderID:         orderID,
		Notes:           notes,
		RecordedByID:    actorID,
		RecordedAt:      time.Now(),
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&model.Fabric{}).Where("id = ?", fabric.ID).
		Update("quantity_in_stock", next).Error; err != nil {
		return nil, err
	}

	if next < prev {
		fabric.QuantityInStock = next
		if err := s.checkLowStock(tx, fabric); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// checkLowStock creates the per-fabric alert on first crossing at-or-below
// the threshold, or reactivates a resolved one. The unique fabric index
// keeps it at one row, so repeated decreases never duplicate the alert.
func (s *InventoryService) checkLowStock(tx *gorm.DB, fabric *model.Fabric) error {
	if fabric.QuantityInStock > fabric.ReorderThreshold {
		return nil
	}
	var alert model.LowStockAlert
	err := tx.Where("fabric_id = ?", fabric.ID).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("low stock alert raised",
			zap.String("fabric_id", fabric.ID),
			zap.Float64("quantity", fabric.QuantityInStock),
			zap.Float64("threshold", fabric.ReorderThreshold))
		return tx.Create(&model.LowStockAlert{
			ID:          uuid.New().String(),
			FabricID:    fabric.ID,
			TriggeredAt: time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}
	if alert.IsResolved {
		return tx.Model(&model.LowStockAlert{}).Where("id = ?", alert.ID).
			Updates(map[string]interface{}{
				"is_resolved":  false,
				"resolved_at":  nil,
				"triggered_at": time.Now(),
			}).Error
	}
	return nil
}

func (s *InventoryService) ResolveAlert(ctx context.Context, alertID, actorID string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.LowStockAlert{}).Where("id = ? AND is_resolved = ?", alertID, false).
			Updates(map[string]interface{}{"is_resolved": true, "resolved_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.audit.LogActivity(tx, "low_stock_alert", alertID, model.AuditUpdate, actorID, "alert resolved", nil)
	})
}

func (s *InventoryService) GetFabric(ctx context.Context, fabricID string) (*model.Fabric, error) {
	return s.getFabric(s.db.WithContext(ctx), fabricID)
}

// ListFabrics returns live fabrics ordered by variant.
func (s *InventoryService) ListFabrics(ctx context.Context) ([]model.Fabric, error) {
	var fabrics []model.Fabric
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("name, color, pattern").
		Find(&fabrics).Error
	return fabrics, err
}

// ListAlerts returns low stock alerts, open ones unless all is set.
func (s *InventoryService) ListAlerts(ctx context.Context, all bool) ([]model.LowStockAlert, error) {
	q := s.db.WithContext(ctx).Order("triggered_at DESC")
	if !all {
		q = q.Where("is_resolved = ?", false)
	}
	var alerts []model.LowStockAlert
	err := q.Find(&alerts).Error
	return alerts, err
}

// Ledger returns a fabric's movement history, oldest first.
func (s *InventoryService) Ledger(ctx context.Context, fabricID string) ([]model.StockTransaction, error) {
	var rows []model.StockTransaction
	err := s.db.WithContext(ctx).
		Where("fabric_id = ?", fabricID).
		Order("recorded_at").
		Find(&rows).Error
	return rows, err
}

func (s *InventoryService) getFabric(tx *gorm.DB, fabricID string) (*model.Fabric, error) {
	var fabric model.Fabric
	err := tx.Where("id = ? AND is_deleted = ?", fabricID, false).First(&fabric).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fabric, nil
}
