package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/pkg/logger"
)

// OrderService drives the order lifecycle. Booking, transitions and material
// allocation each run as one database transaction covering every side effect,
// with notifications enqueued to the outbox inside the same transaction.
type OrderService struct {
	db            *gorm.DB
	pricing       config.PricingConfig
	policy        *TransitionPolicy
	billing       *BillingService
	inventory     *InventoryService
	notifications *NotificationService
	audit         *AuditService
}

func NewOrderService(db *gorm.DB, pricing config.PricingConfig, policy *TransitionPolicy,
	billing *BillingService, inventory *InventoryService,
	notifications *NotificationService, audit *AuditService) *OrderService {
	return &OrderService{
		db:            db,
		pricing:       pricing,
		policy:        policy,
		billing:       billing,
		inventory:     inventory,
		notifications: notifications,
		audit:         audit,
	}
}

type CreateOrderInput struct {
	CustomerID           string
	GarmentTypeID        string
	MeasurementSetID     *string
	WorkTypeIDs          []string
	ExpectedDeliveryDate time.Time
	IsUrgent             bool
	SpecialInstructions  string
	AdvanceAmount        float64
}

// Create books an order: allocates the order number, snapshots work-type
// charges, generates the bill and invoice, and enqueues the confirmation.
// All of it commits or rolls back together.
func (s *OrderService) Create(ctx context.Context, actor Actor, in CreateOrderInput) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer model.CustomerProfile
		if err := tx.Preload("User").
			Where("id = ? AND is_deleted = ?", in.CustomerID, false).
			First(&customer).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var booked model.OrderStatus
		if err := tx.Where("status_name = ?", model.StatusBooked).First(&booked).Error; err != nil {
			return err
		}

		now := time.Now()
		number, err := nextNumber(tx, s.pricing.OrderNumberPrefix, now)
		if err != nil {
			return err
		}

		multiplier := 1.0
		if in.IsUrgent {
			multiplier = s.pricing.UrgencyMultiplier()
		}

		order = &model.Order{
			ID:                   uuid.New().String(),
			OrderNumber:          number,
			CustomerID:           customer.ID,
			GarmentTypeID:        in.GarmentTypeID,
			MeasurementSetID:     in.MeasurementSetID,
			CurrentStatusID:      booked.ID,
			ExpectedDeliveryDate: in.ExpectedDeliveryDate,
			IsUrgent:             in.IsUrgent,
			UrgencyMultiplier:    multiplier,
			SpecialInstructions:  in.SpecialInstructions,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		for _, wtID := range in.WorkTypeIDs {
			var wt model.WorkType
			if err := tx.Where("id = ? AND is_deleted = ?", wtID, false).First(&wt).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			if err := tx.Create(&model.OrderWorkType{
				ID:          uuid.New().String(),
				OrderID:     order.ID,
				WorkTypeID:  wt.ID,
				ExtraCharge: wt.ExtraCharge,
			}).Error; err != nil {
				return err
			}
		}

		bill, err := s.billing.GenerateBillTx(tx, order)
		if err != nil {
			return err
		}
		if in.AdvanceAmount > 0 {
			bill.AdvanceAmount = in.AdvanceAmount
			if err := tx.Model(&model.OrderBill{}).Where("id = ?", bill.ID).
				Update("advance_amount", in.AdvanceAmount).Error; err != nil {
				return err
			}
		}
		if _, err := s.billing.GenerateInvoiceTx(tx, bill, actor.ID); err != nil {
			return err
		}

		if err := s.audit.LogActivity(tx, "order", order.ID, model.AuditCreate, actor.ID,
			"order "+order.OrderNumber+" booked", nil); err != nil {
			return err
		}

		name := customer.User.FullName
		if name == "" {
			name = customer.User.Username
		}
		return s.notifications.EnqueueOrderConfirmationTx(tx, order, customer.UserID, customer.User.Email, name)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("order booked",
		zap.String("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Bool("urgent", order.IsUrgent))
	return order, nil
}

// Transition moves an order along one edge of the status graph. Validation
// order is fixed: edge existence, then role policy, then preconditions. The
// status update, history row, audit entry and customer notification commit
// atomically.
func (s *OrderService) Transition(ctx context.Context, actor Actor, orderID, toStatusName, reason string) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.getOrderTx(tx, orderID)
		if err != nil {
			return err
		}

		var from model.OrderStatus
		if err := tx.Where("id = ?", order.CurrentStatusID).First(&from).Error; err != nil {
			return err
		}
		var to model.OrderStatus
		if err := tx.Where("status_name = ?", toStatusName).First(&to).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &InvalidTransitionError{From: from.StatusName, To: toStatusName}
			}
			return err
		}

		var edge model.OrderStatusTransition
		err = tx.Where("from_status_id = ? AND to_status_id = ?", from.ID, to.ID).First(&edge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &InvalidTransitionError{From: from.StatusName, To: to.StatusName}
		}
		if err != nil {
			return err
		}

		if !s.policy.Allows(actor, from.StatusName, to.StatusName) {
			return &UnauthorizedTransitionError{Roles: actor.Roles, From: from.StatusName, To: to.StatusName}
		}

		if to.StatusName == model.StatusDelivered {
			paid, err := s.orderHasCompletedPaymentTx(tx, order.ID)
			if err != nil {
				return err
			}
			if !paid {
				return &PreconditionFailedError{OrderNumber: order.OrderNumber, Reason: "no completed payment recorded"}
			}
		}

		updates := map[string]interface{}{"current_status_id": to.ID}
		if to.StatusName == model.StatusDelivered {
			updates["actual_delivery_date"] = time.Now()
		}
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		order.CurrentStatusID = to.ID
		order.CurrentStatus = &to

		if err := tx.Create(&model.OrderStatusHistory{
			ID:           uuid.New().String(),
			OrderID:      order.ID,
			FromStatusID: from.ID,
			ToStatusID:   to.ID,
			ChangedByID:  actor.ID,
			ChangeReason: reason,
			ChangedAt:    time.Now(),
		}).Error; err != nil {
			return err
		}

		if err := s.audit.LogStatusChange(tx, order.ID, from.StatusName, to.StatusName, actor.ID, reason); err != nil {
			return err
		}

		var customer model.CustomerProfile
		if err := tx.Preload("User").Where("id = ?", order.CustomerID).First(&customer).Error; err != nil {
			return err
		}
		name := customer.User.FullName
		if name == "" {
			name = customer.User.Username
		}
		return s.notifications.EnqueueStatusUpdateTx(tx, order, customer.UserID, customer.User.Email, name, to.StatusName)
	})
	if err != nil {
		return nil, err
	}
	logger.Info("order transitioned",
		zap.String("order_id", order.ID),
		zap.String("to", toStatusName))
	return order, nil
}

// orderHasCompletedPaymentTx reports whether at least one COMPLETED payment
// exists against the order's invoice, joining payments through the invoice
// and bill. Delivery is gated on existence, not on the balance: partial
// payment with the remainder collected at the counter is a normal flow.
func (s *OrderService) orderHasCompletedPaymentTx(tx *gorm.DB, orderID string) (bool, error) {
	var count int64
	err := tx.Model(&model.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id").
		Joins("JOIN order_bills ON order_bills.id = invoices.bill_id").
		Where("order_bills.order_id = ? AND payments.status = ?", orderID, model.PaymentCompleted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AssignStaff records a staff assignment by role. Append-only.
func (s *OrderService) AssignStaff(ctx context.Context, actor Actor, orderID, staffID, roleType, notes string) (*model.OrderAssignment, error) {
	assignment := &model.OrderAssignment{
		ID:           uuid.New().String(),
		OrderID:      orderID,
		StaffID:      staffID,
		RoleType:     roleType,
		AssignedByID: actor.ID,
		Notes:        notes,
		AssignedAt:   time.Now(),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.getOrderTx(tx, orderID); err != nil {
			return err
		}
		if err := tx.Create(assignment).Error; err != nil {
			return err
		}
		return s.audit.LogActivity(tx, "order", orderID, model.AuditAssign, actor.ID,
			roleType+" assigned", map[string]interface{}{"staff_id": staffID, "role": roleType})
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// AllocateMaterial commits fabric to an order: one allocation row per
// (order, fabric) with a unit-cost snapshot, plus the matching stock-out
// ledger entry, atomically. Insufficient stock aborts with no mutation.
func (s *OrderService) AllocateMaterial(ctx context.Context, actor Actor, orderID, fabricID string, qty float64) (*model.OrderMaterialAllocation, error) {
	var allocation *model.OrderMaterialAllocation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.getOrderTx(tx, orderID)
		if err != nil {
			return err
		}

		var existing model.OrderMaterialAllocation
		err = tx.Where("order_id = ? AND fabric_id = ?", orderID, fabricID).First(&existing).Error
		if err == nil {
			return ErrAlreadyAllocated
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var fabric model.Fabric
		if err := tx.Where("id = ? AND is_deleted = ?", fabricID, false).First(&fabric).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		allocation = &model.OrderMaterialAllocation{
			ID:             uuid.New().String(),
			OrderID:        order.ID,
			FabricID:       fabric.ID,
			QuantityMeters: qty,
			UnitCost:       fabric.CostPerMeter,
			AllocatedByID:  actor.ID,
			AllocatedAt:    time.Now(),
		}
		if err := tx.Create(allocation).Error; err != nil {
			return err
		}

		if _, err := s.inventory.StockOutTx(tx, fabric.ID, qty, &order.ID, actor.ID,
			"allocated to order "+order.OrderNumber); err != nil {
			return err
		}

		return s.audit.LogActivity(tx, "order", order.ID, model.AuditAllocate, actor.ID,
			"fabric allocated", map[string]interface{}{"fabric_id": fabric.ID, "quantity": qty})
	})
	if err != nil {
		return nil, err
	}
	return allocation, nil
}

func (s *OrderService) Get(ctx context.Context, orderID string) (*model.Order, error) {
	return s.getOrderTx(s.db.WithContext(ctx), orderID)
}

func (s *OrderService) getOrderTx(tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := tx.Preload("CurrentStatus").Preload("GarmentType").
		Where("id = ? AND is_deleted = ?", orderID, false).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// History returns the append-only status trail, oldest first.
func (s *OrderService) History(ctx context.Context, orderID string) ([]model.OrderStatusHistory, error) {
	var rows []model.OrderStatusHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at").
		Find(&rows).Error
	return rows, err
}

// ListByStatus returns live orders currently in the named status.
func (s *OrderService) ListByStatus(ctx context.Context, statusName string) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Joins("JOIN order_statuses ON order_statuses.id = orders.current_status_id").
		Where("order_statuses.status_name = ? AND orders.is_deleted = ?", statusName, false).
		Preload("CurrentStatus").
		Order("orders.created_at").
		Find(&orders).Error
	return orders, err
}

// ListByCustomer returns a customer's live orders, newest first.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID string) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("customer_id = ? AND is_deleted = ?", customerID, false).
		Preload("CurrentStatus").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// ListOverdue returns live, non-final orders past their expected delivery
// date as of the given time.
func (s *OrderService) ListOverdue(ctx context.Context, asOf time.Time) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Joins("JOIN order_statuses ON order_statuses.id = orders.current_status_id").
		Where("orders.expected_delivery_date < ? AND order_statuses.is_final_state = ? AND orders.is_deleted = ?",
			asOf, false, false).
		Preload("CurrentStatus").
		Order("orders.expected_delivery_date").
		Find(&orders).Error
	return orders, err
}

// SoftDelete hides the order from queries without losing its trail.
func (s *OrderService) SoftDelete(ctx context.Context, actor Actor, orderID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).Where("id = ? AND is_deleted = ?", orderID, false).
			Update("is_deleted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return s.audit.LogActivity(tx, "order", orderID, model.AuditDelete, actor.ID, "order soft deleted", nil)
	})
}
