package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
)

// BillingService derives bills from orders and issues invoices. Pricing
// parameters come from the injected config, never from process globals.
type BillingService struct {
	db      *gorm.DB
	pricing config.PricingConfig
}

func NewBillingService(db *gorm.DB, pricing config.PricingConfig) *BillingService {
	return &BillingService{db: db, pricing: pricing}
}

// GenerateBillTx creates or refreshes the 1:1 bill for an order inside the
// caller's transaction. All amounts are derived: base price from the garment
// type, work-type charges from the booking snapshots, alteration charges
// from non-included alterations, urgency surcharge from the order's
// multiplier.
func (s *BillingService) GenerateBillTx(tx *gorm.DB, order *model.Order) (*model.OrderBill, error) {
	var garment model.GarmentType
	if err := tx.Where("id = ?", order.GarmentTypeID).First(&garment).Error; err != nil {
		return nil, err
	}

	var workCharges float64
	if err := tx.Model(&model.OrderWorkType{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(extra_charge), 0)").
		Scan(&workCharges).Error; err != nil {
		return nil, err
	}

	var alterationCharges float64
	if err := tx.Model(&model.Alteration{}).
		Joins("JOIN trials ON trials.id = alterations.trial_id").
		Where("trials.order_id = ? AND alterations.is_included_in_original = ?", order.ID, false).
		Select("COALESCE(SUM(alterations.estimated_cost), 0)").
		Scan(&alterationCharges).Error; err != nil {
		return nil, err
	}

	var urgencySurcharge float64
	if order.IsUrgent {
		subtotal := garment.BasePrice + workCharges + alterationCharges
		urgencySurcharge = subtotal * (order.UrgencyMultiplier - 1)
	}

	var bill model.OrderBill
	err := tx.Where("order_id = ?", order.ID).First(&bill).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		bill = model.OrderBill{
			ID:                uuid.New().String(),
			OrderID:           order.ID,
			BaseGarmentPrice:  garment.BasePrice,
			WorkTypeCharges:   workCharges,
			AlterationCharges: alterationCharges,
			UrgencySurcharge:  urgencySurcharge,
			TaxRatePercent:    s.pricing.TaxRatePercent,
			GeneratedAt:       time.Now(),
		}
		if err := tx.Create(&bill).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		bill.BaseGarmentPrice = garment.BasePrice
		bill.WorkTypeCharges = workCharges
		bill.AlterationCharges = alterationCharges
		bill.UrgencySurcharge = urgencySurcharge
		bill.TaxRatePercent = s.pricing.TaxRatePercent
		if err := tx.Save(&bill).Error; err != nil {
			return nil, err
		}
	}
	return &bill, nil
}

// GenerateInvoiceTx issues the invoice for a bill with an immutable customer
// snapshot and a counter-allocated number.
func (s *BillingService) GenerateInvoiceTx(tx *gorm.DB, bill *model.OrderBill, generatedByID string) (*model.Invoice, error) {
	var order model.Order
	if err := tx.Preload("Customer").Preload("Customer.User").
		Where("id = ?", bill.OrderID).First(&order).Error; err != nil {
		return nil, err
	}
	if order.Customer == nil || order.Customer.User == nil {
		return nil, ErrNotFound
	}

	now := time.Now()
	number, err := nextNumber(tx, s.pricing.InvoiceNumberPrefix, now)
	if err != nil {
		return nil, err
	}

	name := order.Customer.User.FullName
	if name == "" {
		name = order.Customer.User.Username
	}
	issued := now
	invoice := &model.Invoice{
		ID:            uuid.New().String(),
		InvoiceNumber: number,
		BillID:        bill.ID,
		InvoiceDate:   now,
		DueDate:       now.AddDate(0, 0, s.pricing.InvoiceDueDays),
		CustomerName:  name,
		CustomerEmail: order.Customer.User.Email,
		CustomerPhone: order.Customer.PhoneNumber,
		Status:        model.InvoiceIssued,
		GeneratedByID: generatedByID,
		IssuedAt:      &issued,
	}
	if err := tx.Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

// TotalPaidTx sums COMPLETED payments against an invoice.
func (s *BillingService) TotalPaidTx(tx *gorm.DB, invoiceID string) (float64, error) {
	var total float64
	err := tx.Model(&model.Payment{}).
		Where("invoice_id = ? AND status = ?", invoiceID, model.PaymentCompleted).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&total).Error
	return total, err
}

// ApplyPaymentsTx recomputes the invoice status from its completed payments:
// PAID once the balance reaches zero, PARTIALLY_PAID while some remains.
func (s *BillingService) ApplyPaymentsTx(tx *gorm.DB, invoiceID string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := tx.Preload("Bill").Where("id = ?", invoiceID).First(&invoice).Error; err != nil {
		return nil, err
	}
	paid, err := s.TotalPaidTx(tx, invoiceID)
	if err != nil {
		return nil, err
	}

	status := invoice.Status
	switch {
	case invoice.Bill != nil && paid >= invoice.Bill.TotalAmount():
		status = model.InvoicePaid
	case paid > 0:
		status = model.InvoicePartiallyPaid
	}
	if status != invoice.Status {
		if err := tx.Model(&model.Invoice{}).Where("id = ?", invoice.ID).
			Update("status", status).Error; err != nil {
			return nil, err
		}
		invoice.Status = status
	}
	return &invoice, nil
}

func (s *BillingService) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := s.db.WithContext(ctx).Preload("Bill").Where("id = ?", invoiceID).First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *BillingService) GetBillForOrder(ctx context.Context, orderID string) (*model.OrderBill, error) {
	var bill model.OrderBill
	err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// MarkOverdueInvoices flips issued or partially paid invoices past their due
// date to OVERDUE; returns the number affected.
func (s *BillingService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("status IN ? AND due_date < ?", []string{model.InvoiceIssued, model.InvoicePartiallyPaid}, asOf).
		Update("status", model.InvoiceOverdue)
	return res.RowsAffected, res.Error
}
