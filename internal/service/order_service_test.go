package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tailorshop/internal/model"
)

func TestCreateOrderBooksEverythingAtomically(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Suit", 6500)
	embroidery := env.createWorkType(t, "Embroidery", 500)

	order, err := env.orders.Create(ctx, staff, CreateOrderInput{
		CustomerID:           customer.ID,
		GarmentTypeID:        garment.ID,
		WorkTypeIDs:          []string{embroidery.ID},
		ExpectedDeliveryDate: time.Now().AddDate(0, 0, 21),
		IsUrgent:             false,
	})
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("ORD-%d-0001", year), order.OrderNumber)
	assert.InDelta(t, 1.0, order.UrgencyMultiplier, 1e-9)

	got, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, got.CurrentStatus.StatusName)

	// bill and invoice generated in the same unit of work
	bill, err := env.billing.GetBillForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 6500, bill.BaseGarmentPrice, 1e-9)
	assert.InDelta(t, 500, bill.WorkTypeCharges, 1e-9)
	assert.InDelta(t, 0, bill.UrgencySurcharge, 1e-9)

	invoice := env.invoiceForOrder(t, order.ID)
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", year), invoice.InvoiceNumber)
	assert.Equal(t, model.InvoiceIssued, invoice.Status)

	// confirmation queued in the outbox
	var notif model.Notification
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&notif).Error)
	assert.Equal(t, model.NotifyOrderConfirmation, notif.Type)
	assert.Equal(t, model.NotificationQueued, notif.Status)

	// second order gets the next counter value
	second := env.createOrder(t, staff, customer.ID, garment.ID, false)
	assert.Equal(t, fmt.Sprintf("ORD-%d-0002", year), second.OrderNumber)
}

func TestUrgentOrderSurchargeFromConfig(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Sherwani", 8000)

	order := env.createOrder(t, staff, customer.ID, garment.ID, true)
	assert.InDelta(t, 1.20, order.UrgencyMultiplier, 1e-9)

	bill, err := env.billing.GetBillForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	// surcharge = subtotal * (multiplier - 1)
	assert.InDelta(t, 8000*0.20, bill.UrgencySurcharge, 1e-9)
	assert.InDelta(t, 9600, bill.Subtotal(), 1e-9)
	assert.InDelta(t, 9600*1.18, bill.TotalAmount(), 1e-6)
}

func TestTransitionWalksTheGraph(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	for _, status := range []string{model.StatusFabricAllocated, model.StatusStitching, model.StatusReady} {
		_, err := env.orders.Transition(ctx, staff, order.ID, status, "")
		require.NoError(t, err)
	}

	got, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, got.CurrentStatus.StatusName)

	history, err := env.orders.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestTransitionRejectsMissingEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	_, err := env.orders.Transition(ctx, staff, order.ID, model.StatusDelivered, "")
	var invalid *InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, model.StatusBooked, invalid.From)
	assert.Equal(t, model.StatusDelivered, invalid.To)

	// unknown status name is the same class of failure
	_, err = env.orders.Transition(ctx, staff, order.ID, "teleported", "")
	require.ErrorAs(t, err, &invalid)

	// nothing moved, nothing recorded
	got, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, got.CurrentStatus.StatusName)
	history, err := env.orders.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransitionRejectsUnauthorizedRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	tailor := env.actorWithRole(t, model.RoleTailor)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	// the booked -> fabric_allocated edge exists but is not a tailor edge
	_, err := env.orders.Transition(ctx, tailor, order.ID, model.StatusFabricAllocated, "")
	var unauthorized *UnauthorizedTransitionError
	require.ErrorAs(t, err, &unauthorized)

	got, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, got.CurrentStatus.StatusName)

	// the designer owns that edge
	designer := env.actorWithRole(t, model.RoleDesigner)
	_, err = env.orders.Transition(ctx, designer, order.ID, model.StatusFabricAllocated, "")
	require.NoError(t, err)

	// and the tailor may now take fabric_allocated -> stitching
	_, err = env.orders.Transition(ctx, tailor, order.ID, model.StatusStitching, "")
	require.NoError(t, err)
}

func TestDeliveredRequiresCompletedPayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	for _, status := range []string{model.StatusFabricAllocated, model.StatusStitching, model.StatusReady} {
		_, err := env.orders.Transition(ctx, staff, order.ID, status, "")
		require.NoError(t, err)
	}

	// no payment at all blocks delivery
	_, err := env.orders.Transition(ctx, staff, order.ID, model.StatusDelivered, "")
	var precondition *PreconditionFailedError
	require.ErrorAs(t, err, &precondition)
	assert.Equal(t, order.OrderNumber, precondition.OrderNumber)

	// one completed payment is enough, even a partial one; the balance is
	// collected at the counter on pickup
	invoice := env.invoiceForOrder(t, order.ID)
	bill, err := env.billing.GetBillForOrder(ctx, order.ID)
	require.NoError(t, err)
	_, err = env.payments.RecordCashPayment(ctx, staff, invoice.ID, bill.TotalAmount()/2, "RCPT-1", "")
	require.NoError(t, err)

	got, err := env.orders.Transition(ctx, staff, order.ID, model.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, got.CurrentStatus.StatusName)

	final, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, final.ActualDeliveryDate)
}

func TestAllocateMaterialDeductsStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Suit", 6500)
	orderA := env.createOrder(t, staff, customer.ID, garment.ID, false)
	orderB := env.createOrder(t, staff, customer.ID, garment.ID, false)
	fabric := env.createFabric(t, 50, 5)

	allocation, err := env.orders.AllocateMaterial(ctx, staff, orderA.ID, fabric.ID, 10)
	require.NoError(t, err)
	assert.InDelta(t, 250, allocation.UnitCost, 1e-9) // snapshot of cost per meter
	assert.InDelta(t, 2500, allocation.TotalCost(), 1e-9)

	// second allocation of the same fabric to the same order is rejected
	_, err = env.orders.AllocateMaterial(ctx, staff, orderA.ID, fabric.ID, 5)
	assert.True(t, errors.Is(err, ErrAlreadyAllocated))

	// 40m remain; a 45m request fails with no mutation
	_, err = env.orders.AllocateMaterial(ctx, staff, orderB.ID, fabric.ID, 45)
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.InDelta(t, 40, insufficient.Available, 1e-9)
	assert.InDelta(t, 45, insufficient.Requested, 1e-9)

	got, err := env.inventory.GetFabric(ctx, fabric.ID)
	require.NoError(t, err)
	assert.InDelta(t, 40, got.QuantityInStock, 1e-9)

	var allocations []model.OrderMaterialAllocation
	require.NoError(t, env.db.Where("fabric_id = ?", fabric.ID).Find(&allocations).Error)
	assert.Len(t, allocations, 1)

	// the ledger row carries the order reference
	var ledger model.StockTransaction
	require.NoError(t, env.db.Where("fabric_id = ? AND transaction_type = ?", fabric.ID, model.TxStockOut).
		First(&ledger).Error)
	require.NotNil(t, ledger.OrderID)
	assert.Equal(t, orderA.ID, *ledger.OrderID)
}

func TestListOverdueSkipsFinalStates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)

	order, err := env.orders.Create(ctx, staff, CreateOrderInput{
		CustomerID:           customer.ID,
		GarmentTypeID:        garment.ID,
		ExpectedDeliveryDate: time.Now().AddDate(0, 0, -3),
	})
	require.NoError(t, err)

	overdue, err := env.orders.ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, order.ID, overdue[0].ID)

	// deliver and close it; it drops out of the overdue list
	for _, status := range []string{model.StatusFabricAllocated, model.StatusStitching, model.StatusReady} {
		_, err := env.orders.Transition(ctx, staff, order.ID, status, "")
		require.NoError(t, err)
	}
	invoice := env.invoiceForOrder(t, order.ID)
	bill, err := env.billing.GetBillForOrder(ctx, order.ID)
	require.NoError(t, err)
	_, err = env.payments.RecordCashPayment(ctx, staff, invoice.ID, bill.TotalAmount(), "", "")
	require.NoError(t, err)
	_, err = env.orders.Transition(ctx, staff, order.ID, model.StatusDelivered, "")
	require.NoError(t, err)

	overdue, err = env.orders.ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, overdue)
}

func TestSoftDeleteHidesOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	require.NoError(t, env.orders.SoftDelete(ctx, staff, order.ID))
	_, err := env.orders.Get(ctx, order.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	// the row itself survives
	var raw model.Order
	require.NoError(t, env.db.Where("id = ?", order.ID).First(&raw).Error)
	assert.True(t, raw.IsDeleted)
}
