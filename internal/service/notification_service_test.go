package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tailorshop/internal/model"
)

func TestDispatchSendsQueuedNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	env.createOrder(t, staff, customer.ID, garment.ID, false)

	n, err := env.notifications.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, env.mailer.sentCount())

	var notif model.Notification
	require.NoError(t, env.db.First(&notif).Error)
	assert.Equal(t, model.NotificationSent, notif.Status)
	require.NotNil(t, notif.SentAt)

	// nothing left to claim
	n, err = env.notifications.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClaimedNotificationsHiddenFromNextClaimer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	env.createOrder(t, staff, customer.ID, garment.ID, false)

	// a second worker claiming right after the first must see nothing
	first, err := env.notifications.claimBatch(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := env.notifications.claimBatch(ctx)
	require.NoError(t, err)
	assert.Empty(t, second)

	var notif model.Notification
	require.NoError(t, env.db.First(&notif, "id = ?", first[0].ID).Error)
	assert.Equal(t, model.NotificationSending, notif.Status)
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	env.createOrder(t, staff, customer.ID, garment.ID, false)

	// first two attempts fail, the third lands within the same dispatch
	env.mailer.fails = 2
	_, err := env.notifications.DispatchPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.mailer.sentCount())

	var notif model.Notification
	require.NoError(t, env.db.First(&notif).Error)
	assert.Equal(t, model.NotificationSent, notif.Status)
	assert.Equal(t, 3, notif.Attempts) // two failures plus the send that landed
}

func TestDispatchMarksFailedAfterMaxAttempts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := env.staffActor(t)
	customer := env.createCustomer(t)
	garment := env.createGarment(t, "Shirt", 800)
	order := env.createOrder(t, staff, customer.ID, garment.ID, false)

	env.mailer.fails = 100
	_, err := env.notifications.DispatchPending(ctx)
	require.NoError(t, err) // delivery failure never propagates

	var notif model.Notification
	require.NoError(t, env.db.First(&notif).Error)
	assert.Equal(t, model.NotificationFailed, notif.Status)
	assert.Nil(t, notif.SentAt)
	assert.Equal(t, env.notifications.cfg.MaxAttempts, notif.Attempts)

	// the failed delivery never touched the order
	got, err := env.orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, got.CurrentStatus.StatusName)
}

func TestReadyTransitionQueuesOrderReadyType(t *testing.T) {
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

	var types []string
	require.NoError(t, env.db.Model(&model.Notification{}).
		Where("order_id = ?", order.ID).
		Order("created_at").
		Pluck("type", &types).Error)
	assert.Equal(t, []string{
		model.NotifyOrderConfirmation,
		model.NotifyOrderStatusUpdate,
		model.NotifyOrderStatusUpdate,
		model.NotifyOrderReady,
	}, types)
}
