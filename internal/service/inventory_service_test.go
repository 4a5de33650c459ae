package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
)

func TestStockLedgerMatchesCachedQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fabric := env.createFabric(t, 50, 5)

	_, err := env.inventory.StockIn(ctx, fabric.ID, 20, "tester", "restock")
	require.NoError(t, err)
	_, err = env.inventory.StockOut(ctx, fabric.ID, 12.5, nil, "tester", "")
	require.NoError(t, err)
	_, err = env.inventory.RecordDamage(ctx, fabric.ID, 3, "tester", "water damage")
	require.NoError(t, err)
	_, err = env.inventory.Adjust(ctx, fabric.ID, 50, "tester", "physical count")
	require.NoError(t, err)

	got, err := env.inventory.GetFabric(ctx, fabric.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50, got.QuantityInStock, 1e-9)

	// cached quantity equals the sum of signed ledger deltas
	var rows []model.StockTransaction
	require.NoError(t, env.db.Where("fabric_id = ?", fabric.ID).Find(&rows).Error)
	var sum float64
	for _, r := range rows {
		sum += r.SignedDelta()
	}
	assert.InDelta(t, got.QuantityInStock, sum, 1e-9)
}

func TestStockOutInsufficientLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fabric := env.createFabric(t, 10, 2)

	_, err := env.inventory.StockOut(ctx, fabric.ID, 10.5, nil, "tester", "")
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.InDelta(t, 10, insufficient.Available, 1e-9)
	assert.InDelta(t, 10.5, insufficient.Requested, 1e-9)

	got, err := env.inventory.GetFabric(ctx, fabric.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, got.QuantityInStock, 1e-9)

	var count int64
	require.NoError(t, env.db.Model(&model.StockTransaction{}).
		Where("fabric_id = ? AND transaction_type = ?", fabric.ID, model.TxStockOut).
		Count(&count).Error)
	assert.Zero(t, count)

	// the failed attempt is retryable with a valid quantity
	_, err = env.inventory.StockOut(ctx, fabric.ID, 10, nil, "tester", "")
	require.NoError(t, err)
}

func TestLowStockAlertRaisedOnceAndReactivated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fabric := env.createFabric(t, 50, 10)

	// 50 -> 40: above threshold, no alert
	_, err := env.inventory.StockOut(ctx, fabric.ID, 10, nil, "tester", "")
	require.NoError(t, err)
	var count int64
	require.NoError(t, env.db.Model(&model.LowStockAlert{}).Where("fabric_id = ?", fabric.ID).Count(&count).Error)
	assert.Zero(t, count)

	// 40 -> 5: crosses threshold, one alert
	_, err = env.inventory.StockOut(ctx, fabric.ID, 35, nil, "tester", "")
	require.NoError(t, err)

	// further decreases do not duplicate it
	_, err = env.inventory.StockOut(ctx, fabric.ID, 2, nil, "tester", "")
	require.NoError(t, err)
	_, err = env.inventory.RecordDamage(ctx, fabric.ID, 1, "tester", "")
	require.NoError(t, err)

	var alerts []model.LowStockAlert
	require.NoError(t, env.db.Where("fabric_id = ?", fabric.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].IsResolved)

	// resolve, restock, drop again: same row reactivated
	require.NoError(t, env.inventory.ResolveAlert(ctx, alerts[0].ID, "tester"))
	_, err = env.inventory.StockIn(ctx, fabric.ID, 30, "tester", "")
	require.NoError(t, err)
	_, err = env.inventory.StockOut(ctx, fabric.ID, 28, nil, "tester", "")
	require.NoError(t, err)

	require.NoError(t, env.db.Where("fabric_id = ?", fabric.ID).Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.False(t, alerts[0].IsResolved)
	assert.Nil(t, alerts[0].ResolvedAt)
}

func TestResolveAlertTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fabric := env.createFabric(t, 4, 10) // created below threshold

	var alert model.LowStockAlert
	require.NoError(t, env.db.Where("fabric_id = ?", fabric.ID).First(&alert).Error)

	require.NoError(t, env.inventory.ResolveAlert(ctx, alert.ID, "tester"))
	err := env.inventory.ResolveAlert(ctx, alert.ID, "tester")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func BenchmarkLedgerMovements(b *testing.B) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		b.Fatalf("open db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		b.Fatalf("migrate: %v", err)
	}
	inv := NewInventoryService(db, NewAuditService())
	ctx := context.Background()
	fabric, err := inv.CreateFabric(ctx, CreateFabricInput{
		Name:            "bench",
		CostPerMeter:    100,
		InitialQuantity: float64(b.N) + 1,
		RecordedByID:    "bench",
	})
	if err != nil {
		b.Fatalf("create fabric: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := inv.StockOut(ctx, fabric.ID, 1, nil, "bench", ""); err != nil {
			b.Fatalf("stock out: %v", err)
		}
	}
}

func TestAdjustRecordsSignedDelta(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fabric := env.createFabric(t, 20, 5)

	rec, err := env.inventory.Adjust(ctx, fabric.ID, 17.25, "tester", "shrinkage")
	require.NoError(t, err)
	assert.Equal(t, model.TxAdjustment, rec.TransactionType)
	assert.InDelta(t, 20, rec.PreviousQty, 1e-9)
	assert.InDelta(t, 17.25, rec.NewQty, 1e-9)
	assert.InDelta(t, -2.75, rec.SignedDelta(), 1e-9)
}
