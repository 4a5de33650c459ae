package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/pkg/logger"
)

const dashboardCacheKey = "tailorshop:dashboard"

// DashboardStats is the aggregate snapshot served to the dashboard.
type DashboardStats struct {
	OrdersByStatus  map[string]int64 `json:"orders_by_status"`
	TotalRevenue    float64          `json:"total_revenue"`
	PendingInvoices int64            `json:"pending_invoices"`
	OverdueOrders   int64            `json:"overdue_orders"`
	LowStockAlerts  int64            `json:"low_stock_alerts"`
	StockValue      float64          `json:"stock_value"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// ReportService computes dashboard aggregates with a Redis cache-aside and
// streams CSV exports. Cache failures degrade to direct queries.
type ReportService struct {
	db    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
}

func NewReportService(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *ReportService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReportService{db: db, redis: rdb, ttl: ttl}
}

// Dashboard returns the cached snapshot when fresh, computing and caching it
// otherwise.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, dashboardCacheKey).Bytes(); err == nil {
			var stats DashboardStats
			if json.Unmarshal(raw, &stats) == nil {
				return &stats, nil
			}
		} else if err != redis.Nil {
			logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	stats, err := s.computeDashboard(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.redis.Set(ctx, dashboardCacheKey, raw, s.ttl).Err(); err != nil {
				logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// InvalidateDashboard drops the cached snapshot.
func (s *ReportService) InvalidateDashboard(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, dashboardCacheKey).Err(); err != nil {
		logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
}

func (s *ReportService) computeDashboard(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	stats := &DashboardStats{
		OrdersByStatus: map[string]int64{},
		GeneratedAt:    time.Now(),
	}

	type statusCount struct {
		StatusName string
		Count      int64
	}
	var byStatus []statusCount
	if err := db.Model(&model.Order{}).
		Select("order_statuses.status_name AS status_name, COUNT(*) AS count").
		Joins("JOIN order_statuses ON order_statuses.id = orders.current_status_id").
		Where("orders.is_deleted = ?", false).
		Group("order_statuses.status_name").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.OrdersByStatus[row.StatusName] = row.Count
	}

	if err := db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentCompleted).
		Select("COALESCE(SUM(amount_paid), 0)").
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Invoice{}).
		Where("status IN ?", []string{model.InvoiceIssued, model.InvoicePartiallyPaid, model.InvoiceOverdue}).
		Count(&stats.PendingInvoices).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Order{}).
		Joins("JOIN order_statuses ON order_statuses.id = orders.current_status_id").
		Where("orders.expected_delivery_date < ? AND order_statuses.is_final_state = ? AND orders.is_deleted = ?",
			time.Now(), false, false).
		Count(&stats.OverdueOrders).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.LowStockAlert{}).
		Where("is_resolved = ?", false).
		Count(&stats.LowStockAlerts).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Fabric{}).
		Where("is_deleted = ?", false).
		Select("COALESCE(SUM(quantity_in_stock * cost_per_meter), 0)").
		Scan(&stats.StockValue).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// ExportOrdersCSV streams all live orders, one row per order.
func (s *ReportService) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	var orders []model.Order
	if err := s.db.WithContext(ctx).
		Preload("CurrentStatus").Preload("GarmentType").
		Where("is_deleted = ?", false).
		Order("created_at").
		Find(&orders).Error; err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"order_number", "garment", "status", "urgent", "expected_delivery", "created_at"}); err != nil {
		return err
	}
	for _, o := range orders {
		status, garment := "", ""
		if o.CurrentStatus != nil {
			status = o.CurrentStatus.StatusName
		}
		if o.GarmentType != nil {
			garment = o.GarmentType.Name
		}
		if err := cw.Write([]string{
			o.OrderNumber,
			garment,
			status,
			fmt.Sprintf("%t", o.IsUrgent),
			o.ExpectedDeliveryDate.Format("2006-01-02"),
			o.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportStockLedgerCSV streams the full movement ledger, oldest first.
func (s *ReportService) ExportStockLedgerCSV(ctx context.Context, w io.Writer) error {
	var rows []model.StockTransaction
	if err := s.db.WithContext(ctx).
		Order("recorded_at").
		Find(&rows).Error; err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"fabric_id", "type", "quantity", "previous_qty", "new_qty", "order_id", "recorded_at"}); err != nil {
		return err
	}
	for _, r := range rows {
		orderID := ""
		if r.OrderID != nil {
			orderID = *r.OrderID
		}
		if err := cw.Write([]string{
			r.FabricID,
			r.TransactionType,
			fmt.Sprintf("%.3f", r.QuantityMeters),
			fmt.Sprintf("%.3f", r.PreviousQty),
			fmt.Sprintf("%.3f", r.NewQty),
			orderID,
			r.RecordedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
