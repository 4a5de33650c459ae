package model

import "time"

// Fabric is an inventory item. QuantityInStock is a denormalized cache of
// the stock ledger and must always equal the sum of signed ledger deltas.
// idx_fabric_variant = (name, color, pattern)
type Fabric struct {
	ID      string `gorm:"primaryKey;type:varchar(36)"`
	Name    string `gorm:"type:varchar(150);index:idx_fabric_variant,unique;not null"`
	Color   string `gorm:"type:varchar(100);index:idx_fabric_variant,unique"`
	Pattern string `gorm:"type:varchar(100);index:idx_fabric_variant,unique"`

	CostPerMeter     float64 `gorm:"type:decimal(10,2);not null"`
	QuantityInStock  float64 `gorm:"type:decimal(10,3);default:0;index:idx_fabric_quantity"`
	ReorderThreshold float64 `gorm:"type:decimal(10,3);default:5.0"`

	IsDeleted bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Fabric) TableName() string { return "fabrics" }

func (f Fabric) IsLowStock() bool    { return f.QuantityInStock <= f.ReorderThreshold }
func (f Fabric) StockValue() float64 { return f.QuantityInStock * f.CostPerMeter }

// Stock transaction types.
const (
	TxStockIn    = "IN"
	TxStockOut   = "OUT"
	TxAdjustment = "ADJUSTMENT"
	TxDamage     = "DAMAGE"
)

// StockTransaction is one immutable row of the stock ledger, capturing the
// quantity before and after the movement.
type StockTransaction struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)"`
	FabricID        string  `gorm:"type:varchar(36);index:idx_stock_tx_fabric;not null"`
	TransactionType string  `gorm:"type:varchar(20);index:idx_stock_tx_type;not null"`
	QuantityMeters  float64 `gorm:"type:decimal(10,3);not null"`
	PreviousQty     float64 `gorm:"type:decimal(10,3);not null"`
	NewQty          float64 `gorm:"type:decimal(10,3);not null"`

	OrderID *string `gorm:"type:varchar(36);index:idx_stock_tx_order"`

	Notes        string    `gorm:"type:text"`
	RecordedByID string    `gorm:"type:varchar(36);not null"`
	RecordedAt   time.Time `gorm:"index:idx_stock_tx_date"`
}

func (StockTransaction) TableName() string { return "stock_transactions" }

// SignedDelta returns the ledger delta this row contributed to the cached
// fabric quantity.
func (t StockTransaction) SignedDelta() float64 {
	switch t.TransactionType {
	case TxStockIn:
		return t.QuantityMeters
	case TxStockOut, TxDamage:
		return -t.QuantityMeters
	default: // ADJUSTMENT carries its own sign
		return t.NewQty - t.PreviousQty
	}
}

// LowStockAlert tracks the single open/resolved alert per fabric. The unique
// fabric index enforces at most one row, which is reactivated rather than
// duplicated when stock drops again.
type LowStockAlert struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)"`
	FabricID    string     `gorm:"type:varchar(36);uniqueIndex;not null"`
	TriggeredAt time.Time
	IsResolved  bool       `gorm:"default:false;index:idx_alert_resolved"`
	ResolvedAt  *time.Time
}

func (LowStockAlert) TableName() string { return "low_stock_alerts" }
