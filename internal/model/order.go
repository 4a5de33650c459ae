package model

import "time"

// Order status names. The reference rows are seeded once and never mutated.
const (
	StatusBooked          = "booked"
	StatusFabricAllocated = "fabric_allocated"
	StatusStitching       = "stitching"
	StatusTrialScheduled  = "trial_scheduled"
	StatusAlteration      = "alteration"
	StatusReady           = "ready"
	StatusDelivered       = "delivered"
	StatusClosed          = "closed"
)

// OrderStatus is the immutable status reference set.
type OrderStatus struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	StatusName    string `gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayLabel  string `gorm:"type:varchar(100);not null"`
	Description   string `gorm:"type:text"`
	SequenceOrder int    `gorm:"not null"`
	IsFinalState  bool   `gorm:"default:false"`
}

func (OrderStatus) TableName() string { return "order_statuses" }

// OrderStatusTransition is one directed edge of the legal transition graph.
// AllowedRoles is a comma-separated role list kept for reference; the
// in-memory policy is authoritative for the role gate.
// idx_transition_pair = (from_status_id, to_status_id)
type OrderStatusTransition struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	FromStatusID string `gorm:"type:varchar(36);index:idx_transition_from;index:idx_transition_pair,unique;not null"`
	ToStatusID   string `gorm:"type:varchar(36);not null;index:idx_transition_pair,unique"`
	AllowedRoles string `gorm:"type:varchar(255)"`
	Description  string `gorm:"type:text"`
}

func (OrderStatusTransition) TableName() string { return "order_status_transitions" }

// Order is the main lifecycle entity. Status only moves via the transition
// operation; orders are soft-deleted, never removed.
type Order struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	OrderNumber string `gorm:"type:varchar(50);uniqueIndex;not null"` // ORD-2026-0001

	CustomerID       string           `gorm:"type:varchar(36);index:idx_order_customer;not null"`
	Customer         *CustomerProfile `gorm:"foreignKey:CustomerID"`
	GarmentTypeID    string           `gorm:"type:varchar(36);not null"`
	GarmentType      *GarmentType     `gorm:"foreignKey:GarmentTypeID"`
	MeasurementSetID *string          `gorm:"type:varchar(36)"`

	CurrentStatusID string       `gorm:"type:varchar(36);index:idx_order_status;not null"`
	CurrentStatus   *OrderStatus `gorm:"foreignKey:CurrentStatusID"`

	ExpectedDeliveryDate time.Time  `gorm:"type:date;index:idx_order_delivery;not null"`
	ActualDeliveryDate   *time.Time `gorm:"type:date"`

	IsUrgent            bool    `gorm:"default:false"`
	UrgencyMultiplier   float64 `gorm:"type:decimal(4,2);default:1.00"`
	SpecialInstructions string  `gorm:"type:text"`

	IsDeleted bool `gorm:"default:false;index:idx_order_deleted"`

	CreatedAt time.Time `gorm:"index:idx_order_created"`
	UpdatedAt time.Time
}

func (Order) TableName() string { return "orders" }

// OrderWorkType snapshots the work-type charge at booking time.
// idx_order_work_pair = (order_id, work_type_id)
type OrderWorkType struct {
	ID          string  `gorm:"primaryKey;type:varchar(36)"`
	OrderID     string  `gorm:"type:varchar(36);index:idx_order_work_order;index:idx_order_work_pair,unique;not null"`
	WorkTypeID  string  `gorm:"type:varchar(36);not null;index:idx_order_work_pair,unique"`
	ExtraCharge float64 `gorm:"type:decimal(10,2);not null"`
}

func (OrderWorkType) TableName() string { return "order_work_types" }

// OrderStatusHistory is the append-only trail: one row per successful
// transition, never updated.
type OrderStatusHistory struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	OrderID      string    `gorm:"type:varchar(36);index:idx_status_history_order;not null"`
	FromStatusID string    `gorm:"type:varchar(36);not null"`
	ToStatusID   string    `gorm:"type:varchar(36);not null"`
	ChangedByID  string    `gorm:"type:varchar(36);not null"`
	ChangeReason string    `gorm:"type:text"`
	ChangedAt    time.Time `gorm:"index:idx_status_history_date"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Assignment role types.
const (
	AssignTailor   = "tailor"
	AssignDelivery = "delivery"
	AssignDesigner = "designer"
)

// OrderAssignment binds staff to an order by role. Append-only; not part of
// the state machine.
type OrderAssignment struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	OrderID      string `gorm:"type:varchar(36);index:idx_assignment_order;not null"`
	StaffID      string `gorm:"type:varchar(36);index:idx_assignment_staff;not null"`
	RoleType     string `gorm:"type:varchar(20);index:idx_assignment_role;not null"`
	AssignedByID string `gorm:"type:varchar(36);not null"`
	Notes        string `gorm:"type:text"`
	AssignedAt   time.Time
}

func (OrderAssignment) TableName() string { return "order_assignments" }

// OrderMaterialAllocation records fabric committed to an order with a
// cost-per-meter snapshot, created exactly once per (order, fabric).
// idx_allocation_pair = (order_id, fabric_id)
type OrderMaterialAllocation struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)"`
	OrderID        string  `gorm:"type:varchar(36);index:idx_allocation_order;index:idx_allocation_pair,unique;not null"`
	FabricID       string  `gorm:"type:varchar(36);not null;index:idx_allocation_pair,unique"`
	QuantityMeters float64 `gorm:"type:decimal(10,3);not null"`
	UnitCost       float64 `gorm:"type:decimal(10,2);not null"` // cost snapshot at allocation
	AllocatedByID  string  `gorm:"type:varchar(36);not null"`
	AllocatedAt    time.Time
}

func (OrderMaterialAllocation) TableName() string { return "order_material_allocations" }

func (a OrderMaterialAllocation) TotalCost() float64 { return a.QuantityMeters * a.UnitCost }
