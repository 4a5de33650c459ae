package model

import "gorm.io/gorm"

// AutoMigrate creates every table the application uses. Shared between the
// server bootstrap, the seed command, and the test suites.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{}, &Role{}, &UserRole{},
		&CustomerProfile{},
		&GarmentType{}, &WorkType{},
		&MeasurementSet{}, &MeasurementValue{},
		&OrderStatus{}, &OrderStatusTransition{}, &Order{}, &OrderWorkType{},
		&OrderStatusHistory{}, &OrderAssignment{}, &OrderMaterialAllocation{},
		&Fabric{}, &StockTransaction{}, &LowStockAlert{},
		&OrderBill{}, &Invoice{},
		&PaymentMode{}, &GatewayOrder{}, &Payment{}, &Refund{}, &WebhookEvent{},
		&Notification{},
		&ActivityLog{}, &PaymentAuditLog{},
		&Trial{}, &Alteration{},
		&NumberSequence{},
	)
}
