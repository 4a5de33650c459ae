package model

import "time"

// User is the authentication principal. Soft-deleted, never hard-deleted.
type User struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string `gorm:"type:varchar(254);uniqueIndex;not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
	FullName     string `gorm:"type:varchar(255)"`
	IsSuperuser  bool   `gorm:"default:false"`
	IsActive     bool   `gorm:"default:true"`
	IsDeleted    bool   `gorm:"default:false;index:idx_user_deleted"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

// Role names referenced by the transition policy.
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleTailor   = "tailor"
	RoleDesigner = "designer"
	RoleDelivery = "delivery"
	RoleCustomer = "customer"
)

type Role struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Name        string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (Role) TableName() string { return "roles" }

// UserRole binds users to roles.
// idx_user_role_pair = (user_id, role_id)
type UserRole struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);index:idx_user_role_user;index:idx_user_role_pair,unique;not null"`
	RoleID string `gorm:"type:varchar(36);not null;index:idx_user_role_pair,unique"`

	AssignedAt time.Time
}

func (UserRole) TableName() string { return "user_roles" }
