package model

import "time"

// CustomerProfile extends a user with shop-facing contact details.
type CustomerProfile struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	UserID string `gorm:"type:varchar(36);uniqueIndex;not null"`
	User   *User  `gorm:"foreignKey:UserID"`

	PhoneNumber  string `gorm:"type:varchar(20)"`
	AddressLine1 string `gorm:"type:varchar(255)"`
	AddressLine2 string `gorm:"type:varchar(255)"`
	City         string `gorm:"type:varchar(100)"`
	PostalCode   string `gorm:"type:varchar(20)"`
	State        string `gorm:"type:varchar(100)"`
	Country      string `gorm:"type:varchar(100);default:India"`

	AllowContact bool `gorm:"default:true"`
	IsDeleted    bool `gorm:"default:false;index:idx_customer_deleted"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CustomerProfile) TableName() string { return "customer_profiles" }
