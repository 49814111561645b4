package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PropertyModel mirrors the 'properties' table.
type PropertyModel struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Name         string                      `gorm:"type:varchar(200);not null"`
	Address      string                      `gorm:"type:text;not null"`
	City         string                      `gorm:"type:varchar(100);not null"`
	Country      string                      `gorm:"type:varchar(100);not null;default:Morocco"`
	PropertyType string                      `gorm:"type:varchar(50);not null"`
	Capacity     *int                        `gorm:"check:capacity > 0"`
	Description  *string                     `gorm:"type:text"`
	Images       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	IsActive     bool                        `gorm:"not null;default:true"`
	CreatedAt    time.Time                   `gorm:"index"`
	UpdatedAt    time.Time

	Verifications []VerificationModel `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (PropertyModel) TableName() string {
	return "properties"
}
