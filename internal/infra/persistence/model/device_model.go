package model

import (
	"time"

	"github.com/google/uuid"
)

// UserDeviceModel maps the 'user_devices' table. A client device id is
// registered at most once per user; re-registering reuses the row.
type UserDeviceModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_devices_owner_device,priority:1"`
	DeviceID  string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_user_devices_owner_device,priority:2"`
	FCMToken  string    `gorm:"type:varchar(512);not null;index"`
	Platform  string    `gorm:"type:varchar(20);not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserDeviceModel) TableName() string {
	return "user_devices"
}
