package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email            string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash     string    `gorm:"type:varchar(255);not null"`
	FirstName        *string   `gorm:"type:varchar(100)"`
	LastName         *string   `gorm:"type:varchar(100)"`
	Role             string    `gorm:"type:varchar(20);not null;default:HOST"`
	Avatar           *string   `gorm:"type:text"`
	SubscriptionPlan string    `gorm:"type:varchar(20);not null;default:FREE"`
	TwoFactorSecret  *string   `gorm:"type:varchar(64)"`
	TwoFactorEnabled bool      `gorm:"not null;default:false"`
	LastLoginAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	RefreshTokens []RefreshTokenModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// RefreshTokenModel mirrors the 'refresh_tokens' table. UUID columns align with PostgreSQL schema.
type RefreshTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenHash string    `gorm:"type:varchar(64);unique;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (RefreshTokenModel) TableName() string {
	return "refresh_tokens"
}
