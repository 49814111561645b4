package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VerificationModel mirrors the 'verifications' table.
type VerificationModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index"`
	PropertyID uuid.UUID      `gorm:"type:uuid;not null;index"`
	Property   *PropertyModel `gorm:"foreignKey:PropertyID"`

	GuestFirstName string  `gorm:"type:varchar(100);not null"`
	GuestLastName  string  `gorm:"type:varchar(100);not null"`
	GuestEmail     string  `gorm:"type:varchar(255);not null"`
	GuestPhone     *string `gorm:"type:varchar(50)"`
	DocumentType   string  `gorm:"type:varchar(30);not null"`

	DocumentFrontImage *string `gorm:"type:text"`
	DocumentBackImage  *string `gorm:"type:text"`
	SelfieImage        *string `gorm:"type:text"`
	SelfieVideo        *string `gorm:"type:text"`
	SignatureImage     *string `gorm:"type:text"`

	DocumentNumber        *string `gorm:"type:varchar(100)"`
	DocumentIssuedDate    *time.Time
	DocumentExpiryDate    *time.Time
	DocumentIssuedCountry *string `gorm:"type:varchar(100)"`
	GuestNationality      *string `gorm:"type:varchar(100)"`

	OCRData        datatypes.JSON `gorm:"column:ocr_data;type:jsonb"`
	FraudScore     *int
	AINotes        *string `gorm:"column:ai_notes;type:text"`
	FaceMatchScore *int
	LivenessScore  *int
	LivenessStatus string `gorm:"type:varchar(30);not null;default:NOT_EVALUATED"`

	Status          string  `gorm:"type:varchar(20);not null;default:PENDING;index"`
	RejectionReason *string `gorm:"type:text"`
	WizardStep      string  `gorm:"type:varchar(20);not null;default:DOCUMENTS"`
	SubmittedAt     *time.Time
	VerifiedAt      *time.Time

	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (VerificationModel) TableName() string {
	return "verifications"
}

// VerificationStatusCount is one row of a per-property status aggregate.
type VerificationStatusCount struct {
	PropertyID uuid.UUID
	Status     string
	Count      int64
}
