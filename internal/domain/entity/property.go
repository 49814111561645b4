// Package entity contains the core business objects of the project.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCountry is applied when a property is created without a country.
const DefaultCountry = "Morocco"

// Property is a rental unit owned by exactly one host.
type Property struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	PropertyType string    `json:"propertyType"`
	Capacity     *int      `json:"capacity,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Images       []string  `json:"images"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnerID implements policy.Owned.
func (p *Property) OwnerID() uuid.UUID {
	return p.UserID
}

// PropertyPatch lists the fields an owner may change. Nil fields are left untouched.
type PropertyPatch struct {
	Name         *string
	Address      *string
	City         *string
	Country      *string
	PropertyType *string
	Capacity     *int
	Description  *string
	Images       *[]string
	IsActive     *bool
}

// Apply copies every non-nil field of the patch onto the property.
func (patch PropertyPatch) Apply(p *Property) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.City != nil {
		p.City = *patch.City
	}
	if patch.Country != nil {
		p.Country = *patch.Country
	}
	if patch.PropertyType != nil {
		p.PropertyType = *patch.PropertyType
	}
	if patch.Capacity != nil {
		p.Capacity = patch.Capacity
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	if patch.Images != nil {
		p.Images = *patch.Images
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
}

// PropertySummary is the slim property view embedded in verification listings.
type PropertySummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	City    string    `json:"city,omitempty"`
	Country string    `json:"country,omitempty"`
}

// PropertyStats aggregates the verification outcomes of one property.
type PropertyStats struct {
	TotalVerifications     int64                `json:"totalVerifications"`
	CompletedVerifications int64                `json:"completedVerifications"`
	PendingVerifications   int64                `json:"pendingVerifications"`
	FailedVerifications    int64                `json:"failedVerifications"`
	SuccessRate            int                  `json:"successRate"`
	RecentVerifications    []RecentVerification `json:"recentVerifications"`
}

// RecentVerification is one row of PropertyStats.RecentVerifications.
type RecentVerification struct {
	ID             uuid.UUID          `json:"id"`
	GuestFirstName string             `json:"guestFirstName"`
	GuestLastName  string             `json:"guestLastName"`
	Status         VerificationStatus `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// SuccessRate returns round(completed/total*100), or 0 when there is nothing to count.
func SuccessRate(completed, total int64) int {
	if total <= 0 {
		return 0
	}

	// integer half-up rounding of completed*100/total
	return int((completed*200 + total) / (2 * total))
}
