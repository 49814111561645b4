// Package entity contains the core business objects of the project.
package entity

import "time"

// OCRResult is the structured data extracted from a document image.
// Dates stay as the strings the model returned; IssuedDateTime and
// ExpiryDateTime parse them when the layout is recognised.
type OCRResult struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	DateOfBirth    *string `json:"dateOfBirth"`
	Nationality    *string `json:"nationality"`
	DocumentNumber *string `json:"documentNumber"`
	IssuedDate     *string `json:"issuedDate"`
	ExpiryDate     *string `json:"expiryDate"`
	Gender         *string `json:"gender"`
	PlaceOfBirth   *string `json:"placeOfBirth"`
	IssuingCountry *string `json:"issuingCountry"`
	MRZ            *string `json:"mrz"`
	Confidence     int     `json:"confidence"`
}

var ocrDateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "02.01.2006"}

func parseOCRDate(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range ocrDateLayouts {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t
		}
	}

	return nil
}

// IssuedDateTime parses IssuedDate.
func (r *OCRResult) IssuedDateTime() *time.Time {
	return parseOCRDate(r.IssuedDate)
}

// ExpiryDateTime parses ExpiryDate.
func (r *OCRResult) ExpiryDateTime() *time.Time {
	return parseOCRDate(r.ExpiryDate)
}

// RiskLevel buckets a fraud score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Recommendation is the model's suggested action.
type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendReview  Recommendation = "REVIEW"
	RecommendReject  Recommendation = "REJECT"
)

// FraudAnalysis is the fraud scoring of one document.
type FraudAnalysis struct {
	FraudScore     int            `json:"fraudScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Flags          []string       `json:"flags"`
	Recommendation Recommendation `json:"recommendation"`
	Explanation    string         `json:"explanation"`
	Confidence     int            `json:"confidence"`
}

// FaceComparison is the result of comparing the document portrait to a selfie.
type FaceComparison struct {
	MatchScore     int            `json:"matchScore"`
	IsMatch        bool           `json:"isMatch"`
	Confidence     int            `json:"confidence"`
	Differences    []string       `json:"differences"`
	Recommendation Recommendation `json:"recommendation"`
	Explanation    string         `json:"explanation"`
}
