// Package entity contains the core business objects of the project.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is the lifecycle state of a guest check-in.
type VerificationStatus string

const (
	StatusPending    VerificationStatus = "PENDING"
	StatusInProgress VerificationStatus = "IN_PROGRESS"
	StatusProcessing VerificationStatus = "PROCESSING"
	StatusCompleted  VerificationStatus = "COMPLETED"
	StatusRejected   VerificationStatus = "REJECTED"
)

// statusRank orders the lifecycle. Transitions may only move to a higher rank,
// except that a non-terminal state may be kept as is.
var statusRank = map[VerificationStatus]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusProcessing: 2,
	StatusCompleted:  3,
	StatusRejected:   3,
}

// IsValid checks if the status is a known value.
func (s VerificationStatus) IsValid() bool {
	_, ok := statusRank[s]

	return ok
}

// IsTerminal reports whether no transition can leave the status.
func (s VerificationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
func (s VerificationStatus) CanTransitionTo(next VerificationStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}

	return statusRank[next] >= statusRank[s]
}

// DocumentType is the identity document presented by the guest.
type DocumentType string

const (
	DocumentPassport       DocumentType = "PASSPORT"
	DocumentNationalID     DocumentType = "NATIONAL_ID"
	DocumentDriversLicense DocumentType = "DRIVERS_LICENSE"
	DocumentOther          DocumentType = "OTHER"
)

// ParseDocumentType normalises a client supplied value. ID_CARD is accepted as an alias of NATIONAL_ID.
func ParseDocumentType(raw string) (DocumentType, bool) {
	switch DocumentType(strings.ToUpper(strings.TrimSpace(raw))) {
	case DocumentPassport:
		return DocumentPassport, true
	case DocumentNationalID, "ID_CARD":
		return DocumentNationalID, true
	case DocumentDriversLicense:
		return DocumentDriversLicense, true
	case DocumentOther:
		return DocumentOther, true
	default:
		return "", false
	}
}

// LivenessStatus records whether a liveness score was actually measured.
type LivenessStatus string

// LivenessNotEvaluated is the only status today: no liveness provider is integrated,
// so LivenessScore stays nil instead of carrying a made-up value.
const LivenessNotEvaluated LivenessStatus = "NOT_EVALUATED"

// Rejection reasons stamped by Complete.
const (
	RejectionHighFraudScore = "high fraud score"
	RejectionFaceMismatch   = "face mismatch"
)

// Verification is one guest identity check-in on a property.
type Verification struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	PropertyID uuid.UUID
	Property   *PropertySummary // Loaded on reads only.

	GuestFirstName string
	GuestLastName  string
	GuestEmail     string
	GuestPhone     *string
	DocumentType   DocumentType

	// Artifacts are public paths under the uploads prefix.
	DocumentFrontImage *string
	DocumentBackImage  *string
	SelfieImage        *string
	SelfieVideo        *string
	SignatureImage     *string

	DocumentNumber        *string
	DocumentIssuedDate    *time.Time
	DocumentExpiryDate    *time.Time
	DocumentIssuedCountry *string
	GuestNationality      *string

	OCRData        *OCRResult
	FraudScore     *int
	AINotes        *string
	FaceMatchScore *int
	LivenessScore  *int
	LivenessStatus LivenessStatus

	Status          VerificationStatus
	RejectionReason *string
	WizardStep      string
	SubmittedAt     *time.Time
	VerifiedAt      *time.Time

	Version   int // Optimistic lock, bumped by every update.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnerID implements policy.Owned.
func (v *Verification) OwnerID() uuid.UUID {
	return v.UserID
}

// HasSelfieArtifact reports whether either a selfie photo or a liveness video is stored.
func (v *Verification) HasSelfieArtifact() bool {
	return v.SelfieImage != nil || v.SelfieVideo != nil
}

// Advance moves the record to next if the lifecycle allows it. Staying in the same
// non-terminal state is allowed and is a no-op.
func (v *Verification) Advance(next VerificationStatus) bool {
	if !v.Status.CanTransitionTo(next) {
		return false
	}
	v.Status = next

	return true
}

// DocumentDetails are the manually entered document fields.
type DocumentDetails struct {
	DocumentNumber        *string
	DocumentIssuedDate    *time.Time
	DocumentExpiryDate    *time.Time
	DocumentIssuedCountry *string
}

// ApplyOCR merges OCR output into the record. A field is only overwritten when the
// OCR result carries a value for it, so manually captured data survives a null.
func (v *Verification) ApplyOCR(ocr *OCRResult) {
	if ocr == nil {
		return
	}
	v.OCRData = ocr

	if ocr.DocumentNumber != nil {
		v.DocumentNumber = ocr.DocumentNumber
	}
	if d := ocr.IssuedDateTime(); d != nil {
		v.DocumentIssuedDate = d
	}
	if d := ocr.ExpiryDateTime(); d != nil {
		v.DocumentExpiryDate = d
	}
	if ocr.IssuingCountry != nil {
		v.DocumentIssuedCountry = ocr.IssuingCountry
	}
	if ocr.Nationality != nil {
		v.GuestNationality = ocr.Nationality
	}
}

// ApplyFraud stores the fraud score and the model explanation.
func (v *Verification) ApplyFraud(fraud *FraudAnalysis) {
	if fraud == nil {
		return
	}
	score := fraud.FraudScore
	v.FraudScore = &score
	if fraud.Explanation != "" {
		explanation := fraud.Explanation
		v.AINotes = &explanation
	}
}

// Decision is the deterministic outcome of completing a verification.
type Decision struct {
	Status          VerificationStatus
	RejectionReason *string
}

// Decide computes the final disposition. A score that was never measured skips its rule.
func (v *Verification) Decide(fraudRejectThreshold, faceMatchThreshold int) Decision {
	if v.FraudScore != nil && *v.FraudScore > fraudRejectThreshold {
		reason := RejectionHighFraudScore

		return Decision{Status: StatusRejected, RejectionReason: &reason}
	}
	if v.FaceMatchScore != nil && *v.FaceMatchScore < faceMatchThreshold {
		reason := RejectionFaceMismatch

		return Decision{Status: StatusRejected, RejectionReason: &reason}
	}

	return Decision{Status: StatusCompleted}
}

// VerificationFilter narrows a host's verification listing.
type VerificationFilter struct {
	PropertyID *uuid.UUID
	Status     *VerificationStatus
}

// VerificationCounts holds per-status totals for one property or one host.
type VerificationCounts map[VerificationStatus]int64

// Total sums every status.
func (c VerificationCounts) Total() int64 {
	var total int64
	for _, n := range c {
		total += n
	}

	return total
}
