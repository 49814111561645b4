package handler

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	"globalchek/internal/domain/service"
	"globalchek/internal/domain/wizard"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
)

type userResponse struct {
	ID               uuid.UUID               `json:"id"`
	Email            string                  `json:"email"`
	FirstName        *string                 `json:"firstName"`
	LastName         *string                 `json:"lastName"`
	Role             entity.Role             `json:"role"`
	Avatar           *string                 `json:"avatar"`
	SubscriptionPlan entity.SubscriptionPlan `json:"subscriptionPlan"`
	TwoFactorEnabled bool                    `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time              `json:"lastLoginAt"`
	CreatedAt        time.Time               `json:"createdAt"`
}

func toUserResponse(user *entity.User) *userResponse {
	if user == nil {
		return nil
	}

	return &userResponse{
		ID:               user.ID,
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Role:             user.Role,
		Avatar:           user.Avatar,
		SubscriptionPlan: user.SubscriptionPlan,
		TwoFactorEnabled: user.TwoFactorEnabled,
		LastLoginAt:      user.LastLoginAt,
		CreatedAt:        user.CreatedAt,
	}
}

type authResponse struct {
	User         *userResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

func toAuthResponse(user *entity.User, tokens *entity.TokenPair) *authResponse {
	resp := &authResponse{User: toUserResponse(user)}
	if tokens != nil {
		resp.AccessToken = tokens.AccessToken
		resp.RefreshToken = tokens.RefreshToken
	}

	return resp
}

type verificationResponse struct {
	ID         uuid.UUID               `json:"id"`
	UserID     uuid.UUID               `json:"userId"`
	PropertyID uuid.UUID               `json:"propertyId"`
	Property   *entity.PropertySummary `json:"property,omitempty"`

	GuestFirstName string              `json:"guestFirstName"`
	GuestLastName  string              `json:"guestLastName"`
	GuestEmail     string              `json:"guestEmail"`
	GuestPhone     *string             `json:"guestPhone"`
	DocumentType   entity.DocumentType `json:"documentType"`

	DocumentFrontImage *string `json:"documentFrontImage"`
	DocumentBackImage  *string `json:"documentBackImage"`
	SelfieImage        *string `json:"selfieImage"`
	SelfieVideo        *string `json:"selfieVideo"`
	SignatureImage     *string `json:"signatureImage"`

	DocumentNumber        *string    `json:"documentNumber"`
	DocumentIssuedDate    *time.Time `json:"documentIssuedDate"`
	DocumentExpiryDate    *time.Time `json:"documentExpiryDate"`
	DocumentIssuedCountry *string    `json:"documentIssuedCountry"`
	GuestNationality      *string    `json:"guestNationality"`

	OCRData        *entity.OCRResult     `json:"ocrData"`
	FraudScore     *int                  `json:"fraudScore"`
	AINotes        *string               `json:"aiNotes"`
	FaceMatchScore *int                  `json:"faceMatchScore"`
	LivenessScore  *int                  `json:"livenessScore"`
	LivenessStatus entity.LivenessStatus `json:"livenessStatus"`

	Status          entity.VerificationStatus `json:"status"`
	RejectionReason *string                   `json:"rejectionReason"`
	WizardStep      string                    `json:"wizardStep"`
	SubmittedAt     *time.Time                `json:"submittedAt"`
	VerifiedAt      *time.Time                `json:"verifiedAt"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toVerificationResponse(v *entity.Verification) *verificationResponse {
	if v == nil {
		return nil
	}

	return &verificationResponse{
		ID:                    v.ID,
		UserID:                v.UserID,
		PropertyID:            v.PropertyID,
		Property:              v.Property,
		GuestFirstName:        v.GuestFirstName,
		GuestLastName:         v.GuestLastName,
		GuestEmail:            v.GuestEmail,
		GuestPhone:            v.GuestPhone,
		DocumentType:          v.DocumentType,
		DocumentFrontImage:    v.DocumentFrontImage,
		DocumentBackImage:     v.DocumentBackImage,
		SelfieImage:           v.SelfieImage,
		SelfieVideo:           v.SelfieVideo,
		SignatureImage:        v.SignatureImage,
		DocumentNumber:        v.DocumentNumber,
		DocumentIssuedDate:    v.DocumentIssuedDate,
		DocumentExpiryDate:    v.DocumentExpiryDate,
		DocumentIssuedCountry: v.DocumentIssuedCountry,
		GuestNationality:      v.GuestNationality,
		OCRData:               v.OCRData,
		FraudScore:            v.FraudScore,
		AINotes:               v.AINotes,
		FaceMatchScore:        v.FaceMatchScore,
		LivenessScore:         v.LivenessScore,
		LivenessStatus:        v.LivenessStatus,
		Status:                v.Status,
		RejectionReason:       v.RejectionReason,
		WizardStep:            v.WizardStep,
		SubmittedAt:           v.SubmittedAt,
		VerifiedAt:            v.VerifiedAt,
		Version:               v.Version,
		CreatedAt:             v.CreatedAt,
		UpdatedAt:             v.UpdatedAt,
	}
}

func toVerificationResponses(list []*entity.Verification) []*verificationResponse {
	out := make([]*verificationResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toVerificationResponse(v))
	}

	return out
}

// signArtifacts swaps stored artifact paths for short-lived signed URLs. A path
// that cannot be signed is left out of the response.
func signArtifacts(ctx context.Context, storage service.ArtifactStorage, responses ...*verificationResponse) {
	for _, resp := range responses {
		if resp == nil {
			continue
		}

		for _, field := range []**string{
			&resp.DocumentFrontImage,
			&resp.DocumentBackImage,
			&resp.SelfieImage,
			&resp.SelfieVideo,
			&resp.SignatureImage,
		} {
			if *field == nil {
				continue
			}

			signed, err := storage.SignedURL(ctx, **field)
			if err != nil {
				deliverycontext.GetLoggerOrDefault(ctx, slog.Default()).Warn("Failed to sign artifact URL", slog.Any("error", err))
				*field = nil

				continue
			}
			*field = &signed
		}
	}
}

type propertyResponse struct {
	*entity.Property
	VerificationCount int64                     `json:"verificationCount"`
	StatusCounts      entity.VerificationCounts `json:"statusCounts"`
	Verifications     []*verificationResponse   `json:"verifications,omitempty"`
}

func toPropertyResponse(p *usecase.PropertyWithCounts) *propertyResponse {
	counts := p.Counts
	if counts == nil {
		counts = entity.VerificationCounts{}
	}

	return &propertyResponse{
		Property:          p.Property,
		VerificationCount: counts.Total(),
		StatusCounts:      counts,
	}
}

type guestPropertyResponse struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type wizardResponse struct {
	wizard.Progress
	LivenessPoses    []wizard.Pose `json:"livenessPoses"`
	CountdownSeconds int           `json:"countdownSeconds"`
}

type guestViewResponse struct {
	ID             uuid.UUID                 `json:"id"`
	GuestFirstName string                    `json:"guestFirstName"`
	GuestLastName  string                    `json:"guestLastName"`
	GuestEmail     string                    `json:"guestEmail"`
	DocumentType   entity.DocumentType       `json:"documentType"`
	Status         entity.VerificationStatus `json:"status"`
	Property       *guestPropertyResponse    `json:"property"`
	Wizard         wizardResponse            `json:"wizard"`
}

func toGuestViewResponse(view *usecase.GuestView) *guestViewResponse {
	resp := &guestViewResponse{
		ID:             view.ID,
		GuestFirstName: view.GuestFirstName,
		GuestLastName:  view.GuestLastName,
		GuestEmail:     view.GuestEmail,
		DocumentType:   view.DocumentType,
		Status:         view.Status,
		Wizard: wizardResponse{
			Progress:         view.Wizard,
			LivenessPoses:    wizard.LivenessPoses,
			CountdownSeconds: wizard.CountdownSeconds,
		},
	}
	if view.Property != nil {
		resp.Property = &guestPropertyResponse{
			Name:    view.Property.Name,
			City:    view.Property.City,
			Country: view.Property.Country,
		}
	}

	return resp
}
