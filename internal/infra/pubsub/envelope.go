package pubsub

import (
	"encoding/json"

	"globalchek/internal/domain/constants"
	"globalchek/internal/domain/service"

	"github.com/pkg/errors"
)

// Message attributes read by the worker push endpoint.
const (
	attrEventType      = "event_type"
	attrVerificationID = "verification_id"
	attrUserID         = "user_id"
	attrRequestID      = "request_id"
)

// envelope is the transport independent form of a published event.
type envelope struct {
	data        []byte
	attributes  map[string]string
	orderingKey string
}

func newSubmittedEnvelope(event *service.VerificationSubmittedEvent) (*envelope, error) {
	if event == nil || event.VerificationID == "" {
		return nil, errors.New("verification submitted event without verification id")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode verification submitted event")
	}

	attributes := map[string]string{
		attrEventType:      constants.EventVerificationSubmitted,
		attrVerificationID: event.VerificationID,
		attrUserID:         event.UserID,
	}
	if event.RequestID != "" {
		attributes[attrRequestID] = event.RequestID
	}

	return &envelope{
		data:       data,
		attributes: attributes,
		// Re-submissions of one record are analysed in publish order.
		orderingKey: event.VerificationID,
	}, nil
}
