package service

import (
	"context"
)

// VerificationSubmittedEvent asks the AI worker to analyse a guest submission.
type VerificationSubmittedEvent struct {
	RequestID      string `json:"request_id,omitempty"` // For distributed tracing
	VerificationID string `json:"verification_id"`
	UserID         string `json:"user_id"`
	Version        int    `json:"version"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishVerificationSubmitted publishes a submission for async processing
	PublishVerificationSubmitted(ctx context.Context, event *VerificationSubmittedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
