package service

import (
	"context"
)

// PushMessage is one alert fanned out to a host's devices.
type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

// PushReport summarises a fan-out. InvalidTokens lists the tokens the provider
// no longer accepts; their devices should stop receiving pushes.
type PushReport struct {
	Sent          int
	Failed        int
	InvalidTokens []string
}

// NotificationService delivers push notifications to device tokens.
type NotificationService interface {
	SendToTokens(ctx context.Context, tokens []string, msg PushMessage) (*PushReport, error)
}
