package service

import (
	"context"
	"time"
)

// BusinessApprovedEvent is published after a business is approved.
type BusinessApprovedEvent struct {
	RequestID       string    `json:"request_id,omitempty"` // For distributed tracing
	BusinessID      string    `json:"business_id"`
	IdentityID      string    `json:"identity_id"`
	ApprovedBy      string    `json:"approved_by"`
	PlanType        string    `json:"plan_type"`
	IdentityCreated bool      `json:"identity_created"`
	ApprovedAt      time.Time `json:"approved_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	PublishBusinessApproved(ctx context.Context, event *BusinessApprovedEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
