package events

import (
	"time"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSubmissionCreated       EventType = "submission_created"
	EventSubmissionUpdated       EventType = "submission_updated"
	EventSubmissionDeleted       EventType = "submission_deleted"
	EventSubmissionStatusChanged EventType = "submission_status_changed"
)

// ActorType identifies who triggered an event.
type ActorType string

const (
	ActorUser  ActorType = "user"
	ActorAdmin ActorType = "admin"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type   ActorType `json:"type"`
	UserID *string   `json:"user_id,omitempty"`
	Name   string    `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	SubmissionID string    `json:"submission_id"`
	Actor        Actor     `json:"actor"`
	Timestamp    time.Time `json:"timestamp"`
	Payload      any       `json:"payload"`
}

// SubmissionCreatedPayload payload.
type SubmissionCreatedPayload struct {
	GiftType       domain.GiftType `json:"gift_type"`
	RecipientEmail string          `json:"recipient_email"`
}

// SubmissionStatusChangedPayload payload.
type SubmissionStatusChangedPayload struct {
	OldStatus   domain.SubmissionStatus `json:"old_status"`
	NewStatus   domain.SubmissionStatus `json:"new_status"`
	ProcessedBy *string                 `json:"processed_by,omitempty"`
}
