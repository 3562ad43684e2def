package events

import (
	"time"

	"github.com/spec-kit/clearance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated  EventType = "request_created"
	EventRequestApproved EventType = "request_approved"
	EventRequestRejected EventType = "request_rejected"
	EventRequestUpdated  EventType = "request_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	AccountID string      `json:"account_id"`
	Role      domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	StudentID    string `json:"student_id"`
	DepartmentID string `json:"department_id"`
}

// RequestDecidedPayload covers approvals and rejections.
type RequestDecidedPayload struct {
	OldStatus domain.RequestStatus `json:"old_status"`
	NewStatus domain.RequestStatus `json:"new_status"`
	Comment   string               `json:"comment,omitempty"`
}

// RequestUpdatedPayload payload for the generic update path.
type RequestUpdatedPayload struct {
	Status  *domain.RequestStatus `json:"status,omitempty"`
	Comment *string               `json:"comment,omitempty"`
}
