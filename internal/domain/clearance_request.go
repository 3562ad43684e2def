package domain

import "time"

// RequestStatus enumerates lifecycle states for clearance requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether the status is one of the known values.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// ClearanceRequest ties one student to one department. The pair is unique and
// write-once: neither side is reassigned after creation. ResponseDate is set
// the first time status leaves pending.
type ClearanceRequest struct {
	ID           string
	StudentID    string
	DepartmentID string
	Status       RequestStatus
	Comment      *string
	RequestDate  time.Time
	ResponseDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
