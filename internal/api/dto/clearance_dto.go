package dto

import "github.com/spec-kit/clearance-service/internal/domain"

// CreateClearanceRequest payload. Any student field in the payload is
// ignored; the request is always created for the caller.
type CreateClearanceRequest struct {
	DepartmentID string `json:"department"`
}

// UpdateClearanceRequest payload for the generic update path.
type UpdateClearanceRequest struct {
	Status  *domain.RequestStatus `json:"status"`
	Comment *string               `json:"comment"`
}

// RejectClearanceRequest payload.
type RejectClearanceRequest struct {
	Reason string `json:"reason"`
}

// ClearanceResponse mirrors the stored request plus display names. Dates are
// calendar dates (YYYY-MM-DD).
type ClearanceResponse struct {
	ID             string               `json:"id"`
	StudentID      string               `json:"student"`
	StudentName    string               `json:"student_name"`
	DepartmentID   string               `json:"department"`
	DepartmentName string               `json:"department_name"`
	Status         domain.RequestStatus `json:"status"`
	Comment        *string              `json:"comment"`
	RequestDate    string               `json:"request_date"`
	ResponseDate   *string              `json:"response_date"`
}
