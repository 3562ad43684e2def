package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/events"
	"github.com/spec-kit/clearance-service/internal/policy"
	"github.com/spec-kit/clearance-service/internal/repository"
	apperrors "github.com/spec-kit/clearance-service/pkg/util"
)

// ClearanceService coordinates the clearance request lifecycle. Every
// mutation is a single read-modify-write against one request row; the policy
// evaluator is consulted before any state changes.
type ClearanceService struct {
	requests    repository.ClearanceRepository
	departments repository.DepartmentRepository
	accounts    repository.AccountRepository
	dispatcher  events.Dispatcher
}

// ClearanceDependencies bundles repositories for the clearance service.
type ClearanceDependencies struct {
	RequestRepo    repository.ClearanceRepository
	DepartmentRepo repository.DepartmentRepository
	AccountRepo    repository.AccountRepository
	Dispatcher     events.Dispatcher
}

// RequestDetail is a clearance request enriched with display names for the
// response representation.
type RequestDetail struct {
	Request        domain.ClearanceRequest
	StudentName    string
	DepartmentName string
}

// RequestUpdateInput carries the generic update fields. Nil means leave the
// field untouched.
type RequestUpdateInput struct {
	Status  *domain.RequestStatus
	Comment *string
}

// RequestListFilter narrows listings beyond the caller's role scope.
type RequestListFilter struct {
	DepartmentID *string
	Statuses     []domain.RequestStatus
	Limit        int
	Offset       int
}

// NewClearanceService constructs the service.
func NewClearanceService(deps ClearanceDependencies) *ClearanceService {
	return &ClearanceService{
		requests:    deps.RequestRepo,
		departments: deps.DepartmentRepo,
		accounts:    deps.AccountRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// Create opens a pending request for the caller against a department. The
// student field is always the caller's own identity; duplicates per
// (student, department) are a conflict, backed by the DB unique constraint.
func (s *ClearanceService) Create(ctx context.Context, caller *policy.Caller, departmentID string) (*RequestDetail, error) {
	if decision := policy.Evaluate(caller, policy.OpCreateRequest, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}

	dept, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", nil)
		}
		return nil, err
	}

	if _, err := s.requests.GetByStudentAndDepartment(ctx, caller.ID, dept.ID); err == nil {
		return nil, apperrors.NewConflict("clearance request already exists for this department", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	req := &domain.ClearanceRequest{
		StudentID:    caller.ID,
		DepartmentID: dept.ID,
		Status:       domain.RequestStatusPending,
		RequestDate:  today(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("clearance request already exists for this department", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Actor:     actorFromCaller(caller),
		Payload: events.RequestCreatedPayload{
			StudentID:    req.StudentID,
			DepartmentID: req.DepartmentID,
		},
	})
	return s.describe(ctx, req, dept)
}

// Approve moves a request to approved. The transition is allowed from any
// prior state; response_date is only set the first time the request leaves
// pending and the comment is left untouched.
func (s *ClearanceService) Approve(ctx context.Context, caller *policy.Caller, requestID string) (*RequestDetail, error) {
	req, dept, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Evaluate(caller, policy.OpApproveRequest, requestTarget(req, dept)); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}

	oldStatus := req.Status
	req.Status = domain.RequestStatusApproved
	if req.ResponseDate == nil {
		now := today()
		req.ResponseDate = &now
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestApproved,
		RequestID: req.ID,
		Actor:     actorFromCaller(caller),
		Payload: events.RequestDecidedPayload{
			OldStatus: oldStatus,
			NewStatus: req.Status,
		},
	})
	return s.describe(ctx, req, dept)
}

// Reject moves a request to rejected, recording the mandatory reason as the
// request comment.
func (s *ClearanceService) Reject(ctx context.Context, caller *policy.Caller, requestID, reason string) (*RequestDetail, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("Rejection reason is required.", nil)
	}

	req, dept, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Evaluate(caller, policy.OpRejectRequest, requestTarget(req, dept)); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}

	oldStatus := req.Status
	req.Status = domain.RequestStatusRejected
	req.Comment = &reason
	if req.ResponseDate == nil {
		now := today()
		req.ResponseDate = &now
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestRejected,
		RequestID: req.ID,
		Actor:     actorFromCaller(caller),
		Payload: events.RequestDecidedPayload{
			OldStatus: oldStatus,
			NewStatus: req.Status,
			Comment:   reason,
		},
	})
	return s.describe(ctx, req, dept)
}

// Update writes status and comment fields directly. It is gated only by the
// update permission and performs no transition validation and no
// response_date bookkeeping; approve/reject are the curated paths.
func (s *ClearanceService) Update(ctx context.Context, caller *policy.Caller, requestID string, input RequestUpdateInput) (*RequestDetail, error) {
	req, dept, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Evaluate(caller, policy.OpUpdateRequest, requestTarget(req, dept)); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status value", map[string]any{"status": *input.Status})
		}
		req.Status = *input.Status
	}
	if input.Comment != nil {
		req.Comment = input.Comment
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestUpdated,
		RequestID: req.ID,
		Actor:     actorFromCaller(caller),
		Payload: events.RequestUpdatedPayload{
			Status:  input.Status,
			Comment: input.Comment,
		},
	})
	return s.describe(ctx, req, dept)
}

// Get fetches one request, enforcing the view rule.
func (s *ClearanceService) Get(ctx context.Context, caller *policy.Caller, requestID string) (*RequestDetail, error) {
	req, dept, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if decision := policy.Evaluate(caller, policy.OpViewRequest, requestTarget(req, dept)); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	return s.describe(ctx, req, dept)
}

// List returns requests visible to the caller: admins see everything,
// department heads their department's requests, students their own.
func (s *ClearanceService) List(ctx context.Context, caller *policy.Caller, filter RequestListFilter) ([]RequestDetail, error) {
	if caller == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	repoFilter := repository.ClearanceFilter{
		DepartmentID: filter.DepartmentID,
		Statuses:     filter.Statuses,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	switch caller.Role {
	case domain.RoleAdmin:
	case domain.RoleDepartment:
		repoFilter.HeadID = &caller.ID
	default:
		repoFilter.StudentID = &caller.ID
	}

	reqs, err := s.requests.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return s.describeAll(ctx, reqs)
}

func (s *ClearanceService) load(ctx context.Context, requestID string) (*domain.ClearanceRequest, *domain.Department, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("clearance request", nil)
		}
		return nil, nil, err
	}
	dept, err := s.departments.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, nil, err
	}
	return req, dept, nil
}

func (s *ClearanceService) describe(ctx context.Context, req *domain.ClearanceRequest, dept *domain.Department) (*RequestDetail, error) {
	student, err := s.accounts.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	return &RequestDetail{
		Request:        *req,
		StudentName:    student.Name,
		DepartmentName: dept.Name,
	}, nil
}

func (s *ClearanceService) describeAll(ctx context.Context, reqs []domain.ClearanceRequest) ([]RequestDetail, error) {
	details := make([]RequestDetail, 0, len(reqs))
	students := map[string]string{}
	depts := map[string]string{}
	for i := range reqs {
		req := &reqs[i]
		studentName, ok := students[req.StudentID]
		if !ok {
			student, err := s.accounts.GetByID(ctx, req.StudentID)
			if err != nil {
				return nil, err
			}
			studentName = student.Name
			students[req.StudentID] = studentName
		}
		deptName, ok := depts[req.DepartmentID]
		if !ok {
			dept, err := s.departments.GetByID(ctx, req.DepartmentID)
			if err != nil {
				return nil, err
			}
			deptName = dept.Name
			depts[req.DepartmentID] = deptName
		}
		details = append(details, RequestDetail{
			Request:        *req,
			StudentName:    studentName,
			DepartmentName: deptName,
		})
	}
	return details, nil
}

func requestTarget(req *domain.ClearanceRequest, dept *domain.Department) *policy.Request {
	return &policy.Request{
		StudentID:        req.StudentID,
		DepartmentHeadID: dept.HeadID,
	}
}

func actorFromCaller(caller *policy.Caller) events.Actor {
	if caller == nil {
		return events.Actor{}
	}
	return events.Actor{AccountID: caller.ID, Role: caller.Role}
}

func (s *ClearanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// today returns the current date with the time component dropped; request and
// response dates are calendar dates.
func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
