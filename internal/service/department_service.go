package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/policy"
	"github.com/spec-kit/clearance-service/internal/repository"
	apperrors "github.com/spec-kit/clearance-service/pkg/util"
)

// DepartmentService manages clearance-granting units. Any authenticated
// caller may view departments; only admins create or update them.
type DepartmentService struct {
	departments repository.DepartmentRepository
	accounts    repository.AccountRepository
}

// DepartmentDetail pairs a department with its head's display name.
type DepartmentDetail struct {
	Department domain.Department
	HeadName   *string
}

// DepartmentInput describes department create/update payloads.
type DepartmentInput struct {
	Name   string
	HeadID *string
}

// NewDepartmentService constructs the service.
func NewDepartmentService(departments repository.DepartmentRepository, accounts repository.AccountRepository) *DepartmentService {
	return &DepartmentService{departments: departments, accounts: accounts}
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context, caller *policy.Caller) ([]DepartmentDetail, error) {
	if decision := policy.Evaluate(caller, policy.OpListDepartments, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]DepartmentDetail, 0, len(depts))
	for i := range depts {
		detail, err := s.describe(ctx, &depts[i])
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// Get returns a single department.
func (s *DepartmentService) Get(ctx context.Context, caller *policy.Caller, id string) (*DepartmentDetail, error) {
	if decision := policy.Evaluate(caller, policy.OpViewDepartment, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", nil)
		}
		return nil, err
	}
	return s.describe(ctx, dept)
}

// Create adds a department; admin only.
func (s *DepartmentService) Create(ctx context.Context, caller *policy.Caller, input DepartmentInput) (*DepartmentDetail, error) {
	if decision := policy.Evaluate(caller, policy.OpManageDepartments, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	if err := s.validateHead(ctx, input.HeadID); err != nil {
		return nil, err
	}

	dept := &domain.Department{Name: input.Name, HeadID: input.HeadID}
	if err := s.departments.Create(ctx, dept); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("department name or head already in use", nil)
		}
		return nil, err
	}
	return s.describe(ctx, dept)
}

// Update renames a department or reassigns its head; admin only.
func (s *DepartmentService) Update(ctx context.Context, caller *policy.Caller, id string, input DepartmentInput) (*DepartmentDetail, error) {
	if decision := policy.Evaluate(caller, policy.OpManageDepartments, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", nil)
		}
		return nil, err
	}
	if err := s.validateHead(ctx, input.HeadID); err != nil {
		return nil, err
	}

	if input.Name != "" {
		dept.Name = input.Name
	}
	dept.HeadID = input.HeadID
	if err := s.departments.Update(ctx, dept); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("department name or head already in use", nil)
		}
		return nil, err
	}
	return s.describe(ctx, dept)
}

// validateHead checks that a proposed head exists and carries the department
// role. A nil head is fine: such departments are admin-operated.
func (s *DepartmentService) validateHead(ctx context.Context, headID *string) error {
	if headID == nil {
		return nil
	}
	head, err := s.accounts.GetByID(ctx, *headID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("head account", nil)
		}
		return err
	}
	if head.Role != domain.RoleDepartment {
		return apperrors.NewValidationError("head account must have the department role", nil)
	}
	return nil
}

func (s *DepartmentService) describe(ctx context.Context, dept *domain.Department) (*DepartmentDetail, error) {
	detail := &DepartmentDetail{Department: *dept}
	if dept.HeadID != nil {
		head, err := s.accounts.GetByID(ctx, *dept.HeadID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if head != nil {
			detail.HeadName = &head.Name
		}
	}
	return detail, nil
}
