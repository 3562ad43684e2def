package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/clearance-service/internal/auth"
	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/policy"
	"github.com/spec-kit/clearance-service/internal/repository"
	apperrors "github.com/spec-kit/clearance-service/pkg/util"
)

// AccountService exposes admin-only account management. Roles are fixed at
// creation and accounts are never deleted.
type AccountService struct {
	accounts   repository.AccountRepository
	bcryptCost int
}

// AccountCreateInput describes a new account.
type AccountCreateInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// NewAccountService constructs the service.
func NewAccountService(accounts repository.AccountRepository, bcryptCost int) *AccountService {
	return &AccountService{accounts: accounts, bcryptCost: bcryptCost}
}

// List returns all accounts; admin only.
func (s *AccountService) List(ctx context.Context, caller *policy.Caller) ([]domain.Account, error) {
	if decision := policy.Evaluate(caller, policy.OpListAccounts, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	return s.accounts.List(ctx)
}

// Get returns a single account; admin only.
func (s *AccountService) Get(ctx context.Context, caller *policy.Caller, id string) (*domain.Account, error) {
	if decision := policy.Evaluate(caller, policy.OpViewAccount, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("account", nil)
		}
		return nil, err
	}
	return account, nil
}

// Create registers a new account with a fixed role; admin only.
func (s *AccountService) Create(ctx context.Context, caller *policy.Caller, input AccountCreateInput) (*domain.Account, error) {
	if decision := policy.Evaluate(caller, policy.OpCreateAccount, nil); !decision.Allowed {
		return nil, apperrors.NewPermissionDenied(decision.Reason)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}

	if _, err := s.accounts.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, err
	}
	return account, nil
}
