package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/clearance-service/internal/auth"
	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/repository"
)

type seedAccount struct {
	name     string
	email    string
	password string
	role     domain.Role
}

type seedDepartment struct {
	name      string
	headEmail string
}

var stockAccounts = []seedAccount{
	{name: "Admin User", email: "admin@example.com", password: "admin123", role: domain.RoleAdmin},
	{name: "Student User", email: "student@example.com", password: "student123", role: domain.RoleStudent},
	{name: "Library Department", email: "library@example.com", password: "library123", role: domain.RoleDepartment},
	{name: "Accounts Department", email: "accounts@example.com", password: "accounts123", role: domain.RoleDepartment},
}

var stockDepartments = []seedDepartment{
	{name: "Library", headEmail: "library@example.com"},
	{name: "Accounts", headEmail: "accounts@example.com"},
	{name: "Hostel"},
	{name: "Academic Department"},
	{name: "Laboratory"},
	{name: "Sports Department"},
}

// Run creates the bootstrap accounts and departments if they do not already
// exist. It is safe to run on every boot.
func Run(ctx context.Context, accounts repository.AccountRepository, departments repository.DepartmentRepository, bcryptCost int, logger *zap.Logger) error {
	for _, entry := range stockAccounts {
		if _, err := accounts.GetByEmail(ctx, entry.email); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		hash, err := auth.HashPassword(entry.password, bcryptCost)
		if err != nil {
			return err
		}
		account := &domain.Account{
			Name:         entry.name,
			Email:        entry.email,
			PasswordHash: hash,
			Role:         entry.role,
		}
		if err := accounts.Create(ctx, account); err != nil {
			return err
		}
		logger.Info("seeded account", zap.String("email", entry.email), zap.String("role", string(entry.role)))
	}

	for _, entry := range stockDepartments {
		if _, err := departments.GetByName(ctx, entry.name); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		dept := &domain.Department{Name: entry.name}
		if entry.headEmail != "" {
			head, err := accounts.GetByEmail(ctx, entry.headEmail)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if head != nil {
				dept.HeadID = &head.ID
			}
		}
		if err := departments.Create(ctx, dept); err != nil {
			return err
		}
		logger.Info("seeded department", zap.String("name", entry.name))
	}

	return nil
}
