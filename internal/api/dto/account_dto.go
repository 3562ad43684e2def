package dto

import (
	"time"

	"github.com/spec-kit/clearance-service/internal/domain"
)

// CreateAccountRequest payload for admin account creation.
type CreateAccountRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// AccountResponse is the account representation; the password hash never
// leaves the service.
type AccountResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}
