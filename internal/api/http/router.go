package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clearance-service/internal/api/http/handlers"
	"github.com/spec-kit/clearance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Accounts       *handlers.AccountsHandler
	Departments    *handlers.DepartmentsHandler
	Clearance      *handlers.ClearanceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/logout", cfg.Auth.Logout)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)

	accounts := app.Group("/accounts", cfg.AuthMiddleware.Handle)
	accounts.Get("/me", cfg.Accounts.Me)
	accounts.Get("/", cfg.Accounts.List)
	accounts.Post("/", cfg.Accounts.Create)
	accounts.Get("/:id", cfg.Accounts.Get)

	departments := app.Group("/departments", cfg.AuthMiddleware.Handle)
	departments.Get("/", cfg.Departments.List)
	departments.Post("/", cfg.Departments.Create)
	departments.Get("/:id", cfg.Departments.Get)
	departments.Put("/:id", cfg.Departments.Update)

	clearance := app.Group("/clearance-requests", cfg.AuthMiddleware.Handle)
	clearance.Get("/", cfg.Clearance.List)
	clearance.Post("/", cfg.Clearance.Create)
	clearance.Get("/:id", cfg.Clearance.Get)
	clearance.Put("/:id", cfg.Clearance.Update)
	clearance.Post("/:id/approve", cfg.Clearance.Approve)
	clearance.Post("/:id/reject", cfg.Clearance.Reject)
}
