package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clearance-service/internal/api/dto"
	"github.com/spec-kit/clearance-service/internal/auth"
	"github.com/spec-kit/clearance-service/internal/domain"
	"github.com/spec-kit/clearance-service/internal/service"
	apperrors "github.com/spec-kit/clearance-service/pkg/util"
)

const dateLayout = "2006-01-02"

// ClearanceHandler exposes clearance request endpoints.
type ClearanceHandler struct {
	service *service.ClearanceService
}

// NewClearanceHandler constructs handler.
func NewClearanceHandler(clearanceService *service.ClearanceService) *ClearanceHandler {
	return &ClearanceHandler{service: clearanceService}
}

// Create handles POST /clearance-requests.
func (h *ClearanceHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateClearanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == "" {
		return apperrors.NewValidationError("department required", nil)
	}

	detail, err := h.service.Create(c.UserContext(), principal.Caller(), req.DepartmentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": clearanceResponse(detail)})
}

// List handles GET /clearance-requests.
func (h *ClearanceHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	details, err := h.service.List(c.UserContext(), principal.Caller(), parseClearanceQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.ClearanceResponse, 0, len(details))
	for i := range details {
		items = append(items, clearanceResponse(&details[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /clearance-requests/:id.
func (h *ClearanceHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.Get(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clearanceResponse(detail)})
}

// Update handles PUT /clearance-requests/:id.
func (h *ClearanceHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateClearanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	detail, err := h.service.Update(c.UserContext(), principal.Caller(), c.Params("id"), service.RequestUpdateInput{
		Status:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clearanceResponse(detail)})
}

// Approve handles POST /clearance-requests/:id/approve.
func (h *ClearanceHandler) Approve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	detail, err := h.service.Approve(c.UserContext(), principal.Caller(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clearanceResponse(detail)})
}

// Reject handles POST /clearance-requests/:id/reject.
func (h *ClearanceHandler) Reject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RejectClearanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	detail, err := h.service.Reject(c.UserContext(), principal.Caller(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": clearanceResponse(detail)})
}

func parseClearanceQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if dept := c.Query("department"); dept != "" {
		filter.DepartmentID = &dept
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func clearanceResponse(detail *service.RequestDetail) dto.ClearanceResponse {
	req := detail.Request
	return dto.ClearanceResponse{
		ID:             req.ID,
		StudentID:      req.StudentID,
		StudentName:    detail.StudentName,
		DepartmentID:   req.DepartmentID,
		DepartmentName: detail.DepartmentName,
		Status:         req.Status,
		Comment:        req.Comment,
		RequestDate:    req.RequestDate.Format(dateLayout),
		ResponseDate:   formatDate(req.ResponseDate),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(dateLayout)
	return &formatted
}
