package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/api/dto"
	"github.com/spec-kit/gift-portal/internal/auth"
	"github.com/spec-kit/gift-portal/internal/service"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

// SubmissionsHandler manages the user-facing gift request endpoints.
type SubmissionsHandler struct {
	service *service.SubmissionService
}

// NewSubmissionsHandler constructs handler.
func NewSubmissionsHandler(submissionService *service.SubmissionService) *SubmissionsHandler {
	return &SubmissionsHandler{service: submissionService}
}

// List GET /api/submissions. Users see their own requests; admins and trusted
// services must name the user with ?userId=.
func (h *SubmissionsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("unauthorized")
	}

	userID := strings.TrimSpace(c.Query("userId"))
	if principal.Kind == auth.PrincipalUser {
		if userID != "" && userID != principal.User.ID {
			return apperrors.NewForbidden("access denied")
		}
		userID = principal.User.ID
	}

	submissions, err := h.service.ListForUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"submissions": dto.NewSubmissionList(submissions)})
}

// Create POST /api/submissions.
func (h *SubmissionsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user session required")
	}
	var req dto.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	submission, err := h.service.Create(c.UserContext(), principal.User, submissionInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"submission": dto.NewSubmissionResponse(submission),
	})
}

// Update PUT /api/submissions/:id.
func (h *SubmissionsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user session required")
	}
	var req dto.SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	submission, err := h.service.Update(c.UserContext(), principal.User, c.Params("id"), submissionInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"submission": dto.NewSubmissionResponse(submission),
	})
}

// Delete DELETE /api/submissions/:id.
func (h *SubmissionsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user session required")
	}
	if err := h.service.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "submission deleted"})
}

func submissionInput(req dto.SubmissionRequest) service.SubmissionInput {
	return service.SubmissionInput{
		GiftType:          req.GiftType,
		RecipientName:     req.RecipientName,
		RecipientEmail:    req.RecipientEmail,
		RecipientUsername: req.RecipientUsername,
		Message:           req.Message,
	}
}
