package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gift-portal/internal/api/dto"
	"github.com/spec-kit/gift-portal/internal/domain"
	"github.com/spec-kit/gift-portal/internal/service"
	apperrors "github.com/spec-kit/gift-portal/pkg/util"
)

// AdminSubmissionsHandler manages the admin dashboard endpoints.
type AdminSubmissionsHandler struct {
	service *service.SubmissionService
}

// NewAdminSubmissionsHandler constructs handler.
func NewAdminSubmissionsHandler(submissionService *service.SubmissionService) *AdminSubmissionsHandler {
	return &AdminSubmissionsHandler{service: submissionService}
}

// List GET /api/admin/submissions?status=&sort=&order=&search=&page=&page_size=.
func (h *AdminSubmissionsHandler) List(c *fiber.Ctx) error {
	submissions, err := h.service.ListAll(c.UserContext(), parseAdminListQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"submissions": dto.NewSubmissionList(submissions)})
}

// Stats GET /api/admin/submissions/stats.
func (h *AdminSubmissionsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// UpdateStatus PATCH /api/admin/submissions/:id.
func (h *AdminSubmissionsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status is required", nil)
	}

	submission, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), req.Status, req.ProcessedBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success":    true,
		"submission": dto.NewSubmissionResponse(submission),
	})
}

// History GET /api/admin/submissions/:id/history.
func (h *AdminSubmissionsHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"history": dto.NewSubmissionHistoryList(entries)})
}

func parseAdminListQuery(c *fiber.Ctx) service.SubmissionListFilter {
	filter := service.SubmissionListFilter{
		SortBy:     c.Query("sort", "createdAt"),
		Descending: !strings.EqualFold(c.Query("order"), "asc"),
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" && !strings.EqualFold(status, "all") {
		s := domain.SubmissionStatus(status)
		filter.Status = &s
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 100)
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
