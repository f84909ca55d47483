package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/gift-portal/internal/domain"
	"github.com/spec-kit/gift-portal/internal/events"
	"github.com/spec-kit/gift-portal/internal/repository"
)

// SubmissionService coordinates gift request workflows.
type SubmissionService struct {
	submissions repository.SubmissionRepository
	history     repository.SubmissionHistoryRepository
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// SubmissionDependencies bundles collaborators for the submission service.
type SubmissionDependencies struct {
	SubmissionRepo repository.SubmissionRepository
	HistoryRepo    repository.SubmissionHistoryRepository
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// SubmissionInput is the user-editable part of a gift request.
type SubmissionInput struct {
	GiftType          string
	RecipientName     string
	RecipientEmail    string
	RecipientUsername *string
	Message           *string
}

// SubmissionListFilter describes admin listing parameters.
type SubmissionListFilter struct {
	Status     *domain.SubmissionStatus
	SortBy     string
	Descending bool
	Search     *string
	Limit      int
	Offset     int
}

// SubmissionStats holds dashboard totals.
type SubmissionStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Processed int `json:"processed"`
	Cancelled int `json:"cancelled"`
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher(logger)
	}
	return &SubmissionService{
		submissions: deps.SubmissionRepo,
		history:     deps.HistoryRepo,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// Create stores a new pending request for the session owner.
func (s *SubmissionService) Create(ctx context.Context, owner *domain.UserIdentity, input SubmissionInput) (*domain.Submission, error) {
	if owner == nil || owner.ID == "" {
		return nil, domain.ErrForbidden
	}
	fields, err := input.normalize()
	if err != nil {
		return nil, err
	}

	submission := &domain.Submission{
		UserID:            owner.ID,
		UserName:          owner.Name,
		UserEmail:         owner.Email,
		GiftType:          fields.giftType,
		RecipientName:     fields.recipientName,
		RecipientEmail:    fields.recipientEmail,
		RecipientUsername: fields.recipientUsername,
		Message:           fields.message,
		Status:            domain.SubmissionStatusPending,
		ReadOnlyData:      owner.ReadOnlyData,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionCreated,
		SubmissionID: submission.ID,
		Actor:        userActor(owner),
		Payload: events.SubmissionCreatedPayload{
			GiftType:       submission.GiftType,
			RecipientEmail: submission.RecipientEmail,
		},
	})
	return submission, nil
}

// ListForUser returns the user's own requests, newest first.
func (s *SubmissionService) ListForUser(ctx context.Context, userID string) ([]domain.Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.NewValidationError("userId is required", nil)
	}
	return s.submissions.List(ctx, repository.SubmissionFilter{
		UserID:     &userID,
		SortBy:     "createdAt",
		Descending: true,
	})
}

// Update edits a pending request owned by the caller.
func (s *SubmissionService) Update(ctx context.Context, owner *domain.UserIdentity, id string, input SubmissionInput) (*domain.Submission, error) {
	submission, err := s.ownedPending(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	fields, err := input.normalize()
	if err != nil {
		return nil, err
	}

	submission.GiftType = fields.giftType
	submission.RecipientName = fields.recipientName
	submission.RecipientEmail = fields.recipientEmail
	submission.RecipientUsername = fields.recipientUsername
	submission.Message = fields.message
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, mapNotFound(err)
	}

	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionUpdated,
		SubmissionID: submission.ID,
		Actor:        userActor(owner),
	})
	return submission, nil
}

// Delete removes a pending request owned by the caller.
func (s *SubmissionService) Delete(ctx context.Context, owner *domain.UserIdentity, id string) error {
	submission, err := s.ownedPending(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		return mapNotFound(err)
	}
	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionDeleted,
		SubmissionID: submission.ID,
		Actor:        userActor(owner),
	})
	return nil
}

// ListAll returns every request matching the admin filter.
func (s *SubmissionService) ListAll(ctx context.Context, filter SubmissionListFilter) ([]domain.Submission, error) {
	repoFilter := repository.SubmissionFilter{
		SearchTerm: filter.Search,
		SortBy:     filter.SortBy,
		Descending: filter.Descending,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, domain.NewValidationError("invalid status", map[string]any{"status": *filter.Status})
		}
		repoFilter.Statuses = []domain.SubmissionStatus{*filter.Status}
	}
	if filter.SortBy != "" && !repository.SortableField(filter.SortBy) {
		return nil, domain.NewValidationError("invalid sort field", map[string]any{"sort": filter.SortBy})
	}
	return s.submissions.List(ctx, repoFilter)
}

// Stats returns per-status totals.
func (s *SubmissionService) Stats(ctx context.Context) (SubmissionStats, error) {
	counts, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return SubmissionStats{}, err
	}
	stats := SubmissionStats{
		Pending:   counts[domain.SubmissionStatusPending],
		Processed: counts[domain.SubmissionStatusProcessed],
		Cancelled: counts[domain.SubmissionStatusCancelled],
	}
	stats.Total = stats.Pending + stats.Processed + stats.Cancelled
	return stats, nil
}

// ChangeStatus moves a request along the admin workflow.
func (s *SubmissionService) ChangeStatus(ctx context.Context, id string, next domain.SubmissionStatus, processedBy string) (*domain.Submission, error) {
	if !next.Valid() {
		return nil, domain.NewValidationError("invalid status", map[string]any{"status": next})
	}
	submission, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := submission.Status
	if !previous.CanTransitionTo(next) {
		return nil, domain.ErrInvalidTransition
	}

	submission.Status = next
	if next == domain.SubmissionStatusProcessed {
		now := s.now().UTC()
		by := strings.TrimSpace(processedBy)
		if by == "" {
			by = "admin"
		}
		submission.ProcessedAt = &now
		submission.ProcessedBy = &by
	} else {
		submission.ProcessedAt = nil
		submission.ProcessedBy = nil
	}
	if err := s.submissions.Update(ctx, submission); err != nil {
		return nil, mapNotFound(err)
	}

	s.recordHistory(ctx, submission.ID, processedBy, previous, next)
	s.logger.Info("submission status changed",
		zap.String("submission_id", submission.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))
	s.publish(ctx, events.Event{
		Type:         events.EventSubmissionStatusChanged,
		SubmissionID: submission.ID,
		Actor:        events.Actor{Type: events.ActorAdmin, Name: processedBy},
		Payload: events.SubmissionStatusChangedPayload{
			OldStatus:   previous,
			NewStatus:   next,
			ProcessedBy: submission.ProcessedBy,
		},
	})
	return submission, nil
}

// History returns the status audit trail of a request, oldest first.
func (s *SubmissionService) History(ctx context.Context, id string) ([]domain.SubmissionHistory, error) {
	if _, err := s.get(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.SubmissionHistory{}, nil
	}
	entries, err := s.history.ListBySubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.SubmissionHistory{}
	}
	return entries, nil
}

func (s *SubmissionService) recordHistory(ctx context.Context, id, changedBy string, from, to domain.SubmissionStatus) {
	if s.history == nil {
		return
	}
	by := strings.TrimSpace(changedBy)
	if by == "" {
		by = "admin"
	}
	entry := &domain.SubmissionHistory{SubmissionID: id, ChangedBy: by, OldStatus: from, NewStatus: to}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record submission history failed", zap.String("submission_id", id), zap.Error(err))
	}
}

func (s *SubmissionService) get(ctx context.Context, id string) (*domain.Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return submission, nil
}

func (s *SubmissionService) ownedPending(ctx context.Context, owner *domain.UserIdentity, id string) (*domain.Submission, error) {
	if owner == nil {
		return nil, domain.ErrForbidden
	}
	submission, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !submission.OwnedBy(owner.ID) {
		return nil, domain.ErrForbidden
	}
	if !submission.IsPending() {
		return nil, domain.ErrNotEditable
	}
	return submission, nil
}

func (s *SubmissionService) publish(ctx context.Context, event events.Event) {
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func userActor(owner *domain.UserIdentity) events.Actor {
	id := owner.ID
	return events.Actor{Type: events.ActorUser, UserID: &id, Name: owner.Name}
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

type submissionFields struct {
	giftType          domain.GiftType
	recipientName     string
	recipientEmail    string
	recipientUsername *string
	message           *string
}

func (in SubmissionInput) normalize() (submissionFields, error) {
	out := submissionFields{
		giftType:          domain.GiftType(strings.TrimSpace(in.GiftType)),
		recipientName:     strings.TrimSpace(in.RecipientName),
		recipientEmail:    strings.TrimSpace(in.RecipientEmail),
		recipientUsername: optional(in.RecipientUsername),
		message:           optional(in.Message),
	}

	invalid := map[string]any{}
	if !out.giftType.Valid() {
		invalid["giftType"] = "must be one of One Month, Two Months, Three Months"
	}
	if out.recipientName == "" {
		invalid["recipientName"] = "required"
	}
	if out.recipientEmail == "" {
		invalid["recipientEmail"] = "required"
	} else if _, err := mail.ParseAddress(out.recipientEmail); err != nil {
		invalid["recipientEmail"] = "invalid email address"
	}
	if out.message != nil && utf8.RuneCountInString(*out.message) > domain.MaxMessageLength {
		invalid["message"] = "must be at most 1000 characters"
	}
	if len(invalid) > 0 {
		return submissionFields{}, domain.NewValidationError("invalid submission", invalid)
	}
	return out, nil
}

func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
