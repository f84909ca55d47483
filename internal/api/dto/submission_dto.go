package dto

import (
	"time"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// SubmissionRequest is the create/update payload. Requester identity is
// taken from the session, never from the body.
type SubmissionRequest struct {
	GiftType          string  `json:"giftType"`
	RecipientName     string  `json:"recipientName"`
	RecipientEmail    string  `json:"recipientEmail"`
	RecipientUsername *string `json:"recipientUsername"`
	Message           *string `json:"message"`
}

// StatusChangeRequest is the admin status update payload.
type StatusChangeRequest struct {
	Status      domain.SubmissionStatus `json:"status"`
	ProcessedBy string                  `json:"processedBy"`
}

// SubmissionResponse represents a gift request.
type SubmissionResponse struct {
	ID                string                  `json:"id"`
	UserID            string                  `json:"userId"`
	UserName          string                  `json:"userName"`
	UserEmail         string                  `json:"userEmail"`
	GiftType          domain.GiftType         `json:"giftType"`
	RecipientName     string                  `json:"recipientName"`
	RecipientEmail    string                  `json:"recipientEmail"`
	RecipientUsername *string                 `json:"recipientUsername"`
	Message           *string                 `json:"message"`
	Status            domain.SubmissionStatus `json:"status"`
	ReadOnlyData      map[string]string       `json:"readOnlyData,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
	ProcessedAt       *time.Time              `json:"processedAt"`
	ProcessedBy       *string                 `json:"processedBy"`
}

// NewSubmissionResponse maps a domain submission.
func NewSubmissionResponse(s *domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                s.ID,
		UserID:            s.UserID,
		UserName:          s.UserName,
		UserEmail:         s.UserEmail,
		GiftType:          s.GiftType,
		RecipientName:     s.RecipientName,
		RecipientEmail:    s.RecipientEmail,
		RecipientUsername: s.RecipientUsername,
		Message:           s.Message,
		Status:            s.Status,
		ReadOnlyData:      s.ReadOnlyData,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		ProcessedAt:       s.ProcessedAt,
		ProcessedBy:       s.ProcessedBy,
	}
}

// NewSubmissionList maps a slice of domain submissions.
func NewSubmissionList(items []domain.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(items))
	for i := range items {
		out = append(out, NewSubmissionResponse(&items[i]))
	}
	return out
}

// SubmissionHistoryResponse is one status audit entry.
type SubmissionHistoryResponse struct {
	ID        string                  `json:"id"`
	ChangedBy string                  `json:"changedBy"`
	OldStatus domain.SubmissionStatus `json:"oldStatus"`
	NewStatus domain.SubmissionStatus `json:"newStatus"`
	CreatedAt time.Time               `json:"createdAt"`
}

// NewSubmissionHistoryList maps audit entries.
func NewSubmissionHistoryList(items []domain.SubmissionHistory) []SubmissionHistoryResponse {
	out := make([]SubmissionHistoryResponse, 0, len(items))
	for _, h := range items {
		out = append(out, SubmissionHistoryResponse{
			ID:        h.ID,
			ChangedBy: h.ChangedBy,
			OldStatus: h.OldStatus,
			NewStatus: h.NewStatus,
			CreatedAt: h.CreatedAt,
		})
	}
	return out
}
