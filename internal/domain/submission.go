package domain

import "time"

// SubmissionStatus enumerates lifecycle states for gift requests.
type SubmissionStatus string

const (
	SubmissionStatusPending   SubmissionStatus = "Pending"
	SubmissionStatusProcessed SubmissionStatus = "Processed"
	SubmissionStatusCancelled SubmissionStatus = "Cancelled"
)

// GiftType enumerates the subscription durations that can be gifted.
type GiftType string

const (
	GiftTypeOneMonth    GiftType = "One Month"
	GiftTypeTwoMonths   GiftType = "Two Months"
	GiftTypeThreeMonths GiftType = "Three Months"
)

// MaxMessageLength bounds the free-text note attached to a gift.
const MaxMessageLength = 1000

var allowedTransitions = map[SubmissionStatus][]SubmissionStatus{
	SubmissionStatusPending:   {SubmissionStatusProcessed, SubmissionStatusCancelled},
	SubmissionStatusProcessed: {SubmissionStatusPending, SubmissionStatusCancelled},
	SubmissionStatusCancelled: {SubmissionStatusPending},
}

// Valid reports whether the status is one of the known values.
func (s SubmissionStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransitionTo reports whether an admin may move a submission from s to next.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Valid reports whether the gift type is one of the offered durations.
func (g GiftType) Valid() bool {
	switch g {
	case GiftTypeOneMonth, GiftTypeTwoMonths, GiftTypeThreeMonths:
		return true
	}
	return false
}

// Submission is a gift request made by a portal user.
type Submission struct {
	ID                string
	UserID            string
	UserName          string
	UserEmail         string
	GiftType          GiftType
	RecipientName     string
	RecipientEmail    string
	RecipientUsername *string
	Message           *string
	Status            SubmissionStatus
	ReadOnlyData      map[string]string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ProcessedAt       *time.Time
	ProcessedBy       *string
}

// OwnedBy reports whether userID submitted the request.
func (s *Submission) OwnedBy(userID string) bool {
	return userID != "" && s.UserID == userID
}

// IsPending reports whether the owner may still edit or delete the submission.
func (s *Submission) IsPending() bool {
	return s.Status == SubmissionStatusPending
}
