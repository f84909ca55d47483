package domain

import "time"

// SubmissionHistory is an immutable audit trail entry for an admin status change.
type SubmissionHistory struct {
	ID           string
	SubmissionID string
	ChangedBy    string
	OldStatus    SubmissionStatus
	NewStatus    SubmissionStatus
	CreatedAt    time.Time
}
