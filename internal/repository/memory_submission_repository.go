package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// MemorySubmissionRepository keeps submissions in process memory. It backs
// local runs without POSTGRES_DSN and mirrors the Postgres repository's
// filtering, ordering and not-found semantics.
type MemorySubmissionRepository struct {
	mu    sync.RWMutex
	items map[string]domain.Submission
	now   func() time.Time
}

// NewMemorySubmissionRepository returns an empty store.
func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		items: make(map[string]domain.Submission),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the timestamp source; used by tests for deterministic ordering.
func (r *MemorySubmissionRepository) WithClock(now func() time.Time) *MemorySubmissionRepository {
	r.now = now
	return r
}

func (r *MemorySubmissionRepository) Create(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = uuid.NewString()
	s.CreatedAt = r.now()
	s.UpdatedAt = s.CreatedAt
	r.items[s.ID] = cloneSubmission(*s)
	return nil
}

func (r *MemorySubmissionRepository) Update(_ context.Context, s *domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[s.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	s.UpdatedAt = r.now()
	// Owner and creation fields are immutable, as in the UPDATE statement.
	s.UserID, s.UserName, s.UserEmail = current.UserID, current.UserName, current.UserEmail
	s.ReadOnlyData, s.CreatedAt = current.ReadOnlyData, current.CreatedAt
	r.items[s.ID] = cloneSubmission(*s)
	return nil
}

func (r *MemorySubmissionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *MemorySubmissionRepository) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneSubmission(s)
	return &out, nil
}

func (r *MemorySubmissionRepository) List(_ context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	r.mu.RLock()
	var result []domain.Submission
	for _, s := range r.items {
		if matches(s, filter) {
			result = append(result, cloneSubmission(s))
		}
	}
	r.mu.RUnlock()

	less := lessFunc(filter.SortBy)
	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if filter.Descending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return result[i].ID < result[j].ID
	})

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	end := len(result)
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}
	return result[offset:end], nil
}

func (r *MemorySubmissionRepository) CountByStatus(context.Context) (map[domain.SubmissionStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.SubmissionStatus]int{}
	for _, s := range r.items {
		counts[s.Status]++
	}
	return counts, nil
}

func matches(s domain.Submission, filter SubmissionFilter) bool {
	if filter.UserID != nil && s.UserID != *filter.UserID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if s.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term == "" {
			return true
		}
		for _, field := range []string{s.UserName, s.UserEmail, s.RecipientName, s.RecipientEmail} {
			if strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	}
	return true
}

func lessFunc(sortBy string) func(a, b domain.Submission) bool {
	switch sortBy {
	case "updatedAt":
		return func(a, b domain.Submission) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case "status":
		return func(a, b domain.Submission) bool { return a.Status < b.Status }
	case "userName":
		return func(a, b domain.Submission) bool { return a.UserName < b.UserName }
	case "giftType":
		return func(a, b domain.Submission) bool { return a.GiftType < b.GiftType }
	}
	return func(a, b domain.Submission) bool { return a.CreatedAt.Before(b.CreatedAt) }
}

func cloneSubmission(s domain.Submission) domain.Submission {
	if s.ReadOnlyData != nil {
		data := make(map[string]string, len(s.ReadOnlyData))
		for k, v := range s.ReadOnlyData {
			data[k] = v
		}
		s.ReadOnlyData = data
	}
	return s
}
