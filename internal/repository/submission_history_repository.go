package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// SubmissionHistoryRepository stores status change audit entries.
type SubmissionHistoryRepository interface {
	Create(ctx context.Context, history *domain.SubmissionHistory) error
	ListBySubmission(ctx context.Context, submissionID string) ([]domain.SubmissionHistory, error)
}

type submissionHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionHistoryRepository builds repository.
func NewSubmissionHistoryRepository(pool *pgxpool.Pool) SubmissionHistoryRepository {
	return &submissionHistoryRepository{pool: pool}
}

func (r *submissionHistoryRepository) Create(ctx context.Context, history *domain.SubmissionHistory) error {
	const query = `
        INSERT INTO submission_history (submission_id, changed_by, old_status, new_status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		history.SubmissionID,
		history.ChangedBy,
		history.OldStatus,
		history.NewStatus,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *submissionHistoryRepository) ListBySubmission(ctx context.Context, submissionID string) ([]domain.SubmissionHistory, error) {
	const query = `
        SELECT id, submission_id, changed_by, old_status, new_status, created_at
        FROM submission_history WHERE submission_id=$1 ORDER BY created_at ASC, id`
	rows, err := r.pool.Query(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubmissionHistory
	for rows.Next() {
		var history domain.SubmissionHistory
		if err := rows.Scan(
			&history.ID,
			&history.SubmissionID,
			&history.ChangedBy,
			&history.OldStatus,
			&history.NewStatus,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

// MemorySubmissionHistoryRepository is the in-process counterpart used without Postgres.
type MemorySubmissionHistoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.SubmissionHistory
}

// NewMemorySubmissionHistoryRepository returns an empty store.
func NewMemorySubmissionHistoryRepository() *MemorySubmissionHistoryRepository {
	return &MemorySubmissionHistoryRepository{entries: make(map[string][]domain.SubmissionHistory)}
}

func (r *MemorySubmissionHistoryRepository) Create(_ context.Context, history *domain.SubmissionHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	history.CreatedAt = time.Now().UTC()
	r.entries[history.SubmissionID] = append(r.entries[history.SubmissionID], *history)
	return nil
}

func (r *MemorySubmissionHistoryRepository) ListBySubmission(_ context.Context, submissionID string) ([]domain.SubmissionHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.SubmissionHistory(nil), r.entries[submissionID]...), nil
}
