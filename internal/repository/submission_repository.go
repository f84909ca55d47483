package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gift-portal/internal/domain"
)

// SubmissionFilter captures admin search and ordering parameters.
type SubmissionFilter struct {
	UserID     *string
	Statuses   []domain.SubmissionStatus
	SearchTerm *string
	SortBy     string
	Descending bool
	// Limit <= 0 returns every matching row.
	Limit  int
	Offset int
}

// SubmissionRepository encapsulates submission persistence.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *domain.Submission) error
	Update(ctx context.Context, submission *domain.Submission) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error)
	CountByStatus(ctx context.Context) (map[domain.SubmissionStatus]int, error)
}

// sortColumns whitelists ORDER BY targets.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"status":    "status",
	"userName":  "user_name",
	"giftType":  "gift_type",
}

// SortableField reports whether name can be used as SubmissionFilter.SortBy.
func SortableField(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

const submissionColumns = `id, user_id, user_name, user_email, gift_type, recipient_name, recipient_email,
               recipient_username, message, status, read_only_data, created_at, updated_at, processed_at, processed_by`

type submissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository returns a Postgres-backed implementation.
func NewSubmissionRepository(pool *pgxpool.Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

func (r *submissionRepository) Create(ctx context.Context, s *domain.Submission) error {
	const query = `
        INSERT INTO submissions (user_id, user_name, user_email, gift_type, recipient_name, recipient_email,
            recipient_username, message, status, read_only_data)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		s.UserID,
		s.UserName,
		s.UserEmail,
		s.GiftType,
		s.RecipientName,
		s.RecipientEmail,
		s.RecipientUsername,
		s.Message,
		s.Status,
		s.ReadOnlyData,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *submissionRepository) Update(ctx context.Context, s *domain.Submission) error {
	const query = `
        UPDATE submissions SET gift_type=$1, recipient_name=$2, recipient_email=$3, recipient_username=$4,
            message=$5, status=$6, processed_at=$7, processed_by=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		s.GiftType,
		s.RecipientName,
		s.RecipientEmail,
		s.RecipientUsername,
		s.Message,
		s.Status,
		s.ProcessedAt,
		s.ProcessedBy,
		s.ID,
	).Scan(&s.UpdatedAt)
	return err
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM submissions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id=$1`
	s, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, containsPattern(*filter.SearchTerm))
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			`(LOWER(user_name) LIKE %[1]s ESCAPE '\' OR LOWER(user_email) LIKE %[1]s ESCAPE '\' OR LOWER(recipient_name) LIKE %[1]s ESCAPE '\' OR LOWER(recipient_email) LIKE %[1]s ESCAPE '\')`,
			placeholder))
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE %s ORDER BY %s %s, id`,
		submissionColumns, strings.Join(clauses, " AND "), column, direction)
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	query += fmt.Sprintf(" OFFSET %d", offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *submissionRepository) CountByStatus(ctx context.Context) (map[domain.SubmissionStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM submissions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.SubmissionStatus]int{}
	for rows.Next() {
		var status domain.SubmissionStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var s domain.Submission
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.UserName,
		&s.UserEmail,
		&s.GiftType,
		&s.RecipientName,
		&s.RecipientEmail,
		&s.RecipientUsername,
		&s.Message,
		&s.Status,
		&s.ReadOnlyData,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.ProcessedAt,
		&s.ProcessedBy,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a case-folded LIKE pattern that matches term literally.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
