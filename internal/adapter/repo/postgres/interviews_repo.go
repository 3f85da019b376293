package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/hari200698/Mocksy/internal/domain"
)

// InterviewRepo loads interview read models from PostgreSQL. The questions
// column holds the ordered question list as JSONB.
type InterviewRepo struct{ Pool PgxPool }

// NewInterviewRepo constructs an InterviewRepo with the given pool.
func NewInterviewRepo(p PgxPool) *InterviewRepo { return &InterviewRepo{Pool: p} }

// Get loads an interview by id.
func (r *InterviewRepo) Get(ctx domain.Context, id string) (domain.Interview, error) {
	tracer := otel.Tracer("repo.interviews")
	ctx, span := tracer.Start(ctx, "interviews.Get")
	defer span.End()
	q := `SELECT id, user_id, COALESCE(company,''), role, level, questions, created_at
	FROM interviews WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var iv domain.Interview
	var questionsJSON []byte
	if err := row.Scan(&iv.ID, &iv.UserID, &iv.Company, &iv.Role, &iv.Level, &questionsJSON, &iv.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Interview{}, fmt.Errorf("op=interview.get: %w", domain.ErrNotFound)
		}
		return domain.Interview{}, fmt.Errorf("op=interview.get: %w", err)
	}
	if err := json.Unmarshal(questionsJSON, &iv.Questions); err != nil {
		return domain.Interview{}, fmt.Errorf("op=interview.get: questions decode: %w", err)
	}
	return iv, nil
}
