package postgres

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"

	"github.com/hari200698/Mocksy/internal/domain"
)

// FeedbackRepo persists feedback documents in PostgreSQL. The document body
// is stored wholesale as JSONB; reads and overwrites always operate on the
// full document, never on fragments.
type FeedbackRepo struct{ Pool PgxPool }

// NewFeedbackRepo constructs a FeedbackRepo with the given pool.
func NewFeedbackRepo(p PgxPool) *FeedbackRepo { return &FeedbackRepo{Pool: p} }

// Save writes the document. When f.ID is set the existing row is overwritten;
// otherwise a new ULID is allocated and returned.
func (r *FeedbackRepo) Save(ctx domain.Context, f domain.EnhancedFeedback) (string, error) {
	tracer := otel.Tracer("repo.feedback")
	ctx, span := tracer.Start(ctx, "feedback.Save")
	defer span.End()

	id := f.ID
	if id == "" {
		id = ulid.Make().String()
	}
	f.ID = id
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("op=feedback.save: encode: %w", err)
	}

	q := `INSERT INTO feedback (id, interview_id, user_id, document, created_at)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (id)
	DO UPDATE SET document=EXCLUDED.document, created_at=EXCLUDED.created_at`
	if _, err := r.Pool.Exec(ctx, q, id, f.InterviewID, f.UserID, doc, f.CreatedAt); err != nil {
		return "", fmt.Errorf("op=feedback.save: %w", err)
	}
	return id, nil
}

// Get loads a feedback document by id.
func (r *FeedbackRepo) Get(ctx domain.Context, id string) (domain.EnhancedFeedback, error) {
	tracer := otel.Tracer("repo.feedback")
	ctx, span := tracer.Start(ctx, "feedback.Get")
	defer span.End()
	q := `SELECT document FROM feedback WHERE id=$1`
	return r.scanDocument(r.Pool.QueryRow(ctx, q, id), "feedback.get")
}

// GetByInterview loads the feedback document for an interview and user.
func (r *FeedbackRepo) GetByInterview(ctx domain.Context, interviewID, userID string) (domain.EnhancedFeedback, error) {
	tracer := otel.Tracer("repo.feedback")
	ctx, span := tracer.Start(ctx, "feedback.GetByInterview")
	defer span.End()
	q := `SELECT document FROM feedback WHERE interview_id=$1 AND user_id=$2 ORDER BY created_at DESC LIMIT 1`
	return r.scanDocument(r.Pool.QueryRow(ctx, q, interviewID, userID), "feedback.get_by_interview")
}

func (r *FeedbackRepo) scanDocument(row pgx.Row, op string) (domain.EnhancedFeedback, error) {
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.EnhancedFeedback{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.EnhancedFeedback{}, fmt.Errorf("op=%s: %w", op, err)
	}
	var f domain.EnhancedFeedback
	if err := json.Unmarshal(doc, &f); err != nil {
		return domain.EnhancedFeedback{}, fmt.Errorf("op=%s: decode: %w", op, err)
	}
	return f, nil
}
