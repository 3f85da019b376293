package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/hari200698/Mocksy/internal/domain"
)

// JobRepo persists generation jobs in PostgreSQL.
type JobRepo struct{ Pool PgxPool }

// NewJobRepo constructs a JobRepo with the given pool.
func NewJobRepo(p PgxPool) *JobRepo { return &JobRepo{Pool: p} }

// Create inserts a new generation job and returns its id.
func (r *JobRepo) Create(ctx domain.Context, j domain.GenerationJob) (string, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Create")
	defer span.End()
	id := j.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO generation_jobs (id, interview_id, feedback_id, status, error, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.Pool.Exec(ctx, q, id, j.InterviewID, j.FeedbackID, j.Status, j.Error, now, now)
	if err != nil {
		return "", fmt.Errorf("op=job.create: %w", err)
	}
	return id, nil
}

// UpdateStatus updates a job's status and optional error message.
func (r *JobRepo) UpdateStatus(ctx domain.Context, id string, status domain.JobStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.UpdateStatus")
	defer span.End()
	errVal := ""
	if errMsg != nil {
		errVal = *errMsg
	}
	q := `UPDATE generation_jobs SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, status, errVal, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=job.update_status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=job.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// SetFeedbackID records the feedback document produced by a completed job.
func (r *JobRepo) SetFeedbackID(ctx domain.Context, id, feedbackID string) error {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.SetFeedbackID")
	defer span.End()
	q := `UPDATE generation_jobs SET feedback_id=$2, updated_at=$3 WHERE id=$1`
	tag, err := r.Pool.Exec(ctx, q, id, feedbackID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=job.set_feedback_id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=job.set_feedback_id: %w", domain.ErrNotFound)
	}
	return nil
}

// Get loads a job by id.
func (r *JobRepo) Get(ctx domain.Context, id string) (domain.GenerationJob, error) {
	tracer := otel.Tracer("repo.jobs")
	ctx, span := tracer.Start(ctx, "jobs.Get")
	defer span.End()
	q := `SELECT id, interview_id, COALESCE(feedback_id,''), status, COALESCE(error,''), created_at, updated_at
	FROM generation_jobs WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	var j domain.GenerationJob
	if err := row.Scan(&j.ID, &j.InterviewID, &j.FeedbackID, &j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.GenerationJob{}, fmt.Errorf("op=job.get: %w", domain.ErrNotFound)
		}
		return domain.GenerationJob{}, fmt.Errorf("op=job.get: %w", err)
	}
	return j, nil
}
