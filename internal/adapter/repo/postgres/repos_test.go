package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari200698/Mocksy/internal/adapter/repo/postgres"
	"github.com/hari200698/Mocksy/internal/domain"
)

// fakePool implements postgres.PgxPool with pluggable behavior.
type fakePool struct {
	execTag  pgconn.CommandTag
	execErr  error
	execSQL  string
	execArgs []any

	row pgx.Row
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return f.execTag, f.execErr
}

func (f *fakePool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return f.row }

func (f *fakePool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func TestJobRepo_Create_AllocatesID(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewJobRepo(pool)

	id, err := repo.Create(context.Background(), domain.GenerationJob{
		InterviewID: "int-1",
		Status:      domain.JobQueued,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, pool.execArgs[0], "generated id is what gets inserted")

	// explicit ids are respected
	id2, err := repo.Create(context.Background(), domain.GenerationJob{ID: "job-7", InterviewID: "int-1"})
	require.NoError(t, err)
	assert.Equal(t, "job-7", id2)
}

func TestJobRepo_Create_Error(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execErr: assert.AnError}
	repo := postgres.NewJobRepo(pool)

	_, err := repo.Create(context.Background(), domain.GenerationJob{InterviewID: "int-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=job.create")
}

func TestJobRepo_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := postgres.NewJobRepo(pool)

	err := repo.UpdateStatus(context.Background(), "missing", domain.JobCompleted, nil)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobRepo_SetFeedbackID(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := postgres.NewJobRepo(pool)

	require.NoError(t, repo.SetFeedbackID(context.Background(), "job-1", "fb-1"))
	assert.Equal(t, "job-1", pool.execArgs[0])
	assert.Equal(t, "fb-1", pool.execArgs[1])

	pool.execTag = pgconn.NewCommandTag("UPDATE 0")
	err := repo.SetFeedbackID(context.Background(), "missing", "fb-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobRepo_Get_NotFound(t *testing.T) {
	t.Parallel()

	pool := &fakePool{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewJobRepo(pool)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeedbackRepo_Save_AllocatesULID(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewFeedbackRepo(pool)

	id, err := repo.Save(context.Background(), domain.EnhancedFeedback{
		InterviewID: "int-1",
		UserID:      "user-1",
	})
	require.NoError(t, err)
	assert.Len(t, id, 26, "ULID string form")

	// document body carries the allocated id
	doc, ok := pool.execArgs[3].([]byte)
	require.True(t, ok)
	var saved domain.EnhancedFeedback
	require.NoError(t, json.Unmarshal(doc, &saved))
	assert.Equal(t, id, saved.ID)
}

func TestFeedbackRepo_Save_OverwritesExplicitID(t *testing.T) {
	t.Parallel()

	pool := &fakePool{execTag: pgconn.NewCommandTag("INSERT 0 1")}
	repo := postgres.NewFeedbackRepo(pool)

	id, err := repo.Save(context.Background(), domain.EnhancedFeedback{
		ID:          "fb-existing",
		InterviewID: "int-1",
		CreatedAt:   time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, "fb-existing", id)
}

func TestFeedbackRepo_Get_RoundTrip(t *testing.T) {
	t.Parallel()

	want := domain.EnhancedFeedback{
		ID:          "fb-1",
		InterviewID: "int-1",
		UserID:      "user-1",
		Company:     domain.CompanyGoogle,
		Summary: domain.SummaryFeedback{
			OverallSTARScore: 72,
			NextSteps:        []string{"Practice 2-3 more questions targeting your weak areas"},
		},
	}
	doc, err := json.Marshal(want)
	require.NoError(t, err)

	pool := &fakePool{row: fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*[]byte)) = doc
		return nil
	}}}
	repo := postgres.NewFeedbackRepo(pool)

	got, err := repo.Get(context.Background(), "fb-1")
	require.NoError(t, err)
	assert.Equal(t, want.Summary.OverallSTARScore, got.Summary.OverallSTARScore)
	assert.Equal(t, want.Company, got.Company)
}

func TestFeedbackRepo_GetByInterview_NotFound(t *testing.T) {
	t.Parallel()

	pool := &fakePool{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}
	repo := postgres.NewFeedbackRepo(pool)

	_, err := repo.GetByInterview(context.Background(), "int-1", "user-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInterviewRepo_Get_DecodesQuestions(t *testing.T) {
	t.Parallel()

	questions, err := json.Marshal([]domain.Question{
		{Text: "Tell me about a time you led a project", Position: 0},
		{Text: "Describe a conflict you resolved", Principle: "Earn Trust", Position: 1},
	})
	require.NoError(t, err)

	pool := &fakePool{row: fakeRow{scan: func(dest ...any) error {
		*(dest[0].(*string)) = "int-1"
		*(dest[1].(*string)) = "user-1"
		*(dest[2].(*domain.Company)) = domain.CompanyAmazon
		*(dest[3].(*string)) = "Backend Engineer"
		*(dest[4].(*string)) = "Senior"
		*(dest[5].(*[]byte)) = questions
		*(dest[6].(*time.Time)) = time.Now().UTC()
		return nil
	}}}
	repo := postgres.NewInterviewRepo(pool)

	got, err := repo.Get(context.Background(), "int-1")
	require.NoError(t, err)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, "Earn Trust", got.Questions[1].Principle)
}
