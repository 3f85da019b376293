package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpserver "github.com/hari200698/Mocksy/internal/adapter/httpserver"
	"github.com/hari200698/Mocksy/internal/config"
	"github.com/hari200698/Mocksy/internal/domain"
	domainmocks "github.com/hari200698/Mocksy/internal/domain/mocks"
	"github.com/hari200698/Mocksy/internal/usecase"
	"github.com/go-chi/chi/v5"
)

type serverMocks struct {
	interviews *domainmocks.MockInterviewRepository
	feedback   *domainmocks.MockFeedbackRepository
	jobs       *domainmocks.MockJobRepository
	queue      *domainmocks.MockQueue
}

func newTestServer(t *testing.T) (*httpserver.Server, serverMocks) {
	t.Helper()
	m := serverMocks{
		interviews: &domainmocks.MockInterviewRepository{},
		feedback:   &domainmocks.MockFeedbackRepository{},
		jobs:       &domainmocks.MockJobRepository{},
		queue:      &domainmocks.MockQueue{},
	}
	tel := &domainmocks.MockTelemetry{}
	tel.On("Emit", mock.Anything, mock.Anything).Maybe()
	gen := usecase.NewGenerateService(m.interviews, m.feedback, m.jobs, m.queue, &domainmocks.MockGenerationLock{}, tel, nil, nil, 0, 1)
	fb := usecase.NewFeedbackService(m.feedback, m.jobs)
	srv := httpserver.NewServer(config.Config{AppEnv: "test", Port: 8080}, gen, fb, nil, nil, nil)
	return srv, m
}

func newRouter(srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/feedback", srv.GenerateHandler())
	r.Post("/v1/feedback/{id}/regenerate", srv.RegenerateHandler())
	r.Get("/v1/feedback/{id}", srv.FeedbackHandler())
	r.Get("/v1/interviews/{id}/feedback", srv.InterviewFeedbackHandler())
	r.Get("/v1/jobs/{id}", srv.JobStatusHandler())
	return r
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestGenerateHandler_Success(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.interviews.On("Get", mock.Anything, "int-1").Return(domain.Interview{ID: "int-1", UserID: "u1"}, nil)
	m.jobs.On("Create", mock.Anything, mock.Anything).Return("job-1", nil)
	m.queue.On("EnqueueGenerate", mock.Anything, mock.Anything).Return("job-1", nil)

	body := `{"interview_id":"int-1","transcript":[{"role":"interviewer","content":"Q?"},{"role":"candidate","content":"A."}]}`
	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback", body)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Contains(t, w.Body.String(), `"id":"job-1"`)
	require.Contains(t, w.Body.String(), `"status":"queued"`)
}

func TestGenerateHandler_ValidationFailure(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback", `{"transcript":[]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "INVALID_ARGUMENT")
}

func TestGenerateHandler_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback", `{`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid json")
}

func TestGenerateHandler_NotAcceptable(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{}`))
	r.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	newRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusNotAcceptable, w.Code)
}

func TestGenerateHandler_InterviewNotFound(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.interviews.On("Get", mock.Anything, "missing").Return(domain.Interview{}, domain.ErrNotFound)

	body := `{"interview_id":"missing","transcript":[{"role":"candidate","content":"A."}]}`
	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback", body)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestRegenerateHandler_Success(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	existing := domain.EnhancedFeedback{
		ID:          "fb-1",
		InterviewID: "int-1",
		UserID:      "u1",
		QuestionEvaluations: []domain.QuestionEvaluation{
			{QuestionID: "q1", Question: "Q?", MainAnswer: "A."},
		},
	}
	m.feedback.On("Get", mock.Anything, "fb-1").Return(existing, nil)
	m.jobs.On("Create", mock.Anything, mock.Anything).Return("job-2", nil)
	m.queue.On("EnqueueGenerate", mock.Anything, mock.Anything).Return("job-2", nil)

	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback/fb-1/regenerate", `{"user_id":"u1"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Contains(t, w.Body.String(), `"id":"job-2"`)
}

func TestRegenerateHandler_WrongUser(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.feedback.On("Get", mock.Anything, "fb-1").Return(domain.EnhancedFeedback{ID: "fb-1", UserID: "owner"}, nil)

	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback/fb-1/regenerate", `{"user_id":"intruder"}`)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateHandler_MissingUserID(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := doJSON(t, newRouter(srv), http.MethodPost, "/v1/feedback/fb-1/regenerate", `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation failed")
	require.Contains(t, w.Body.String(), `"userid":"required"`)
}

func TestFeedbackHandler_Success(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.feedback.On("Get", mock.Anything, "fb-1").Return(domain.EnhancedFeedback{ID: "fb-1", InterviewID: "int-1"}, nil)

	w := doJSON(t, newRouter(srv), http.MethodGet, "/v1/feedback/fb-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"interviewId":"int-1"`)
}

func TestFeedbackHandler_NotFound(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.feedback.On("Get", mock.Anything, "nope").Return(domain.EnhancedFeedback{}, domain.ErrNotFound)

	w := doJSON(t, newRouter(srv), http.MethodGet, "/v1/feedback/nope", "")

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestInterviewFeedbackHandler_RequiresUserID(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	w := doJSON(t, newRouter(srv), http.MethodGet, "/v1/interviews/int-1/feedback", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "user_id")
}

func TestInterviewFeedbackHandler_Success(t *testing.T) {
	t.Parallel()

	srv, m := newTestServer(t)
	m.feedback.On("GetByInterview", mock.Anything, "int-1", "u1").Return(domain.EnhancedFeedback{ID: "fb-1"}, nil)

	w := doJSON(t, newRouter(srv), http.MethodGet, "/v1/interviews/int-1/feedback?user_id=u1", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"id":"fb-1"`)
}

func TestJobStatusHandler_States(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		job      domain.GenerationJob
		contains []string
		excludes []string
	}{
		"queued": {
			job:      domain.GenerationJob{ID: "j1", Status: domain.JobQueued},
			contains: []string{`"status":"queued"`},
			excludes: []string{"error", "feedback_id"},
		},
		"failed carries error": {
			job:      domain.GenerationJob{ID: "j2", Status: domain.JobFailed, Error: "lock busy"},
			contains: []string{`"status":"failed"`, `"error":"lock busy"`},
		},
		"completed carries feedback id": {
			job:      domain.GenerationJob{ID: "j3", Status: domain.JobCompleted, FeedbackID: "fb-9"},
			contains: []string{`"status":"completed"`, `"feedback_id":"fb-9"`},
		},
	}
	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			srv, m := newTestServer(t)
			m.jobs.On("Get", mock.Anything, tc.job.ID).Return(tc.job, nil)

			w := doJSON(t, newRouter(srv), http.MethodGet, "/v1/jobs/"+tc.job.ID, "")

			require.Equal(t, http.StatusOK, w.Code)
			for _, s := range tc.contains {
				require.Contains(t, w.Body.String(), s)
			}
			for _, s := range tc.excludes {
				require.NotContains(t, w.Body.String(), s)
			}
		})
	}
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	srv.DBCheck = func(context.Context) error { return nil }
	srv.RedisCheck = func(context.Context) error { return errors.New("redis down") }
	srv.KafkaCheck = func(context.Context) error { return nil }

	w := httptest.NewRecorder()
	srv.ReadyzHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "redis down")
}

func TestReadyzHandler_AllHealthy(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)
	srv.DBCheck = func(context.Context) error { return nil }
	srv.RedisCheck = func(context.Context) error { return nil }
	srv.KafkaCheck = func(context.Context) error { return nil }

	w := httptest.NewRecorder()
	srv.ReadyzHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, w.Code)
}
