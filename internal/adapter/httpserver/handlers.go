package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hari200698/Mocksy/internal/config"
	"github.com/hari200698/Mocksy/internal/domain"
	"github.com/hari200698/Mocksy/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Generate   usecase.GenerateService
	Feedback   usecase.FeedbackService
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	KafkaCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, gen usecase.GenerateService, fb usecase.FeedbackService, dbCheck, redisCheck, kafkaCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Generate: gen, Feedback: fb, DBCheck: dbCheck, RedisCheck: redisCheck, KafkaCheck: kafkaCheck}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// acceptsJSON rejects requests whose Accept header excludes JSON; every
// endpoint responds with JSON only.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	if a := r.Header.Get("Accept"); a != "" && a != "*/*" && !strings.Contains(a, "application/json") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotAcceptable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": "INVALID_ARGUMENT", "message": "not acceptable", "details": map[string]any{"accept": a}}})
		return false
	}
	return true
}

func decodeValidated(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

type transcriptTurnDTO struct {
	Role    string `json:"role" validate:"required,oneof=interviewer candidate"`
	Content string `json:"content" validate:"required"`
}

func toDomainTranscript(turns []transcriptTurnDTO) []domain.TranscriptTurn {
	out := make([]domain.TranscriptTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, domain.TranscriptTurn{Role: domain.TurnRole(t.Role), Content: t.Content})
	}
	return out
}

// GenerateHandler enqueues a feedback generation job for an interview.
func (s *Server) GenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		var req struct {
			InterviewID string              `json:"interview_id" validate:"required"`
			Transcript  []transcriptTurnDTO `json:"transcript" validate:"required,min=1,dive"`
		}
		if !decodeValidated(w, r, &req) {
			return
		}
		jobID, err := s.Generate.Enqueue(r.Context(), req.InterviewID, toDomainTranscript(req.Transcript))
		if err != nil {
			writeError(w, r, fmt.Errorf("enqueue: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": jobID, "status": string(domain.JobQueued)})
	}
}

// RegenerateHandler re-runs the pipeline for an existing feedback document.
// The transcript is optional; when omitted the stored evaluations supply it.
func (s *Server) RegenerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		feedbackID := chi.URLParam(r, "id")
		if feedbackID == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		var req struct {
			UserID     string              `json:"user_id" validate:"required"`
			Transcript []transcriptTurnDTO `json:"transcript" validate:"omitempty,dive"`
		}
		if !decodeValidated(w, r, &req) {
			return
		}
		jobID, err := s.Generate.Regenerate(r.Context(), feedbackID, req.UserID, toDomainTranscript(req.Transcript))
		if err != nil {
			writeError(w, r, fmt.Errorf("regenerate: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": jobID, "status": string(domain.JobQueued)})
	}
}

// FeedbackHandler returns one feedback document by id.
func (s *Server) FeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		fb, err := s.Feedback.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}

// InterviewFeedbackHandler returns the latest feedback for an interview,
// scoped to the owning user via the user_id query parameter.
func (s *Server) InterviewFeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		interviewID := chi.URLParam(r, "id")
		if interviewID == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeError(w, r, fmt.Errorf("%w: user_id required", domain.ErrInvalidArgument), map[string]string{"field": "user_id"})
			return
		}
		fb, err := s.Feedback.GetByInterview(r.Context(), interviewID, userID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, fb)
	}
}

// JobStatusHandler returns the state of a generation job for polling clients.
func (s *Server) JobStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !acceptsJSON(w, r) {
			return
		}
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		job, err := s.Feedback.JobStatus(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		resp := map[string]any{"id": job.ID, "status": string(job.Status)}
		if job.Error != "" {
			resp["error"] = job.Error
		}
		if job.Status == domain.JobCompleted && job.FeedbackID != "" {
			resp["feedback_id"] = job.FeedbackID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ReadyzHandler probes the DB, Redis, and Kafka dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]check, 0, 3)
		if s.DBCheck != nil {
			if err := s.DBCheck(ctx); err != nil {
				checks = append(checks, check{Name: "db", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "db", OK: true})
			}
		}
		if s.RedisCheck != nil {
			if err := s.RedisCheck(ctx); err != nil {
				checks = append(checks, check{Name: "redis", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "redis", OK: true})
			}
		}
		if s.KafkaCheck != nil {
			if err := s.KafkaCheck(ctx); err != nil {
				checks = append(checks, check{Name: "kafka", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: "kafka", OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
