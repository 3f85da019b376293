// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/domain"
	"github.com/hari200698/Mocksy/internal/evaluation"
)

// GenerateService owns the feedback generation lifecycle: job creation and
// queueing on the API side, and the full evaluation pipeline on the worker
// side.
type GenerateService struct {
	Interviews domain.InterviewRepository
	Feedback   domain.FeedbackRepository
	Jobs       domain.JobRepository
	Queue      domain.Queue
	Lock       domain.GenerationLock
	Telemetry  domain.Telemetry

	Orchestrator *evaluation.Orchestrator
	Summarizer   *evaluation.Summarizer

	LockTTL     time.Duration
	Concurrency int
}

// NewGenerateService constructs a GenerateService with its dependencies.
func NewGenerateService(
	interviews domain.InterviewRepository,
	feedback domain.FeedbackRepository,
	jobs domain.JobRepository,
	queue domain.Queue,
	lock domain.GenerationLock,
	telemetry domain.Telemetry,
	orchestrator *evaluation.Orchestrator,
	summarizer *evaluation.Summarizer,
	lockTTL time.Duration,
	concurrency int,
) GenerateService {
	if concurrency < 1 {
		concurrency = 1
	}
	return GenerateService{
		Interviews:   interviews,
		Feedback:     feedback,
		Jobs:         jobs,
		Queue:        queue,
		Lock:         lock,
		Telemetry:    telemetry,
		Orchestrator: orchestrator,
		Summarizer:   summarizer,
		LockTTL:      lockTTL,
		Concurrency:  concurrency,
	}
}

// Enqueue validates the request, creates a generation job, and queues the
// task for the worker. It returns the job id for polling.
func (s GenerateService) Enqueue(ctx domain.Context, interviewID string, transcript []domain.TranscriptTurn) (string, error) {
	if interviewID == "" {
		return "", fmt.Errorf("%w: interview id required", domain.ErrInvalidArgument)
	}
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: transcript required", domain.ErrInvalidArgument)
	}
	if _, err := s.Interviews.Get(ctx, interviewID); err != nil {
		return "", fmt.Errorf("op=generate.enqueue: %w", err)
	}

	now := time.Now().UTC()
	jobID, err := s.Jobs.Create(ctx, domain.GenerationJob{
		InterviewID: interviewID,
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("op=generate.enqueue: %w", err)
	}

	payload := domain.GenerateTaskPayload{JobID: jobID, InterviewID: interviewID, Transcript: transcript}
	if _, err := s.Queue.EnqueueGenerate(ctx, payload); err != nil {
		_ = s.Jobs.UpdateStatus(ctx, jobID, domain.JobFailed, ptr("enqueue failed"))
		return "", fmt.Errorf("op=generate.enqueue: %w", err)
	}
	observability.EnqueueJob("generate")
	return jobID, nil
}

// Regenerate queues a fresh generation run that overwrites an existing
// feedback document in place.
func (s GenerateService) Regenerate(ctx domain.Context, feedbackID, userID string, transcript []domain.TranscriptTurn) (string, error) {
	if feedbackID == "" {
		return "", fmt.Errorf("%w: feedback id required", domain.ErrInvalidArgument)
	}
	existing, err := s.Feedback.Get(ctx, feedbackID)
	if err != nil {
		return "", fmt.Errorf("op=generate.regenerate: %w", err)
	}
	if userID != "" && existing.UserID != userID {
		return "", fmt.Errorf("%w: feedback not found", domain.ErrNotFound)
	}
	if len(transcript) == 0 {
		// Reuse the transcript captured on the original run.
		transcript = transcriptFromEvaluations(existing.QuestionEvaluations)
	}
	if len(transcript) == 0 {
		return "", fmt.Errorf("%w: transcript required", domain.ErrInvalidArgument)
	}

	now := time.Now().UTC()
	jobID, err := s.Jobs.Create(ctx, domain.GenerationJob{
		InterviewID: existing.InterviewID,
		FeedbackID:  feedbackID,
		Status:      domain.JobQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("op=generate.regenerate: %w", err)
	}
	payload := domain.GenerateTaskPayload{
		JobID:       jobID,
		InterviewID: existing.InterviewID,
		FeedbackID:  feedbackID,
		Transcript:  transcript,
	}
	if _, err := s.Queue.EnqueueGenerate(ctx, payload); err != nil {
		_ = s.Jobs.UpdateStatus(ctx, jobID, domain.JobFailed, ptr("enqueue failed"))
		return "", fmt.Errorf("op=generate.regenerate: %w", err)
	}
	observability.EnqueueJob("generate")
	return jobID, nil
}

// ProcessGeneration runs the full pipeline for one queued task. Called by
// the queue consumer; any returned error fails the job.
func (s GenerateService) ProcessGeneration(ctx domain.Context, payload domain.GenerateTaskPayload) error {
	slog.Info("generation started",
		slog.String("job_id", payload.JobID),
		slog.String("interview_id", payload.InterviewID))
	observability.StartProcessingJob("generate")
	s.emit("feedback.generation.start", map[string]any{
		"job_id":       payload.JobID,
		"interview_id": payload.InterviewID,
	})

	if err := s.Jobs.UpdateStatus(ctx, payload.JobID, domain.JobProcessing, nil); err != nil {
		return s.fail(ctx, payload, fmt.Errorf("op=generate.process: %w", err))
	}

	acquired, err := s.Lock.Acquire(ctx, payload.InterviewID, s.LockTTL)
	if err != nil {
		return s.fail(ctx, payload, fmt.Errorf("op=generate.lock: %w", err))
	}
	if !acquired {
		return s.fail(ctx, payload, fmt.Errorf("%w: generation already running for interview", domain.ErrConflict))
	}
	defer func() {
		if err := s.Lock.Release(ctx, payload.InterviewID); err != nil {
			slog.Warn("lock release failed", slog.String("interview_id", payload.InterviewID), slog.Any("error", err))
		}
	}()

	interview, err := s.Interviews.Get(ctx, payload.InterviewID)
	if err != nil {
		return s.fail(ctx, payload, fmt.Errorf("op=generate.interview: %w", err))
	}

	feedback, err := s.evaluate(ctx, interview, payload)
	if err != nil {
		return s.fail(ctx, payload, err)
	}

	id, err := s.Feedback.Save(ctx, feedback)
	if err != nil {
		return s.fail(ctx, payload, fmt.Errorf("op=generate.save: %w", err))
	}
	if err := s.Jobs.SetFeedbackID(ctx, payload.JobID, id); err != nil {
		slog.Warn("feedback id not recorded on job", slog.String("job_id", payload.JobID), slog.Any("error", err))
	}
	if err := s.Jobs.UpdateStatus(ctx, payload.JobID, domain.JobCompleted, nil); err != nil {
		return s.fail(ctx, payload, fmt.Errorf("op=generate.complete: %w", err))
	}

	observability.CompleteJob("generate")
	s.emit("feedback.generation.complete", map[string]any{
		"job_id":         payload.JobID,
		"interview_id":   payload.InterviewID,
		"feedback_id":    id,
		"overall_score":  feedback.Summary.OverallSTARScore,
		"question_count": len(feedback.QuestionEvaluations),
		"total_tokens":   feedback.Metadata.TotalTokens,
	})
	slog.Info("generation completed",
		slog.String("job_id", payload.JobID),
		slog.String("feedback_id", id),
		slog.Int("overall_score", feedback.Summary.OverallSTARScore))
	return nil
}

func (s GenerateService) evaluate(ctx domain.Context, interview domain.Interview, payload domain.GenerateTaskPayload) (domain.EnhancedFeedback, error) {
	questionTexts := make([]string, len(interview.Questions))
	for i, q := range interview.Questions {
		questionTexts[i] = q.Text
	}

	segments, unmatched := evaluation.Align(payload.Transcript, questionTexts)
	if len(unmatched) > 0 {
		slog.Warn("questions unmatched in transcript",
			slog.String("interview_id", interview.ID),
			slog.Any("indices", unmatched))
	}

	allQA := make([]evaluation.QA, len(interview.Questions))
	for i, q := range interview.Questions {
		seg := segments[i]
		allQA[i] = evaluation.QA{
			Question: q.Text,
			Answer:   evaluation.BuildCombinedTranscript(seg.MainAnswer, seg.FollowUps),
		}
	}

	evals := make([]domain.QuestionEvaluation, len(interview.Questions))
	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup
	for i, q := range interview.Questions {
		wg.Add(1)
		go func(i int, q domain.Question) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			seg := segments[i]
			evals[i] = s.Orchestrator.Evaluate(ctx, evaluation.EvaluateRequest{
				QuestionID: fmt.Sprintf("%s-q%d", interview.ID, i),
				Question:   q.Text,
				Principle:  q.Principle,
				MainAnswer: seg.MainAnswer,
				FollowUps:  seg.FollowUps,
				Company:    interview.Company,
				Context: &evaluation.PlanContext{
					Role:     interview.Role,
					Level:    interview.Level,
					Question: q.Text,
					Answer:   seg.MainAnswer,
					AllQA:    allQA,
				},
			})
			s.emit("feedback.question.evaluated", map[string]any{
				"interview_id":   interview.ID,
				"question_index": i,
				"star_score":     evals[i].STAR.OverallScore,
				"fallback":       evals[i].STAR.Metadata.AIError != "",
			})
		}(i, q)
	}
	wg.Wait()

	var totalTokens int
	var totalLatency int64
	for _, e := range evals {
		totalTokens += e.Metadata.TotalTokens
		totalLatency += e.Metadata.TotalLatencyMS
	}

	return domain.EnhancedFeedback{
		ID:                  payload.FeedbackID,
		InterviewID:         interview.ID,
		UserID:              interview.UserID,
		Company:             interview.Company,
		QuestionEvaluations: evals,
		Summary:             s.Summarizer.Summarize(evals, interview.Company),
		Metadata: domain.EvaluationMetadata{
			TotalTokens:    totalTokens,
			TotalCostUSD:   evaluation.EstimateCostUSD(totalTokens),
			TotalLatencyMS: totalLatency,
			EvaluatedAt:    time.Now().UTC(),
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (s GenerateService) fail(ctx domain.Context, payload domain.GenerateTaskPayload, cause error) error {
	observability.FailJob("generate")
	msg := cause.Error()
	if err := s.Jobs.UpdateStatus(ctx, payload.JobID, domain.JobFailed, &msg); err != nil {
		slog.Error("failed to mark job failed", slog.String("job_id", payload.JobID), slog.Any("error", err))
	}
	s.emit("feedback.generation.error", map[string]any{
		"job_id":       payload.JobID,
		"interview_id": payload.InterviewID,
		"error":        msg,
	})
	return cause
}

func (s GenerateService) emit(name string, props map[string]any) {
	if s.Telemetry != nil {
		s.Telemetry.Emit(name, props)
	}
}

// transcriptFromEvaluations reconstructs an ordered transcript from a prior
// run so regeneration works without the caller resending it.
func transcriptFromEvaluations(evals []domain.QuestionEvaluation) []domain.TranscriptTurn {
	var out []domain.TranscriptTurn
	for _, e := range evals {
		out = append(out, domain.TranscriptTurn{Role: domain.TurnInterviewer, Content: e.Question})
		if e.MainAnswer != domain.PlaceholderAnswer {
			out = append(out, domain.TranscriptTurn{Role: domain.TurnCandidate, Content: e.MainAnswer})
		}
		for _, fu := range e.FollowUps {
			out = append(out, domain.TranscriptTurn{Role: domain.TurnInterviewer, Content: fu.Question})
			out = append(out, domain.TranscriptTurn{Role: domain.TurnCandidate, Content: fu.Answer})
		}
	}
	return out
}

func ptr(s string) *string { return &s }
