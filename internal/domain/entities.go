package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrInternal        = errors.New("internal error")
)

// Company enumerates supported company evaluation profiles.
type Company string

// Company values
const (
	CompanyAmazon  Company = "amazon"
	CompanyGoogle  Company = "google"
	CompanyMeta    Company = "meta"
	CompanyGeneric Company = "generic"
)

// IsGeneric reports whether company-specific feedback should be skipped.
func (c Company) IsGeneric() bool { return c == "" || c == CompanyGeneric }

// TurnRole identifies the speaker of a transcript turn.
type TurnRole string

// Transcript turn roles. The voice provider emits "assistant"/"user";
// adapters normalize those to interviewer/candidate at the boundary.
const (
	TurnInterviewer TurnRole = "interviewer"
	TurnCandidate   TurnRole = "candidate"
)

// TranscriptTurn is one utterance of the recorded interview, strictly ordered.
type TranscriptTurn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// Question is a scripted interview question, read-only to the pipeline.
type Question struct {
	Text      string `json:"text"`
	Principle string `json:"principle,omitempty"` // company principle the question probes, optional
	Position  int    `json:"position"`
}

// Interview is the read model of a configured interview session.
type Interview struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Company   Company    `json:"company"`
	Role      string     `json:"role"`
	Level     string     `json:"level"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// FollowUp is a probing question asked after the main answer, with its answer.
type FollowUp struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Reason   string `json:"reason"`
}

// PlaceholderAnswer is the main answer recorded for questions the aligner
// could not match in the transcript. The pipeline still evaluates these
// segments; they degrade to a predictably low score instead of an error.
const PlaceholderAnswer = "No answer provided"

// AnswerSegment is the aligner's output for one question index.
type AnswerSegment struct {
	QuestionIndex int
	MainAnswer    string
	FollowUps     []FollowUp
}

// Answered reports whether the segment holds a real candidate answer.
func (s AnswerSegment) Answered() bool { return s.MainAnswer != PlaceholderAnswer }

// STARComponent scores one dimension of the STAR framework.
// Invariants: Score in [0,100]; Confidence in [0,1].
type STARComponent struct {
	Present    bool    `json:"present"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Feedback   string  `json:"feedback"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// AnalysisMetadata records provenance of a STAR analysis.
type AnalysisMetadata struct {
	PromptVersion string    `json:"promptVersion"`
	Model         string    `json:"model"`
	TokensUsed    int       `json:"tokensUsed"`
	LatencyMS     int64     `json:"latencyMs"`
	Timestamp     time.Time `json:"timestamp"`
	// AIError holds the captured provider/parse error when the result came
	// from the deterministic fallback path. Empty on the primary path.
	AIError string `json:"aiError,omitempty"`
}

// STARAnalysis is the per-question STAR scoring result, immutable once built.
type STARAnalysis struct {
	Situation         STARComponent    `json:"situation"`
	Task              STARComponent    `json:"task"`
	Action            STARComponent    `json:"action"`
	Result            STARComponent    `json:"result"`
	OverallScore      int              `json:"overallStarScore"`
	OverallConfidence float64          `json:"overallConfidence"`
	CriticalIssues    []string         `json:"criticalIssues"`
	Metadata          AnalysisMetadata `json:"analysisMetadata"`
}

// Severity ranks a red flag finding.
type Severity string

// Severity levels, worst first.
const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
	SeverityNone     Severity = "none"
)

// RedFlag is a single rule-detected concern in an answer.
type RedFlag struct {
	Type        string   `json:"type"`
	Severity    Severity `json:"severity"`
	Evidence    string   `json:"evidence"`
	Explanation string   `json:"explanation"`
	Suggestion  string   `json:"suggestion"`
}

// RedFlagAnalysis aggregates red flag findings for one answer.
type RedFlagAnalysis struct {
	Flags          []RedFlag `json:"redFlags"`
	OverallConcern Severity  `json:"overallConcern"`
	Summary        string    `json:"summary"`
}

// PrincipleEvidence links an answer excerpt to a company principle.
type PrincipleEvidence struct {
	Principle string `json:"principle"`
	Evidence  string `json:"evidence"`
	Strength  string `json:"strength"`
	Feedback  string `json:"feedback"`
}

// PrincipleGap names a principle the answer failed to demonstrate.
type PrincipleGap struct {
	Principle  string `json:"principle"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// CompanyFeedback is company-principle alignment commentary for one answer.
type CompanyFeedback struct {
	AlignmentScore      int                 `json:"alignmentScore"`
	OverallAlignment    string              `json:"overallAlignment"`
	PrinciplesMet       []PrincipleEvidence `json:"principlesMet"`
	PrinciplesMissed    []PrincipleGap      `json:"principlesMissed"`
	WhatCompanyLooksFor string              `json:"whatCompanyLooksFor"`
}

// Resource is a curated study reference in an improvement plan.
type Resource struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// ImprovementPlan is a personalized practice plan for the candidate.
type ImprovementPlan struct {
	WeakestAreas       []string   `json:"weakestAreas"`
	PracticeQuestions  []string   `json:"practiceQuestions"`
	Resources          []Resource `json:"resources"`
	ReflectionExercise string     `json:"reflectionExercise"`
}

// EvaluationMetadata rolls up cost and latency across pipeline steps.
// TotalCostUSD is a rough telemetry-grade estimate, not billing data.
type EvaluationMetadata struct {
	TotalTokens    int       `json:"totalTokens"`
	TotalCostUSD   float64   `json:"totalCostUsd"`
	TotalLatencyMS int64     `json:"totalLatencyMs"`
	EvaluatedAt    time.Time `json:"evaluatedAt"`
}

// QuestionEvaluation is the full evaluation result for one question.
type QuestionEvaluation struct {
	QuestionID         string             `json:"questionId"`
	Question           string             `json:"question"`
	Principle          string             `json:"principle,omitempty"`
	MainAnswer         string             `json:"mainAnswer"`
	FollowUps          []FollowUp         `json:"followUps"`
	CombinedTranscript string             `json:"combinedTranscript"`
	STAR               STARAnalysis       `json:"starAnalysis"`
	RedFlags           RedFlagAnalysis    `json:"redFlagAnalysis"`
	CompanyFeedback    *CompanyFeedback   `json:"companyFeedback,omitempty"`
	Plan               ImprovementPlan    `json:"improvementPlan"`
	Metadata           EvaluationMetadata `json:"metadata"`
}

// SummaryFeedback is the session-level aggregate, recomputed in full on every
// generation run and never incrementally updated.
type SummaryFeedback struct {
	OverallSTARScore        int             `json:"overallStarScore"`
	OverallConfidence       float64         `json:"overallConfidence"`
	StrengthAreas           []string        `json:"strengthAreas"`
	ImprovementAreas        []string        `json:"improvementAreas"`
	CriticalIssues          []string        `json:"criticalIssues"`
	CompanyAlignmentSummary string          `json:"companyAlignmentSummary,omitempty"`
	NextSteps               []string        `json:"nextSteps"`
	Plan                    ImprovementPlan `json:"improvementPlan"`
}

// EnhancedFeedback is the persisted feedback document for one interview.
type EnhancedFeedback struct {
	ID                  string               `json:"id"`
	InterviewID         string               `json:"interviewId"`
	UserID              string               `json:"userId"`
	Company             Company              `json:"company,omitempty"`
	QuestionEvaluations []QuestionEvaluation `json:"questionEvaluations"`
	Summary             SummaryFeedback      `json:"summary"`
	Metadata            EvaluationMetadata   `json:"metadata"`
	CreatedAt           time.Time            `json:"createdAt"`
}

// JobStatus tracks a generation job through the queue.
type JobStatus string

// Generation job states.
const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// GenerationJob is the unit of queued work: produce feedback for one interview.
type GenerationJob struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interviewId"`
	FeedbackID  string    `json:"feedbackId,omitempty"` // set when regenerating an existing document
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// GenerateTaskPayload is the queue message for a generation job.
type GenerateTaskPayload struct {
	JobID       string           `json:"job_id"`
	InterviewID string           `json:"interview_id"`
	FeedbackID  string           `json:"feedback_id,omitempty"`
	Transcript  []TranscriptTurn `json:"transcript"`
}

// Context is an alias so the domain stays decoupled from std context imports
// at call sites; adapters and usecases pass context.Context through.
type Context = context.Context

// Repositories (ports)

// InterviewRepository loads interview read models.
type InterviewRepository interface {
	Get(ctx Context, id string) (Interview, error)
}

// FeedbackRepository persists and loads feedback documents.
type FeedbackRepository interface {
	// Save writes the document wholesale. When f.ID is set the existing
	// document is overwritten; otherwise a new id is allocated and returned.
	Save(ctx Context, f EnhancedFeedback) (string, error)
	Get(ctx Context, id string) (EnhancedFeedback, error)
	GetByInterview(ctx Context, interviewID, userID string) (EnhancedFeedback, error)
}

// JobRepository tracks generation jobs.
type JobRepository interface {
	Create(ctx Context, j GenerationJob) (string, error)
	UpdateStatus(ctx Context, id string, status JobStatus, errMsg *string) error
	SetFeedbackID(ctx Context, id, feedbackID string) error
	Get(ctx Context, id string) (GenerationJob, error)
}

// Queue (port)

// Queue enqueues generation tasks for the worker.
type Queue interface {
	EnqueueGenerate(ctx Context, payload GenerateTaskPayload) (string, error)
}

// AIClient (port)

// CompleteOptions tunes a single text completion call.
type CompleteOptions struct {
	Temperature float64
	MaxTokens   int
}

// Completion is the provider's answer to one prompt.
type Completion struct {
	Text       string
	TokensUsed int
}

// AIClient is the pluggable text-completion collaborator. Callers are
// responsible for stripping code fences and parsing JSON; any error, timeout
// or unparseable payload must be treated as "unavailable" and answered with
// the deterministic fallback path.
type AIClient interface {
	Complete(ctx Context, prompt string, opts CompleteOptions) (Completion, error)
}

// Telemetry (port)

// Telemetry emits fire-and-forget analytics events. Implementations must
// never fail the caller.
type Telemetry interface {
	Emit(name string, props map[string]any)
}

// GenerationLock (port)

// GenerationLock serializes feedback generation per interview so concurrent
// regenerations of the same interview do not run the AI pipeline twice.
type GenerationLock interface {
	Acquire(ctx Context, interviewID string, ttl time.Duration) (bool, error)
	Release(ctx Context, interviewID string) error
}
