package evaluation

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/domain"
)

// Gemini Flash pricing, per million tokens, split 70/30 input/output.
const (
	costInputPerMillion  = 0.075
	costOutputPerMillion = 0.30
	costInputShare       = 0.7
	costOutputShare      = 0.3
)

// EstimateCostUSD converts a token count into a rough dollar estimate.
// Telemetry-grade only, never used for billing.
func EstimateCostUSD(totalTokens int) float64 {
	in := float64(totalTokens) * costInputShare
	out := float64(totalTokens) * costOutputShare
	return in/1e6*costInputPerMillion + out/1e6*costOutputPerMillion
}

// BuildCombinedTranscript flattens a main answer and its follow-up exchanges
// into the single text block every analyzer consumes.
func BuildCombinedTranscript(mainAnswer string, followUps []domain.FollowUp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Main Answer:\n%s\n", mainAnswer)
	if len(followUps) > 0 {
		b.WriteString("\nFollow-up Questions and Answers:\n")
		for i, fu := range followUps {
			fmt.Fprintf(&b, "\nFollow-up %d: %s\nAnswer: %s\n", i+1, fu.Question, fu.Answer)
		}
	}
	return b.String()
}

// EvaluateRequest carries everything needed to evaluate one question.
type EvaluateRequest struct {
	QuestionID string
	Question   string
	Principle  string
	MainAnswer string
	FollowUps  []domain.FollowUp
	Company    domain.Company
	Context    *PlanContext
}

// Orchestrator runs the full per-question pipeline: STAR analysis, red flag
// detection, company feedback, and the improvement plan.
type Orchestrator struct {
	star     *STARAnalyzer
	redFlags *RedFlagDetector
	company  *CompanyFeedbackGenerator
	plan     *PlanGenerator
}

func NewOrchestrator(star *STARAnalyzer, plan *PlanGenerator) *Orchestrator {
	return &Orchestrator{
		star:     star,
		redFlags: NewRedFlagDetector(),
		company:  NewCompanyFeedbackGenerator(),
		plan:     plan,
	}
}

// Evaluate never fails: each stage degrades independently and records how it
// degraded in the evaluation metadata.
func (o *Orchestrator) Evaluate(ctx domain.Context, req EvaluateRequest) domain.QuestionEvaluation {
	tracer := otel.Tracer("evaluation")
	ctx, span := tracer.Start(ctx, "evaluate.Question")
	defer span.End()

	start := time.Now()
	combined := BuildCombinedTranscript(req.MainAnswer, req.FollowUps)

	star := o.star.Analyze(ctx, req.Question, combined, req.Company)
	flags := o.redFlags.Detect(combined)
	companyFeedback := o.company.Generate(star, req.Company)
	plan, planTokens := o.plan.Generate(ctx, star, flags, req.Company, req.Context)

	observability.ObserveSTARScore(star.OverallScore)

	totalTokens := star.Metadata.TokensUsed + planTokens
	return domain.QuestionEvaluation{
		QuestionID:         req.QuestionID,
		Question:           req.Question,
		Principle:          req.Principle,
		MainAnswer:         req.MainAnswer,
		FollowUps:          req.FollowUps,
		CombinedTranscript: combined,
		STAR:               star,
		RedFlags:           flags,
		CompanyFeedback:    companyFeedback,
		Plan:               plan,
		Metadata: domain.EvaluationMetadata{
			TotalTokens:    totalTokens,
			TotalCostUSD:   EstimateCostUSD(totalTokens),
			TotalLatencyMS: time.Since(start).Milliseconds(),
			EvaluatedAt:    time.Now().UTC(),
		},
	}
}
