package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"

	aihelpers "github.com/hari200698/Mocksy/internal/adapter/ai"
	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/domain"
	"github.com/hari200698/Mocksy/internal/prompts"
)

// Fixed STAR weights. Action dominates because evaluators most want to see
// personal contribution; the weighting is never varied per company or
// per question.
const (
	weightSituation = 0.15
	weightTask      = 0.10
	weightAction    = 0.60
	weightResult    = 0.15
)

const starTemperature = 0.3

// fallbackConfidence is pinned for every component on the rule-based path.
const fallbackConfidence = 0.6

// STARAnalyzer scores an answer against the STAR rubric via the
// text-completion collaborator, degrading to a deterministic keyword scorer
// when the call fails or returns an unusable payload.
type STARAnalyzer struct {
	ai       domain.AIClient
	cleaner  *aihelpers.Cleaner
	prompt   prompts.Entry
	model    string
	validate *validator.Validate
}

// NewSTARAnalyzer constructs an analyzer bound to the active prompt version.
func NewSTARAnalyzer(client domain.AIClient, reg *prompts.Registry, model string) *STARAnalyzer {
	return &STARAnalyzer{
		ai:       client,
		cleaner:  aihelpers.NewCleaner(),
		prompt:   reg.MustGet(prompts.STARDetection),
		model:    model,
		validate: validator.New(),
	}
}

type starComponentJSON struct {
	Present    bool    `json:"present"`
	Score      int     `json:"score" validate:"gte=0,lte=100"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
	Excerpt    string  `json:"excerpt"`
	Feedback   string  `json:"feedback"`
	Reasoning  string  `json:"reasoning"`
}

type starResponseJSON struct {
	Situation      *starComponentJSON `json:"situation" validate:"required"`
	Task           *starComponentJSON `json:"task" validate:"required"`
	Action         *starComponentJSON `json:"action" validate:"required"`
	Result         *starComponentJSON `json:"result" validate:"required"`
	CriticalIssues []string           `json:"criticalIssues"`
}

// Analyze scores one question's combined answer text. It never returns an
// error: any provider or parse failure is absorbed by the fallback path and
// surfaced only through the analysis metadata.
func (a *STARAnalyzer) Analyze(ctx domain.Context, question, answer string, company domain.Company) domain.STARAnalysis {
	tracer := otel.Tracer("evaluation.star")
	ctx, span := tracer.Start(ctx, "star.Analyze")
	defer span.End()

	start := time.Now()
	analysis, err := a.analyzeWithModel(ctx, question, answer, company)
	dur := time.Since(start)
	if err == nil {
		analysis.Metadata.LatencyMS = dur.Milliseconds()
		observability.ObserveAICall("star", "ok", dur)
		return analysis
	}

	observability.ObserveAICall("star", "fallback", dur)
	observability.FallbackEvaluationsTotal.WithLabelValues("star").Inc()

	fb := fallbackSTARAnalysis(answer)
	fb.Metadata.LatencyMS = dur.Milliseconds()
	fb.Metadata.AIError = err.Error()
	return fb
}

func (a *STARAnalyzer) analyzeWithModel(ctx domain.Context, question, answer string, company domain.Company) (domain.STARAnalysis, error) {
	prompt := a.buildPrompt(question, answer, company)
	res, err := a.ai.Complete(ctx, prompt, domain.CompleteOptions{Temperature: starTemperature})
	if err != nil {
		return domain.STARAnalysis{}, fmt.Errorf("op=star.complete: %w", err)
	}

	cleaned, err := a.cleaner.ExtractJSON(res.Text)
	if err != nil {
		return domain.STARAnalysis{}, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	var parsed starResponseJSON
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.STARAnalysis{}, fmt.Errorf("%w: decode: %v", domain.ErrSchemaInvalid, err)
	}
	// Parsed-but-off-contract is the same failure as unparseable.
	if err := a.validate.Struct(parsed); err != nil {
		return domain.STARAnalysis{}, fmt.Errorf("%w: validate: %v", domain.ErrSchemaInvalid, err)
	}

	situation := fromJSONComponent(parsed.Situation)
	task := fromJSONComponent(parsed.Task)
	action := fromJSONComponent(parsed.Action)
	result := fromJSONComponent(parsed.Result)

	return domain.STARAnalysis{
		Situation:         situation,
		Task:              task,
		Action:            action,
		Result:            result,
		OverallScore:      weightedSTARScore(situation.Score, task.Score, action.Score, result.Score),
		OverallConfidence: meanConfidence(situation, task, action, result),
		CriticalIssues:    parsed.CriticalIssues,
		Metadata: domain.AnalysisMetadata{
			PromptVersion: a.prompt.Version,
			Model:         a.model,
			TokensUsed:    res.TokensUsed,
			Timestamp:     time.Now().UTC(),
		},
	}, nil
}

func (a *STARAnalyzer) buildPrompt(question, answer string, company domain.Company) string {
	var b strings.Builder
	b.WriteString(a.prompt.Text)
	b.WriteString("\n\n---\n\n## Interview Context\n")
	if company.IsGeneric() {
		b.WriteString("**Company**: Generic\n")
	} else {
		fmt.Fprintf(&b, "**Company**: %s - Evaluate with their standards in mind\n", strings.ToUpper(string(company)))
	}
	fmt.Fprintf(&b, "\n## Question\n%s\n\n## Candidate's Answer\n%s\n", question, answer)
	b.WriteString("\n---\n\nAnalyze this answer and return the JSON response as specified in the prompt above.")
	return b.String()
}

func fromJSONComponent(c *starComponentJSON) domain.STARComponent {
	return domain.STARComponent{
		Present:    c.Present,
		Score:      c.Score,
		Confidence: c.Confidence,
		Excerpt:    c.Excerpt,
		Feedback:   c.Feedback,
		Reasoning:  c.Reasoning,
	}
}

// weightedSTARScore applies the fixed S/T/A/R weighting.
func weightedSTARScore(s, t, a, r int) int {
	return int(math.Round(
		float64(s)*weightSituation +
			float64(t)*weightTask +
			float64(a)*weightAction +
			float64(r)*weightResult))
}

func meanConfidence(components ...domain.STARComponent) float64 {
	var sum float64
	for _, c := range components {
		sum += c.Confidence
	}
	return sum / float64(len(components))
}

// Fallback heuristics. Every pattern and score here is deterministic: the
// same input must produce byte-identical output on every run.
var (
	situationRe = regexp.MustCompile(`(?i)when|where|context|background|situation|at the time`)
	taskRe      = regexp.MustCompile(`(?i)goal|objective|responsibility|needed to|had to|task was`)
	actionRe    = regexp.MustCompile(`(?i)\bi\b.*\b(did|implemented|created|designed|built|analyzed|decided)\b`)
	resultRe    = regexp.MustCompile(`(?i)result|outcome|impact|improved|increased|decreased|reduced|achieved|\d+%`)
	metricsRe   = regexp.MustCompile(`(?i)\d+%|\$\d+|saved \d+|increased by|decreased by`)
	weRe        = regexp.MustCompile(`(?i)\bwe\b`)
	iRe         = regexp.MustCompile(`(?i)\bi\b`)
)

func fallbackSTARAnalysis(answer string) domain.STARAnalysis {
	wordCount := len(strings.Fields(answer))

	hasSituation := situationRe.MatchString(answer)
	hasTask := taskRe.MatchString(answer)
	hasAction := actionRe.MatchString(answer)
	hasResult := resultRe.MatchString(answer)
	hasMetrics := metricsRe.MatchString(answer)
	usesWeLanguage := len(weRe.FindAllString(answer, -1)) > len(iRe.FindAllString(answer, -1))

	var criticalIssues []string
	if !hasMetrics {
		criticalIssues = append(criticalIssues, "Missing quantifiable metrics in results")
	}
	if usesWeLanguage {
		criticalIssues = append(criticalIssues, `Overuse of "we" - unclear personal contribution`)
	}
	if wordCount < 50 {
		criticalIssues = append(criticalIssues, "Answer is too brief - lacks detail")
	}

	situation := fallbackComponent(hasSituation, 70, 20,
		"Situation detected but using fallback analysis - may be inaccurate",
		"No clear situation context detected")
	task := fallbackComponent(hasTask, 65, 15,
		"Task detected but using fallback analysis - may be inaccurate",
		"No clear task or goal stated")

	actionScore := 10
	actionFeedback := "No clear personal actions described"
	if hasAction {
		if usesWeLanguage {
			actionScore = 50
			actionFeedback = `Actions detected but too much "we" language - clarify YOUR role`
		} else {
			actionScore = 70
			actionFeedback = "Actions detected but using fallback analysis - may be inaccurate"
		}
	}
	action := domain.STARComponent{
		Present:    hasAction,
		Score:      actionScore,
		Confidence: fallbackConfidence,
		Feedback:   actionFeedback,
		Reasoning:  "Fallback rule-based detection",
	}

	resultScore := 10
	resultFeedback := "No measurable results provided"
	if hasResult {
		if hasMetrics {
			resultScore = 75
			resultFeedback = "Results with metrics detected but using fallback analysis"
		} else {
			resultScore = 40
			resultFeedback = "Results mentioned but missing specific metrics"
		}
	}
	result := domain.STARComponent{
		Present:    hasResult,
		Score:      resultScore,
		Confidence: fallbackConfidence,
		Feedback:   resultFeedback,
		Reasoning:  "Fallback rule-based detection",
	}

	return domain.STARAnalysis{
		Situation:         situation,
		Task:              task,
		Action:            action,
		Result:            result,
		OverallScore:      weightedSTARScore(situation.Score, task.Score, action.Score, result.Score),
		OverallConfidence: fallbackConfidence,
		CriticalIssues:    criticalIssues,
		Metadata: domain.AnalysisMetadata{
			PromptVersion: "fallback",
			Model:         "rule-based",
			Timestamp:     time.Now().UTC(),
		},
	}
}

func fallbackComponent(present bool, presentScore, absentScore int, presentFeedback, absentFeedback string) domain.STARComponent {
	score, feedback := absentScore, absentFeedback
	if present {
		score, feedback = presentScore, presentFeedback
	}
	return domain.STARComponent{
		Present:    present,
		Score:      score,
		Confidence: fallbackConfidence,
		Feedback:   feedback,
		Reasoning:  "Fallback rule-based detection",
	}
}
