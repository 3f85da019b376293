package evaluation

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"

	aihelpers "github.com/hari200698/Mocksy/internal/adapter/ai"
	"github.com/hari200698/Mocksy/internal/adapter/observability"
	"github.com/hari200698/Mocksy/internal/domain"
	"github.com/hari200698/Mocksy/internal/prompts"
)

// planWeaknessThreshold marks a STAR component as a weakness in the
// plan prompt context.
const planWeaknessThreshold = 70

// QA pairs a question with the candidate's combined answer.
type QA struct {
	Question string
	Answer   string
}

// PlanContext carries interview-level context for personalized plans.
// Without it only the deterministic basic plan is possible.
type PlanContext struct {
	Role     string
	Level    string
	Question string
	Answer   string
	AllQA    []QA
}

// Resource URLs the model is allowed to recommend. Anything outside the
// list is dropped from the parsed plan rather than handed to the user.
var allowedResourceURLs = map[string]struct{}{
	"https://www.themuse.com/advice/star-interview-method":                                     {},
	"https://www.amazon.jobs/en/landing_pages/in-person-interview":                             {},
	"https://rework.withgoogle.com/guides/hiring-use-structured-interviewing/steps/introduction/": {},
	"https://www.metacareers.com/life/preparing-for-your-interview":                            {},
	"https://hbr.org/2022/11/how-to-answer-tell-me-about-a-time-you-failed":                    {},
}

// PlanGenerator builds personalized improvement plans, degrading to a
// deterministic basic plan when the model path is unavailable.
type PlanGenerator struct {
	ai      domain.AIClient
	cleaner *aihelpers.Cleaner
	prompt  prompts.Entry
}

func NewPlanGenerator(client domain.AIClient, reg *prompts.Registry) *PlanGenerator {
	return &PlanGenerator{
		ai:      client,
		cleaner: aihelpers.NewCleaner(),
		prompt:  reg.MustGet(prompts.ImprovementPlan),
	}
}

// Generate produces an improvement plan for one question. The int return is
// the token count spent on the model call, zero on any fallback path.
func (g *PlanGenerator) Generate(
	ctx domain.Context,
	star domain.STARAnalysis,
	redFlags domain.RedFlagAnalysis,
	company domain.Company,
	ictx *PlanContext,
) (domain.ImprovementPlan, int) {
	if ictx == nil {
		return basicImprovementPlan(star, redFlags), 0
	}

	tracer := otel.Tracer("evaluation.plan")
	ctx, span := tracer.Start(ctx, "plan.Generate")
	defer span.End()

	plan, tokens, err := g.generateWithModel(ctx, star, redFlags, company, ictx)
	if err != nil {
		observability.FallbackEvaluationsTotal.WithLabelValues("plan").Inc()
		return basicImprovementPlan(star, redFlags), 0
	}
	return plan, tokens
}

type planResponseJSON struct {
	WeakestAreas       []string `json:"weakestAreas"`
	PracticeQuestions  []string `json:"practiceQuestions"`
	Resources          []struct {
		Type        string `json:"type"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
	} `json:"resources"`
	ReflectionExercise string `json:"reflectionExercise"`
}

func (g *PlanGenerator) generateWithModel(
	ctx domain.Context,
	star domain.STARAnalysis,
	redFlags domain.RedFlagAnalysis,
	company domain.Company,
	ictx *PlanContext,
) (domain.ImprovementPlan, int, error) {
	prompt := g.buildPrompt(star, redFlags, company, ictx)

	res, err := g.ai.Complete(ctx, prompt, domain.CompleteOptions{Temperature: starTemperature})
	if err != nil {
		return domain.ImprovementPlan{}, 0, fmt.Errorf("op=plan.complete: %w", err)
	}
	cleaned, err := g.cleaner.ExtractJSON(res.Text)
	if err != nil {
		return domain.ImprovementPlan{}, 0, fmt.Errorf("%w: %v", domain.ErrSchemaInvalid, err)
	}
	var parsed planResponseJSON
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.ImprovementPlan{}, 0, fmt.Errorf("%w: decode: %v", domain.ErrSchemaInvalid, err)
	}

	plan := domain.ImprovementPlan{
		WeakestAreas:       parsed.WeakestAreas,
		PracticeQuestions:  parsed.PracticeQuestions,
		ReflectionExercise: parsed.ReflectionExercise,
	}
	for _, r := range parsed.Resources {
		if _, ok := allowedResourceURLs[r.URL]; !ok {
			continue
		}
		plan.Resources = append(plan.Resources, domain.Resource{
			Type:        r.Type,
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
		})
	}
	return plan, res.TokensUsed, nil
}

func (g *PlanGenerator) buildPrompt(
	star domain.STARAnalysis,
	redFlags domain.RedFlagAnalysis,
	company domain.Company,
	ictx *PlanContext,
) string {
	var b strings.Builder
	b.WriteString(g.prompt.Text)
	b.WriteString("\n\n---\n\n## Candidate Context\n\n")
	if company.IsGeneric() {
		b.WriteString("**Target Company**: Generic\n")
	} else {
		fmt.Fprintf(&b, "**Target Company**: %s\n", strings.ToUpper(string(company)))
	}
	fmt.Fprintf(&b, "**Target Role**: %s\n**Experience Level**: %s\n", ictx.Role, ictx.Level)

	b.WriteString("\n## Interview Performance\n\n")
	if len(ictx.AllQA) > 0 {
		fmt.Fprintf(&b, "**Questions Asked**: %d\n\n### Complete Transcript:\n", len(ictx.AllQA))
		for i, qa := range ictx.AllQA {
			fmt.Fprintf(&b, "\n**Question %d**: %s\n**Answer**: %s\n", i+1, qa.Question, qa.Answer)
		}
	} else {
		b.WriteString("**Questions Asked**: 1\n\n### Complete Transcript:\n")
		fmt.Fprintf(&b, "**Question**: %s\n**Answer**: %s\n", ictx.Question, ictx.Answer)
	}

	b.WriteString("\n## Analysis Results\n\n### STAR Scores:\n")
	writeScoreLine(&b, "Situation", star.Situation)
	writeScoreLine(&b, "Task", star.Task)
	writeScoreLine(&b, "Action", star.Action)
	writeScoreLine(&b, "Result", star.Result)
	fmt.Fprintf(&b, "- **Overall**: %d/100\n", star.OverallScore)

	b.WriteString("\n### Identified Weaknesses:\n")
	for _, w := range planWeaknesses(star) {
		b.WriteString(w)
		b.WriteByte('\n')
	}

	b.WriteString("\n### Critical Issues:\n")
	if len(star.CriticalIssues) == 0 {
		b.WriteString("None\n")
	} else {
		b.WriteString(strings.Join(star.CriticalIssues, "\n"))
		b.WriteByte('\n')
	}

	b.WriteString("\n### Red Flags:\n")
	if len(redFlags.Flags) == 0 {
		b.WriteString("None\n")
	} else {
		for _, f := range redFlags.Flags {
			fmt.Fprintf(&b, "- %s (%s): %s\n", f.Type, f.Severity, f.Explanation)
		}
	}

	b.WriteString("\n---\n\nGenerate a personalized improvement plan in JSON format as specified above.")
	return b.String()
}

func writeScoreLine(b *strings.Builder, label string, c domain.STARComponent) {
	presence := "Missing"
	if c.Present {
		presence = "Present"
	}
	fmt.Fprintf(b, "- %s: %d/100 (%s)\n", label, c.Score, presence)
}

func planWeaknesses(star domain.STARAnalysis) []string {
	var out []string
	if star.Situation.Score < planWeaknessThreshold {
		out = append(out, fmt.Sprintf("Situation (%d/100): %s", star.Situation.Score, star.Situation.Feedback))
	}
	if star.Task.Score < planWeaknessThreshold {
		out = append(out, fmt.Sprintf("Task (%d/100): %s", star.Task.Score, star.Task.Feedback))
	}
	if star.Action.Score < planWeaknessThreshold {
		out = append(out, fmt.Sprintf("Action (%d/100): %s", star.Action.Score, star.Action.Feedback))
	}
	if star.Result.Score < planWeaknessThreshold {
		out = append(out, fmt.Sprintf("Result (%d/100): %s", star.Result.Score, star.Result.Feedback))
	}
	return out
}

// basicImprovementPlan is the deterministic fallback plan builder.
func basicImprovementPlan(star domain.STARAnalysis, redFlags domain.RedFlagAnalysis) domain.ImprovementPlan {
	var weakest []string
	if star.Situation.Score < planWeaknessThreshold {
		weakest = append(weakest, "Situation - Setting context")
	}
	if star.Task.Score < planWeaknessThreshold {
		weakest = append(weakest, "Task - Defining clear goals")
	}
	if star.Action.Score < planWeaknessThreshold {
		weakest = append(weakest, "Action - Describing personal actions")
	}
	if star.Result.Score < planWeaknessThreshold {
		weakest = append(weakest, "Result - Quantifying outcomes")
	}
	for _, f := range redFlags.Flags {
		if f.Severity == domain.SeverityCritical || f.Severity == domain.SeverityMajor {
			weakest = append(weakest, strings.ReplaceAll(f.Type, "_", " "))
		}
	}
	if len(weakest) > 3 {
		weakest = weakest[:3]
	}

	return domain.ImprovementPlan{
		WeakestAreas:      weakest,
		PracticeQuestions: []string{"Practice more behavioral questions focusing on your weak areas"},
		Resources: []domain.Resource{
			{
				Type:        "article",
				Title:       "STAR Method Guide",
				URL:         "https://www.themuse.com/advice/star-interview-method",
				Description: "Learn the STAR framework for behavioral interviews",
			},
		},
		ReflectionExercise: "Rewrite your answers focusing on the weakest areas identified above. " +
			"Add specific metrics and clarify your personal contribution.",
	}
}
