package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari200698/Mocksy/internal/domain"
)

func evalWith(overall int, confidence float64, s, t, a, r int, issues ...string) domain.QuestionEvaluation {
	return domain.QuestionEvaluation{
		STAR: domain.STARAnalysis{
			Situation:         domain.STARComponent{Score: s},
			Task:              domain.STARComponent{Score: t},
			Action:            domain.STARComponent{Score: a},
			Result:            domain.STARComponent{Score: r},
			OverallScore:      overall,
			OverallConfidence: confidence,
			CriticalIssues:    issues,
		},
	}
}

func TestSummarizeEmptyInput(t *testing.T) {
	t.Parallel()

	got := NewSummarizer().Summarize(nil, domain.CompanyGeneric)

	assert.Zero(t, got.OverallSTARScore)
	assert.Zero(t, got.OverallConfidence)
	assert.Empty(t, got.StrengthAreas)
	assert.Empty(t, got.ImprovementAreas)
	assert.Equal(t, []string{"Complete the interview to receive feedback"}, got.NextSteps)
}

func TestSummarizeAveragesAndAreas(t *testing.T) {
	t.Parallel()

	evals := []domain.QuestionEvaluation{
		evalWith(80, 0.9, 90, 70, 85, 50),
		evalWith(70, 0.8, 80, 60, 80, 40),
	}
	got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)

	assert.Equal(t, 75, got.OverallSTARScore)
	assert.InDelta(t, 0.85, got.OverallConfidence, 1e-9)
	// situation avg 85 and action avg 82.5 are strengths; result avg 45 is a weakness
	assert.Equal(t, []string{"Setting context (Situation)", "Describing personal actions (Action)"}, got.StrengthAreas)
	assert.Equal(t, []string{"Adding measurable results (Result)"}, got.ImprovementAreas)
	assert.Empty(t, got.CompanyAlignmentSummary)
}

func TestSummarizeConfidenceRoundsToTwoDecimals(t *testing.T) {
	t.Parallel()

	evals := []domain.QuestionEvaluation{
		evalWith(70, 0.9, 70, 70, 70, 70),
		evalWith(70, 0.8, 70, 70, 70, 70),
		evalWith(70, 0.8, 70, 70, 70, 70),
	}
	got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)
	assert.Equal(t, 0.83, got.OverallConfidence)
}

func TestSummarizeCriticalIssueThreshold(t *testing.T) {
	t.Parallel()

	// Issue on 2 of 3 answers passes the majority bar; issue on 1 does not.
	evals := []domain.QuestionEvaluation{
		evalWith(50, 0.6, 50, 50, 50, 50, "Missing quantifiable metrics in results"),
		evalWith(50, 0.6, 50, 50, 50, 50, "Missing quantifiable metrics in results", "Answer is too brief - lacks detail"),
		evalWith(50, 0.6, 50, 50, 50, 50),
	}
	got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)

	assert.Equal(t, []string{"Missing quantifiable metrics in results"}, got.CriticalIssues)
	assert.Contains(t, got.NextSteps, "Address critical issues: Missing quantifiable metrics in results")
}

func TestSummarizeIssueOnExactlyHalfExcluded(t *testing.T) {
	t.Parallel()

	evals := []domain.QuestionEvaluation{
		evalWith(50, 0.6, 50, 50, 50, 50, "Answer is too brief - lacks detail"),
		evalWith(50, 0.6, 50, 50, 50, 50),
	}
	got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)
	assert.Empty(t, got.CriticalIssues)
}

func TestSummarizeCompanyNarrative(t *testing.T) {
	t.Parallel()

	t.Run("strong results and actions", func(t *testing.T) {
		t.Parallel()

		evals := []domain.QuestionEvaluation{evalWith(80, 0.9, 80, 80, 80, 80)}
		got := NewSummarizer().Summarize(evals, domain.CompanyAmazon)

		require.NotEmpty(t, got.CompanyAlignmentSummary)
		assert.Contains(t, got.CompanyAlignmentSummary, "Amazon looks for candidates")
		assert.Contains(t, got.CompanyAlignmentSummary,
			"Your answers demonstrated quantifiable outcomes, clear personal contribution, good context setting.")
		assert.Contains(t, got.CompanyAlignmentSummary, "Continue refining your examples")
		assert.Contains(t, got.NextSteps, "Review AMAZON specific interview tips")
	})

	t.Run("weak across the board", func(t *testing.T) {
		t.Parallel()

		evals := []domain.QuestionEvaluation{evalWith(30, 0.6, 30, 30, 30, 30)}
		got := NewSummarizer().Summarize(evals, domain.CompanyMeta)

		assert.Contains(t, got.CompanyAlignmentSummary, "Your answers lacked clear structure.")
		assert.Contains(t, got.CompanyAlignmentSummary, "However, you could improve by adding specific metrics and measurable results")
	})

	t.Run("generic company gets no narrative", func(t *testing.T) {
		t.Parallel()

		evals := []domain.QuestionEvaluation{evalWith(80, 0.9, 80, 80, 80, 80)}
		got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)

		assert.Empty(t, got.CompanyAlignmentSummary)
		for _, step := range got.NextSteps {
			assert.False(t, strings.Contains(step, "specific interview tips"), "generic sessions skip the company tip step")
		}
	})
}

func TestSummarizeNextStepsOrder(t *testing.T) {
	t.Parallel()

	evals := []domain.QuestionEvaluation{
		evalWith(40, 0.6, 40, 40, 40, 40, "Missing quantifiable metrics in results"),
	}
	got := NewSummarizer().Summarize(evals, domain.CompanyGoogle)

	require.Len(t, got.NextSteps, 4)
	assert.True(t, strings.HasPrefix(got.NextSteps[0], "Focus on improving: "))
	assert.True(t, strings.HasPrefix(got.NextSteps[1], "Address critical issues: "))
	assert.Equal(t, "Practice 2-3 more questions targeting your weak areas", got.NextSteps[2])
	assert.Equal(t, "Review GOOGLE specific interview tips", got.NextSteps[3])
}

func TestSummarizeImprovementFocusCapsAtTwo(t *testing.T) {
	t.Parallel()

	evals := []domain.QuestionEvaluation{evalWith(20, 0.6, 20, 20, 20, 20)}
	got := NewSummarizer().Summarize(evals, domain.CompanyGeneric)

	require.Len(t, got.ImprovementAreas, 4)
	assert.Equal(t,
		"Focus on improving: Setting clear context (Situation), Clarifying objectives (Task)",
		got.NextSteps[0])
}

func TestSummarizePlansMergesDeterministically(t *testing.T) {
	t.Parallel()

	mkPlan := func(areas []string, question string) domain.ImprovementPlan {
		return domain.ImprovementPlan{
			WeakestAreas:      areas,
			PracticeQuestions: []string{question},
			Resources: []domain.Resource{{
				Type: "article", Title: "STAR Method Guide",
				URL:         "https://www.themuse.com/advice/star-interview-method",
				Description: "Learn the STAR framework for behavioral interviews",
			}},
			ReflectionExercise: "Rewrite with metrics.",
		}
	}
	evals := []domain.QuestionEvaluation{
		{Plan: mkPlan([]string{"Result - Quantifying outcomes", "Action - Describing personal actions"}, "q1")},
		{Plan: mkPlan([]string{"Result - Quantifying outcomes", "Situation - Setting context"}, "q2")},
		{Plan: mkPlan([]string{"Situation - Setting context", "Task - Defining clear goals"}, "q3")},
	}

	got := SummarizePlans(evals)

	assert.Equal(t, []string{
		"Result - Quantifying outcomes",
		"Situation - Setting context",
		"Action - Describing personal actions",
	}, got.WeakestAreas)
	assert.Equal(t, []string{"q1", "q2", "q3"}, got.PracticeQuestions)
	require.Len(t, got.Resources, 1, "duplicate resources collapse by URL")
	assert.Equal(t, "Rewrite with metrics.", got.ReflectionExercise)
}
