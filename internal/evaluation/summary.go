package evaluation

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hari200698/Mocksy/internal/domain"
)

// Component average thresholds for session-level strengths and weaknesses.
const (
	strengthThreshold    = 75.0
	improvementThreshold = 60.0
	alignmentThreshold   = 70.0
)

// Summarizer recomputes session-level feedback from the per-question
// evaluations. It is pure: same inputs, same output, always a full rebuild.
type Summarizer struct{}

func NewSummarizer() *Summarizer { return &Summarizer{} }

// Summarize aggregates question evaluations into the session summary.
func (s *Summarizer) Summarize(evals []domain.QuestionEvaluation, company domain.Company) domain.SummaryFeedback {
	if len(evals) == 0 {
		return domain.SummaryFeedback{
			NextSteps: []string{"Complete the interview to receive feedback"},
		}
	}

	n := float64(len(evals))
	var scoreSum, confSum, sitSum, taskSum, actSum, resSum float64
	for _, e := range evals {
		scoreSum += float64(e.STAR.OverallScore)
		confSum += e.STAR.OverallConfidence
		sitSum += float64(e.STAR.Situation.Score)
		taskSum += float64(e.STAR.Task.Score)
		actSum += float64(e.STAR.Action.Score)
		resSum += float64(e.STAR.Result.Score)
	}
	avgSituation := sitSum / n
	avgTask := taskSum / n
	avgAction := actSum / n
	avgResult := resSum / n

	var strengths, improvements []string
	classify := func(avg float64, strength, improvement string) {
		switch {
		case avg > strengthThreshold:
			strengths = append(strengths, strength)
		case avg < improvementThreshold:
			improvements = append(improvements, improvement)
		}
	}
	classify(avgSituation, "Setting context (Situation)", "Setting clear context (Situation)")
	classify(avgTask, "Defining goals (Task)", "Clarifying objectives (Task)")
	classify(avgAction, "Describing personal actions (Action)", "Articulating personal contribution (Action)")
	classify(avgResult, "Quantifying outcomes (Result)", "Adding measurable results (Result)")

	criticalIssues := recurringIssues(evals)

	var alignmentSummary string
	if !company.IsGeneric() {
		alignmentSummary = companyAlignmentSummary(company, avgSituation, avgTask, avgAction, avgResult)
	}

	var nextSteps []string
	if len(improvements) > 0 {
		top := improvements
		if len(top) > 2 {
			top = top[:2]
		}
		nextSteps = append(nextSteps, "Focus on improving: "+strings.Join(top, ", "))
	}
	if len(criticalIssues) > 0 {
		nextSteps = append(nextSteps, "Address critical issues: "+criticalIssues[0])
	}
	nextSteps = append(nextSteps, "Practice 2-3 more questions targeting your weak areas")
	if !company.IsGeneric() {
		nextSteps = append(nextSteps, fmt.Sprintf("Review %s specific interview tips", strings.ToUpper(string(company))))
	}

	return domain.SummaryFeedback{
		OverallSTARScore:        int(math.Round(scoreSum / n)),
		OverallConfidence:       math.Round(confSum/n*100) / 100,
		StrengthAreas:           strengths,
		ImprovementAreas:        improvements,
		CriticalIssues:          criticalIssues,
		CompanyAlignmentSummary: alignmentSummary,
		NextSteps:               nextSteps,
		Plan:                    SummarizePlans(evals),
	}
}

// recurringIssues keeps critical issues raised on more than half the
// answers, most frequent first, ties broken alphabetically so the output
// is stable across runs.
func recurringIssues(evals []domain.QuestionEvaluation) []string {
	counts := map[string]int{}
	for _, e := range evals {
		for _, issue := range e.STAR.CriticalIssues {
			counts[issue]++
		}
	}
	var out []string
	for issue, count := range counts {
		if float64(count) > float64(len(evals))/2 {
			out = append(out, issue)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func companyAlignmentSummary(company domain.Company, avgSituation, avgTask, avgAction, avgResult float64) string {
	var demonstrated, missed []string

	if avgResult > alignmentThreshold {
		demonstrated = append(demonstrated, "quantifiable outcomes")
	} else {
		missed = append(missed, "specific metrics and measurable results")
	}
	if avgAction > alignmentThreshold {
		demonstrated = append(demonstrated, "clear personal contribution")
	} else {
		missed = append(missed, "distinction between team actions and personal actions")
	}
	if avgSituation > alignmentThreshold && avgTask > alignmentThreshold {
		demonstrated = append(demonstrated, "good context setting")
	} else {
		missed = append(missed, "clear problem definition and objectives")
	}

	demonstratedText := "Your answers lacked clear structure."
	if len(demonstrated) > 0 {
		demonstratedText = fmt.Sprintf("Your answers demonstrated %s.", strings.Join(demonstrated, ", "))
	}
	missedText := " Continue refining your examples with more specific details."
	if len(missed) > 0 {
		missedText = fmt.Sprintf(" However, you could improve by adding %s.", strings.Join(missed, ", "))
	}

	return companyExpectations(company) + "\n\n" + demonstratedText + missedText
}

// SummarizePlans merges per-question improvement plans into one session
// plan. Weakest areas are ranked by how many questions surfaced them, with
// first appearance breaking ties, so the merge is deterministic for a given
// evaluation order.
func SummarizePlans(evals []domain.QuestionEvaluation) domain.ImprovementPlan {
	type areaStat struct {
		count int
		first int
	}
	areas := map[string]*areaStat{}
	var areaOrder []string
	var questions []string
	seenQuestions := map[string]struct{}{}
	var resources []domain.Resource
	seenResources := map[string]struct{}{}
	var reflection string

	for _, e := range evals {
		for _, a := range e.Plan.WeakestAreas {
			if st, ok := areas[a]; ok {
				st.count++
			} else {
				areas[a] = &areaStat{count: 1, first: len(areaOrder)}
				areaOrder = append(areaOrder, a)
			}
		}
		for _, q := range e.Plan.PracticeQuestions {
			if _, ok := seenQuestions[q]; ok {
				continue
			}
			seenQuestions[q] = struct{}{}
			questions = append(questions, q)
		}
		for _, r := range e.Plan.Resources {
			if _, ok := seenResources[r.URL]; ok {
				continue
			}
			seenResources[r.URL] = struct{}{}
			resources = append(resources, r)
		}
		if reflection == "" {
			reflection = e.Plan.ReflectionExercise
		}
	}

	sort.SliceStable(areaOrder, func(i, j int) bool {
		a, b := areas[areaOrder[i]], areas[areaOrder[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return a.first < b.first
	})
	if len(areaOrder) > 3 {
		areaOrder = areaOrder[:3]
	}
	if len(questions) > 3 {
		questions = questions[:3]
	}
	if len(resources) > 3 {
		resources = resources[:3]
	}

	return domain.ImprovementPlan{
		WeakestAreas:       areaOrder,
		PracticeQuestions:  questions,
		Resources:          resources,
		ReflectionExercise: reflection,
	}
}
