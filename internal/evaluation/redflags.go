package evaluation

import (
	"fmt"
	"regexp"

	"github.com/hari200698/Mocksy/internal/domain"
)

// Red flag rules. These run on every answer regardless of whether STAR
// scoring succeeded, so they must stay pure text matching with no
// provider dependency.
var (
	blameRe        = regexp.MustCompile(`(?i)(manager|team|they) (didn't|wouldn't|failed to|refused)`)
	anyMetricRe    = regexp.MustCompile(`(?i)\d+%|\$\d+|saved|increased|decreased|improved by`)
	hypotheticalRe = regexp.MustCompile(`(?i)(would|could|should|might) (do|approach|handle)`)
)

var severityRank = map[domain.Severity]int{
	domain.SeverityNone:     0,
	domain.SeverityMinor:    1,
	domain.SeverityMajor:    2,
	domain.SeverityCritical: 3,
}

// RedFlagDetector finds rule-based concerns in a combined answer.
type RedFlagDetector struct{}

func NewRedFlagDetector() *RedFlagDetector { return &RedFlagDetector{} }

// Detect applies every rule against the answer text and reduces the hits
// to an overall concern level.
func (d *RedFlagDetector) Detect(answer string) domain.RedFlagAnalysis {
	var flags []domain.RedFlag

	if blameRe.MatchString(answer) {
		flags = append(flags, domain.RedFlag{
			Type:        "blaming_others",
			Severity:    domain.SeverityMajor,
			Evidence:    "Uses language that shifts blame to others",
			Explanation: "Shows lack of ownership and accountability",
			Suggestion:  "Focus on what YOU could control and how YOU adapted",
		})
	}
	if !anyMetricRe.MatchString(answer) {
		flags = append(flags, domain.RedFlag{
			Type:        "no_metrics",
			Severity:    domain.SeverityMajor,
			Evidence:    "No quantifiable metrics mentioned",
			Explanation: "Top-tier interviewers expect data-driven results",
			Suggestion:  "Add specific numbers: percentages, dollar amounts, time saved",
		})
	}
	if hypotheticalRe.MatchString(answer) {
		flags = append(flags, domain.RedFlag{
			Type:        "hypothetical",
			Severity:    domain.SeverityCritical,
			Evidence:    "Uses hypothetical language instead of describing actual experience",
			Explanation: "Suggests lack of real experience",
			Suggestion:  "Describe what you actually DID, not what you would do",
		})
	}

	return domain.RedFlagAnalysis{
		Flags:          flags,
		OverallConcern: maxSeverity(flags),
		Summary:        flagSummary(flags),
	}
}

func maxSeverity(flags []domain.RedFlag) domain.Severity {
	out := domain.SeverityNone
	for _, f := range flags {
		if severityRank[f.Severity] > severityRank[out] {
			out = f.Severity
		}
	}
	return out
}

func flagSummary(flags []domain.RedFlag) string {
	if len(flags) == 0 {
		return "No major red flags detected"
	}
	return fmt.Sprintf("Found %d concern(s) that should be addressed", len(flags))
}
