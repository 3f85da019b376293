package evaluation

import (
	"fmt"
	"strings"

	"github.com/hari200698/Mocksy/internal/domain"
)

// CompanyProfile is static reference data for one supported company.
type CompanyProfile struct {
	Company      domain.Company
	DisplayName  string
	Expectations string
}

var companyProfiles = map[domain.Company]CompanyProfile{
	domain.CompanyAmazon: {
		Company:     domain.CompanyAmazon,
		DisplayName: "Amazon",
		Expectations: "Amazon looks for candidates who demonstrate their 16 Leadership Principles " +
			"through concrete examples. They expect data-driven decision making, customer obsession, " +
			"ownership mentality, and the ability to deliver results under constraints. Interviewers " +
			"probe deeply for metrics, trade-offs, and personal contribution.",
	},
	domain.CompanyGoogle: {
		Company:     domain.CompanyGoogle,
		DisplayName: "Google",
		Expectations: "Google seeks candidates who show strong collaboration skills, ability to handle " +
			"ambiguity, innovative thinking, and Googleyness (humility, conscientiousness, comfort with " +
			"ambiguity). They value technical depth, problem-solving ability, and how you work with " +
			"diverse teams to achieve impact.",
	},
	domain.CompanyMeta: {
		Company:     domain.CompanyMeta,
		DisplayName: "Meta",
		Expectations: "Meta values candidates who demonstrate high impact, move fast, are bold in their " +
			"decisions, and focus on ROI. They look for people who can prioritize ruthlessly, ship " +
			"quickly, iterate based on data, and aren't afraid to take calculated risks. Quantifiable " +
			"business impact is crucial.",
	},
}

// CompanyProfileFor returns the static profile for a company, if one exists.
func CompanyProfileFor(c domain.Company) (CompanyProfile, bool) {
	p, ok := companyProfiles[c]
	return p, ok
}

// companyExpectations returns the expectations paragraph for a company,
// falling back to a generic sentence for unknown non-generic companies.
func companyExpectations(c domain.Company) string {
	if p, ok := companyProfiles[c]; ok {
		return p.Expectations
	}
	name := string(c)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s values specific, measurable examples that demonstrate their core principles.", name)
}

// CompanyFeedbackGenerator produces per-answer company alignment commentary.
// The current implementation derives everything from the STAR analysis; the
// principle evidence lists stay empty until a model-backed generator lands.
type CompanyFeedbackGenerator struct{}

func NewCompanyFeedbackGenerator() *CompanyFeedbackGenerator { return &CompanyFeedbackGenerator{} }

// Generate returns company feedback for one answer, or nil for generic
// sessions where no company lens applies.
func (g *CompanyFeedbackGenerator) Generate(star domain.STARAnalysis, company domain.Company) *domain.CompanyFeedback {
	if company.IsGeneric() {
		return nil
	}
	return &domain.CompanyFeedback{
		AlignmentScore:      star.OverallScore,
		OverallAlignment:    "moderate",
		PrinciplesMet:       []domain.PrincipleEvidence{},
		PrinciplesMissed:    []domain.PrincipleGap{},
		WhatCompanyLooksFor: fmt.Sprintf("%s values specific, measurable examples that demonstrate their core principles.", string(company)),
	}
}
