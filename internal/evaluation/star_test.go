package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hari200698/Mocksy/internal/domain"
	"github.com/hari200698/Mocksy/internal/prompts"
)

type stubAI struct {
	text string
	err  error

	calls int
}

func (s *stubAI) Complete(_ domain.Context, _ string, _ domain.CompleteOptions) (domain.Completion, error) {
	s.calls++
	if s.err != nil {
		return domain.Completion{}, s.err
	}
	return domain.Completion{Text: s.text, TokensUsed: 120}, nil
}

func mustRegistry(t *testing.T) *prompts.Registry {
	t.Helper()
	reg, err := prompts.Load()
	require.NoError(t, err)
	return reg
}

const validSTARResponse = `{
  "situation": {"present": true, "score": 80, "confidence": 0.9, "excerpt": "last year our checkout", "feedback": "Good context", "reasoning": "clear setup"},
  "task": {"present": true, "score": 70, "confidence": 0.8, "excerpt": "I was asked to fix it", "feedback": "Goal stated", "reasoning": "ownership clear"},
  "action": {"present": true, "score": 90, "confidence": 0.9, "excerpt": "I profiled the service", "feedback": "Strong personal actions", "reasoning": "first person throughout"},
  "result": {"present": true, "score": 60, "confidence": 0.8, "excerpt": "latency dropped 40%", "feedback": "Has a metric", "reasoning": "one number"},
  "criticalIssues": []
}`

func TestAnalyzeModelSuccess(t *testing.T) {
	t.Parallel()

	stub := &stubAI{text: validSTARResponse}
	a := NewSTARAnalyzer(stub, mustRegistry(t), "test-model")

	got := a.Analyze(t.Context(), "Tell me about a hard bug", "some answer", domain.CompanyGeneric)

	// 80*0.15 + 70*0.10 + 90*0.60 + 60*0.15 = 82
	assert.Equal(t, 82, got.OverallScore)
	assert.InDelta(t, 0.85, got.OverallConfidence, 1e-9)
	assert.Equal(t, "v1", got.Metadata.PromptVersion)
	assert.Equal(t, "test-model", got.Metadata.Model)
	assert.Equal(t, 120, got.Metadata.TokensUsed)
	assert.Empty(t, got.Metadata.AIError)
	assert.True(t, got.Action.Present)
	assert.Equal(t, "latency dropped 40%", got.Result.Excerpt)
}

func TestAnalyzeFallbackOnProviderError(t *testing.T) {
	t.Parallel()

	stub := &stubAI{err: errors.New("upstream exploded")}
	a := NewSTARAnalyzer(stub, mustRegistry(t), "test-model")

	got := a.Analyze(t.Context(), "q", "I implemented a fix and the result improved by 30%", domain.CompanyGeneric)

	assert.Equal(t, "fallback", got.Metadata.PromptVersion)
	assert.Equal(t, "rule-based", got.Metadata.Model)
	assert.Contains(t, got.Metadata.AIError, "upstream exploded")
	assert.Equal(t, 0.6, got.OverallConfidence)
}

func TestAnalyzeFallbackOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	stub := &stubAI{text: "Sure! The candidate did great overall."}
	a := NewSTARAnalyzer(stub, mustRegistry(t), "test-model")

	got := a.Analyze(t.Context(), "q", "short answer", domain.CompanyGeneric)

	assert.Equal(t, "rule-based", got.Metadata.Model)
	assert.NotEmpty(t, got.Metadata.AIError)
}

func TestAnalyzeFallbackOnSchemaViolation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"score out of range": `{
			"situation": {"present": true, "score": 150, "confidence": 0.9},
			"task": {"present": true, "score": 70, "confidence": 0.8},
			"action": {"present": true, "score": 90, "confidence": 0.9},
			"result": {"present": true, "score": 60, "confidence": 0.8},
			"criticalIssues": []
		}`,
		"missing component": `{
			"situation": {"present": true, "score": 80, "confidence": 0.9},
			"task": {"present": true, "score": 70, "confidence": 0.8},
			"result": {"present": true, "score": 60, "confidence": 0.8},
			"criticalIssues": []
		}`,
		"confidence above one": `{
			"situation": {"present": true, "score": 80, "confidence": 1.4},
			"task": {"present": true, "score": 70, "confidence": 0.8},
			"action": {"present": true, "score": 90, "confidence": 0.9},
			"result": {"present": true, "score": 60, "confidence": 0.8},
			"criticalIssues": []
		}`,
	}
	for name, payload := range cases {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := NewSTARAnalyzer(&stubAI{text: payload}, mustRegistry(t), "m")
			got := a.Analyze(t.Context(), "q", "answer text", domain.CompanyGeneric)
			assert.Equal(t, "rule-based", got.Metadata.Model, "off-contract payload must degrade to fallback")
		})
	}
}

func TestWeightedSTARScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 80, weightedSTARScore(80, 80, 80, 80))
	assert.Equal(t, 15, weightedSTARScore(100, 0, 0, 0))
	assert.Equal(t, 60, weightedSTARScore(0, 0, 100, 0))
	// 50*0.15 + 50*0.10 + 55*0.60 + 50*0.15 = 53
	assert.Equal(t, 53, weightedSTARScore(50, 50, 55, 50))
}

func TestFallbackHeuristics(t *testing.T) {
	t.Parallel()

	t.Run("we heavy answer without metrics", func(t *testing.T) {
		t.Parallel()

		answer := "At the time our goal was to ship faster. We decided to split the work, " +
			"we built the pipeline together and we improved things overall."
		got := fallbackSTARAnalysis(answer)

		assert.Equal(t, 70, got.Situation.Score)
		assert.Equal(t, 65, got.Task.Score)
		assert.Equal(t, 40, got.Result.Score)
		assert.Contains(t, got.CriticalIssues, "Missing quantifiable metrics in results")
		assert.Contains(t, got.CriticalIssues, `Overuse of "we" - unclear personal contribution`)
	})

	t.Run("action capped when we outnumbers i", func(t *testing.T) {
		t.Parallel()

		answer := "I implemented the cache but we tested it, we deployed it, and we monitored it."
		got := fallbackSTARAnalysis(answer)
		assert.Equal(t, 50, got.Action.Score)
	})

	t.Run("first person action with metric result", func(t *testing.T) {
		t.Parallel()

		answer := "The situation was a slow checkout page. My task was clear: I had to cut latency. " +
			"I profiled the service, I implemented caching, and I designed a new index. " +
			"The result: page load improved and we saved 30% on compute, latency decreased by half " +
			"which made checkout conversions climb across every region we serve this quarter overall. " +
			"That outcome held steady for six straight months afterwards too."
		got := fallbackSTARAnalysis(answer)

		assert.Equal(t, 70, got.Action.Score)
		assert.Equal(t, 75, got.Result.Score)
		assert.NotContains(t, got.CriticalIssues, "Answer is too brief - lacks detail")
	})

	t.Run("empty answer bottoms out", func(t *testing.T) {
		t.Parallel()

		got := fallbackSTARAnalysis("")
		assert.Equal(t, 20, got.Situation.Score)
		assert.Equal(t, 15, got.Task.Score)
		assert.Equal(t, 10, got.Action.Score)
		assert.Equal(t, 10, got.Result.Score)
		assert.Contains(t, got.CriticalIssues, "Answer is too brief - lacks detail")
	})
}

func TestFallbackIsDeterministic(t *testing.T) {
	t.Parallel()

	answer := "When the launch slipped I had to rescope. I implemented a cut list and the result improved by 20%."
	a := fallbackSTARAnalysis(answer)
	b := fallbackSTARAnalysis(answer)

	a.Metadata.Timestamp = b.Metadata.Timestamp
	assert.Equal(t, a, b)
}
