// Package evaluation contains the answer-evaluation pipeline: transcript
// alignment, STAR scoring, red flag detection, company feedback, improvement
// plans and the session summary.
package evaluation

import (
	"regexp"
	"strings"

	"github.com/hari200698/Mocksy/internal/domain"
)

// Matching thresholds. The voice assistant paraphrases scripted questions
// with filler ("Let me ask you..."), so matching is best-effort by design.
const (
	exactMatchPrefixLen   = 40
	keywordPrefixLen      = 30
	keywordPhraseBonus    = 2
	keywordAcceptScore    = 2
	keywordCount          = 5
	keywordMinLen         = 4 // content words, length > 3
	followUpReason        = "Probing for more details"
)

type alignState int

const (
	// stateIdle: no question matched yet; candidate turns are pre-interview
	// chatter and are dropped.
	stateIdle alignState = iota
	// stateInMainAnswer: candidate turns append to the active main answer.
	stateInMainAnswer
	// stateAwaitingFollowUpAnswer: the last interviewer turn was an
	// unmatched probe; the next candidate turn closes a follow-up pair.
	stateAwaitingFollowUpAnswer
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

type preppedQuestion struct {
	index    int
	lower    string
	keywords []string
}

func prepQuestions(questions []string) []preppedQuestion {
	out := make([]preppedQuestion, len(questions))
	for i, q := range questions {
		lower := strings.ToLower(q)
		words := strings.Fields(nonWordRe.ReplaceAllString(lower, " "))
		var kws []string
		for _, w := range words {
			if len(w) >= keywordMinLen {
				kws = append(kws, w)
				if len(kws) == keywordCount {
					break
				}
			}
		}
		out[i] = preppedQuestion{index: i, lower: lower, keywords: kws}
	}
	return out
}

// aligner walks the transcript once, maintaining the active question and the
// follow-up state machine.
type aligner struct {
	questions []preppedQuestion
	matched   map[int]bool

	state          alignState
	current        int
	mainAnswer     strings.Builder
	followUps      []domain.FollowUp
	followUpPrompt string

	segments map[int]domain.AnswerSegment
}

// Align maps the chronological transcript onto the ordered question list.
// Every question index appears in the result: questions never matched get a
// placeholder segment so the pipeline can still evaluate them. The second
// return value lists those unmatched indices for telemetry.
func Align(transcript []domain.TranscriptTurn, questions []string) (map[int]domain.AnswerSegment, []int) {
	a := &aligner{
		questions: prepQuestions(questions),
		matched:   make(map[int]bool, len(questions)),
		state:     stateIdle,
		current:   -1,
		segments:  make(map[int]domain.AnswerSegment, len(questions)),
	}

	for _, turn := range transcript {
		switch turn.Role {
		case domain.TurnInterviewer:
			a.onInterviewer(turn.Content)
		case domain.TurnCandidate:
			a.onCandidate(turn.Content)
		}
	}
	a.commit()

	var unmatched []int
	for i := range questions {
		if _, ok := a.segments[i]; !ok {
			a.segments[i] = domain.AnswerSegment{QuestionIndex: i, MainAnswer: domain.PlaceholderAnswer}
			unmatched = append(unmatched, i)
		}
	}
	return a.segments, unmatched
}

func (a *aligner) onInterviewer(content string) {
	idx := a.match(strings.ToLower(content))
	if idx == -1 {
		// Not a scripted question. With a question active this is a probe
		// for more detail; with none it is opening chatter.
		if a.state != stateIdle {
			a.followUpPrompt = content
			a.state = stateAwaitingFollowUpAnswer
		}
		return
	}

	a.commit()
	a.current = idx
	a.matched[idx] = true
	a.mainAnswer.Reset()
	a.followUps = nil
	a.followUpPrompt = ""
	a.state = stateInMainAnswer
}

func (a *aligner) onCandidate(content string) {
	switch a.state {
	case stateIdle:
		// pre-interview chatter
	case stateInMainAnswer:
		if a.mainAnswer.Len() > 0 {
			a.mainAnswer.WriteString(" ")
		}
		a.mainAnswer.WriteString(content)
	case stateAwaitingFollowUpAnswer:
		a.followUps = append(a.followUps, domain.FollowUp{
			Question: a.followUpPrompt,
			Answer:   content,
			Reason:   followUpReason,
		})
		a.followUpPrompt = ""
		a.state = stateInMainAnswer
	}
}

// match returns the index of the best candidate question for an interviewer
// turn, or -1. Already-matched questions are excluded so a repeated phrase
// later in the interview cannot re-open an earlier question.
func (a *aligner) match(turnLower string) int {
	// Exact-substring pass: the turn quotes the question's opening.
	for _, q := range a.questions {
		if a.matched[q.index] {
			continue
		}
		prefix := q.lower
		if len(prefix) > exactMatchPrefixLen {
			prefix = prefix[:exactMatchPrefixLen]
		}
		if strings.Contains(turnLower, prefix) {
			return q.index
		}
	}

	// Keyword-overlap pass for paraphrased questions.
	best, bestScore := -1, 0
	for _, q := range a.questions {
		if a.matched[q.index] {
			continue
		}
		score := 0
		for _, kw := range q.keywords {
			if strings.Contains(turnLower, kw) {
				score++
			}
		}
		if len(q.lower) > 20 {
			prefix := q.lower
			if len(prefix) > keywordPrefixLen {
				prefix = prefix[:keywordPrefixLen]
			}
			if strings.Contains(turnLower, prefix) {
				score += keywordPhraseBonus
			}
		}
		if score >= keywordAcceptScore && score > bestScore {
			best, bestScore = q.index, score
		}
	}
	return best
}

// commit closes out the active question's segment, if any.
func (a *aligner) commit() {
	if a.current == -1 {
		return
	}
	if _, done := a.segments[a.current]; done {
		return
	}
	main := a.mainAnswer.String()
	if main == "" {
		main = domain.PlaceholderAnswer
	}
	a.segments[a.current] = domain.AnswerSegment{
		QuestionIndex: a.current,
		MainAnswer:    main,
		FollowUps:     append([]domain.FollowUp(nil), a.followUps...),
	}
}
