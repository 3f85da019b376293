// Package ai provides shared helpers for handling LLM responses.
package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\n?|```")
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
)

// Cleaner normalizes model output into a parseable JSON document.
type Cleaner struct{}

// NewCleaner creates a response cleaner.
func NewCleaner() *Cleaner { return &Cleaner{} }

// ExtractJSON strips markdown fences and surrounding chatter, returning the
// first balanced JSON object in the response. Models regularly wrap the
// contract payload in ```json fences or preface it with a sentence; both are
// treated as noise, not as errors.
func (c *Cleaner) ExtractJSON(response string) (string, error) {
	s := fenceRe.ReplaceAllString(response, "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	if start == -1 {
		return "", fmt.Errorf("op=ai.ExtractJSON: no JSON object in response")
	}
	depth := 0
	end := -1
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return "", fmt.Errorf("op=ai.ExtractJSON: unbalanced JSON object")
	}
	s = s[start : end+1]

	if json.Valid([]byte(s)) {
		return s, nil
	}
	// One repair pass for the most common model slip.
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	if !json.Valid([]byte(s)) {
		return "", fmt.Errorf("op=ai.ExtractJSON: response is not valid JSON")
	}
	return s, nil
}
