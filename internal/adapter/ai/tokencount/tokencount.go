// Package tokencount estimates token usage for prompts when the provider
// omits usage data from its response.
package tokencount

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
)

// Estimate returns an approximate token count for text using the cl100k_base
// encoding. When the encoding cannot be loaded it falls back to the usual
// four-characters-per-token rule of thumb.
func Estimate(text string) int {
	once.Do(func() {
		e, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			enc = e
		}
	})
	if enc == nil {
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
