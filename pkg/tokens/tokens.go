// Package tokens estimates token counts for completion reporting.
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts the approximate tokens in a piece of text.
type Estimator interface {
	Count(text string) int
}

// Heuristic approximates tokens as one per four bytes. Good enough for
// reporting, and never touches the network.
type Heuristic struct{}

func (Heuristic) Count(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// TikToken counts with the cl100k_base encoding, loading it lazily on
// first use. When the encoding cannot be loaded (offline environments)
// it falls back to the heuristic.
type TikToken struct {
	once     sync.Once
	encoding *tiktoken.Tiktoken
	fallback Heuristic
}

// NewTikToken returns an estimator backed by cl100k_base.
func NewTikToken() *TikToken {
	return &TikToken{}
}

func (t *TikToken) Count(text string) int {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			t.encoding = enc
		}
	})
	if t.encoding == nil {
		return t.fallback.Count(text)
	}
	return len(t.encoding.Encode(text, nil, nil))
}
