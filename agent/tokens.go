package agent

import (
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates the token length of a prompt fragment so history
// trimming can keep requests inside the model's context budget.
type TokenCounter interface {
	Count(text string) int
}

// HeuristicCounter approximates tokens as len/4. Close enough for budgeting
// and free of any tokenizer asset download, so tests and the offline REPL
// use it directly.
type HeuristicCounter struct{}

// Count implements TokenCounter.
func (HeuristicCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(text)/4 + 1
}

// tiktokenCounter wraps a real BPE tokenizer.
type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// NewTokenCounter returns a tokenizer-backed counter for the given model,
// falling back to cl100k_base for unknown models and to the heuristic when
// no tokenizer data can be loaded at all.
func NewTokenCounter(modelName string) TokenCounter {
	if enc, err := tiktoken.EncodingForModel(modelName); err == nil {
		return &tiktokenCounter{enc: enc}
	}
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		return &tiktokenCounter{enc: enc}
	}
	return HeuristicCounter{}
}
