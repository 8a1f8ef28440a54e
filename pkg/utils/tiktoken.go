// Package utils provides small shared helpers: token counting for text sent
// to language models, rune-safe truncation and checked type assertions.
package utils

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts and trims text by model tokens.
type TokenCounter struct {
	codec tokenizer.Codec
}

// NewTokenCounter creates a counter using the cl100k encoding. Claude models
// tokenize differently; cl100k is a close enough approximation for budgeting.
func NewTokenCounter() (*TokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec: %w", err)
	}
	return &TokenCounter{codec: codec}, nil
}

// CountTokens returns the number of tokens in text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		// Fallback to character-based estimation (4 chars ≈ 1 token)
		return len(text) / 4
	}

	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// KeepLastTokens returns the tail of text holding at most limit tokens.
// The second result reports whether anything was dropped.
func (tc *TokenCounter) KeepLastTokens(text string, limit int) (string, bool) {
	if limit <= 0 {
		return "", text != ""
	}
	if tc == nil || tc.codec == nil {
		return keepLastBytes(text, limit*4)
	}

	ids, _, err := tc.codec.Encode(text)
	if err != nil {
		return keepLastBytes(text, limit*4)
	}
	if len(ids) <= limit {
		return text, false
	}

	tail, err := tc.codec.Decode(ids[len(ids)-limit:])
	if err != nil {
		return keepLastBytes(text, limit*4)
	}
	return tail, true
}

func keepLastBytes(text string, n int) (string, bool) {
	if len(text) <= n {
		return text, false
	}
	return LastRunes(text[len(text)-n:], n), true
}
