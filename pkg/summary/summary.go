// Package summary condenses a coding agent's log into a short review note
// for the pull request description.
package summary

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
	"autocoder/pkg/utils"
)

// Defaults for the Claude summarizer.
const (
	DefaultModel          = "claude-sonnet-4-5"
	DefaultMaxInputTokens = 60000
	DefaultMaxTokens      = 1024
)

const systemPrompt = `You summarize the log of an AI coding agent for the reviewer of the pull request it produced.
Write concise GitHub-flavoured markdown: a one-sentence overview, then a short bullet list of the changes made and anything the reviewer should check.
Do not include code blocks longer than a few lines. Do not invent changes that are not in the log.`

// Summarizer condenses an agent log.
type Summarizer interface {
	Summarize(ctx context.Context, log string) (string, error)
}

// ClaudeSummarizer summarizes logs with the Anthropic Messages API.
//
//nolint:govet // Logical grouping preferred over memory optimization
type ClaudeSummarizer struct {
	client         anthropic.Client
	model          anthropic.Model
	maxInputTokens int
	maxTokens      int64
	counter        *utils.TokenCounter
	logger         *logx.Logger
}

// NewClaudeSummarizer creates a summarizer authenticated with apiKey. Extra
// request options are applied after the key.
func NewClaudeSummarizer(apiKey string, opts ...option.RequestOption) *ClaudeSummarizer {
	logger := logx.NewLogger("summary")

	counter, err := utils.NewTokenCounter()
	if err != nil {
		logger.Warn("Token counter unavailable, estimating by length: %v", err)
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &ClaudeSummarizer{
		client:         client,
		model:          anthropic.Model(DefaultModel),
		maxInputTokens: DefaultMaxInputTokens,
		maxTokens:      DefaultMaxTokens,
		counter:        counter,
		logger:         logger,
	}
}

// WithModel overrides the model.
func (s *ClaudeSummarizer) WithModel(model string) *ClaudeSummarizer {
	s.model = anthropic.Model(model)
	return s
}

// Summarize returns a markdown summary of log. An empty log yields an empty
// summary without calling the API.
func (s *ClaudeSummarizer) Summarize(ctx context.Context, log string) (string, error) {
	if strings.TrimSpace(log) == "" {
		return "", nil
	}

	input, truncated := s.counter.KeepLastTokens(log, s.maxInputTokens)
	if truncated {
		s.logger.Debug("Agent log truncated to its last %d tokens for summarization", s.maxInputTokens)
		input = "[earlier output omitted]\n" + input
	}
	s.logger.Debug("Summarizing %d tokens of agent output", s.counter.CountTokens(input))

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		System: []anthropic.TextBlockParam{{
			Text: systemPrompt,
			Type: "text",
		}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Agent log:\n\n" + input)),
		},
	})
	if err != nil {
		return "", taskerr.Execution("summarize", "Failed to summarize agent log: %v", err)
	}

	var b strings.Builder
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			b.WriteString(resp.Content[i].AsText().Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", taskerr.Execution("summarize", "Failed to summarize agent log: empty response")
	}
	return text, nil
}
