// Package prompt composes the system prompt handed to the coding agent.
package prompt

import (
	_ "embed"
	"strings"
)

// Placeholders recognised in a system prompt template.
const (
	WorkItemPlaceholder   = "{work_item_details}"
	UserPromptPlaceholder = "{user_prompt}"
)

//go:embed default-system-prompt.md
var defaultTemplate string

// DefaultTemplate returns the embedded system prompt template.
func DefaultTemplate() string {
	return defaultTemplate
}

// Compose fills template with the work item context and user instructions.
// An empty template selects the default. Only the first occurrence of each
// placeholder is replaced; a template without a placeholder passes through
// unchanged for that segment. Inserted text is not escaped.
func Compose(template, workItemMarkdown, userText string) string {
	if template == "" {
		template = DefaultTemplate()
	}

	out := strings.Replace(template, WorkItemPlaceholder, "Work Item Context:\n"+workItemMarkdown, 1)
	return strings.Replace(out, UserPromptPlaceholder, "Additional Instructions:\n"+userText, 1)
}
