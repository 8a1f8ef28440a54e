package runner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"autocoder/pkg/config"
	"autocoder/pkg/utils"
)

// MaxDescriptionLength is the longest pull request description sent.
const MaxDescriptionLength = 4000

const (
	commitPromptLength = 50
	titlePromptLength  = 60
)

// shorten returns the first n characters of s on one line, with an
// ellipsis when s was longer.
func shorten(s string, n int) string {
	head, cut := utils.FirstRunes(s, n)
	head = strings.ReplaceAll(head, "\n", " ")
	if cut {
		head += "..."
	}
	return head
}

// CommitMessage builds the commit message for the agent's changes.
func CommitMessage(workItemID, userPrompt string) string {
	msg := "[Autocoder] AI-generated code changes"
	if workItemID != "" {
		msg += " for #" + workItemID
	}
	if userPrompt != "" {
		msg += ": " + shorten(userPrompt, commitPromptLength)
	}
	return msg
}

// PullRequestTitle builds the pull request title. The user prompt takes
// precedence over the work item title.
func PullRequestTitle(workItemID, userPrompt, workItemTitle string) string {
	title := "[Autocoder]"
	if workItemID != "" {
		title += " #" + workItemID + ":"
	}
	switch {
	case userPrompt != "":
		title += " " + shorten(userPrompt, titlePromptLength)
	case workItemTitle != "":
		title += " " + workItemTitle
	default:
		title += " AI-generated code changes"
	}
	return title
}

// DescriptionInput holds what goes into a pull request description.
type DescriptionInput struct {
	WorkItemID string
	UserPrompt string
	AgentType  config.AgentType
	// Log is the raw agent log, shown in a code block.
	Log string
	// Summary, when set, replaces the raw log.
	Summary string
}

// PullRequestDescription builds the pull request body, never longer than
// MaxDescriptionLength characters. An over-long log is cut so the code
// block stays closed.
func PullRequestDescription(in DescriptionInput) string {
	var b strings.Builder
	b.WriteString("## 🤖 AI-Generated Pull Request\n\n")
	b.WriteString("This pull request was automatically generated by Autocoder.\n\n")
	fmt.Fprintf(&b, "**AI Agent:** %s\n\n", in.AgentType.DisplayName())
	if in.WorkItemID != "" {
		fmt.Fprintf(&b, "**Work Item:** #%s\n\n", in.WorkItemID)
	}
	if in.UserPrompt != "" {
		fmt.Fprintf(&b, "**Instructions:**\n%s\n\n", in.UserPrompt)
	}
	b.WriteString("---\n\n")
	b.WriteString("⚠️ **Note:** This code was generated by AI and requires human review before merging.\n")
	b.WriteString("Please verify the changes carefully and ensure they meet your quality standards.\n")

	head := b.String()
	var tail string
	switch {
	case in.Summary != "":
		tail = fitSection(head, "\n---\n\n### Autocoder Log Summary\n", in.Summary, "\n")
	case in.Log != "":
		tail = fitSection(head, "\n---\n\n### Autocoder Log Output\n```\n", in.Log, "\n```\n")
	}

	out, _ := utils.FirstRunes(head+tail, MaxDescriptionLength)
	return out
}

// fitSection wraps body in open/close, cutting body so the result fits in
// what is left of the description after head.
func fitSection(head, open, body, closing string) string {
	const marker = "\n…(truncated)"
	room := MaxDescriptionLength - runeLen(head) - runeLen(open) - runeLen(closing)
	if runeLen(body) <= room {
		return open + body + closing
	}
	room -= runeLen(marker)
	if room <= 0 {
		return ""
	}
	cut, _ := utils.FirstRunes(body, room)
	return open + cut + marker + closing
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
