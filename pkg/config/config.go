// Package config resolves the task inputs and the ambient pipeline context
// for an Autocoder run.
package config

import (
	"strings"

	"autocoder/pkg/taskerr"
)

// AgentType names the AI coding agent to run.
type AgentType string

// Supported agent types.
const (
	AgentCopilot AgentType = "copilot"
	AgentClaude  AgentType = "claude"
)

// Valid reports whether a is a supported agent type.
func (a AgentType) Valid() bool {
	return a == AgentCopilot || a == AgentClaude
}

// DisplayName returns the human-readable agent name used in pull requests.
func (a AgentType) DisplayName() string {
	if a == AgentClaude {
		return "Claude Code"
	}
	return "GitHub Copilot"
}

// ExecutionMode selects how the agent is launched.
type ExecutionMode string

// Execution modes.
const (
	// ModeContainer runs the agent image under docker. This is the default.
	ModeContainer ExecutionMode = "container"
	// ModeDirect runs the agent CLI installed on the build host.
	ModeDirect ExecutionMode = "direct"
)

// Valid reports whether m is a supported execution mode.
func (m ExecutionMode) Valid() bool {
	return m == ModeContainer || m == ModeDirect
}

// Defaults applied when an input is not supplied.
const (
	DefaultTargetBranch      = "main"
	DefaultExecutionMode     = ModeContainer
	DefaultCreatePullRequest = true
)

// TaskInputs holds the user-facing task configuration. It is validated once
// and never mutated afterwards.
//
//nolint:govet // Logical grouping preferred over memory optimization
type TaskInputs struct {
	WorkItemID        string
	UserPrompt        string
	AgentType         AgentType
	APIKey            string
	ContainerImage    string
	SystemPrompt      string
	CreatePullRequest bool
	TargetBranch      string
	ExecutionMode     ExecutionMode
	SummarizeLog      bool
}

// HasWorkItem reports whether a work item id was supplied.
func (in TaskInputs) HasWorkItem() bool {
	return in.WorkItemID != ""
}

// Validate checks the inputs before any network or process call is made.
func (in TaskInputs) Validate() error {
	if in.WorkItemID == "" && strings.TrimSpace(in.UserPrompt) == "" {
		return taskerr.Validation("Either workItemId or userPrompt must be provided")
	}
	if !in.AgentType.Valid() {
		return taskerr.Validation("Invalid agent type: %s. Must be 'copilot' or 'claude'", in.AgentType)
	}
	if in.APIKey == "" {
		return taskerr.Validation("API key must be provided")
	}
	if !in.ExecutionMode.Valid() {
		return taskerr.Validation("Invalid execution mode: %s. Must be 'container' or 'direct'", in.ExecutionMode)
	}
	return nil
}

// RunContext is the ambient pipeline context, read once at startup.
//
//nolint:govet // Logical grouping preferred over memory optimization
type RunContext struct {
	RunID string

	// SourceBranch is the triggering branch with refs/heads/ removed.
	SourceBranch             string
	SourcesDirectory         string
	ArtifactStagingDirectory string

	CollectionURI  string
	AccessToken    string
	ProjectID      string
	ProjectName    string
	RepositoryID   string
	RepositoryName string

	Debug          bool
	MetricsPushURL string

	// SummaryModel overrides the model used to summarize the agent log.
	SummaryModel string
}

// BranchName strips the refs/heads/ prefix from a git ref.
func BranchName(ref string) string {
	return strings.TrimPrefix(ref, "refs/heads/")
}
