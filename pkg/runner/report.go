package runner

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ReportFileName is the run report written into the output directory.
const ReportFileName = "autocoder-run.yaml"

// Run results recorded in the report and metrics.
const (
	ResultSucceeded = "succeeded"
	ResultNoChanges = "no_changes"
	ResultFailed    = "failed"
)

// StepReport records one step of the run.
type StepReport struct {
	Name     string  `yaml:"name"`
	Status   string  `yaml:"status"`
	Seconds  float64 `yaml:"seconds"`
	ErrorMsg string  `yaml:"error,omitempty"`
}

// Report summarises a run. It is written once at the end of the run.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Report struct {
	RunID         string    `yaml:"run_id"`
	StartedAt     time.Time `yaml:"started_at"`
	FinishedAt    time.Time `yaml:"finished_at"`
	AgentType     string    `yaml:"agent_type"`
	ExecutionMode string    `yaml:"execution_mode"`
	WorkItemID    string    `yaml:"work_item_id,omitempty"`

	SourceBranch string `yaml:"source_branch,omitempty"`
	TargetBranch string `yaml:"target_branch"`
	HeadBefore   string `yaml:"head_before,omitempty"`
	HeadAfter    string `yaml:"head_after,omitempty"`

	Changed        bool   `yaml:"changed"`
	PullRequestURL string `yaml:"pull_request_url,omitempty"`
	Result         string `yaml:"result"`
	Message        string `yaml:"message,omitempty"`

	Steps []StepReport `yaml:"steps"`
}

// AddStep appends a step outcome.
func (r *Report) AddStep(name string, err error, d time.Duration) {
	step := StepReport{Name: name, Status: "success", Seconds: d.Round(time.Millisecond).Seconds()}
	if err != nil {
		step.Status = "error"
		step.ErrorMsg = err.Error()
	}
	r.Steps = append(r.Steps, step)
}

// Write marshals the report as YAML to path.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	return nil
}
