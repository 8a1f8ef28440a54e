// Package runner orchestrates a single Autocoder run: resolve the prompt,
// run the agent on the source branch, commit and push what it changed, and
// optionally open a pull request.
package runner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"autocoder/pkg/agent"
	"autocoder/pkg/azdo"
	"autocoder/pkg/config"
	"autocoder/pkg/logx"
	"autocoder/pkg/metrics"
	"autocoder/pkg/prompt"
	"autocoder/pkg/summary"
	"autocoder/pkg/taskerr"
)

// PullRequestURLVariable is the output variable carrying the new PR's URL.
const PullRequestURLVariable = "AutocoderPullRequestUrl"

// MetricsFileName is the metrics text file written into the output directory.
const MetricsFileName = "autocoder-metrics.prom"

// Outcome messages.
const (
	MessageNoChanges = "No changes to commit"
	MessageCompleted = "Autocoder task completed successfully"
)

// SourceControl is the git surface the runner needs.
type SourceControl interface {
	FetchBranch(ctx context.Context, branch string) error
	CheckoutBranch(ctx context.Context, branch string) error
	HeadCommit(ctx context.Context) (string, error)
	HasChanges(ctx context.Context) (bool, error)
	CommitChanges(ctx context.Context, message string) error
	PullBranch(ctx context.Context, branch string) error
	PushBranch(ctx context.Context, branch string) error
}

// AgentExecutor runs the coding agent.
type AgentExecutor interface {
	Execute(ctx context.Context, opts agent.Options) error
}

// WorkItemFetcher reads a work item.
type WorkItemFetcher interface {
	Fetch(ctx context.Context, id string) (*azdo.WorkItemDetails, error)
}

// PullRequestCreator opens a pull request and returns its URL.
type PullRequestCreator interface {
	Create(ctx context.Context, opts azdo.PullRequestOptions) (string, error)
}

// Reporter publishes pipeline-visible events.
type Reporter interface {
	SetOutputVariable(name, value string)
	Section(name string)
}

// Deps are the collaborators of a run. Summarizer may be nil; Metrics
// defaults to a no-op recorder.
type Deps struct {
	Git          SourceControl
	Agent        AgentExecutor
	WorkItems    WorkItemFetcher
	PullRequests PullRequestCreator
	Summarizer   summary.Summarizer
	Metrics      metrics.Recorder
	Reporter     Reporter
}

// Outcome describes a successful run.
type Outcome struct {
	Changed        bool
	Message        string
	PullRequestURL string
	HeadBefore     string
	HeadAfter      string
}

// metricsExporter is implemented by recorders that can persist what they
// observed.
type metricsExporter interface {
	WriteTextfile(path string) error
	Push(ctx context.Context, gatewayURL, runID string) error
}

// Runner executes one run. It is single use.
type Runner struct {
	inputs config.TaskInputs
	rc     config.RunContext
	deps   Deps
	logger *logx.Logger
	report *Report
	now    func() time.Time
}

// New creates a Runner.
func New(inputs config.TaskInputs, rc config.RunContext, deps Deps) *Runner {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop()
	}
	return &Runner{
		inputs: inputs,
		rc:     rc,
		deps:   deps,
		logger: logx.NewLogger("runner"),
		now:    time.Now,
	}
}

// Report returns the run report, or nil if the inputs were invalid. It is
// only written to disk once the run reaches the agent.
func (r *Runner) Report() *Report {
	return r.report
}

// Run performs the run. A nil error means the task succeeded; the outcome
// says whether anything was pushed.
func (r *Runner) Run(ctx context.Context) (outcome *Outcome, err error) {
	started := r.now()
	r.logger.Info("Starting Autocoder task")

	if err := r.inputs.Validate(); err != nil {
		return nil, err
	}

	r.report = r.newReport(started)

	r.logger.Info("Agent type: %s", r.inputs.AgentType)
	r.logger.Info("Create PR: %t", r.inputs.CreatePullRequest)
	r.logger.Info("Target branch: %s", r.inputs.TargetBranch)

	var workItem *azdo.WorkItemDetails
	if r.inputs.HasWorkItem() {
		r.logger.Info("Fetching work item: %s", r.inputs.WorkItemID)
		if err := r.step("fetchWorkItem", func() error {
			var ferr error
			workItem, ferr = r.deps.WorkItems.Fetch(ctx, r.inputs.WorkItemID)
			return ferr
		}); err != nil {
			return nil, err
		}
	}

	workItemMarkdown := ""
	if workItem != nil {
		workItemMarkdown = workItem.Details
	}
	systemPrompt := prompt.Compose(r.inputs.SystemPrompt, workItemMarkdown, r.inputs.UserPrompt)

	branch := r.rc.SourceBranch
	if branch == "" {
		return nil, taskerr.Configuration("Unable to determine source branch name")
	}

	r.logger.Info("Checking out source branch: %s", branch)
	if err := r.step("checkout", func() error {
		if err := r.deps.Git.FetchBranch(ctx, branch); err != nil {
			return err
		}
		return r.deps.Git.CheckoutBranch(ctx, branch)
	}); err != nil {
		return nil, err
	}

	headBefore, err := r.deps.Git.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}

	r.report.HeadBefore = headBefore
	defer func() { r.finish(ctx, started, outcome, err) }()

	r.deps.Reporter.Section("Running AI agent")
	if err := r.step("agent", func() error {
		return r.deps.Agent.Execute(ctx, agent.Options{
			AgentType:      r.inputs.AgentType,
			ContainerImage: r.inputs.ContainerImage,
			Prompt:         systemPrompt,
			WorkDir:        r.rc.SourcesDirectory,
			OutDir:         r.outDir(),
			APIKey:         r.inputs.APIKey,
		})
	}); err != nil {
		return nil, err
	}

	if err := r.step("commit", func() error {
		changed, err := r.deps.Git.HasChanges(ctx)
		if err != nil || !changed {
			return err
		}
		r.logger.Info("Committing changes")
		return r.deps.Git.CommitChanges(ctx, CommitMessage(r.inputs.WorkItemID, r.inputs.UserPrompt))
	}); err != nil {
		return nil, err
	}

	headAfter, err := r.deps.Git.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	r.report.HeadAfter = headAfter

	if headBefore == headAfter {
		r.logger.Info("No changes were made by the AI agent. Exiting.")
		return &Outcome{Message: MessageNoChanges, HeadBefore: headBefore, HeadAfter: headAfter}, nil
	}

	var agentLog, logSummary string
	if r.inputs.CreatePullRequest {
		agentLog = r.readAgentLog()
		if r.deps.Summarizer != nil {
			if err := r.step("summarize", func() error {
				var serr error
				logSummary, serr = r.deps.Summarizer.Summarize(ctx, agentLog)
				return serr
			}); err != nil {
				return nil, err
			}
		}
	}

	r.logger.Info("Syncing changes for branch %s", branch)
	if err := r.step("push", func() error {
		if err := r.deps.Git.PullBranch(ctx, branch); err != nil {
			return err
		}
		return r.deps.Git.PushBranch(ctx, branch)
	}); err != nil {
		return nil, err
	}

	outcome = &Outcome{
		Changed:    true,
		Message:    MessageCompleted,
		HeadBefore: headBefore,
		HeadAfter:  headAfter,
	}
	if !r.inputs.CreatePullRequest {
		return outcome, nil
	}

	r.logger.Info("Creating pull request")
	var prURL string
	if err := r.step("pullRequest", func() error {
		var perr error
		prURL, perr = r.deps.PullRequests.Create(ctx, azdo.PullRequestOptions{
			SourceBranch: branch,
			TargetBranch: r.inputs.TargetBranch,
			Title:        PullRequestTitle(r.inputs.WorkItemID, r.inputs.UserPrompt, workItemTitle(workItem)),
			Description: PullRequestDescription(DescriptionInput{
				WorkItemID: r.inputs.WorkItemID,
				UserPrompt: r.inputs.UserPrompt,
				AgentType:  r.inputs.AgentType,
				Log:        agentLog,
				Summary:    logSummary,
			}),
			WorkItemID: r.inputs.WorkItemID,
		})
		return perr
	}); err != nil {
		return nil, err
	}

	r.deps.Reporter.SetOutputVariable(PullRequestURLVariable, prURL)
	r.logger.Info("Pull request created: %s", prURL)
	outcome.PullRequestURL = prURL
	return outcome, nil
}

// step runs fn and records its duration and result.
func (r *Runner) step(name string, fn func() error) error {
	start := r.now()
	err := fn()
	d := r.now().Sub(start)

	r.deps.Metrics.ObserveStep(name, err, d)
	if r.report != nil {
		r.report.AddStep(name, err, d)
	}
	return err
}

func (r *Runner) outDir() string {
	return r.rc.ArtifactStagingDirectory
}

// readAgentLog returns the agent log, or "" when the agent wrote none.
func (r *Runner) readAgentLog() string {
	path := filepath.Join(r.outDir(), agent.LogFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("Failed to read agent log %s: %v", path, err)
		} else {
			r.logger.Debug("No agent log at %s", path)
		}
		return ""
	}
	return string(data)
}

func (r *Runner) newReport(started time.Time) *Report {
	return &Report{
		RunID:         r.rc.RunID,
		StartedAt:     started.UTC(),
		AgentType:     string(r.inputs.AgentType),
		ExecutionMode: string(r.inputs.ExecutionMode),
		WorkItemID:    r.inputs.WorkItemID,
		SourceBranch:  r.rc.SourceBranch,
		TargetBranch:  r.inputs.TargetBranch,
	}
}

// finish records the run result and writes the report and metrics. Write
// failures are logged only.
func (r *Runner) finish(ctx context.Context, started time.Time, outcome *Outcome, err error) {
	result := ResultFailed
	switch {
	case err != nil:
		r.report.Message = err.Error()
	case outcome.Changed:
		result = ResultSucceeded
		r.report.Changed = true
		r.report.PullRequestURL = outcome.PullRequestURL
		r.report.Message = outcome.Message
	default:
		result = ResultNoChanges
		r.report.Message = outcome.Message
	}
	r.report.Result = result
	r.report.FinishedAt = r.now().UTC()

	r.deps.Metrics.ObserveRun(string(r.inputs.AgentType), string(r.inputs.ExecutionMode), result, r.now().Sub(started))

	if werr := os.MkdirAll(r.outDir(), 0o755); werr != nil {
		r.logger.Warn("Failed to create output directory: %v", werr)
		return
	}
	if werr := r.report.Write(filepath.Join(r.outDir(), ReportFileName)); werr != nil {
		r.logger.Warn("%v", werr)
	}

	exporter, ok := r.deps.Metrics.(metricsExporter)
	if !ok {
		return
	}
	if werr := exporter.WriteTextfile(filepath.Join(r.outDir(), MetricsFileName)); werr != nil {
		r.logger.Warn("Failed to write metrics: %v", werr)
	}
	if r.rc.MetricsPushURL != "" {
		if werr := exporter.Push(ctx, r.rc.MetricsPushURL, r.rc.RunID); werr != nil {
			r.logger.Warn("%v", werr)
		}
	}
}

func workItemTitle(wi *azdo.WorkItemDetails) string {
	if wi == nil {
		return ""
	}
	return wi.Title
}
