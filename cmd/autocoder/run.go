package main

import (
	"context"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/spf13/cobra"

	"autocoder/pkg/agent"
	"autocoder/pkg/azdo"
	"autocoder/pkg/config"
	"autocoder/pkg/git"
	"autocoder/pkg/logx"
	"autocoder/pkg/metrics"
	"autocoder/pkg/pipeline"
	"autocoder/pkg/runner"
	"autocoder/pkg/summary"
)

// inputFlag maps a command-line flag onto a task input key.
type inputFlag struct {
	key   string
	name  string
	usage string
}

var stringInputFlags = []inputFlag{
	{config.KeyWorkItemID, "work-item-id", "Azure Boards work item to implement"},
	{config.KeyUserPrompt, "prompt", "Instructions for the agent"},
	{config.KeyAgentType, "agent-type", "Agent to run: copilot or claude"},
	{config.KeyAPIKey, "api-key", "API key for the agent"},
	{config.KeyContainerImage, "container-image", "Override the agent container image"},
	{config.KeySystemPrompt, "system-prompt", "Prompt template with {work_item_details} and {user_prompt} placeholders"},
	{config.KeyTargetBranch, "target-branch", "Pull request target branch"},
	{config.KeyExecutionMode, "execution-mode", "How to run the agent: container or direct"},
}

func newRunCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent, push its changes and open a pull request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTask(cmd.Context())
		},
	}

	flags := cmd.Flags()
	for _, f := range stringInputFlags {
		flags.String(f.name, "", f.usage)
	}
	flags.Bool("create-pr", config.DefaultCreatePullRequest, "Open a pull request with the changes")
	flags.Bool("summarize-log", false, "Summarize the agent log for the pull request (claude only)")

	for _, f := range stringInputFlags {
		_ = a.v.BindPFlag(f.key, flags.Lookup(f.name))
	}
	_ = a.v.BindPFlag(config.KeyCreatePullRequest, flags.Lookup("create-pr"))
	_ = a.v.BindPFlag(config.KeySummarizeLog, flags.Lookup("summarize-log"))
	return cmd
}

// runTask performs one run and reports the result to the pipeline. Every
// failure, including a panic, completes the task as Failed.
func (a *app) runTask(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := "An unknown error occurred"
			if perr, ok := r.(error); ok {
				msg = perr.Error()
			}
			a.logger.Error("panic: %v", r)
			a.commands.Complete(pipeline.Failed, msg)
			err = errReported
		}
	}()

	outcome, err := a.runOnce(ctx)
	if err != nil {
		a.logger.Error("%v", err)
		a.commands.Error(err.Error())
		a.commands.Complete(pipeline.Failed, err.Error())
		return errReported
	}
	a.commands.Complete(pipeline.Succeeded, outcome.Message)
	return nil
}

func (a *app) runOnce(ctx context.Context) (*runner.Outcome, error) {
	inputs := config.LoadTaskInputs(a.v)
	rc := config.LoadRunContext(a.v)
	if rc.Debug {
		logx.SetDebug(true)
	}
	a.commands.SetSecret(inputs.APIKey)

	if err := inputs.Validate(); err != nil {
		return nil, err
	}

	deps, err := a.wire(inputs, rc)
	if err != nil {
		return nil, err
	}
	return runner.New(inputs, rc, deps).Run(ctx)
}

// wire builds the run's collaborators. The Azure DevOps connection is only
// built when the run needs it, and before anything touches the repository.
func (a *app) wire(inputs config.TaskInputs, rc config.RunContext) (runner.Deps, error) {
	var conn *azuredevops.Connection
	if inputs.HasWorkItem() || inputs.CreatePullRequest {
		var err error
		if conn, err = azdo.NewConnection(rc); err != nil {
			return runner.Deps{}, err
		}
	}
	session := azdo.NewSession(conn)

	gw, err := git.New(a.host, rc.SourcesDirectory, a.lookPath)
	if err != nil {
		return runner.Deps{}, err
	}
	gw.StreamTo(a.stdout)

	strategy := agent.NewStrategy(inputs.ExecutionMode, a.host, a.lookPath)
	a.logger.Debug("Agent execution strategy: %s", strategy.Name())

	deps := runner.Deps{
		Git:          gw,
		Agent:        agent.NewExecutor(strategy, a.stdout),
		WorkItems:    azdo.NewWorkItemReader(session),
		PullRequests: azdo.NewPullRequestPublisher(session, rc, a.commands),
		Metrics:      metrics.NewPrometheusRecorder(),
		Reporter:     a.commands,
	}

	if inputs.SummarizeLog {
		if inputs.AgentType == config.AgentClaude {
			s := summary.NewClaudeSummarizer(inputs.APIKey)
			if rc.SummaryModel != "" {
				s.WithModel(rc.SummaryModel)
			}
			deps.Summarizer = s
		} else {
			a.logger.Debug("summarizeLog is only supported for the claude agent; ignoring")
		}
	}
	return deps, nil
}
