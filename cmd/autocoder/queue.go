package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autocoder/pkg/azdo"
	"autocoder/pkg/config"
)

//nolint:govet // Logical grouping preferred over memory optimization
type queueOptions struct {
	pipelineID        int
	workItemID        int
	agentType         string
	prompt            string
	createPullRequest bool
	sourceBranch      string
	targetBranch      string
}

func newQueueCommand(a *app) *cobra.Command {
	var opts queueOptions

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue an Autocoder pipeline run for a work item",
		Long: `Queue a run of an Autocoder pipeline for a work item.

The organization, project and access token are read from the same pipeline
variables as "autocoder run" (SYSTEM_TEAMFOUNDATIONCOLLECTIONURI,
SYSTEM_TEAMPROJECT and SYSTEM_ACCESSTOKEN or AZURE_DEVOPS_PAT).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc := config.LoadRunContext(a.v)
			req := azdo.QueueRequest{
				PipelineID:        opts.pipelineID,
				WorkItemID:        opts.workItemID,
				AgentType:         config.AgentType(strings.ToLower(strings.TrimSpace(opts.agentType))),
				UserPrompt:        strings.TrimSpace(opts.prompt),
				CreatePullRequest: opts.createPullRequest,
				SourceBranch:      config.BranchName(strings.TrimSpace(opts.sourceBranch)),
				TargetBranch:      config.BranchName(strings.TrimSpace(opts.targetBranch)),
			}
			if err := req.Validate(); err != nil {
				return err
			}

			conn, err := azdo.NewConnection(rc)
			if err != nil {
				return err
			}
			url, err := azdo.NewPipelineQueuer(azdo.NewSession(conn), rc).Queue(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.pipelineID, "pipeline-id", 0, "Pipeline definition to run")
	flags.IntVar(&opts.workItemID, "work-item-id", 0, "Work item to implement")
	flags.StringVar(&opts.agentType, "agent-type", string(config.AgentCopilot), "Agent to run: copilot or claude")
	flags.StringVar(&opts.prompt, "prompt", "", "Additional instructions for the agent")
	flags.BoolVar(&opts.createPullRequest, "create-pr", config.DefaultCreatePullRequest, "Open a pull request with the changes")
	flags.StringVar(&opts.sourceBranch, "source-branch", "", "Branch the run checks out and commits to")
	flags.StringVar(&opts.targetBranch, "target-branch", "", "Pull request target branch (defaults to the source branch)")
	_ = cmd.MarkFlagRequired("pipeline-id")
	_ = cmd.MarkFlagRequired("work-item-id")
	return cmd
}
