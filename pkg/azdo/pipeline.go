package azdo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/pipelines"

	"autocoder/pkg/config"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
	"autocoder/pkg/utils"
)

// QueueRequest describes an Autocoder pipeline run to queue.
//
//nolint:govet // Logical grouping preferred over memory optimization
type QueueRequest struct {
	PipelineID        int
	WorkItemID        int
	AgentType         config.AgentType
	UserPrompt        string
	CreatePullRequest bool
	// SourceBranch is the branch the run checks out and commits to.
	SourceBranch string
	// TargetBranch is the pull request target. Empty means SourceBranch.
	TargetBranch string
}

// Validate checks the request before anything is sent.
func (q QueueRequest) Validate() error {
	if q.PipelineID <= 0 {
		return taskerr.Validation("Invalid pipeline ID: %d", q.PipelineID)
	}
	if q.WorkItemID <= 0 {
		return taskerr.Validation("Invalid work item ID: %d", q.WorkItemID)
	}
	if !q.AgentType.Valid() {
		return taskerr.Validation("Invalid agent type: %s. Must be 'copilot' or 'claude'", q.AgentType)
	}
	if q.SourceBranch == "" {
		return taskerr.Validation("Source branch must be provided")
	}
	return nil
}

// TemplateParameters returns the runtime parameters passed to the pipeline.
func (q QueueRequest) TemplateParameters() map[string]string {
	target := q.TargetBranch
	if target == "" {
		target = q.SourceBranch
	}
	return map[string]string{
		"workItemId":        strconv.Itoa(q.WorkItemID),
		"agentType":         string(q.AgentType),
		"userPrompt":        q.UserPrompt,
		"createPullRequest": strconv.FormatBool(q.CreatePullRequest),
		"targetBranch":      target,
	}
}

// PipelineQueuer queues runs of an Autocoder pipeline.
type PipelineQueuer struct {
	clients Clients
	rc      config.RunContext
	logger  *logx.Logger
}

// NewPipelineQueuer creates a queuer for the run context's project.
func NewPipelineQueuer(clients Clients, rc config.RunContext) *PipelineQueuer {
	return &PipelineQueuer{
		clients: clients,
		rc:      rc,
		logger:  logx.NewLogger("pipeline"),
	}
}

// Queue starts a pipeline run and returns its web URL.
func (q *PipelineQueuer) Queue(ctx context.Context, req QueueRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	project := q.project()
	if project == "" {
		return "", taskerr.Configuration("Unable to determine project")
	}

	api, err := q.clients.Pipelines(ctx)
	if err != nil {
		return "", err
	}

	params := req.TemplateParameters()
	ref := RefName(config.BranchName(req.SourceBranch))
	q.logger.Debug("Queueing pipeline %d on %s for work item #%d", req.PipelineID, ref, req.WorkItemID)

	run, err := api.RunPipeline(ctx, pipelines.RunPipelineArgs{
		RunParameters: &pipelines.RunPipelineParameters{
			TemplateParameters: &params,
			Resources: &pipelines.RunResourcesParameters{
				Repositories: &map[string]pipelines.RepositoryResourceParameters{
					"self": {RefName: &ref},
				},
			},
		},
		Project:    &project,
		PipelineId: &req.PipelineID,
	})
	if err != nil {
		return "", taskerr.Wrap(err, "Failed to trigger pipeline")
	}
	if run == nil || run.Id == nil {
		return "", taskerr.Execution("runPipeline", "Failed to trigger pipeline: no run ID returned")
	}

	if href := webLink(run.Links); href != "" {
		return href, nil
	}
	return fmt.Sprintf("%s/%s/_build/results?buildId=%d", strings.TrimSuffix(q.rc.CollectionURI, "/"), project, *run.Id), nil
}

func (q *PipelineQueuer) project() string {
	if q.rc.ProjectID != "" {
		return q.rc.ProjectID
	}
	return q.rc.ProjectName
}

// webLink extracts _links.web.href from a decoded REST reference-links value.
func webLink(links interface{}) string {
	m, _ := utils.SafeAssert[map[string]any](links)
	web := utils.GetMapFieldOr[map[string]any](m, "web", nil)
	return utils.GetMapFieldOr(web, "href", "")
}
