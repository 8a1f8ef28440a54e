package azdo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/core"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/webapi"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"

	"autocoder/pkg/config"
	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

// PullRequestLabel marks pull requests opened by Autocoder.
const PullRequestLabel = "AI-generated"

// PullRequestOptions describes the pull request to open.
type PullRequestOptions struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
	// WorkItemID, when set, is linked to the new pull request.
	WorkItemID string
}

// Warner receives non-fatal issues.
type Warner interface {
	Warning(message string)
}

// PullRequestPublisher opens pull requests in the run's repository.
type PullRequestPublisher struct {
	clients Clients
	rc      config.RunContext
	warner  Warner
	logger  *logx.Logger
}

// NewPullRequestPublisher creates a publisher. Link failures are reported to
// warner.
func NewPullRequestPublisher(clients Clients, rc config.RunContext, warner Warner) *PullRequestPublisher {
	return &PullRequestPublisher{
		clients: clients,
		rc:      rc,
		warner:  warner,
		logger:  logx.NewLogger("pullrequest"),
	}
}

// RefName returns the full ref name of a branch.
func RefName(branch string) string {
	return "refs/heads/" + branch
}

// Create opens the pull request and returns its browser URL. Linking the
// work item is best effort.
func (p *PullRequestPublisher) Create(ctx context.Context, opts PullRequestOptions) (string, error) {
	api, err := p.clients.PullRequests(ctx)
	if err != nil {
		return "", err
	}
	if p.rc.ProjectID == "" || p.rc.RepositoryID == "" {
		return "", taskerr.Configuration("Unable to determine project or repository ID")
	}

	p.logger.Debug("Creating pull request from %s to %s", opts.SourceBranch, opts.TargetBranch)

	prID, err := p.create(ctx, api, opts)
	if err != nil {
		return "", taskerr.Wrap(err, "Failed to create pull request")
	}

	if opts.WorkItemID != "" {
		if err := p.linkWorkItem(ctx, prID, opts.WorkItemID); err != nil {
			if !taskerr.IsKind(err, taskerr.KindLinkWarning) {
				return "", err
			}
			p.logger.Warn("%v", err)
			p.warner.Warning(err.Error())
		}
	}

	prURL := p.PullRequestURL(prID)
	p.logger.Info("Pull request #%d created successfully", prID)
	return prURL, nil
}

func (p *PullRequestPublisher) create(ctx context.Context, api PullRequestAPI, opts PullRequestOptions) (int, error) {
	source := RefName(opts.SourceBranch)
	target := RefName(opts.TargetBranch)
	label := PullRequestLabel

	created, err := api.CreatePullRequest(ctx, git.CreatePullRequestArgs{
		GitPullRequestToCreate: &git.GitPullRequest{
			SourceRefName: &source,
			TargetRefName: &target,
			Title:         &opts.Title,
			Description:   &opts.Description,
			Labels:        &[]core.WebApiTagDefinition{{Name: &label}},
		},
		RepositoryId: &p.rc.RepositoryID,
		Project:      &p.rc.ProjectID,
	})
	if err != nil {
		return 0, err
	}
	if created == nil || created.PullRequestId == nil || *created.PullRequestId == 0 {
		return 0, taskerr.Execution("createPullRequest", "Failed to create pull request - no PR ID returned")
	}
	return *created.PullRequestId, nil
}

// linkWorkItem adds an artifact link from the work item to the pull request.
// The returned error is always a LinkWarning.
func (p *PullRequestPublisher) linkWorkItem(ctx context.Context, prID int, workItemID string) error {
	fail := func(cause error) error {
		return taskerr.LinkWarning(cause, "Failed to link work item #%s to pull request", workItemID)
	}

	id, err := ParseWorkItemID(workItemID)
	if err != nil {
		return fail(err)
	}
	api, err := p.clients.WorkItems(ctx)
	if err != nil {
		return fail(err)
	}

	p.logger.Debug("Linking work item #%s to PR #%d", workItemID, prID)

	op := webapi.OperationValues.Add
	path := "/relations/-"
	_, err = api.UpdateWorkItem(ctx, workitemtracking.UpdateWorkItemArgs{
		Document: &[]webapi.JsonPatchOperation{{
			Op:   &op,
			Path: &path,
			Value: map[string]interface{}{
				"rel": "ArtifactLink",
				"url": PullRequestArtifactURI(p.rc.ProjectID, p.rc.RepositoryID, prID),
				"attributes": map[string]string{
					"name": "Pull Request",
				},
			},
		}},
		Id:      &id,
		Project: &p.rc.ProjectID,
	})
	if err != nil {
		return fail(err)
	}

	p.logger.Info("Work item #%s linked to pull request #%d", workItemID, prID)
	return nil
}

// PullRequestArtifactURI returns the artifact URI that identifies a pull
// request in work item links.
func PullRequestArtifactURI(projectID, repositoryID string, prID int) string {
	return fmt.Sprintf("vstfs:///Git/PullRequestId/%s%%2F%s%%2F%d", projectID, repositoryID, prID)
}

// PullRequestURL returns the browser URL of a pull request.
func (p *PullRequestPublisher) PullRequestURL(prID int) string {
	return fmt.Sprintf("%s%s/_git/%s/pullrequest/%d",
		p.rc.CollectionURI, url.PathEscape(p.rc.ProjectName), url.PathEscape(p.rc.RepositoryName), prID)
}
