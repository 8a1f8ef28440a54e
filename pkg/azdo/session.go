package azdo

import (
	"context"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/pipelines"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"

	"autocoder/pkg/config"
	"autocoder/pkg/taskerr"
)

// WorkItemAPI is the subset of the work item tracking client in use.
type WorkItemAPI interface {
	GetWorkItem(ctx context.Context, args workitemtracking.GetWorkItemArgs) (*workitemtracking.WorkItem, error)
	UpdateWorkItem(ctx context.Context, args workitemtracking.UpdateWorkItemArgs) (*workitemtracking.WorkItem, error)
}

// PullRequestAPI is the subset of the git client in use.
type PullRequestAPI interface {
	CreatePullRequest(ctx context.Context, args git.CreatePullRequestArgs) (*git.GitPullRequest, error)
}

// PipelineAPI is the subset of the pipelines client in use.
type PipelineAPI interface {
	RunPipeline(ctx context.Context, args pipelines.RunPipelineArgs) (*pipelines.Run, error)
}

// Clients hands out API clients bound to one connection.
type Clients interface {
	WorkItems(ctx context.Context) (WorkItemAPI, error)
	PullRequests(ctx context.Context) (PullRequestAPI, error)
	Pipelines(ctx context.Context) (PipelineAPI, error)
}

// NewConnection builds an authenticated connection from the run context.
func NewConnection(rc config.RunContext) (*azuredevops.Connection, error) {
	if rc.CollectionURI == "" {
		return nil, taskerr.Configuration("Unable to determine Azure DevOps organization URL")
	}
	if rc.AccessToken == "" {
		return nil, taskerr.Configuration("No access token available. Ensure the pipeline has access to System.AccessToken or AZURE_DEVOPS_PAT is set.")
	}
	return azuredevops.NewPatConnection(rc.CollectionURI, rc.AccessToken), nil
}

// Session implements Clients over one connection built by the caller.
// Clients are created on first request and reused for the rest of the run.
// It is not safe for concurrent use.
type Session struct {
	conn *azuredevops.Connection

	workItems    WorkItemAPI
	pullRequests PullRequestAPI
	pipelines    PipelineAPI
}

// NewSession creates a Session over conn, as returned by NewConnection. A
// nil conn yields a session whose clients all fail with a configuration
// error; use it when the run never talks to Azure DevOps.
func NewSession(conn *azuredevops.Connection) *Session {
	return &Session{conn: conn}
}

func (s *Session) connection() (*azuredevops.Connection, error) {
	if s.conn == nil {
		return nil, taskerr.Configuration("No Azure DevOps connection was configured for this run")
	}
	return s.conn, nil
}

// WorkItems returns the work item tracking client.
func (s *Session) WorkItems(ctx context.Context) (WorkItemAPI, error) {
	if s.workItems != nil {
		return s.workItems, nil
	}
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	client, err := workitemtracking.NewClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.workItems = client
	return client, nil
}

// PullRequests returns the git client.
func (s *Session) PullRequests(ctx context.Context) (PullRequestAPI, error) {
	if s.pullRequests != nil {
		return s.pullRequests, nil
	}
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	client, err := git.NewClient(ctx, conn)
	if err != nil {
		return nil, err
	}
	s.pullRequests = client
	return client, nil
}

// Pipelines returns the pipelines client.
func (s *Session) Pipelines(ctx context.Context) (PipelineAPI, error) {
	if s.pipelines != nil {
		return s.pipelines, nil
	}
	conn, err := s.connection()
	if err != nil {
		return nil, err
	}
	s.pipelines = pipelines.NewClient(ctx, conn)
	return s.pipelines, nil
}
