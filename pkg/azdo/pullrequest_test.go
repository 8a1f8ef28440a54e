package azdo

import (
	"context"
	"errors"
	"testing"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/webapi"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocoder/pkg/config"
	"autocoder/pkg/taskerr"
)

func testRunContext() config.RunContext {
	return config.RunContext{
		CollectionURI:  "https://dev.azure.com/org/",
		AccessToken:    "token",
		ProjectID:      "proj-id",
		ProjectName:    "Proj",
		RepositoryID:   "repo-id",
		RepositoryName: "repo",
	}
}

func prReturning(id int) func(git.CreatePullRequestArgs) (*git.GitPullRequest, error) {
	return func(git.CreatePullRequestArgs) (*git.GitPullRequest, error) {
		return &git.GitPullRequest{PullRequestId: intPtr(id)}, nil
	}
}

func testPROptions() PullRequestOptions {
	return PullRequestOptions{
		SourceBranch: "feature/x",
		TargetBranch: "main",
		Title:        "[Autocoder] #7: Add README",
		Description:  "body",
		WorkItemID:   "7",
	}
}

func TestCreatePullRequest(t *testing.T) {
	clients := &fakeClients{createPR: prReturning(42)}
	warner := &recordingWarner{}

	prURL, err := NewPullRequestPublisher(clients, testRunContext(), warner).Create(context.Background(), testPROptions())
	require.NoError(t, err)
	assert.Equal(t, "https://dev.azure.com/org/Proj/_git/repo/pullrequest/42", prURL)
	assert.Empty(t, warner.warnings)

	require.Len(t, clients.prCalls, 1)
	args := clients.prCalls[0]
	assert.Equal(t, "repo-id", *args.RepositoryId)
	assert.Equal(t, "proj-id", *args.Project)
	pr := args.GitPullRequestToCreate
	assert.Equal(t, "refs/heads/feature/x", *pr.SourceRefName)
	assert.Equal(t, "refs/heads/main", *pr.TargetRefName)
	assert.Equal(t, "[Autocoder] #7: Add README", *pr.Title)
	require.Len(t, *pr.Labels, 1)
	assert.Equal(t, "AI-generated", *(*pr.Labels)[0].Name)

	require.Len(t, clients.updateCalls, 1)
	update := clients.updateCalls[0]
	assert.Equal(t, 7, *update.Id)
	assert.Equal(t, "proj-id", *update.Project)
	doc := *update.Document
	require.Len(t, doc, 1)
	assert.Equal(t, webapi.OperationValues.Add, *doc[0].Op)
	assert.Equal(t, "/relations/-", *doc[0].Path)
	value := doc[0].Value.(map[string]interface{})
	assert.Equal(t, "ArtifactLink", value["rel"])
	assert.Equal(t, "vstfs:///Git/PullRequestId/proj-id%2Frepo-id%2F42", value["url"])
	assert.Equal(t, map[string]string{"name": "Pull Request"}, value["attributes"])
}

func TestCreatePullRequestWithoutWorkItem(t *testing.T) {
	clients := &fakeClients{createPR: prReturning(3)}
	opts := testPROptions()
	opts.WorkItemID = ""

	_, err := NewPullRequestPublisher(clients, testRunContext(), &recordingWarner{}).Create(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, clients.updateCalls)
}

func TestLinkFailureIsWarning(t *testing.T) {
	clients := &fakeClients{
		createPR: prReturning(42),
		updateWorkItem: func(workitemtracking.UpdateWorkItemArgs) (*workitemtracking.WorkItem, error) {
			return nil, errors.New("access denied")
		},
	}
	warner := &recordingWarner{}

	prURL, err := NewPullRequestPublisher(clients, testRunContext(), warner).Create(context.Background(), testPROptions())

	require.NoError(t, err)
	assert.Equal(t, "https://dev.azure.com/org/Proj/_git/repo/pullrequest/42", prURL)
	assert.Equal(t, []string{"Failed to link work item #7 to pull request: access denied"}, warner.warnings)
}

func TestCreatePullRequestMissingIDs(t *testing.T) {
	rc := testRunContext()
	rc.RepositoryID = ""
	clients := &fakeClients{}

	_, err := NewPullRequestPublisher(clients, rc, &recordingWarner{}).Create(context.Background(), testPROptions())

	require.Error(t, err)
	assert.Equal(t, "Unable to determine project or repository ID", err.Error())
	assert.True(t, taskerr.IsKind(err, taskerr.KindConfiguration))
	assert.Empty(t, clients.prCalls)
}

func TestCreatePullRequestFailures(t *testing.T) {
	tests := []struct {
		name   string
		create func(git.CreatePullRequestArgs) (*git.GitPullRequest, error)
		want   string
	}{
		{
			name: "api error",
			create: func(git.CreatePullRequestArgs) (*git.GitPullRequest, error) {
				return nil, errors.New("TF401179: An active pull request already exists")
			},
			want: "Failed to create pull request: TF401179: An active pull request already exists",
		},
		{
			name: "no id returned",
			create: func(git.CreatePullRequestArgs) (*git.GitPullRequest, error) {
				return &git.GitPullRequest{}, nil
			},
			want: "Failed to create pull request: Failed to create pull request - no PR ID returned",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clients := &fakeClients{createPR: tt.create}

			_, err := NewPullRequestPublisher(clients, testRunContext(), &recordingWarner{}).Create(context.Background(), testPROptions())

			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, taskerr.IsKind(err, taskerr.KindExecution))
			assert.Empty(t, clients.updateCalls)
		})
	}
}

func TestPullRequestURLEscapesNames(t *testing.T) {
	rc := testRunContext()
	rc.ProjectName = "My Project"
	p := NewPullRequestPublisher(&fakeClients{}, rc, &recordingWarner{})
	assert.Equal(t, "https://dev.azure.com/org/My%20Project/_git/repo/pullrequest/1", p.PullRequestURL(1))
}
