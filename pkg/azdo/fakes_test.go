package azdo

import (
	"context"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/git"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/pipelines"
	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"
)

type fakeClients struct {
	err error

	getWorkItem    func(args workitemtracking.GetWorkItemArgs) (*workitemtracking.WorkItem, error)
	updateWorkItem func(args workitemtracking.UpdateWorkItemArgs) (*workitemtracking.WorkItem, error)
	createPR       func(args git.CreatePullRequestArgs) (*git.GitPullRequest, error)
	runPipeline    func(args pipelines.RunPipelineArgs) (*pipelines.Run, error)

	getCalls    []workitemtracking.GetWorkItemArgs
	updateCalls []workitemtracking.UpdateWorkItemArgs
	prCalls     []git.CreatePullRequestArgs
	runCalls    []pipelines.RunPipelineArgs
}

func (f *fakeClients) WorkItems(context.Context) (WorkItemAPI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakeClients) PullRequests(context.Context) (PullRequestAPI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakeClients) Pipelines(context.Context) (PipelineAPI, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f, nil
}

func (f *fakeClients) GetWorkItem(_ context.Context, args workitemtracking.GetWorkItemArgs) (*workitemtracking.WorkItem, error) {
	f.getCalls = append(f.getCalls, args)
	return f.getWorkItem(args)
}

func (f *fakeClients) UpdateWorkItem(_ context.Context, args workitemtracking.UpdateWorkItemArgs) (*workitemtracking.WorkItem, error) {
	f.updateCalls = append(f.updateCalls, args)
	if f.updateWorkItem == nil {
		return &workitemtracking.WorkItem{}, nil
	}
	return f.updateWorkItem(args)
}

func (f *fakeClients) CreatePullRequest(_ context.Context, args git.CreatePullRequestArgs) (*git.GitPullRequest, error) {
	f.prCalls = append(f.prCalls, args)
	return f.createPR(args)
}

func (f *fakeClients) RunPipeline(_ context.Context, args pipelines.RunPipelineArgs) (*pipelines.Run, error) {
	f.runCalls = append(f.runCalls, args)
	return f.runPipeline(args)
}

type recordingWarner struct {
	warnings []string
}

func (w *recordingWarner) Warning(message string) {
	w.warnings = append(w.warnings, message)
}

func intPtr(n int) *int { return &n }
