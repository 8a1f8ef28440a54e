package azdo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/microsoft/azure-devops-go-api/azuredevops/v7/workitemtracking"

	"autocoder/pkg/logx"
	"autocoder/pkg/taskerr"
)

// Work item field reference names.
const (
	FieldTitle              = "System.Title"
	FieldDescription        = "System.Description"
	FieldWorkItemType       = "System.WorkItemType"
	FieldState              = "System.State"
	FieldAcceptanceCriteria = "Microsoft.VSTS.Common.AcceptanceCriteria"
)

// WorkItemDetails is a work item rendered for the agent prompt.
type WorkItemDetails struct {
	ID    int
	Title string
	// Details is the markdown rendering of the work item.
	Details string
}

// WorkItemReader fetches work items and renders them as markdown.
type WorkItemReader struct {
	clients Clients
	logger  *logx.Logger
}

// NewWorkItemReader creates a reader.
func NewWorkItemReader(clients Clients) *WorkItemReader {
	return &WorkItemReader{
		clients: clients,
		logger:  logx.NewLogger("workitem"),
	}
}

// ParseWorkItemID parses a numeric work item id.
func ParseWorkItemID(id string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(id))
	if err != nil {
		return 0, taskerr.Validation("Invalid work item ID: %s", id)
	}
	return n, nil
}

// Fetch reads work item id with a single call. Every failure after the id
// is parsed is reported as "Failed to fetch work item <id>: <cause>" with
// the cause's kind preserved.
func (r *WorkItemReader) Fetch(ctx context.Context, id string) (*WorkItemDetails, error) {
	n, err := ParseWorkItemID(id)
	if err != nil {
		return nil, err
	}

	details, err := r.fetch(ctx, id, n)
	if err != nil {
		return nil, taskerr.Wrap(err, "Failed to fetch work item %s", id)
	}
	return details, nil
}

func (r *WorkItemReader) fetch(ctx context.Context, id string, n int) (*WorkItemDetails, error) {
	api, err := r.clients.WorkItems(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Fetching work item %d", n)
	item, err := api.GetWorkItem(ctx, workitemtracking.GetWorkItemArgs{Id: &n})
	if err != nil {
		return nil, err
	}
	if item == nil || item.Fields == nil {
		return nil, taskerr.NotFound("Work item %s not found", id)
	}

	fields := *item.Fields
	wi := workItem{
		id:                 n,
		title:              stringField(fields, FieldTitle),
		workItemType:       stringField(fields, FieldWorkItemType),
		state:              stringField(fields, FieldState),
		description:        NormalizeHTML(stringField(fields, FieldDescription)),
		acceptanceCriteria: NormalizeHTML(stringField(fields, FieldAcceptanceCriteria)),
	}

	return &WorkItemDetails{
		ID:      n,
		Title:   wi.title,
		Details: wi.markdown(),
	}, nil
}

type workItem struct {
	id                 int
	title              string
	workItemType       string
	state              string
	description        string
	acceptanceCriteria string
}

func (w workItem) markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Work Item #%d\n\n", w.id)
	fmt.Fprintf(&b, "**Type:** %s\n", w.workItemType)
	fmt.Fprintf(&b, "**Title:** %s\n", w.title)
	fmt.Fprintf(&b, "**State:** %s\n\n", w.state)

	if w.description != "" {
		fmt.Fprintf(&b, "### Description\n%s\n\n", w.description)
	}
	if w.acceptanceCriteria != "" {
		fmt.Fprintf(&b, "### Acceptance Criteria\n%s\n", w.acceptanceCriteria)
	}
	return b.String()
}

// stringField returns a field value as text. Missing fields are empty.
func stringField(fields map[string]interface{}, name string) string {
	v, ok := fields[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
