package azdo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
)

// Core field reference names present on every work item type
const (
	fieldID    = "System.Id"
	fieldTitle = "System.Title"
	fieldType  = "System.WorkItemType"
	fieldState = "System.State"
)

// Repository implements domain.WorkItemRepository against Azure DevOps Boards
type Repository struct {
	client            *Client
	cfg               config.AzureDevOpsConfig
	parentTitleFormat string
	parentType        string
}

// NewRepository creates a repository. parentTitleFormat and parentType
// control how release train parents are searched for and created.
func NewRepository(cfg config.AzureDevOpsConfig, parentTitleFormat string, parentType string) *Repository {
	return &Repository{
		client:            NewClient(cfg),
		cfg:               cfg,
		parentTitleFormat: parentTitleFormat,
		parentType:        parentType,
	}
}

// FetchWorkItems reads every backlog item in the configured project and area
func (r *Repository) FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	ids, err := r.client.QueryWorkItemIDs(ctx, r.backlogQuery())
	if err != nil {
		return nil, domain.NewFetchError("failed to query backlog work items", err)
	}
	if len(ids) == 0 {
		return []domain.WorkItem{}, nil
	}

	fields := []string{fieldID, fieldTitle, fieldType, fieldState, r.cfg.SwagField, r.cfg.NotesField}
	payloads, err := r.client.GetWorkItemsBatch(ctx, ids, fields)
	if err != nil {
		return nil, domain.NewFetchError("failed to read work item fields", err)
	}

	items := make([]domain.WorkItem, 0, len(payloads))
	for _, p := range payloads {
		items = append(items, r.toDomain(p))
	}
	return items, nil
}

// FindAggregateParent looks up the release train parent by its rendered
// title. Returns nil without error when no parent exists yet.
func (r *Repository) FindAggregateParent(ctx context.Context, groupKey string) (*domain.AggregateParent, error) {
	title := fmt.Sprintf(r.parentTitleFormat, groupKey)
	wiql := fmt.Sprintf(
		"SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = @project AND [System.WorkItemType] = '%s' AND [System.Title] = '%s'",
		escapeWIQL(r.parentType), escapeWIQL(title))

	ids, err := r.client.QueryWorkItemIDs(ctx, wiql)
	if err != nil {
		return nil, domain.NewRepositoryError(fmt.Sprintf("failed to look up parent for release train %s", groupKey), err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	payload, err := r.client.GetWorkItem(ctx, ids[0], true)
	if err != nil {
		return nil, domain.NewRepositoryError(fmt.Sprintf("failed to read parent %d for release train %s", ids[0], groupKey), err)
	}

	parent := &domain.AggregateParent{
		ID:    payload.ID,
		Title: stringField(payload.Fields, fieldTitle),
	}
	for _, rel := range payload.Relations {
		if rel.Rel != r.cfg.LinkType {
			continue
		}
		if id, ok := relationTargetID(rel.URL); ok {
			parent.LinkedItemIDs = append(parent.LinkedItemIDs, id)
		}
	}
	return parent, nil
}

// CreateAggregateParent creates the parent item and links all members in a
// single create call
func (r *Repository) CreateAggregateParent(ctx context.Context, title string, memberIDs []int) (int, error) {
	ops := []PatchOperation{
		{Op: "add", Path: "/fields/" + fieldTitle, Value: title},
	}
	for _, id := range memberIDs {
		ops = append(ops, r.linkOperation(id))
	}

	payload, err := r.client.CreateWorkItem(ctx, r.parentType, ops)
	if err != nil {
		return 0, domain.NewRepositoryError(fmt.Sprintf("failed to create release train parent %q", title), err)
	}
	return payload.ID, nil
}

// AddLinks adds one link per member beneath an existing parent
func (r *Repository) AddLinks(ctx context.Context, parentID int, memberIDs []int) error {
	if len(memberIDs) == 0 {
		return nil
	}

	ops := make([]PatchOperation, 0, len(memberIDs))
	for _, id := range memberIDs {
		ops = append(ops, r.linkOperation(id))
	}
	if _, err := r.client.UpdateWorkItem(ctx, parentID, ops); err != nil {
		return domain.NewRepositoryError(fmt.Sprintf("failed to link items under parent %d", parentID), err)
	}
	return nil
}

// UpdateEstimate writes the estimate field and the status notes in one patch
func (r *Repository) UpdateEstimate(ctx context.Context, id int, value float64, statusNotes string) error {
	ops := []PatchOperation{
		{Op: "add", Path: "/fields/" + r.cfg.SwagField, Value: value},
		{Op: "add", Path: "/fields/" + r.cfg.NotesField, Value: statusNotes},
	}
	if _, err := r.client.UpdateWorkItem(ctx, id, ops); err != nil {
		return domain.NewRepositoryError(fmt.Sprintf("failed to update estimate for item %d", id), err)
	}
	return nil
}

// backlogQuery builds the WIQL selecting the configured backlog subset in
// stable ID order
func (r *Repository) backlogQuery() string {
	var b strings.Builder
	b.WriteString("SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = @project")
	if r.cfg.AreaPath != "" {
		fmt.Fprintf(&b, " AND [System.AreaPath] UNDER '%s'", escapeWIQL(r.cfg.AreaPath))
	}
	b.WriteString(" ORDER BY [System.Id]")
	return b.String()
}

// toDomain maps a wire payload to the domain work item
func (r *Repository) toDomain(p WorkItemPayload) domain.WorkItem {
	item := domain.WorkItem{
		ID:           p.ID,
		Title:        stringField(p.Fields, fieldTitle),
		WorkItemType: domain.WorkItemType(stringField(p.Fields, fieldType)),
		State:        domain.WorkItemState(stringField(p.Fields, fieldState)),
		StatusNotes:  stringField(p.Fields, r.cfg.NotesField),
		URL:          r.itemWebURL(p.ID),
	}
	if v, ok := floatField(p.Fields, r.cfg.SwagField); ok {
		item.Swag = domain.Float64Ptr(v)
	}
	return item
}

// itemWebURL returns the human-facing board URL of a work item
func (r *Repository) itemWebURL(id int) string {
	return fmt.Sprintf("%s/%s/%s/_workitems/edit/%d",
		strings.TrimRight(r.cfg.BaseURL, "/"), url.PathEscape(r.cfg.Organization), url.PathEscape(r.cfg.Project), id)
}

// linkOperation builds the relation patch adding one member under a parent
func (r *Repository) linkOperation(memberID int) PatchOperation {
	return PatchOperation{
		Op:   "add",
		Path: "/relations/-",
		Value: map[string]any{
			"rel": r.cfg.LinkType,
			"url": r.client.ItemAPIURL(memberID),
		},
	}
}

// relationTargetID parses the work item ID off the end of a relation URL
func relationTargetID(u string) (int, bool) {
	idx := strings.LastIndex(u, "/")
	if idx < 0 || idx == len(u)-1 {
		return 0, false
	}
	id, err := strconv.Atoi(u[idx+1:])
	if err != nil {
		return 0, false
	}
	return id, true
}

// escapeWIQL doubles single quotes inside WIQL string literals
func escapeWIQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// floatField reads a numeric field, tolerating the integer form some
// serializers emit
func floatField(fields map[string]any, name string) (float64, bool) {
	switch v := fields[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
