package github

import (
	"context"
	"fmt"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/config"
)

// Repository implements domain.WorkItemRepository against a GitHub Projects
// v2 board. Work item IDs are issue database IDs; the repository keeps the
// node IDs a fetch discovered so later mutations can address the same items.
type Repository struct {
	client            *Client
	cfg               config.GitHubConfig
	parentTitleFormat string

	projectID    string
	repoNodeID   string
	fieldIDs     map[string]string
	itemNodeIDs  map[int]string
	issueNodeIDs map[int]string
	parentNodes  map[int]string
}

// NewRepository creates a repository. parentTitleFormat controls the titles
// of release train tracking issues.
func NewRepository(cfg config.GitHubConfig, parentTitleFormat string) *Repository {
	return newRepositoryWithClient(NewClient(cfg), cfg, parentTitleFormat)
}

func newRepositoryWithClient(client *Client, cfg config.GitHubConfig, parentTitleFormat string) *Repository {
	return &Repository{
		client:            client,
		cfg:               cfg,
		parentTitleFormat: parentTitleFormat,
		itemNodeIDs:       make(map[int]string),
		issueNodeIDs:      make(map[int]string),
		parentNodes:       make(map[int]string),
	}
}

// FetchWorkItems reads every issue on the project board
func (r *Repository) FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	if err := r.ensureProject(ctx); err != nil {
		return nil, domain.NewFetchError("failed to resolve project board", err)
	}

	fields := FieldNames{
		Type:   r.cfg.TypeField,
		Status: r.cfg.StatusField,
		Swag:   r.cfg.SwagField,
		Notes:  r.cfg.NotesField,
	}

	items := []domain.WorkItem{}
	cursor := ""
	for {
		payloads, next, hasMore, err := r.client.FetchItemsPage(ctx, r.projectID, fields, cursor)
		if err != nil {
			return nil, domain.NewFetchError("failed to read project items", err)
		}

		for _, p := range payloads {
			r.itemNodeIDs[p.DatabaseID] = p.ItemNodeID
			r.issueNodeIDs[p.DatabaseID] = p.IssueNodeID
			items = append(items, toDomain(p))
		}

		if !hasMore {
			break
		}
		cursor = next
	}
	return items, nil
}

// FindAggregateParent looks for the tracking issue titled for the group key.
// Returns nil without error when no tracking issue exists yet.
func (r *Repository) FindAggregateParent(ctx context.Context, groupKey string) (*domain.AggregateParent, error) {
	if r.cfg.TrainRepo == "" {
		return nil, domain.NewConfigError("github.train_repo must be set to reconcile release trains", nil)
	}

	title := fmt.Sprintf(r.parentTitleFormat, groupKey)
	issue, err := r.client.FindTrainIssue(ctx, r.cfg.Owner, r.cfg.TrainRepo, title)
	if err != nil {
		return nil, domain.NewRepositoryError(fmt.Sprintf("failed to look up parent for release train %s", groupKey), err)
	}
	if issue == nil {
		return nil, nil
	}

	r.parentNodes[issue.DatabaseID] = issue.NodeID
	return &domain.AggregateParent{
		ID:            issue.DatabaseID,
		Title:         issue.Title,
		LinkedItemIDs: issue.SubIssueIDs,
	}, nil
}

// CreateAggregateParent creates the tracking issue and links every member as
// a sub-issue
func (r *Repository) CreateAggregateParent(ctx context.Context, title string, memberIDs []int) (int, error) {
	if r.cfg.TrainRepo == "" {
		return 0, domain.NewConfigError("github.train_repo must be set to reconcile release trains", nil)
	}

	if r.repoNodeID == "" {
		id, err := r.client.RepositoryNodeID(ctx, r.cfg.Owner, r.cfg.TrainRepo)
		if err != nil {
			return 0, domain.NewRepositoryError("failed to resolve the tracking repository", err)
		}
		r.repoNodeID = id
	}

	nodeID, databaseID, err := r.client.CreateTrackingIssue(ctx, r.repoNodeID, title)
	if err != nil {
		return 0, domain.NewRepositoryError(fmt.Sprintf("failed to create release train parent %q", title), err)
	}
	r.parentNodes[databaseID] = nodeID

	if err := r.linkMembers(ctx, nodeID, memberIDs); err != nil {
		return 0, err
	}
	return databaseID, nil
}

// AddLinks links members beneath a parent found or created earlier in this run
func (r *Repository) AddLinks(ctx context.Context, parentID int, memberIDs []int) error {
	if len(memberIDs) == 0 {
		return nil
	}

	parentNode, ok := r.parentNodes[parentID]
	if !ok {
		return domain.NewRepositoryError(fmt.Sprintf("parent %d was not loaded before linking", parentID), nil)
	}
	return r.linkMembers(ctx, parentNode, memberIDs)
}

// UpdateEstimate writes the estimate number field and the status notes text
// field on the member's project item
func (r *Repository) UpdateEstimate(ctx context.Context, id int, value float64, statusNotes string) error {
	if err := r.ensureProject(ctx); err != nil {
		return domain.NewRepositoryError("failed to resolve project board", err)
	}
	if err := r.ensureFieldIDs(ctx); err != nil {
		return err
	}

	itemNode, ok := r.itemNodeIDs[id]
	if !ok {
		return domain.NewRepositoryError(fmt.Sprintf("item %d was not loaded before updating", id), nil)
	}

	swagField, ok := r.fieldIDs[r.cfg.SwagField]
	if !ok {
		return domain.NewConfigError(fmt.Sprintf("project has no field named %q", r.cfg.SwagField), nil)
	}
	notesField, ok := r.fieldIDs[r.cfg.NotesField]
	if !ok {
		return domain.NewConfigError(fmt.Sprintf("project has no field named %q", r.cfg.NotesField), nil)
	}

	if err := r.client.UpdateItemNumberField(ctx, r.projectID, itemNode, swagField, value); err != nil {
		return domain.NewRepositoryError(fmt.Sprintf("failed to update estimate for item %d", id), err)
	}
	if err := r.client.UpdateItemTextField(ctx, r.projectID, itemNode, notesField, statusNotes); err != nil {
		return domain.NewRepositoryError(fmt.Sprintf("failed to update status notes for item %d", id), err)
	}
	return nil
}

func (r *Repository) ensureProject(ctx context.Context) error {
	if r.projectID != "" {
		return nil
	}
	id, err := r.client.ResolveProjectID(ctx, r.cfg.Owner, r.cfg.ProjectNumber)
	if err != nil {
		return err
	}
	r.projectID = id
	return nil
}

func (r *Repository) ensureFieldIDs(ctx context.Context) error {
	if r.fieldIDs != nil {
		return nil
	}
	ids, err := r.client.ProjectFieldIDs(ctx, r.projectID)
	if err != nil {
		return domain.NewRepositoryError("failed to list project fields", err)
	}
	r.fieldIDs = ids
	return nil
}

func (r *Repository) linkMembers(ctx context.Context, parentNode string, memberIDs []int) error {
	for _, memberID := range memberIDs {
		childNode, ok := r.issueNodeIDs[memberID]
		if !ok {
			return domain.NewRepositoryError(fmt.Sprintf("member item %d was not loaded before linking", memberID), nil)
		}
		if err := r.client.AddSubIssue(ctx, parentNode, childNode); err != nil {
			return domain.NewRepositoryError(fmt.Sprintf("failed to link item %d", memberID), err)
		}
	}
	return nil
}

// toDomain maps a project item payload to the domain work item. The board
// status wins over the raw issue state when both are present.
func toDomain(p itemPayload) domain.WorkItem {
	item := domain.WorkItem{
		ID:           p.DatabaseID,
		Title:        p.Title,
		WorkItemType: domain.WorkItemType(p.TypeValue),
		StatusNotes:  p.NotesValue,
		URL:          p.URL,
		Swag:         p.SwagValue,
	}

	switch {
	case p.StatusValue != "":
		item.State = domain.WorkItemState(p.StatusValue)
	case p.IssueState == "CLOSED":
		item.State = domain.WorkItemStateClosed
	default:
		item.State = domain.WorkItemStateNew
	}
	return item
}
