// Package snapshot implements the work item repository over a local backlog
// file. Runs against a snapshot never reach a live tracker; writes stay in
// memory where dry runs and tests can observe them.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/boardsweep/boardsweep/domain"
	"gopkg.in/yaml.v3"
)

// backlogFile is the on-disk snapshot schema
type backlogFile struct {
	Items   []backlogItem   `json:"items" yaml:"items"`
	Parents []backlogParent `json:"parents,omitempty" yaml:"parents,omitempty"`
}

type backlogItem struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Type        string   `json:"type" yaml:"type"`
	State       string   `json:"state" yaml:"state"`
	Swag        *float64 `json:"swag,omitempty" yaml:"swag,omitempty"`
	StatusNotes string   `json:"status_notes,omitempty" yaml:"status_notes,omitempty"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
}

type backlogParent struct {
	ID            int    `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	LinkedItemIDs []int  `json:"linked_ids,omitempty" yaml:"linked_ids,omitempty"`
}

// EstimateWrite records one estimate update applied to the snapshot
type EstimateWrite struct {
	ID          int
	Value       float64
	StatusNotes string
}

// ParentCreate records one aggregate parent created in the snapshot
type ParentCreate struct {
	ID        int
	Title     string
	MemberIDs []int
}

// LinkAdd records members linked beneath an existing parent
type LinkAdd struct {
	ParentID  int
	MemberIDs []int
}

// Repository implements domain.WorkItemRepository over a snapshot file
type Repository struct {
	path              string
	parentTitleFormat string

	items   []domain.WorkItem
	parents []domain.AggregateParent

	estimateWrites []EstimateWrite
	parentCreates  []ParentCreate
	linkAdds       []LinkAdd
}

// NewRepository loads a snapshot file. The extension selects the codec:
// .yaml/.yml or .json.
func NewRepository(path, parentTitleFormat string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewSnapshotError(path, err)
	}

	var file backlogFile
	if err := decode(path, data, &file); err != nil {
		return nil, domain.NewSnapshotError(path, err)
	}

	repo := &Repository{
		path:              path,
		parentTitleFormat: parentTitleFormat,
	}
	for _, it := range file.Items {
		repo.items = append(repo.items, domain.WorkItem{
			ID:           it.ID,
			Title:        it.Title,
			WorkItemType: domain.WorkItemType(it.Type),
			State:        domain.WorkItemState(it.State),
			Swag:         it.Swag,
			StatusNotes:  it.StatusNotes,
			URL:          it.URL,
		})
	}
	for _, p := range file.Parents {
		repo.parents = append(repo.parents, domain.AggregateParent{
			ID:            p.ID,
			Title:         p.Title,
			LinkedItemIDs: append([]int(nil), p.LinkedItemIDs...),
		})
	}
	return repo, nil
}

func decode(path string, data []byte, out *backlogFile) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	case ".json":
		return json.Unmarshal(data, out)
	default:
		return fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

// FetchWorkItems returns the snapshot items including any estimate updates
// applied since loading
func (r *Repository) FetchWorkItems(ctx context.Context) ([]domain.WorkItem, error) {
	items := make([]domain.WorkItem, len(r.items))
	copy(items, r.items)
	return items, nil
}

// FindAggregateParent looks for a parent titled for the group key. Returns
// nil without error when the snapshot has none.
func (r *Repository) FindAggregateParent(ctx context.Context, groupKey string) (*domain.AggregateParent, error) {
	title := fmt.Sprintf(r.parentTitleFormat, groupKey)
	for i := range r.parents {
		if r.parents[i].Title != title {
			continue
		}
		parent := r.parents[i]
		parent.LinkedItemIDs = append([]int(nil), r.parents[i].LinkedItemIDs...)
		return &parent, nil
	}
	return nil, nil
}

// CreateAggregateParent adds a parent to the snapshot with all members linked
func (r *Repository) CreateAggregateParent(ctx context.Context, title string, memberIDs []int) (int, error) {
	id := r.nextID()
	members := append([]int(nil), memberIDs...)
	r.parents = append(r.parents, domain.AggregateParent{
		ID:            id,
		Title:         title,
		LinkedItemIDs: members,
	})
	r.parentCreates = append(r.parentCreates, ParentCreate{ID: id, Title: title, MemberIDs: members})
	return id, nil
}

// AddLinks links members beneath an existing parent
func (r *Repository) AddLinks(ctx context.Context, parentID int, memberIDs []int) error {
	if len(memberIDs) == 0 {
		return nil
	}
	for i := range r.parents {
		if r.parents[i].ID != parentID {
			continue
		}
		r.parents[i].LinkedItemIDs = append(r.parents[i].LinkedItemIDs, memberIDs...)
		r.linkAdds = append(r.linkAdds, LinkAdd{
			ParentID:  parentID,
			MemberIDs: append([]int(nil), memberIDs...),
		})
		return nil
	}
	return domain.NewRepositoryError(fmt.Sprintf("parent %d not found in snapshot", parentID), nil)
}

// UpdateEstimate applies the estimate and notes to the in-memory item
func (r *Repository) UpdateEstimate(ctx context.Context, id int, value float64, statusNotes string) error {
	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		r.items[i].Swag = domain.Float64Ptr(value)
		r.items[i].StatusNotes = statusNotes
		r.estimateWrites = append(r.estimateWrites, EstimateWrite{ID: id, Value: value, StatusNotes: statusNotes})
		return nil
	}
	return domain.NewRepositoryError(fmt.Sprintf("item %d not found in snapshot", id), nil)
}

// EstimateWrites returns the estimate updates recorded so far
func (r *Repository) EstimateWrites() []EstimateWrite {
	return append([]EstimateWrite(nil), r.estimateWrites...)
}

// ParentCreates returns the parents created so far
func (r *Repository) ParentCreates() []ParentCreate {
	return append([]ParentCreate(nil), r.parentCreates...)
}

// LinkAdds returns the link additions recorded so far
func (r *Repository) LinkAdds() []LinkAdd {
	return append([]LinkAdd(nil), r.linkAdds...)
}

func (r *Repository) nextID() int {
	next := 1
	for _, item := range r.items {
		if item.ID >= next {
			next = item.ID + 1
		}
	}
	for _, parent := range r.parents {
		if parent.ID >= next {
			next = parent.ID + 1
		}
	}
	return next
}
