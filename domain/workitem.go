package domain

// WorkItemType represents the kind of a backlog work item
type WorkItemType string

const (
	WorkItemTypeEpic      WorkItemType = "Epic"
	WorkItemTypeFeature   WorkItemType = "Feature"
	WorkItemTypeUserStory WorkItemType = "User Story"
	WorkItemTypeBug       WorkItemType = "Bug"
	WorkItemTypeTask      WorkItemType = "Task"
)

// WorkItemState represents the workflow state of a work item
type WorkItemState string

const (
	WorkItemStateNew      WorkItemState = "New"
	WorkItemStateActive   WorkItemState = "Active"
	WorkItemStateResolved WorkItemState = "Resolved"
	WorkItemStateClosed   WorkItemState = "Closed"
	WorkItemStateRemoved  WorkItemState = "Removed"
)

// SourceKind represents the backlog source a command reads from
type SourceKind string

const (
	SourceAzureDevOps SourceKind = "azdo"
	SourceGitHub      SourceKind = "github"
	SourceSnapshot    SourceKind = "snapshot"
)

// WorkItem represents a single backlog item as fetched from the tracker.
// Swag is nil when the estimate field is unset on the remote item.
type WorkItem struct {
	ID           int           `json:"id" yaml:"id"`
	Title        string        `json:"title" yaml:"title"`
	WorkItemType WorkItemType  `json:"work_item_type" yaml:"work_item_type"`
	State        WorkItemState `json:"state" yaml:"state"`
	Swag         *float64      `json:"swag,omitempty" yaml:"swag,omitempty"`
	StatusNotes  string        `json:"status_notes,omitempty" yaml:"status_notes,omitempty"`
	URL          string        `json:"url,omitempty" yaml:"url,omitempty"`
}

// StateClasses partitions work item states into workflow phases.
// States not listed in either set count as in-progress.
type StateClasses struct {
	Unstarted []WorkItemState
	Closed    []WorkItemState
}

// DefaultStateClasses returns the standard state partition
func DefaultStateClasses() StateClasses {
	return StateClasses{
		Unstarted: []WorkItemState{WorkItemStateNew},
		Closed:    []WorkItemState{WorkItemStateClosed, WorkItemStateRemoved},
	}
}

// IsClosed reports whether the state counts as finished work
func (sc StateClasses) IsClosed(state WorkItemState) bool {
	return containsState(sc.Closed, state)
}

// IsUnstarted reports whether the state counts as not-yet-started work
func (sc StateClasses) IsUnstarted(state WorkItemState) bool {
	return containsState(sc.Unstarted, state)
}

// IsActive reports whether the state counts as in-progress work
func (sc StateClasses) IsActive(state WorkItemState) bool {
	return !sc.IsClosed(state) && !sc.IsUnstarted(state)
}

// IsActiveFeature reports whether the item is an in-progress Feature,
// the population that must carry an estimate.
func (sc StateClasses) IsActiveFeature(item WorkItem) bool {
	return item.WorkItemType == WorkItemTypeFeature && sc.IsActive(item.State)
}

func containsState(states []WorkItemState, state WorkItemState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// Float64Ptr returns a pointer to the given float64 value
func Float64Ptr(v float64) *float64 {
	return &v
}

// BoolPtr returns a pointer to the given bool value
func BoolPtr(v bool) *bool {
	return &v
}
