package domain

import (
	"context"
	"io"
)

// TrainAction represents the reconciliation action taken for one train group
type TrainAction string

const (
	TrainActionCreated TrainAction = "created"
	TrainActionUpdated TrainAction = "updated"
	TrainActionFailed  TrainAction = "failed"
)

// AggregateParent represents an existing release-train parent item and the
// member items already linked under it
type AggregateParent struct {
	ID            int    `json:"id" yaml:"id"`
	Title         string `json:"title" yaml:"title"`
	LinkedItemIDs []int  `json:"linked_item_ids" yaml:"linked_item_ids"`
}

// TrainOperation represents the outcome of reconciling one release train
type TrainOperation struct {
	GroupKey          string      `json:"group_key" yaml:"group_key"`
	ParentID          int         `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	ParentTitle       string      `json:"parent_title" yaml:"parent_title"`
	Action            TrainAction `json:"action" yaml:"action"`
	MemberIDs         []int       `json:"member_ids" yaml:"member_ids"`
	NewRelationsAdded int         `json:"new_relations_added" yaml:"new_relations_added"`
	Error             string      `json:"error,omitempty" yaml:"error,omitempty"`
}

// TrainSummary provides aggregate statistics over a reconciliation run.
// BacklogReadSuccessfully is false only when the initial fetch failed, in
// which case no group work ran at all.
type TrainSummary struct {
	BacklogReadSuccessfully    bool `json:"backlog_read_successfully" yaml:"backlog_read_successfully"`
	TotalBacklogItemsProcessed int  `json:"total_backlog_items_processed" yaml:"total_backlog_items_processed"`
	MatchedItems               int  `json:"matched_items" yaml:"matched_items"`
	TotalGroups                int  `json:"total_groups" yaml:"total_groups"`
	TrainsCreated              int  `json:"trains_created" yaml:"trains_created"`
	TrainsUpdated              int  `json:"trains_updated" yaml:"trains_updated"`
	TrainsFailed               int  `json:"trains_failed" yaml:"trains_failed"`
	NewRelationsAdded          int  `json:"new_relations_added" yaml:"new_relations_added"`
}

// NewTrainSummary aggregates per-group operations into summary statistics
func NewTrainSummary(operations []TrainOperation, itemsProcessed, matchedItems int, readOK bool) TrainSummary {
	summary := TrainSummary{
		BacklogReadSuccessfully:    readOK,
		TotalBacklogItemsProcessed: itemsProcessed,
		MatchedItems:               matchedItems,
		TotalGroups:                len(operations),
	}
	for _, op := range operations {
		switch op.Action {
		case TrainActionCreated:
			summary.TrainsCreated++
		case TrainActionUpdated:
			summary.TrainsUpdated++
		case TrainActionFailed:
			summary.TrainsFailed++
		}
		summary.NewRelationsAdded += op.NewRelationsAdded
	}
	return summary
}

// TrainRequest represents a request for release-train reconciliation
type TrainRequest struct {
	// Backlog source
	Source       SourceKind
	SnapshotPath string

	// Grouping contract
	TitlePattern      string
	ParentTitleFormat string
	ParentType        WorkItemType

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowDetails  bool

	// Execution options
	DryRun bool

	// Configuration
	ConfigPath string
}

// TrainResponse represents the complete reconciliation result
type TrainResponse struct {
	Operations []TrainOperation `json:"operations" yaml:"operations"`
	Summary    TrainSummary     `json:"summary" yaml:"summary"`
	DryRun     bool             `json:"dry_run" yaml:"dry_run"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// TrainService defines the core business logic for release-train reconciliation
type TrainService interface {
	// Reconcile groups backlog items into release trains and ensures each
	// train has an aggregate parent linked to all its members
	Reconcile(ctx context.Context, req TrainRequest) (*TrainResponse, error)
}

// TrainFormatter defines the interface for formatting reconciliation results
type TrainFormatter interface {
	Format(response *TrainResponse, format OutputFormat) (string, error)
	Write(response *TrainResponse, format OutputFormat, writer io.Writer) error
}

// WorkItemRepository abstracts the work-item tracker backing a batch run.
// Implementations own transport concerns such as auth, paging and retries;
// callers treat every method as a single logical operation.
type WorkItemRepository interface {
	// FetchWorkItems reads the backlog subset configured for this repository
	FetchWorkItems(ctx context.Context) ([]WorkItem, error)

	// FindAggregateParent looks up the parent item for a release-train group
	// key. It returns nil without error when no parent exists yet.
	FindAggregateParent(ctx context.Context, groupKey string) (*AggregateParent, error)

	// CreateAggregateParent creates a new parent item with the given title
	// and links all member items beneath it, returning the new parent ID
	CreateAggregateParent(ctx context.Context, title string, memberIDs []int) (int, error)

	// AddLinks links the given members beneath an existing parent
	AddLinks(ctx context.Context, parentID int, memberIDs []int) error

	// UpdateEstimate writes the reconciled estimate field and status notes
	// back to one item
	UpdateEstimate(ctx context.Context, id int, value float64, statusNotes string) error
}

// ErrorReporter receives non-fatal failures as they happen. Scope names the
// item or group the failure belongs to.
type ErrorReporter interface {
	Report(scope string, err error)
}

// NoOpErrorReporter discards all reports
type NoOpErrorReporter struct{}

// Report is a no-op
func (NoOpErrorReporter) Report(string, error) {}
