package domain

import (
	"context"
	"io"
)

// EstimateIssue represents one finding from estimate validation
type EstimateIssue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// EstimateValidation represents the consistency check of the two estimate
// sources (numeric field and status-notes marker) for a single item
type EstimateValidation struct {
	ItemID       int             `json:"item_id" yaml:"item_id"`
	ItemTitle    string          `json:"item_title" yaml:"item_title"`
	IsConsistent bool            `json:"is_consistent" yaml:"is_consistent"`
	FieldValue   *float64        `json:"field_value,omitempty" yaml:"field_value,omitempty"`
	NotesValue   *float64        `json:"notes_value,omitempty" yaml:"notes_value,omitempty"`
	Issues       []EstimateIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// SwagOutcome represents the desired and applied estimate updates for one item
type SwagOutcome struct {
	ItemID       int     `json:"item_id" yaml:"item_id"`
	ItemTitle    string  `json:"item_title" yaml:"item_title"`
	Value        float64 `json:"value" yaml:"value"`
	FieldUpdated bool    `json:"field_updated" yaml:"field_updated"`
	NotesUpdated bool    `json:"notes_updated" yaml:"notes_updated"`
	Applied      bool    `json:"applied" yaml:"applied"`
	Error        string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// SwagSummary provides aggregate statistics over estimate reconciliation
type SwagSummary struct {
	ItemsProcessed    int `json:"items_processed" yaml:"items_processed"`
	ConsistentItems   int `json:"consistent_items" yaml:"consistent_items"`
	InconsistentItems int `json:"inconsistent_items" yaml:"inconsistent_items"`
	WarningIssues     int `json:"warning_issues" yaml:"warning_issues"`
	InfoIssues        int `json:"info_issues" yaml:"info_issues"`
	UpdatesNeeded     int `json:"updates_needed" yaml:"updates_needed"`
	UpdatesApplied    int `json:"updates_applied" yaml:"updates_applied"`
	UpdateFailures    int `json:"update_failures" yaml:"update_failures"`
}

// SwagRequest represents a request for estimate validation or sync
type SwagRequest struct {
	// Backlog source
	Source       SourceKind
	SnapshotPath string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowDetails  bool

	// Reconciliation options
	Tolerance float64
	States    StateClasses
	DryRun    bool

	// Configuration
	ConfigPath string
}

// SwagResponse represents the complete estimate reconciliation result
type SwagResponse struct {
	Validations []EstimateValidation `json:"validations" yaml:"validations"`
	Outcomes    []SwagOutcome        `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Summary     SwagSummary          `json:"summary" yaml:"summary"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// SwagService defines the core business logic for estimate reconciliation
type SwagService interface {
	// Validate checks estimate consistency across the backlog without writes
	Validate(ctx context.Context, req SwagRequest) (*SwagResponse, error)

	// Sync computes desired estimate values per item and applies them
	// through the repository unless the request is a dry run
	Sync(ctx context.Context, req SwagRequest) (*SwagResponse, error)
}

// SwagFormatter defines the interface for formatting reconciliation results
type SwagFormatter interface {
	Format(response *SwagResponse, format OutputFormat) (string, error)
	Write(response *SwagResponse, format OutputFormat, writer io.Writer) error
}
