package domain

import (
	"context"
	"io"
	"sort"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatCSV  OutputFormat = "csv"
)

// SortCriteria represents the criteria for sorting audit results
type SortCriteria string

const (
	SortBySeverity SortCriteria = "severity"
	SortByItem     SortCriteria = "item"
	SortByCheck    SortCriteria = "check"
)

// Severity represents how serious a failed hygiene check is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRanks = map[Severity]int{
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// Rank returns the ordering weight of the severity. Higher is more severe;
// unknown severities rank below info.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// CheckResult represents the outcome of one hygiene rule applied to one item
type CheckResult struct {
	ItemID    int          `json:"item_id" yaml:"item_id"`
	ItemTitle string       `json:"item_title" yaml:"item_title"`
	ItemType  WorkItemType `json:"item_type" yaml:"item_type"`
	ItemURL   string       `json:"item_url,omitempty" yaml:"item_url,omitempty"`
	CheckName string       `json:"check_name" yaml:"check_name"`
	Passed    bool         `json:"passed" yaml:"passed"`
	Severity  Severity     `json:"severity" yaml:"severity"`
	Message   string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// CheckGroup represents failed results grouped under one check name
type CheckGroup struct {
	CheckName string        `json:"check_name" yaml:"check_name"`
	Results   []CheckResult `json:"results" yaml:"results"`
}

// CheckSummary provides aggregate statistics over a hygiene audit
type CheckSummary struct {
	ItemsAudited int     `json:"items_audited" yaml:"items_audited"`
	TotalChecks  int     `json:"total_checks" yaml:"total_checks"`
	PassedChecks int     `json:"passed_checks" yaml:"passed_checks"`
	FailedChecks int     `json:"failed_checks" yaml:"failed_checks"`
	HealthScore  float64 `json:"health_score" yaml:"health_score"`

	// Severity distribution of failed checks
	CriticalFailures int `json:"critical_failures" yaml:"critical_failures"`
	ErrorFailures    int `json:"error_failures" yaml:"error_failures"`
	WarningFailures  int `json:"warning_failures" yaml:"warning_failures"`
	InfoFailures     int `json:"info_failures" yaml:"info_failures"`
}

// NewCheckSummary aggregates check results into summary statistics.
// An empty batch is healthy: the score is 100 when no checks ran.
func NewCheckSummary(results []CheckResult, itemsAudited int) CheckSummary {
	summary := CheckSummary{
		ItemsAudited: itemsAudited,
		TotalChecks:  len(results),
	}

	for _, r := range results {
		if r.Passed {
			summary.PassedChecks++
			continue
		}
		summary.FailedChecks++
		switch r.Severity {
		case SeverityCritical:
			summary.CriticalFailures++
		case SeverityError:
			summary.ErrorFailures++
		case SeverityWarning:
			summary.WarningFailures++
		case SeverityInfo:
			summary.InfoFailures++
		}
	}

	if summary.TotalChecks == 0 {
		summary.HealthScore = 100.0
	} else {
		summary.HealthScore = float64(summary.PassedChecks) / float64(summary.TotalChecks) * 100.0
	}
	return summary
}

// GroupFailuresByCheck groups failed results by check name, most populous
// group first. Ties keep first-appearance order; results inside a group keep
// evaluation order.
func GroupFailuresByCheck(results []CheckResult) []CheckGroup {
	groups := make([]CheckGroup, 0)
	index := make(map[string]int)

	for _, r := range results {
		if r.Passed {
			continue
		}
		i, ok := index[r.CheckName]
		if !ok {
			i = len(groups)
			index[r.CheckName] = i
			groups = append(groups, CheckGroup{CheckName: r.CheckName})
		}
		groups[i].Results = append(groups[i].Results, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].Results) > len(groups[j].Results)
	})
	return groups
}

// FailuresBySeverity returns failed results sorted most severe first.
// The sort is stable so evaluation order survives within a severity.
func FailuresBySeverity(results []CheckResult) []CheckResult {
	failures := make([]CheckResult, 0)
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, r)
		}
	}
	sort.SliceStable(failures, func(i, j int) bool {
		return failures[i].Severity.Rank() > failures[j].Severity.Rank()
	})
	return failures
}

// RuleConfig carries the tunable parameters of the hygiene rule battery
type RuleConfig struct {
	TitleMinLength    int
	KnownTypes        []WorkItemType
	KnownStates       []WorkItemState
	States            StateClasses
	EstimateTolerance float64
}

// Rule battery defaults
const (
	DefaultTitleMinLength    = 8
	DefaultEstimateTolerance = 0.1
)

// DefaultRuleConfig returns the standard rule parameters
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		TitleMinLength: DefaultTitleMinLength,
		KnownTypes: []WorkItemType{
			WorkItemTypeEpic,
			WorkItemTypeFeature,
			WorkItemTypeUserStory,
			WorkItemTypeBug,
			WorkItemTypeTask,
		},
		KnownStates: []WorkItemState{
			WorkItemStateNew,
			WorkItemStateActive,
			WorkItemStateResolved,
			WorkItemStateClosed,
			WorkItemStateRemoved,
		},
		States:            DefaultStateClasses(),
		EstimateTolerance: DefaultEstimateTolerance,
	}
}

// AuditRequest represents a request for a backlog hygiene audit
type AuditRequest struct {
	// Backlog source
	Source       SourceKind
	SnapshotPath string

	// Output configuration
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string
	ShowDetails  bool
	SortBy       SortCriteria

	// Audit options
	Rules          RuleConfig
	MinHealthScore float64
	ExcludeClosed  bool

	// Execution options
	Parallel       bool
	MaxConcurrency int

	// Configuration
	ConfigPath string
}

// AuditResponse represents the complete hygiene audit result
type AuditResponse struct {
	Results []CheckResult `json:"results" yaml:"results"`
	Summary CheckSummary  `json:"summary" yaml:"summary"`

	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty" yaml:"errors,omitempty"`

	GeneratedAt string      `json:"generated_at" yaml:"generated_at"`
	Version     string      `json:"version" yaml:"version"`
	Config      interface{} `json:"config,omitempty" yaml:"config,omitempty"`
}

// HygieneService defines the core business logic for backlog hygiene audits
type HygieneService interface {
	// Audit fetches the backlog and evaluates the hygiene rule battery
	Audit(ctx context.Context, req AuditRequest) (*AuditResponse, error)
}

// AuditFormatter defines the interface for formatting audit results
type AuditFormatter interface {
	// Format formats the audit response according to the specified format
	Format(response *AuditResponse, format OutputFormat) (string, error)

	// Write writes the formatted output to the writer
	Write(response *AuditResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader defines the interface for loading audit configuration
type ConfigurationLoader interface {
	// LoadConfig loads configuration from the specified path
	LoadConfig(path string) (*AuditRequest, error)

	// LoadDefaultConfig loads the default configuration
	LoadDefaultConfig() *AuditRequest

	// MergeConfig merges CLI flags with configuration file
	MergeConfig(base *AuditRequest, override *AuditRequest) *AuditRequest
}
