package hygiene

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/swag"
)

// Check names as they appear in results and reports
const (
	CheckTitlePresent       = "title-present"
	CheckTitleDescriptive   = "title-descriptive"
	CheckTypeKnown          = "type-known"
	CheckStateKnown         = "state-known"
	CheckURLPresent         = "url-present"
	CheckStatusNotes        = "status-notes-present"
	CheckEstimatePresent    = "swag-present"
	CheckEstimateConsistent = "swag-consistent"
)

// Rule represents one hygiene check over a single work item. AppliesTo
// filters the items a rule evaluates at all; inapplicable pairs produce no
// result. Evaluate may override the rule severity for a failure by returning
// a non-empty severity.
type Rule struct {
	Name     string
	Severity domain.Severity

	AppliesTo func(item domain.WorkItem, cfg domain.RuleConfig) bool
	Evaluate  func(item domain.WorkItem, cfg domain.RuleConfig) (bool, domain.Severity, string)
}

// Battery returns the fixed rule battery in evaluation order
func Battery() []Rule {
	return []Rule{
		{
			Name:     CheckTitlePresent,
			Severity: domain.SeverityCritical,
			Evaluate: func(item domain.WorkItem, _ domain.RuleConfig) (bool, domain.Severity, string) {
				if strings.TrimSpace(item.Title) == "" {
					return false, "", "work item has no title"
				}
				return true, "", ""
			},
		},
		{
			Name:     CheckTitleDescriptive,
			Severity: domain.SeverityWarning,
			AppliesTo: func(item domain.WorkItem, _ domain.RuleConfig) bool {
				return strings.TrimSpace(item.Title) != ""
			},
			Evaluate: func(item domain.WorkItem, cfg domain.RuleConfig) (bool, domain.Severity, string) {
				title := strings.TrimSpace(item.Title)
				if utf8.RuneCountInString(title) < cfg.TitleMinLength {
					return false, "", fmt.Sprintf("title shorter than %d characters: %q", cfg.TitleMinLength, title)
				}
				return true, "", ""
			},
		},
		{
			Name:     CheckTypeKnown,
			Severity: domain.SeverityError,
			Evaluate: func(item domain.WorkItem, cfg domain.RuleConfig) (bool, domain.Severity, string) {
				for _, t := range cfg.KnownTypes {
					if item.WorkItemType == t {
						return true, "", ""
					}
				}
				return false, "", fmt.Sprintf("unknown work item type: %q", item.WorkItemType)
			},
		},
		{
			Name:     CheckStateKnown,
			Severity: domain.SeverityError,
			Evaluate: func(item domain.WorkItem, cfg domain.RuleConfig) (bool, domain.Severity, string) {
				for _, s := range cfg.KnownStates {
					if item.State == s {
						return true, "", ""
					}
				}
				return false, "", fmt.Sprintf("unknown state: %q", item.State)
			},
		},
		{
			Name:     CheckURLPresent,
			Severity: domain.SeverityInfo,
			Evaluate: func(item domain.WorkItem, _ domain.RuleConfig) (bool, domain.Severity, string) {
				if item.URL == "" {
					return false, "", "work item has no link"
				}
				return true, "", ""
			},
		},
		{
			Name:     CheckStatusNotes,
			Severity: domain.SeverityWarning,
			AppliesTo: func(item domain.WorkItem, cfg domain.RuleConfig) bool {
				return cfg.States.IsActive(item.State)
			},
			Evaluate: func(item domain.WorkItem, _ domain.RuleConfig) (bool, domain.Severity, string) {
				if strings.TrimSpace(item.StatusNotes) == "" {
					return false, "", "active item has empty status notes"
				}
				return true, "", ""
			},
		},
		{
			Name:     CheckEstimatePresent,
			Severity: domain.SeverityWarning,
			AppliesTo: func(item domain.WorkItem, cfg domain.RuleConfig) bool {
				return cfg.States.IsActiveFeature(item)
			},
			Evaluate: func(item domain.WorkItem, _ domain.RuleConfig) (bool, domain.Severity, string) {
				if _, ok := swag.Extract(item); !ok {
					return false, "", "active feature has no estimate in field or status notes"
				}
				return true, "", ""
			},
		},
		{
			Name:     CheckEstimateConsistent,
			Severity: domain.SeverityWarning,
			AppliesTo: func(item domain.WorkItem, _ domain.RuleConfig) bool {
				if item.Swag != nil {
					return true
				}
				_, ok := swag.ExtractFromNotes(item.StatusNotes)
				return ok
			},
			Evaluate: func(item domain.WorkItem, cfg domain.RuleConfig) (bool, domain.Severity, string) {
				validation := swag.Validate(item, cfg.States, cfg.EstimateTolerance)
				if len(validation.Issues) == 0 {
					return true, "", ""
				}
				severity := validation.Issues[0].Severity
				messages := make([]string, 0, len(validation.Issues))
				for _, issue := range validation.Issues {
					if issue.Severity.Rank() > severity.Rank() {
						severity = issue.Severity
					}
					messages = append(messages, issue.Message)
				}
				return false, severity, strings.Join(messages, "; ")
			},
		},
	}
}
