package hygiene

import (
	"fmt"

	"github.com/boardsweep/boardsweep/domain"
)

// Evaluate runs the fixed rule battery over all items. Results follow input
// order, battery order within each item, so two runs over the same input
// produce identical sequences.
func Evaluate(items []domain.WorkItem, cfg domain.RuleConfig) []domain.CheckResult {
	rules := Battery()
	results := make([]domain.CheckResult, 0, len(items)*len(rules))
	for _, item := range items {
		results = append(results, EvaluateItem(item, rules, cfg)...)
	}
	return results
}

// EvaluateItem runs the given rules over one item, skipping rules that do
// not apply to it
func EvaluateItem(item domain.WorkItem, rules []Rule, cfg domain.RuleConfig) []domain.CheckResult {
	results := make([]domain.CheckResult, 0, len(rules))
	for _, rule := range rules {
		if rule.AppliesTo != nil && !rule.AppliesTo(item, cfg) {
			continue
		}
		results = append(results, runRule(item, rule, cfg))
	}
	return results
}

// runRule evaluates a single rule against a single item. A panicking rule is
// recorded as a failed check instead of aborting the batch.
func runRule(item domain.WorkItem, rule Rule, cfg domain.RuleConfig) (result domain.CheckResult) {
	result = domain.CheckResult{
		ItemID:    item.ID,
		ItemTitle: item.Title,
		ItemType:  item.WorkItemType,
		ItemURL:   item.URL,
		CheckName: rule.Name,
		Severity:  rule.Severity,
	}

	defer func() {
		if r := recover(); r != nil {
			result.Passed = false
			result.Message = fmt.Sprintf("check could not be evaluated: %v", r)
		}
	}()

	passed, severity, message := rule.Evaluate(item, cfg)
	result.Passed = passed
	if !passed {
		result.Message = message
		if severity != "" {
			result.Severity = severity
		}
	}
	return result
}
