package service

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/boardsweep/boardsweep/domain"
	"github.com/boardsweep/boardsweep/internal/swag"
)

// WriteJSON writes data as JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// WriteYAML writes data as YAML to the writer
func WriteYAML(writer io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return err
	}
	return encoder.Close()
}

func severityIndicator(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return " [CRITICAL]"
	case domain.SeverityError:
		return " [ERROR]"
	case domain.SeverityWarning:
		return " [WARNING]"
	case domain.SeverityInfo:
		return " [INFO]"
	}
	return ""
}

func joinIntIDs(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

func formatOptionalEstimate(value *float64) string {
	if value == nil {
		return "none"
	}
	return swag.Format(*value)
}

// AuditFormatterImpl implements the AuditFormatter interface
type AuditFormatterImpl struct {
	sortBy      domain.SortCriteria
	showDetails bool
}

// NewAuditFormatter creates an audit formatter. The sort criteria only
// affects the text report; structured formats keep evaluation order.
func NewAuditFormatter(sortBy domain.SortCriteria, showDetails bool) *AuditFormatterImpl {
	return &AuditFormatterImpl{sortBy: sortBy, showDetails: showDetails}
}

// Format formats the audit response according to the specified format
func (f *AuditFormatterImpl) Format(response *domain.AuditResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the formatted output to the writer
func (f *AuditFormatterImpl) Write(response *domain.AuditResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeCSV writes every check result as one row, in evaluation order
func (f *AuditFormatterImpl) writeCSV(response *domain.AuditResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"item_id", "item_title", "item_type", "check_name", "passed", "severity", "message"}); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}
	for _, r := range response.Results {
		record := []string{
			strconv.Itoa(r.ItemID),
			r.ItemTitle,
			string(r.ItemType),
			r.CheckName,
			strconv.FormatBool(r.Passed),
			string(r.Severity),
			r.Message,
		}
		if err := w.Write(record); err != nil {
			return domain.NewOutputError("failed to write CSV record", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV output", err)
	}
	return nil
}

// writeText writes the audit response as plain text
func (f *AuditFormatterImpl) writeText(response *domain.AuditResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Backlog Hygiene Audit ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", response.Version)

	// Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Items audited: %d\n", response.Summary.ItemsAudited)
	fmt.Fprintf(writer, "  Total checks: %d\n", response.Summary.TotalChecks)
	fmt.Fprintf(writer, "  Passed: %d\n", response.Summary.PassedChecks)
	fmt.Fprintf(writer, "  Failed: %d\n", response.Summary.FailedChecks)
	fmt.Fprintf(writer, "  Health score: %.1f\n", response.Summary.HealthScore)
	fmt.Fprintf(writer, "\n")

	// Severity distribution
	fmt.Fprintf(writer, "Severity Distribution:\n")
	fmt.Fprintf(writer, "  Critical: %d\n", response.Summary.CriticalFailures)
	fmt.Fprintf(writer, "  Error: %d\n", response.Summary.ErrorFailures)
	fmt.Fprintf(writer, "  Warning: %d\n", response.Summary.WarningFailures)
	fmt.Fprintf(writer, "  Info: %d\n", response.Summary.InfoFailures)
	fmt.Fprintf(writer, "\n")

	if response.Summary.FailedChecks == 0 {
		fmt.Fprintf(writer, "All checks passed.\n")
	} else {
		switch f.sortBy {
		case domain.SortBySeverity:
			f.writeFailuresBySeverity(response, writer)
		case domain.SortByItem:
			f.writeFailuresByItem(response, writer)
		default:
			f.writeFailuresByCheck(response, writer)
		}
	}

	// Warnings
	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	// Errors
	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

func (f *AuditFormatterImpl) writeFailuresByCheck(response *domain.AuditResponse, writer io.Writer) {
	fmt.Fprintf(writer, "Failed Checks by Rule:\n")
	for _, group := range domain.GroupFailuresByCheck(response.Results) {
		fmt.Fprintf(writer, "  %s (%d):\n", group.CheckName, len(group.Results))
		for _, r := range group.Results {
			fmt.Fprintf(writer, "    #%d %s: %s%s\n", r.ItemID, r.ItemTitle, r.Message, severityIndicator(r.Severity))
			f.writeFailureDetails(r, writer)
		}
	}
}

func (f *AuditFormatterImpl) writeFailuresBySeverity(response *domain.AuditResponse, writer io.Writer) {
	fmt.Fprintf(writer, "Failed Checks (most severe first):\n")
	for _, r := range domain.FailuresBySeverity(response.Results) {
		fmt.Fprintf(writer, "  #%d %s: %s (%s)%s\n", r.ItemID, r.ItemTitle, r.Message, r.CheckName, severityIndicator(r.Severity))
		f.writeFailureDetails(r, writer)
	}
}

// writeFailuresByItem groups failures under their item. Results arrive in
// evaluation order, so one item's checks are always consecutive.
func (f *AuditFormatterImpl) writeFailuresByItem(response *domain.AuditResponse, writer io.Writer) {
	fmt.Fprintf(writer, "Failed Checks by Item:\n")
	lastItemID := 0
	headerWritten := false
	for _, r := range response.Results {
		if r.Passed {
			continue
		}
		if !headerWritten || r.ItemID != lastItemID {
			fmt.Fprintf(writer, "  #%d %s:\n", r.ItemID, r.ItemTitle)
			lastItemID = r.ItemID
			headerWritten = true
		}
		fmt.Fprintf(writer, "    %s (%s)%s\n", r.Message, r.CheckName, severityIndicator(r.Severity))
		f.writeFailureDetails(r, writer)
	}
}

func (f *AuditFormatterImpl) writeFailureDetails(r domain.CheckResult, writer io.Writer) {
	if f.showDetails && r.ItemURL != "" {
		fmt.Fprintf(writer, "      URL: %s\n", r.ItemURL)
	}
}

// SwagFormatterImpl implements the SwagFormatter interface
type SwagFormatterImpl struct {
	showDetails bool
}

// NewSwagFormatter creates an estimate reconciliation formatter
func NewSwagFormatter(showDetails bool) *SwagFormatterImpl {
	return &SwagFormatterImpl{showDetails: showDetails}
}

// Format formats the reconciliation response according to the specified format
func (f *SwagFormatterImpl) Format(response *domain.SwagResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the formatted output to the writer
func (f *SwagFormatterImpl) Write(response *domain.SwagResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeCSV writes outcome rows when a sync produced them, otherwise one row
// per validation
func (f *SwagFormatterImpl) writeCSV(response *domain.SwagResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if len(response.Outcomes) > 0 {
		if err := w.Write([]string{"item_id", "item_title", "value", "field_updated", "notes_updated", "applied", "error"}); err != nil {
			return domain.NewOutputError("failed to write CSV header", err)
		}
		for _, o := range response.Outcomes {
			record := []string{
				strconv.Itoa(o.ItemID),
				o.ItemTitle,
				swag.Format(o.Value),
				strconv.FormatBool(o.FieldUpdated),
				strconv.FormatBool(o.NotesUpdated),
				strconv.FormatBool(o.Applied),
				o.Error,
			}
			if err := w.Write(record); err != nil {
				return domain.NewOutputError("failed to write CSV record", err)
			}
		}
	} else {
		if err := w.Write([]string{"item_id", "item_title", "consistent", "field_value", "notes_value", "issues"}); err != nil {
			return domain.NewOutputError("failed to write CSV header", err)
		}
		for _, v := range response.Validations {
			messages := make([]string, len(v.Issues))
			for i, issue := range v.Issues {
				messages[i] = issue.Message
			}
			record := []string{
				strconv.Itoa(v.ItemID),
				v.ItemTitle,
				strconv.FormatBool(v.IsConsistent),
				formatOptionalEstimate(v.FieldValue),
				formatOptionalEstimate(v.NotesValue),
				strings.Join(messages, "; "),
			}
			if err := w.Write(record); err != nil {
				return domain.NewOutputError("failed to write CSV record", err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV output", err)
	}
	return nil
}

// writeText writes the reconciliation response as plain text
func (f *SwagFormatterImpl) writeText(response *domain.SwagResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== SWAG Estimate Reconciliation ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n\n", response.Version)

	// Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Items processed: %d\n", response.Summary.ItemsProcessed)
	fmt.Fprintf(writer, "  Consistent: %d\n", response.Summary.ConsistentItems)
	fmt.Fprintf(writer, "  Inconsistent: %d\n", response.Summary.InconsistentItems)
	fmt.Fprintf(writer, "  Updates needed: %d\n", response.Summary.UpdatesNeeded)
	fmt.Fprintf(writer, "  Updates applied: %d\n", response.Summary.UpdatesApplied)
	fmt.Fprintf(writer, "  Update failures: %d\n", response.Summary.UpdateFailures)
	fmt.Fprintf(writer, "\n")

	// Issue distribution
	fmt.Fprintf(writer, "Issue Distribution:\n")
	fmt.Fprintf(writer, "  Warning: %d\n", response.Summary.WarningIssues)
	fmt.Fprintf(writer, "  Info: %d\n", response.Summary.InfoIssues)
	fmt.Fprintf(writer, "\n")

	f.writeInconsistentItems(response, writer)
	f.writeOutcomes(response, writer)

	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}

func (f *SwagFormatterImpl) writeInconsistentItems(response *domain.SwagResponse, writer io.Writer) {
	if response.Summary.InconsistentItems == 0 {
		fmt.Fprintf(writer, "All estimates consistent.\n")
		return
	}

	fmt.Fprintf(writer, "Inconsistent Items:\n")
	for _, v := range response.Validations {
		if v.IsConsistent {
			continue
		}
		fmt.Fprintf(writer, "  #%d %s: field=%s notes=%s\n",
			v.ItemID, v.ItemTitle,
			formatOptionalEstimate(v.FieldValue), formatOptionalEstimate(v.NotesValue))
		if f.showDetails {
			for _, issue := range v.Issues {
				fmt.Fprintf(writer, "    - %s%s\n", issue.Message, severityIndicator(issue.Severity))
			}
		}
	}
}

func (f *SwagFormatterImpl) writeOutcomes(response *domain.SwagResponse, writer io.Writer) {
	if len(response.Outcomes) == 0 {
		return
	}

	fmt.Fprintf(writer, "\nUpdates:\n")
	for _, o := range response.Outcomes {
		targets := make([]string, 0, 2)
		if o.FieldUpdated {
			targets = append(targets, "field")
		}
		if o.NotesUpdated {
			targets = append(targets, "notes")
		}
		status := "pending"
		if o.Applied {
			status = "applied"
		}
		if o.Error != "" {
			status = "failed: " + o.Error
		}
		fmt.Fprintf(writer, "  #%d %s: %s (%s) %s\n",
			o.ItemID, o.ItemTitle, swag.Format(o.Value), strings.Join(targets, ", "), status)
	}
}

// TrainFormatterImpl implements the TrainFormatter interface
type TrainFormatterImpl struct {
	showDetails bool
}

// NewTrainFormatter creates a release-train reconciliation formatter
func NewTrainFormatter(showDetails bool) *TrainFormatterImpl {
	return &TrainFormatterImpl{showDetails: showDetails}
}

// Format formats the reconciliation response according to the specified format
func (f *TrainFormatterImpl) Format(response *domain.TrainResponse, format domain.OutputFormat) (string, error) {
	var sb strings.Builder
	if err := f.Write(response, format, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Write writes the formatted output to the writer
func (f *TrainFormatterImpl) Write(response *domain.TrainResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatYAML:
		return WriteYAML(writer, response)
	case domain.OutputFormatCSV:
		return f.writeCSV(response, writer)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return domain.NewUnsupportedFormatError(string(format))
	}
}

// writeCSV writes one row per reconciled train
func (f *TrainFormatterImpl) writeCSV(response *domain.TrainResponse, writer io.Writer) error {
	w := csv.NewWriter(writer)
	if err := w.Write([]string{"group_key", "parent_id", "parent_title", "action", "member_ids", "new_relations_added", "error"}); err != nil {
		return domain.NewOutputError("failed to write CSV header", err)
	}
	for _, op := range response.Operations {
		parentID := ""
		if op.ParentID != 0 {
			parentID = strconv.Itoa(op.ParentID)
		}
		record := []string{
			op.GroupKey,
			parentID,
			op.ParentTitle,
			string(op.Action),
			joinIntIDs(op.MemberIDs, " "),
			strconv.Itoa(op.NewRelationsAdded),
			op.Error,
		}
		if err := w.Write(record); err != nil {
			return domain.NewOutputError("failed to write CSV record", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return domain.NewOutputError("failed to flush CSV output", err)
	}
	return nil
}

// writeText writes the reconciliation response as plain text
func (f *TrainFormatterImpl) writeText(response *domain.TrainResponse, writer io.Writer) error {
	fmt.Fprintf(writer, "\n=== Release Train Reconciliation ===\n\n")
	fmt.Fprintf(writer, "Generated: %s\n", response.GeneratedAt)
	fmt.Fprintf(writer, "Version: %s\n", response.Version)
	if response.DryRun {
		fmt.Fprintf(writer, "Dry run: no changes were written\n")
	}
	fmt.Fprintf(writer, "\n")

	// Summary
	backlogRead := "ok"
	if !response.Summary.BacklogReadSuccessfully {
		backlogRead = "failed"
	}
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Backlog read: %s\n", backlogRead)
	fmt.Fprintf(writer, "  Items processed: %d\n", response.Summary.TotalBacklogItemsProcessed)
	fmt.Fprintf(writer, "  Matched items: %d\n", response.Summary.MatchedItems)
	fmt.Fprintf(writer, "  Train groups: %d\n", response.Summary.TotalGroups)
	fmt.Fprintf(writer, "  Created: %d\n", response.Summary.TrainsCreated)
	fmt.Fprintf(writer, "  Updated: %d\n", response.Summary.TrainsUpdated)
	fmt.Fprintf(writer, "  Failed: %d\n", response.Summary.TrainsFailed)
	fmt.Fprintf(writer, "  New links: %d\n", response.Summary.NewRelationsAdded)
	fmt.Fprintf(writer, "\n")

	if len(response.Operations) > 0 {
		fmt.Fprintf(writer, "Operations:\n")
		for _, op := range response.Operations {
			parentRef := ""
			if op.ParentID != 0 {
				parentRef = fmt.Sprintf(" (#%d)", op.ParentID)
			}
			fmt.Fprintf(writer, "  [%s] %s: %s%s members=%d new_links=%d\n",
				strings.ToUpper(string(op.Action)), op.GroupKey, op.ParentTitle, parentRef,
				len(op.MemberIDs), op.NewRelationsAdded)
			if op.Error != "" {
				fmt.Fprintf(writer, "    error: %s\n", op.Error)
			}
			if f.showDetails && len(op.MemberIDs) > 0 {
				fmt.Fprintf(writer, "    members: %s\n", joinIntIDs(op.MemberIDs, ", "))
			}
		}
	} else if response.Summary.BacklogReadSuccessfully {
		fmt.Fprintf(writer, "No release train items found.\n")
	}

	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "\nWarnings:\n")
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
	}

	if len(response.Errors) > 0 {
		fmt.Fprintf(writer, "\nErrors:\n")
		for _, e := range response.Errors {
			fmt.Fprintf(writer, "  - %s\n", e)
		}
	}

	return nil
}
