package swag

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/boardsweep/boardsweep/domain"
)

// prefixPattern matches the estimate marker at the start of status notes.
// The SWAG keyword is case-sensitive; whitespace inside the brackets is not
// significant.
var prefixPattern = regexp.MustCompile(`^\[\s*SWAG:\s*([0-9]+(?:\.[0-9]+)?)\s*\]`)

// Extract returns the effective estimate for an item. The numeric field wins
// when present; otherwise the status-notes marker is parsed. A malformed
// marker is treated as absent.
func Extract(item domain.WorkItem) (float64, bool) {
	if item.Swag != nil {
		return *item.Swag, true
	}
	return ExtractFromNotes(item.StatusNotes)
}

// ExtractFromNotes parses the estimate marker prefix from status notes
func ExtractFromNotes(notes string) (float64, bool) {
	m := prefixPattern.FindStringSubmatch(notes)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Format renders an estimate value the way it is written into markers and
// reports: whole values without decimals, everything else with exactly one
// decimal place.
func Format(value float64) string {
	if value == math.Trunc(value) {
		return strconv.FormatFloat(value, 'f', 0, 64)
	}
	return strconv.FormatFloat(value, 'f', 1, 64)
}

// BuildPrefixedNotes returns the status notes carrying the canonical marker
// for value. Any existing marker is replaced, the remaining free text is
// preserved.
func BuildPrefixedNotes(value float64, notes string) string {
	rest := StripPrefix(notes)
	token := fmt.Sprintf("[SWAG: %s]", Format(value))
	if rest == "" {
		return token
	}
	return token + " " + rest
}

// StripPrefix removes the estimate marker and the whitespace separating it
// from the remaining text. Stacked markers are all removed so the result
// never starts with one; stripping is idempotent. Text without a marker is
// returned unchanged.
func StripPrefix(notes string) string {
	for {
		loc := prefixPattern.FindStringIndex(notes)
		if loc == nil {
			return notes
		}
		notes = strings.TrimLeftFunc(notes[loc[1]:], unicode.IsSpace)
	}
}

// Validate checks the consistency of the two estimate sources for one item.
// Disagreement between the sources is the only inconsistent state; a missing
// marker or missing field yields an advisory issue, and a fully absent
// estimate is only an issue for items that must carry one (active Features).
func Validate(item domain.WorkItem, states domain.StateClasses, tolerance float64) domain.EstimateValidation {
	result := domain.EstimateValidation{
		ItemID:       item.ID,
		ItemTitle:    item.Title,
		IsConsistent: true,
	}
	if item.Swag != nil {
		field := *item.Swag
		result.FieldValue = &field
	}
	if notes, ok := ExtractFromNotes(item.StatusNotes); ok {
		result.NotesValue = &notes
	}

	switch {
	case result.FieldValue != nil && result.NotesValue != nil:
		if math.Abs(*result.FieldValue-*result.NotesValue) > tolerance {
			result.IsConsistent = false
			result.Issues = append(result.Issues, domain.EstimateIssue{
				Severity: domain.SeverityWarning,
				Message: fmt.Sprintf("estimate mismatch: field=%s, notes=%s",
					Format(*result.FieldValue), Format(*result.NotesValue)),
			})
		}
	case result.FieldValue != nil:
		result.Issues = append(result.Issues, domain.EstimateIssue{
			Severity: domain.SeverityInfo,
			Message:  fmt.Sprintf("estimate marker missing from status notes (field=%s)", Format(*result.FieldValue)),
		})
	case result.NotesValue != nil:
		result.Issues = append(result.Issues, domain.EstimateIssue{
			Severity: domain.SeverityWarning,
			Message:  fmt.Sprintf("estimate field not set (notes marker=%s)", Format(*result.NotesValue)),
		})
	default:
		if states.IsActiveFeature(item) {
			result.Issues = append(result.Issues, domain.EstimateIssue{
				Severity: domain.SeverityWarning,
				Message:  "active feature has no estimate in field or status notes",
			})
		}
	}
	return result
}

// NeedsUpdate reports whether a stored estimate must be rewritten to match
// the proposed value. Differences within tolerance are left alone so that
// rounding noise does not cause write churn.
func NeedsUpdate(current *float64, proposed float64, tolerance float64) bool {
	if current == nil {
		return true
	}
	return math.Abs(*current-proposed) > tolerance
}
