package swag

import (
	"testing"

	"github.com/boardsweep/boardsweep/domain"
)

func TestFormat(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{3.0, "3"},
		{3.5, "3.5"},
		{0, "0"},
		{0.5, "0.5"},
		{42, "42"},
		{2.3, "2.3"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			got := Format(tc.value)
			if got != tc.expected {
				t.Errorf("Expected Format(%v) = %s, got %s", tc.value, tc.expected, got)
			}
		})
	}
}

func TestExtractFromNotes(t *testing.T) {
	testCases := []struct {
		name     string
		notes    string
		expected float64
		found    bool
	}{
		{"simple marker", "[SWAG: 5] on track", 5, true},
		{"marker only", "[SWAG: 3.5]", 3.5, true},
		{"inner whitespace", "[  SWAG:  2  ] follow-up scheduled", 2, true},
		{"no space after colon", "[SWAG:7]", 7, true},
		{"no marker", "plain status notes", 0, false},
		{"marker not at start", "blocked [SWAG: 5]", 0, false},
		{"lowercase keyword", "[swag: 5] text", 0, false},
		{"malformed value", "[SWAG: soon]", 0, false},
		{"empty notes", "", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractFromNotes(tc.notes)
			if ok != tc.found {
				t.Fatalf("Expected found=%v, got %v", tc.found, ok)
			}
			if ok && got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestExtract_FieldWins(t *testing.T) {
	item := domain.WorkItem{
		Swag:        domain.Float64Ptr(5),
		StatusNotes: "[SWAG: 3] field and notes disagree",
	}

	got, ok := Extract(item)
	if !ok {
		t.Fatal("Expected an estimate to be found")
	}
	if got != 5 {
		t.Errorf("Field value should win over notes, expected 5, got %v", got)
	}
}

func TestExtract_FallsBackToNotes(t *testing.T) {
	item := domain.WorkItem{StatusNotes: "[SWAG: 3.5] field unset"}

	got, ok := Extract(item)
	if !ok {
		t.Fatal("Expected an estimate to be found")
	}
	if got != 3.5 {
		t.Errorf("Expected 3.5 from notes, got %v", got)
	}
}

func TestExtract_NoSources(t *testing.T) {
	item := domain.WorkItem{StatusNotes: "no estimate anywhere"}

	if _, ok := Extract(item); ok {
		t.Error("Expected no estimate to be found")
	}
}

func TestBuildPrefixedNotes(t *testing.T) {
	testCases := []struct {
		name     string
		value    float64
		notes    string
		expected string
	}{
		{"replaces existing marker", 5, "[SWAG: 3] old note", "[SWAG: 5] old note"},
		{"prepends to plain notes", 2, "needs design review", "[SWAG: 2] needs design review"},
		{"empty notes", 3.5, "", "[SWAG: 3.5]"},
		{"marker-only notes", 4, "[SWAG: 1]", "[SWAG: 4]"},
		{"stacked markers collapse", 6, "[SWAG: 1] [SWAG: 2] note", "[SWAG: 6] note"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildPrefixedNotes(tc.value, tc.notes)
			if got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
		})
	}
}

func TestStripPrefix(t *testing.T) {
	testCases := []struct {
		name     string
		notes    string
		expected string
	}{
		{"marker with text", "[SWAG: 5] remaining text", "remaining text"},
		{"marker only", "[SWAG: 5]", ""},
		{"no marker", "nothing to strip", "nothing to strip"},
		{"marker mid-text untouched", "see [SWAG: 5] above", "see [SWAG: 5] above"},
		{"stacked markers", "[SWAG: 1] [SWAG: 2] note", "note"},
		{"empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := StripPrefix(tc.notes)
			if got != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, got)
			}
			// Stripping twice must change nothing further
			if again := StripPrefix(got); again != got {
				t.Errorf("StripPrefix is not idempotent: '%s' then '%s'", got, again)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	values := []float64{1, 3.5, 0.5, 40, 2.3}

	for _, v := range values {
		notes := BuildPrefixedNotes(v, "launch checklist in progress")
		item := domain.WorkItem{StatusNotes: notes}

		got, ok := Extract(item)
		if !ok {
			t.Fatalf("Expected to extract %v from '%s'", v, notes)
		}
		if got != v {
			t.Errorf("Round trip lost the value: wrote %v, read %v", v, got)
		}
	}
}

func TestNeedsUpdate(t *testing.T) {
	testCases := []struct {
		name     string
		current  *float64
		proposed float64
		expected bool
	}{
		{"missing current", nil, 5.0, true},
		{"within tolerance", domain.Float64Ptr(5.0), 5.05, false},
		{"beyond tolerance", domain.Float64Ptr(5.0), 5.2, true},
		{"identical", domain.Float64Ptr(3.5), 3.5, false},
		{"large drift", domain.Float64Ptr(1), 13, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := NeedsUpdate(tc.current, tc.proposed, 0.1)
			if got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestValidate_BothAgree(t *testing.T) {
	item := domain.WorkItem{
		ID:          1,
		Swag:        domain.Float64Ptr(5),
		StatusNotes: "[SWAG: 5] steady progress",
	}

	result := Validate(item, domain.DefaultStateClasses(), 0.1)

	if !result.IsConsistent {
		t.Error("Agreeing sources should be consistent")
	}
	if len(result.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(result.Issues))
	}
	if result.FieldValue == nil || result.NotesValue == nil {
		t.Error("Both source values should be recorded")
	}
}

func TestValidate_Disagreement(t *testing.T) {
	item := domain.WorkItem{
		ID:          2,
		Swag:        domain.Float64Ptr(5),
		StatusNotes: "[SWAG: 8] scope grew",
	}

	result := Validate(item, domain.DefaultStateClasses(), 0.1)

	if result.IsConsistent {
		t.Error("Disagreeing sources should be inconsistent")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(result.Issues))
	}
	if result.Issues[0].Severity != domain.SeverityWarning {
		t.Errorf("Expected warning severity, got %s", result.Issues[0].Severity)
	}
	if result.Issues[0].Message != "estimate mismatch: field=5, notes=8" {
		t.Errorf("Unexpected message: %s", result.Issues[0].Message)
	}
}

func TestValidate_FieldOnly(t *testing.T) {
	item := domain.WorkItem{
		ID:          3,
		Swag:        domain.Float64Ptr(3.5),
		StatusNotes: "no marker here",
	}

	result := Validate(item, domain.DefaultStateClasses(), 0.1)

	if !result.IsConsistent {
		t.Error("Field-only estimate should still be consistent")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(result.Issues))
	}
	if result.Issues[0].Severity != domain.SeverityInfo {
		t.Errorf("Missing marker should be info, got %s", result.Issues[0].Severity)
	}
}

func TestValidate_NotesOnly(t *testing.T) {
	item := domain.WorkItem{
		ID:          4,
		StatusNotes: "[SWAG: 2] field never filled in",
	}

	result := Validate(item, domain.DefaultStateClasses(), 0.1)

	if !result.IsConsistent {
		t.Error("Notes-only estimate should still be consistent")
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Expected 1 issue, got %d", len(result.Issues))
	}
	if result.Issues[0].Severity != domain.SeverityWarning {
		t.Errorf("Missing field should be warning, got %s", result.Issues[0].Severity)
	}
}

func TestValidate_MissingEstimate(t *testing.T) {
	classes := domain.DefaultStateClasses()

	testCases := []struct {
		name       string
		item       domain.WorkItem
		wantIssues int
	}{
		{
			"active feature must be estimated",
			domain.WorkItem{ID: 5, WorkItemType: domain.WorkItemTypeFeature, State: domain.WorkItemStateActive},
			1,
		},
		{
			"new feature not yet required",
			domain.WorkItem{ID: 6, WorkItemType: domain.WorkItemTypeFeature, State: domain.WorkItemStateNew},
			0,
		},
		{
			"closed feature exempt",
			domain.WorkItem{ID: 7, WorkItemType: domain.WorkItemTypeFeature, State: domain.WorkItemStateClosed},
			0,
		},
		{
			"active task exempt",
			domain.WorkItem{ID: 8, WorkItemType: domain.WorkItemTypeTask, State: domain.WorkItemStateActive},
			0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := Validate(tc.item, classes, 0.1)
			if !result.IsConsistent {
				t.Error("Absent estimates are not an inconsistency")
			}
			if len(result.Issues) != tc.wantIssues {
				t.Errorf("Expected %d issues, got %d", tc.wantIssues, len(result.Issues))
			}
			if tc.wantIssues > 0 && result.Issues[0].Severity != domain.SeverityWarning {
				t.Errorf("Expected warning severity, got %s", result.Issues[0].Severity)
			}
		})
	}
}

func TestValidate_ToleratedDrift(t *testing.T) {
	item := domain.WorkItem{
		ID:          9,
		Swag:        domain.Float64Ptr(5.0),
		StatusNotes: "[SWAG: 5.05] rounding noise",
	}

	result := Validate(item, domain.DefaultStateClasses(), 0.1)

	if !result.IsConsistent {
		t.Error("Drift within tolerance should stay consistent")
	}
	if len(result.Issues) != 0 {
		t.Errorf("Expected no issues, got %d", len(result.Issues))
	}
}
