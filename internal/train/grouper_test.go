package train

import (
	"testing"

	"github.com/boardsweep/boardsweep/domain"
)

func TestNewGrouper_Defaults(t *testing.T) {
	grouper, err := NewGrouper("", "")
	if err != nil {
		t.Fatalf("Defaults should compile, got error: %v", err)
	}
	if grouper.ParentTitle("2025.3") != "Release Train 2025.3" {
		t.Errorf("Unexpected default parent title: %s", grouper.ParentTitle("2025.3"))
	}
}

func TestNewGrouper_InvalidPattern(t *testing.T) {
	if _, err := NewGrouper("[broken", ""); err == nil {
		t.Error("Expected error for invalid regex")
	}
}

func TestNewGrouper_PatternWithoutCapture(t *testing.T) {
	if _, err := NewGrouper(`release train`, ""); err == nil {
		t.Error("Expected error for pattern without a capture group")
	}
}

func TestNewGrouper_FormatWithoutPlaceholder(t *testing.T) {
	if _, err := NewGrouper("", "Release Train"); err == nil {
		t.Error("Expected error for parent title format without %s")
	}
}

func TestGroupKey(t *testing.T) {
	grouper, err := NewGrouper("", "")
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name     string
		title    string
		expected string
		matched  bool
	}{
		{"plain number", "Release Train 2025.3 checkout items", "2025.3", true},
		{"lowercase", "release train atlas payments", "ATLAS", true},
		{"colon separator", "Release Train: Atlas", "ATLAS", true},
		{"hash separator", "RELEASE TRAIN #7", "7", true},
		{"dash separator", "Release Train - orion", "ORION", true},
		{"extra whitespace", "Release  Train   nova", "NOVA", true},
		{"no marker", "Improve error handling", "", false},
		{"marker without identifier", "Prepare the release train", "", false},
		{"training is not a train", "Schedule release training for Q3", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := grouper.GroupKey(tc.title)
			if ok != tc.matched {
				t.Fatalf("Expected matched=%v, got %v (key=%q)", tc.matched, ok, key)
			}
			if ok && key != tc.expected {
				t.Errorf("Expected key '%s', got '%s'", tc.expected, key)
			}
		})
	}
}

func TestGroup(t *testing.T) {
	grouper, err := NewGrouper("", "")
	if err != nil {
		t.Fatal(err)
	}

	items := []domain.WorkItem{
		{ID: 1, Title: "Release Train 2025.3 checkout"},
		{ID: 2, Title: "Standalone cleanup chore"},
		{ID: 3, Title: "release train atlas ingestion"},
		{ID: 4, Title: "Release Train 2025.3 payments"},
		{ID: 5, Title: "RELEASE TRAIN: Atlas search"},
	}

	groups := grouper.Group(items)

	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "2025.3" {
		t.Errorf("First-seen group should come first, got '%s'", groups[0].Key)
	}
	if len(groups[0].Items) != 2 || groups[0].Items[0].ID != 1 || groups[0].Items[1].ID != 4 {
		t.Errorf("Group 2025.3 should hold items 1 and 4 in order, got %v", MemberIDs(groups[0].Items))
	}
	if groups[1].Key != "ATLAS" {
		t.Errorf("Expected 'ATLAS' group second, got '%s'", groups[1].Key)
	}
	if len(groups[1].Items) != 2 || groups[1].Items[0].ID != 3 || groups[1].Items[1].ID != 5 {
		t.Errorf("Case variants should collapse into one group, got %v", MemberIDs(groups[1].Items))
	}
}

func TestGroup_NoMatches(t *testing.T) {
	grouper, err := NewGrouper("", "")
	if err != nil {
		t.Fatal(err)
	}

	items := []domain.WorkItem{
		{ID: 1, Title: "Refactor session storage"},
		{ID: 2, Title: "Bump TLS library"},
	}

	groups := grouper.Group(items)
	if len(groups) != 0 {
		t.Errorf("Expected no groups, got %d", len(groups))
	}
}

func TestGroup_Deterministic(t *testing.T) {
	grouper, err := NewGrouper("", "")
	if err != nil {
		t.Fatal(err)
	}

	items := []domain.WorkItem{
		{ID: 1, Title: "Release Train beta first"},
		{ID: 2, Title: "Release Train alpha second"},
		{ID: 3, Title: "Release Train beta third"},
	}

	for run := 0; run < 3; run++ {
		groups := grouper.Group(items)
		if groups[0].Key != "BETA" || groups[1].Key != "ALPHA" {
			t.Fatalf("Run %d: group order changed: %s, %s", run, groups[0].Key, groups[1].Key)
		}
	}
}

func TestDiffMembers(t *testing.T) {
	testCases := []struct {
		name     string
		members  []int
		linked   []int
		expected []int
	}{
		{"nothing linked yet", []int{1, 2, 3}, nil, []int{1, 2, 3}},
		{"partially linked", []int{1, 2, 3, 4}, []int{2, 4}, []int{1, 3}},
		{"fully linked", []int{1, 2}, []int{1, 2}, []int{}},
		{"linked superset", []int{1}, []int{1, 99}, []int{}},
		{"empty members", nil, []int{1}, []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DiffMembers(tc.members, tc.linked)
			if len(got) != len(tc.expected) {
				t.Fatalf("Expected %v, got %v", tc.expected, got)
			}
			for i := range got {
				if got[i] != tc.expected[i] {
					t.Errorf("Expected %v, got %v", tc.expected, got)
					break
				}
			}
		})
	}
}

func TestMemberIDs(t *testing.T) {
	items := []domain.WorkItem{{ID: 5}, {ID: 3}, {ID: 9}}
	ids := MemberIDs(items)

	if len(ids) != 3 || ids[0] != 5 || ids[1] != 3 || ids[2] != 9 {
		t.Errorf("Expected [5 3 9], got %v", ids)
	}
}
