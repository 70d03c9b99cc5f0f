package azdo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boardsweep/boardsweep/domain"
)

func newTestRepository(serverURL string) *Repository {
	return NewRepository(testConfig(serverURL), "Release Train %s", "Epic")
}

func TestRepository_FetchWorkItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/wiql"):
			_, _ = w.Write([]byte(`{"workItems":[{"id":101},{"id":102}]}`))
		case strings.HasSuffix(r.URL.Path, "/workitemsbatch"):
			_, _ = w.Write([]byte(`{
				"count": 2,
				"value": [
					{"id":101,"fields":{
						"System.Title":"Checkout flow rework",
						"System.WorkItemType":"Feature",
						"System.State":"Active",
						"Microsoft.VSTS.Scheduling.Effort":5,
						"Custom.StatusNotes":"[SWAG: 5] on track"}},
					{"id":102,"fields":{
						"System.Title":"Fix login crash",
						"System.WorkItemType":"Bug",
						"System.State":"New"}}
				]}`))
		default:
			t.Errorf("Unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	items, err := repo.FetchWorkItems(context.Background())
	if err != nil {
		t.Fatalf("FetchWorkItems failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ID != 101 {
		t.Errorf("Expected ID 101, got %d", first.ID)
	}
	if first.Title != "Checkout flow rework" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.WorkItemType != domain.WorkItemTypeFeature {
		t.Errorf("Expected Feature, got %s", first.WorkItemType)
	}
	if first.State != domain.WorkItemStateActive {
		t.Errorf("Expected Active, got %s", first.State)
	}
	if first.Swag == nil || *first.Swag != 5.0 {
		t.Errorf("Expected swag 5.0, got %v", first.Swag)
	}
	if first.StatusNotes != "[SWAG: 5] on track" {
		t.Errorf("Unexpected status notes: %s", first.StatusNotes)
	}
	if first.URL != server.URL+"/contoso/platform/_workitems/edit/101" {
		t.Errorf("Unexpected item URL: %s", first.URL)
	}

	second := items[1]
	if second.Swag != nil {
		t.Errorf("Expected nil swag for item without the field, got %v", *second.Swag)
	}
	if second.StatusNotes != "" {
		t.Errorf("Expected empty notes, got %s", second.StatusNotes)
	}
}

func TestRepository_FetchWorkItems_EmptyBacklog(t *testing.T) {
	batchCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/workitemsbatch") {
			batchCalled = true
		}
		_, _ = w.Write([]byte(`{"workItems":[]}`))
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	items, err := repo.FetchWorkItems(context.Background())
	if err != nil {
		t.Fatalf("FetchWorkItems failed: %v", err)
	}

	if items == nil {
		t.Error("Expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Errorf("Expected 0 items, got %d", len(items))
	}
	if batchCalled {
		t.Error("Batch endpoint should not be called for an empty backlog")
	}
}

func TestRepository_FetchWorkItems_AreaPathFilter(t *testing.T) {
	var gotWIQL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotWIQL = body["query"]
		_, _ = w.Write([]byte(`{"workItems":[]}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.AreaPath = `platform\checkout`
	repo := NewRepository(cfg, "Release Train %s", "Epic")

	if _, err := repo.FetchWorkItems(context.Background()); err != nil {
		t.Fatalf("FetchWorkItems failed: %v", err)
	}

	if !strings.Contains(gotWIQL, `[System.AreaPath] UNDER 'platform\checkout'`) {
		t.Errorf("Expected area path filter in WIQL, got: %s", gotWIQL)
	}
	if !strings.Contains(gotWIQL, "ORDER BY [System.Id]") {
		t.Errorf("Expected stable ordering clause, got: %s", gotWIQL)
	}
}

func TestRepository_FindAggregateParent_Missing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"workItems":[]}`))
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	parent, err := repo.FindAggregateParent(context.Background(), "2025.3")
	if err != nil {
		t.Fatalf("FindAggregateParent failed: %v", err)
	}
	if parent != nil {
		t.Errorf("Expected nil for missing parent, got %+v", parent)
	}
}

func TestRepository_FindAggregateParent_WithLinks(t *testing.T) {
	var gotWIQL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/wiql"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotWIQL = body["query"]
			_, _ = w.Write([]byte(`{"workItems":[{"id":7}]}`))
		case strings.HasSuffix(r.URL.Path, "/workitems/7"):
			if r.URL.Query().Get("$expand") != "relations" {
				t.Error("Expected $expand=relations on parent read")
			}
			_, _ = w.Write([]byte(`{
				"id": 7,
				"fields": {"System.Title": "Release Train 2025.3"},
				"relations": [
					{"rel":"System.LinkTypes.Hierarchy-Forward","url":"http://server/_apis/wit/workItems/101"},
					{"rel":"System.LinkTypes.Hierarchy-Forward","url":"http://server/_apis/wit/workItems/102"},
					{"rel":"ArtifactLink","url":"vstfs:///Git/Commit/abc"}
				]}`))
		default:
			t.Errorf("Unexpected request to %s", r.URL.Path)
		}
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	parent, err := repo.FindAggregateParent(context.Background(), "2025.3")
	if err != nil {
		t.Fatalf("FindAggregateParent failed: %v", err)
	}

	if parent == nil {
		t.Fatal("Expected parent, got nil")
	}
	if parent.ID != 7 {
		t.Errorf("Expected parent ID 7, got %d", parent.ID)
	}
	if parent.Title != "Release Train 2025.3" {
		t.Errorf("Unexpected parent title: %s", parent.Title)
	}
	if len(parent.LinkedItemIDs) != 2 || parent.LinkedItemIDs[0] != 101 || parent.LinkedItemIDs[1] != 102 {
		t.Errorf("Expected linked IDs [101 102], got %v", parent.LinkedItemIDs)
	}

	if !strings.Contains(gotWIQL, "[System.Title] = 'Release Train 2025.3'") {
		t.Errorf("Expected title match in WIQL, got: %s", gotWIQL)
	}
	if !strings.Contains(gotWIQL, "[System.WorkItemType] = 'Epic'") {
		t.Errorf("Expected type match in WIQL, got: %s", gotWIQL)
	}
}

func TestRepository_CreateAggregateParent(t *testing.T) {
	var gotOps []PatchOperation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/workitems/$Epic") {
			t.Errorf("Unexpected create path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotOps); err != nil {
			t.Errorf("Failed to decode patch document: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":55,"fields":{}}`))
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	id, err := repo.CreateAggregateParent(context.Background(), "Release Train 2025.3", []int{101, 102})
	if err != nil {
		t.Fatalf("CreateAggregateParent failed: %v", err)
	}

	if id != 55 {
		t.Errorf("Expected created ID 55, got %d", id)
	}
	if len(gotOps) != 3 {
		t.Fatalf("Expected 3 patch operations, got %d", len(gotOps))
	}
	if gotOps[0].Path != "/fields/System.Title" || gotOps[0].Value != "Release Train 2025.3" {
		t.Errorf("Unexpected title operation: %+v", gotOps[0])
	}
	for _, op := range gotOps[1:] {
		if op.Path != "/relations/-" {
			t.Errorf("Expected relation operation, got path %s", op.Path)
		}
		rel, ok := op.Value.(map[string]any)
		if !ok {
			t.Fatalf("Expected relation value object, got %T", op.Value)
		}
		if rel["rel"] != "System.LinkTypes.Hierarchy-Forward" {
			t.Errorf("Unexpected relation type: %v", rel["rel"])
		}
	}
}

func TestRepository_AddLinks(t *testing.T) {
	var gotMethod string
	var gotOps []PatchOperation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotOps); err != nil {
			t.Errorf("Failed to decode patch document: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":9,"fields":{}}`))
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	err := repo.AddLinks(context.Background(), 9, []int{201, 202})
	if err != nil {
		t.Fatalf("AddLinks failed: %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("Expected PATCH, got %s", gotMethod)
	}
	if len(gotOps) != 2 {
		t.Fatalf("Expected 2 operations, got %d", len(gotOps))
	}
	rel, ok := gotOps[0].Value.(map[string]any)
	if !ok {
		t.Fatalf("Expected relation value object, got %T", gotOps[0].Value)
	}
	if !strings.HasSuffix(rel["url"].(string), "/_apis/wit/workItems/201") {
		t.Errorf("Unexpected relation target: %v", rel["url"])
	}
}

func TestRepository_AddLinks_NoMembers(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	if err := repo.AddLinks(context.Background(), 9, nil); err != nil {
		t.Fatalf("AddLinks failed: %v", err)
	}
	if called {
		t.Error("AddLinks with no members should not call the API")
	}
}

func TestRepository_UpdateEstimate(t *testing.T) {
	var gotOps []PatchOperation
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotOps); err != nil {
			t.Errorf("Failed to decode patch document: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":101,"fields":{}}`))
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	err := repo.UpdateEstimate(context.Background(), 101, 4.5, "[SWAG: 4.5] replanned")
	if err != nil {
		t.Fatalf("UpdateEstimate failed: %v", err)
	}

	if len(gotOps) != 2 {
		t.Fatalf("Expected 2 operations, got %d", len(gotOps))
	}
	if gotOps[0].Path != "/fields/Microsoft.VSTS.Scheduling.Effort" {
		t.Errorf("Unexpected estimate path: %s", gotOps[0].Path)
	}
	if gotOps[0].Value != 4.5 {
		t.Errorf("Expected estimate 4.5, got %v", gotOps[0].Value)
	}
	if gotOps[1].Path != "/fields/Custom.StatusNotes" {
		t.Errorf("Unexpected notes path: %s", gotOps[1].Path)
	}
	if gotOps[1].Value != "[SWAG: 4.5] replanned" {
		t.Errorf("Unexpected notes value: %v", gotOps[1].Value)
	}
}

func TestRepository_FetchWorkItems_WrapsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	repo := newTestRepository(server.URL)
	_, err := repo.FetchWorkItems(context.Background())
	if err == nil {
		t.Fatal("Expected error for unauthorized response")
	}

	var domainErr domain.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("Expected DomainError, got %T", err)
	}
	if domainErr.Code != domain.ErrCodeFetchFailed {
		t.Errorf("Expected FETCH_FAILED, got %s", domainErr.Code)
	}
}

func TestRelationTargetID(t *testing.T) {
	tests := []struct {
		url  string
		id   int
		ok   bool
		name string
	}{
		{"http://server/_apis/wit/workItems/42", 42, true, "plain id"},
		{"http://server/_apis/wit/workItems/", 0, false, "trailing slash"},
		{"http://server/_apis/wit/workItems/abc", 0, false, "non numeric"},
		{"noslash", 0, false, "no separator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := relationTargetID(tt.url)
			if ok != tt.ok || id != tt.id {
				t.Errorf("relationTargetID(%q) = (%d, %v), expected (%d, %v)", tt.url, id, ok, tt.id, tt.ok)
			}
		})
	}
}

func TestEscapeWIQL(t *testing.T) {
	if got := escapeWIQL("O'Brien's board"); got != "O''Brien''s board" {
		t.Errorf("Expected doubled quotes, got %s", got)
	}
}
