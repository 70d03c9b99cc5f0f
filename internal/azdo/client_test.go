package azdo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boardsweep/boardsweep/internal/config"
)

func testConfig(serverURL string) config.AzureDevOpsConfig {
	return config.AzureDevOpsConfig{
		Organization:   "contoso",
		Project:        "platform",
		BaseURL:        serverURL,
		APIVersion:     "7.0",
		PATEnv:         "AZDO_TEST_PAT",
		SwagField:      "Microsoft.VSTS.Scheduling.Effort",
		NotesField:     "Custom.StatusNotes",
		LinkType:       "System.LinkTypes.Hierarchy-Forward",
		TimeoutSeconds: 5,
	}
}

func TestClient_SendsBasicAuthAndAPIVersion(t *testing.T) {
	t.Setenv("AZDO_TEST_PAT", "token123")

	var gotAuth bool
	var gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "" && pass == "token123"
		gotVersion = r.URL.Query().Get("api-version")
		_, _ = w.Write([]byte(`{"workItems":[]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	_, err := client.QueryWorkItemIDs(context.Background(), "SELECT [System.Id] FROM WorkItems")
	if err != nil {
		t.Fatalf("QueryWorkItemIDs failed: %v", err)
	}

	if !gotAuth {
		t.Error("Expected basic auth with empty user and the token as password")
	}
	if gotVersion != "7.0" {
		t.Errorf("Expected api-version 7.0, got %s", gotVersion)
	}
}

func TestClient_QueryWorkItemIDs(t *testing.T) {
	var gotPath string
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode WIQL body: %v", err)
		}
		gotQuery = body["query"]

		_, _ = w.Write([]byte(`{"workItems":[{"id":3},{"id":1},{"id":8}]}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	ids, err := client.QueryWorkItemIDs(context.Background(), "SELECT [System.Id] FROM WorkItems")
	if err != nil {
		t.Fatalf("QueryWorkItemIDs failed: %v", err)
	}

	if gotPath != "/contoso/platform/_apis/wit/wiql" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotQuery != "SELECT [System.Id] FROM WorkItems" {
		t.Errorf("Unexpected WIQL: %s", gotQuery)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 8 {
		t.Errorf("Expected [3 1 8], got %v", ids)
	}
}

func TestClient_GetWorkItemsBatch_Chunks(t *testing.T) {
	var chunkSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			IDs []int `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode batch body: %v", err)
		}
		chunkSizes = append(chunkSizes, len(body.IDs))
		_, _ = w.Write([]byte(`{"count":0,"value":[]}`))
	}))
	defer server.Close()

	ids := make([]int, 450)
	for i := range ids {
		ids[i] = i + 1
	}

	client := NewClient(testConfig(server.URL))
	_, err := client.GetWorkItemsBatch(context.Background(), ids, []string{"System.Title"})
	if err != nil {
		t.Fatalf("GetWorkItemsBatch failed: %v", err)
	}

	if len(chunkSizes) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunkSizes))
	}
	if chunkSizes[0] != 200 || chunkSizes[1] != 200 || chunkSizes[2] != 50 {
		t.Errorf("Expected chunks [200 200 50], got %v", chunkSizes)
	}
}

func TestClient_CreateWorkItem_UsesJSONPatch(t *testing.T) {
	var gotContentType string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":42,"fields":{}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	ops := []PatchOperation{{Op: "add", Path: "/fields/System.Title", Value: "Release Train 2025.3"}}
	payload, err := client.CreateWorkItem(context.Background(), "Epic", ops)
	if err != nil {
		t.Fatalf("CreateWorkItem failed: %v", err)
	}

	if gotContentType != contentTypeJSONPatch {
		t.Errorf("Expected %s, got %s", contentTypeJSONPatch, gotContentType)
	}
	if gotPath != "/contoso/platform/_apis/wit/workitems/$Epic" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if payload.ID != 42 {
		t.Errorf("Expected created ID 42, got %d", payload.ID)
	}
}

func TestClient_RetriesOnTooManyRequests(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"workItems":[{"id":1}]}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryMaxElapsedSeconds = 10

	client := NewClient(cfg)
	ids, err := client.QueryWorkItemIDs(context.Background(), "SELECT [System.Id] FROM WorkItems")
	if err != nil {
		t.Fatalf("Expected retries to recover, got error: %v", err)
	}

	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(ids) != 1 {
		t.Errorf("Expected 1 id after retry, got %d", len(ids))
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad wiql"}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.RetryMaxElapsedSeconds = 10

	client := NewClient(cfg)
	_, err := client.QueryWorkItemIDs(context.Background(), "garbage")
	if err == nil {
		t.Fatal("Expected error for 400 response")
	}

	if attempts != 1 {
		t.Errorf("Expected a single attempt for 400, got %d", attempts)
	}
}

func TestClient_RetryDisabledByDefault(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// RetryMaxElapsedSeconds stays zero
	client := NewClient(testConfig(server.URL))
	_, err := client.QueryWorkItemIDs(context.Background(), "SELECT [System.Id] FROM WorkItems")
	if err == nil {
		t.Fatal("Expected error for 500 response")
	}

	if attempts != 1 {
		t.Errorf("Expected a single attempt with retries disabled, got %d", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"rate limited", &apiError{Status: 429}, true},
		{"server error", &apiError{Status: 503}, true},
		{"bad request", &apiError{Status: 400}, false},
		{"not found", &apiError{Status: 404}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableError(%v) = %v, expected %v", tt.err, got, tt.retryable)
			}
		})
	}
}
