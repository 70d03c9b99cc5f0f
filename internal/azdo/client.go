// Package azdo implements the work item repository against the Azure DevOps
// REST API.
package azdo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/cenkalti/backoff/v4"
)

const (
	contentTypeJSON      = "application/json"
	contentTypeJSONPatch = "application/json-patch+json"

	// The batch read endpoint rejects requests with more IDs than this
	maxBatchSize = 200
)

// Client is a minimal Azure DevOps REST client covering the work item
// tracking endpoints boardsweep needs
type Client struct {
	baseURL    string
	org        string
	project    string
	apiVersion string
	token      string
	httpClient *http.Client
	retryMax   time.Duration
}

// NewClient creates a client from connection settings. The personal access
// token is read from the configured environment variable.
func NewClient(cfg config.AzureDevOpsConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = config.DefaultHTTPTimeoutSeconds * time.Second
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = config.DefaultAPIVersion
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		org:        cfg.Organization,
		project:    cfg.Project,
		apiVersion: apiVersion,
		token:      cfg.PersonalAccessToken(),
		httpClient: &http.Client{Timeout: timeout},
		retryMax:   time.Duration(cfg.RetryMaxElapsedSeconds) * time.Second,
	}
}

// WorkItemPayload is the wire shape of a single work item
type WorkItemPayload struct {
	ID        int            `json:"id"`
	Fields    map[string]any `json:"fields"`
	Relations []Relation     `json:"relations,omitempty"`
	URL       string         `json:"url"`
}

// Relation is one work item link on the wire
type Relation struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

// PatchOperation is one JSON Patch entry for work item writes
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

type batchResponse struct {
	Count int               `json:"count"`
	Value []WorkItemPayload `json:"value"`
}

// QueryWorkItemIDs runs a WIQL query and returns the matching item IDs in
// query order
func (c *Client) QueryWorkItemIDs(ctx context.Context, wiql string) ([]int, error) {
	u := c.projectURL("_apis/wit/wiql", nil)
	body := map[string]string{"query": wiql}

	var resp wiqlResponse
	if err := c.doJSON(ctx, http.MethodPost, u, contentTypeJSON, body, &resp); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(resp.WorkItems))
	for _, ref := range resp.WorkItems {
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// GetWorkItemsBatch reads the given fields for all IDs, chunking requests to
// stay under the endpoint limit. Results come back in input ID order.
func (c *Client) GetWorkItemsBatch(ctx context.Context, ids []int, fields []string) ([]WorkItemPayload, error) {
	u := c.projectURL("_apis/wit/workitemsbatch", nil)

	payloads := make([]WorkItemPayload, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		body := map[string]any{
			"ids":    ids[start:end],
			"fields": fields,
		}
		var resp batchResponse
		if err := c.doJSON(ctx, http.MethodPost, u, contentTypeJSON, body, &resp); err != nil {
			return nil, err
		}
		payloads = append(payloads, resp.Value...)
	}
	return payloads, nil
}

// GetWorkItem reads a single work item, optionally expanding its relations
func (c *Client) GetWorkItem(ctx context.Context, id int, expandRelations bool) (*WorkItemPayload, error) {
	q := url.Values{}
	if expandRelations {
		q.Set("$expand", "relations")
	}
	u := c.projectURL(fmt.Sprintf("_apis/wit/workitems/%d", id), q)

	var payload WorkItemPayload
	if err := c.doJSON(ctx, http.MethodGet, u, "", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CreateWorkItem creates a work item of the given type from JSON Patch
// operations and returns the created item
func (c *Client) CreateWorkItem(ctx context.Context, itemType string, ops []PatchOperation) (*WorkItemPayload, error) {
	u := c.projectURL("_apis/wit/workitems/$"+url.PathEscape(itemType), nil)

	var payload WorkItemPayload
	if err := c.doJSON(ctx, http.MethodPost, u, contentTypeJSONPatch, ops, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// UpdateWorkItem applies JSON Patch operations to an existing work item
func (c *Client) UpdateWorkItem(ctx context.Context, id int, ops []PatchOperation) (*WorkItemPayload, error) {
	u := c.projectURL(fmt.Sprintf("_apis/wit/workitems/%d", id), nil)

	var payload WorkItemPayload
	if err := c.doJSON(ctx, http.MethodPatch, u, contentTypeJSONPatch, ops, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// projectURL builds a project-scoped API URL with the api-version appended
func (c *Client) projectURL(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api-version", c.apiVersion)
	return fmt.Sprintf("%s/%s/%s/%s?%s",
		c.baseURL, url.PathEscape(c.org), url.PathEscape(c.project), path, q.Encode())
}

// ItemAPIURL returns the organization-scoped resource URL of a work item,
// the form relation targets use
func (c *Client) ItemAPIURL(id int) string {
	return fmt.Sprintf("%s/%s/_apis/wit/workItems/%d", c.baseURL, url.PathEscape(c.org), id)
}

// apiError carries a non-2xx response for retry classification
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("azure devops api status=%d body=%s", e.Status, e.Body)
}

// isRetryableError returns true for rate limits, server errors, and
// transient network failures
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection reset") {
		return true
	}
	if strings.Contains(errStr, "connection refused") {
		return true
	}
	if strings.Contains(errStr, "i/o timeout") {
		return true
	}
	return false
}

// newRetryBackoff returns a fresh backoff for one operation.
// BackOff implementations are stateful; never share instances.
func (c *Client) newRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = c.retryMax
	return bo
}

// withRetry executes an operation, retrying transient failures until the
// retry budget runs out. A zero budget disables retries.
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	if c.retryMax <= 0 {
		return op()
	}

	bo := c.newRetryBackoff()
	return backoff.Retry(func() error {
		err := op()
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// doJSON performs one API call with auth, retry, and JSON decoding
func (c *Client) doJSON(ctx context.Context, method, u, contentType string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	return c.withRetry(ctx, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", contentTypeJSON)
		if c.token != "" {
			// Azure DevOps PATs go in the password slot of basic auth
			req.SetBasicAuth("", c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
