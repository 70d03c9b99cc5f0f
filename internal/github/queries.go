package github

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
)

// Items are paginated in pages of this size
const pageSize = 100

// FieldNames selects which project fields carry the work item attributes
type FieldNames struct {
	Type   string
	Status string
	Swag   string
	Notes  string
}

// itemPayload carries one project item with the field values boardsweep reads
type itemPayload struct {
	ItemNodeID  string
	IssueNodeID string
	DatabaseID  int
	Number      int
	Title       string
	URL         string
	IssueState  string
	TypeValue   string
	StatusValue string
	SwagValue   *float64
	NotesValue  string
}

// trainIssue is a release train tracking issue with its linked sub-issues
type trainIssue struct {
	NodeID      string
	DatabaseID  int
	Title       string
	SubIssueIDs []int
}

// ResolveProjectID finds the node ID of a project board under an organization
// or user owner
func (c *Client) ResolveProjectID(ctx context.Context, owner string, number int) (string, error) {
	if id, err := c.orgProjectID(ctx, owner, number); err == nil && id != "" {
		return id, nil
	}

	id, err := c.userProjectID(ctx, owner, number)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project %d under %s: %w", number, owner, err)
	}
	if id == "" {
		return "", fmt.Errorf("project %d not found under %s", number, owner)
	}
	return id, nil
}

func (c *Client) orgProjectID(ctx context.Context, owner string, number int) (string, error) {
	req := graphql.NewRequest(`
		query($login: String!, $number: Int!) {
			organization(login: $login) {
				projectV2(number: $number) {
					id
				}
			}
		}
	`)
	req.Var("login", owner)
	req.Var("number", number)

	var resp struct {
		Organization *struct {
			ProjectV2 *struct {
				ID string `json:"id"`
			} `json:"projectV2"`
		} `json:"organization"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.Organization == nil || resp.Organization.ProjectV2 == nil {
		return "", nil
	}
	return resp.Organization.ProjectV2.ID, nil
}

func (c *Client) userProjectID(ctx context.Context, owner string, number int) (string, error) {
	req := graphql.NewRequest(`
		query($login: String!, $number: Int!) {
			user(login: $login) {
				projectV2(number: $number) {
					id
				}
			}
		}
	`)
	req.Var("login", owner)
	req.Var("number", number)

	var resp struct {
		User *struct {
			ProjectV2 *struct {
				ID string `json:"id"`
			} `json:"projectV2"`
		} `json:"user"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.User == nil || resp.User.ProjectV2 == nil {
		return "", nil
	}
	return resp.User.ProjectV2.ID, nil
}

// FetchItemsPage reads one page of project items with the configured field
// values. Returns payloads, the next cursor, and whether more pages remain.
// Items whose content is not an issue are skipped.
func (c *Client) FetchItemsPage(ctx context.Context, projectID string, fields FieldNames, cursor string) ([]itemPayload, string, bool, error) {
	req := graphql.NewRequest(`
		query($projectId: ID!, $first: Int!, $after: String, $typeField: String!, $statusField: String!, $swagField: String!, $notesField: String!) {
			node(id: $projectId) {
				... on ProjectV2 {
					items(first: $first, after: $after) {
						pageInfo {
							hasNextPage
							endCursor
						}
						nodes {
							id
							typeValue: fieldValueByName(name: $typeField) {
								... on ProjectV2ItemFieldSingleSelectValue {
									name
								}
							}
							statusValue: fieldValueByName(name: $statusField) {
								... on ProjectV2ItemFieldSingleSelectValue {
									name
								}
							}
							swagValue: fieldValueByName(name: $swagField) {
								... on ProjectV2ItemFieldNumberValue {
									number
								}
							}
							notesValue: fieldValueByName(name: $notesField) {
								... on ProjectV2ItemFieldTextValue {
									text
								}
							}
							content {
								__typename
								... on Issue {
									id
									databaseId
									number
									title
									url
									state
								}
							}
						}
					}
				}
			}
		}
	`)
	req.Var("projectId", projectID)
	req.Var("first", pageSize)
	req.Var("typeField", fields.Type)
	req.Var("statusField", fields.Status)
	req.Var("swagField", fields.Swag)
	req.Var("notesField", fields.Notes)
	if cursor != "" {
		req.Var("after", cursor)
	} else {
		req.Var("after", nil)
	}

	var resp struct {
		Node struct {
			Items struct {
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
				Nodes []struct {
					ID        string `json:"id"`
					TypeValue *struct {
						Name string `json:"name"`
					} `json:"typeValue"`
					StatusValue *struct {
						Name string `json:"name"`
					} `json:"statusValue"`
					SwagValue *struct {
						Number *float64 `json:"number"`
					} `json:"swagValue"`
					NotesValue *struct {
						Text string `json:"text"`
					} `json:"notesValue"`
					Content *struct {
						Typename   string `json:"__typename"`
						ID         string `json:"id"`
						DatabaseID int    `json:"databaseId"`
						Number     int    `json:"number"`
						Title      string `json:"title"`
						URL        string `json:"url"`
						State      string `json:"state"`
					} `json:"content"`
				} `json:"nodes"`
			} `json:"items"`
		} `json:"node"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, "", false, fmt.Errorf("failed to fetch project items: %w", err)
	}

	items := make([]itemPayload, 0, len(resp.Node.Items.Nodes))
	for _, node := range resp.Node.Items.Nodes {
		// Draft issues and pull requests carry no sub-issue links or
		// database IDs boardsweep can work with
		if node.Content == nil || node.Content.Typename != "Issue" {
			continue
		}

		payload := itemPayload{
			ItemNodeID:  node.ID,
			IssueNodeID: node.Content.ID,
			DatabaseID:  node.Content.DatabaseID,
			Number:      node.Content.Number,
			Title:       node.Content.Title,
			URL:         node.Content.URL,
			IssueState:  node.Content.State,
		}
		if node.TypeValue != nil {
			payload.TypeValue = node.TypeValue.Name
		}
		if node.StatusValue != nil {
			payload.StatusValue = node.StatusValue.Name
		}
		if node.SwagValue != nil && node.SwagValue.Number != nil {
			payload.SwagValue = node.SwagValue.Number
		}
		if node.NotesValue != nil {
			payload.NotesValue = node.NotesValue.Text
		}
		items = append(items, payload)
	}

	page := resp.Node.Items.PageInfo
	return items, page.EndCursor, page.HasNextPage, nil
}

// FindTrainIssue searches the tracking repository for an issue with exactly
// the given title. Returns nil when none exists.
func (c *Client) FindTrainIssue(ctx context.Context, owner, repo, title string) (*trainIssue, error) {
	req := graphql.NewRequest(`
		query($query: String!) {
			search(query: $query, type: ISSUE, first: 10) {
				nodes {
					... on Issue {
						id
						databaseId
						title
						subIssues(first: 100) {
							nodes {
								databaseId
							}
						}
					}
				}
			}
		}
	`)
	req.Var("query", fmt.Sprintf("repo:%s/%s type:issue in:title %q", owner, repo, title))

	var resp struct {
		Search struct {
			Nodes []struct {
				ID         string `json:"id"`
				DatabaseID int    `json:"databaseId"`
				Title      string `json:"title"`
				SubIssues  struct {
					Nodes []struct {
						DatabaseID int `json:"databaseId"`
					} `json:"nodes"`
				} `json:"subIssues"`
			} `json:"nodes"`
		} `json:"search"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to search for tracking issue: %w", err)
	}

	// Issue search matches loosely; require the exact title
	for _, node := range resp.Search.Nodes {
		if node.Title != title {
			continue
		}
		issue := &trainIssue{
			NodeID:     node.ID,
			DatabaseID: node.DatabaseID,
			Title:      node.Title,
		}
		for _, sub := range node.SubIssues.Nodes {
			issue.SubIssueIDs = append(issue.SubIssueIDs, sub.DatabaseID)
		}
		return issue, nil
	}
	return nil, nil
}

// RepositoryNodeID resolves the node ID of the tracking repository
func (c *Client) RepositoryNodeID(ctx context.Context, owner, repo string) (string, error) {
	req := graphql.NewRequest(`
		query($owner: String!, $name: String!) {
			repository(owner: $owner, name: $name) {
				id
			}
		}
	`)
	req.Var("owner", owner)
	req.Var("name", repo)

	var resp struct {
		Repository *struct {
			ID string `json:"id"`
		} `json:"repository"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", fmt.Errorf("failed to resolve repository %s/%s: %w", owner, repo, err)
	}
	if resp.Repository == nil {
		return "", fmt.Errorf("repository %s/%s not found", owner, repo)
	}
	return resp.Repository.ID, nil
}

// ProjectFieldIDs maps project field names to their node IDs
func (c *Client) ProjectFieldIDs(ctx context.Context, projectID string) (map[string]string, error) {
	req := graphql.NewRequest(`
		query($projectId: ID!) {
			node(id: $projectId) {
				... on ProjectV2 {
					fields(first: 50) {
						nodes {
							... on ProjectV2Field {
								id
								name
							}
							... on ProjectV2SingleSelectField {
								id
								name
							}
						}
					}
				}
			}
		}
	`)
	req.Var("projectId", projectID)

	var resp struct {
		Node struct {
			Fields struct {
				Nodes []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"nodes"`
			} `json:"fields"`
		} `json:"node"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to list project fields: %w", err)
	}

	ids := make(map[string]string, len(resp.Node.Fields.Nodes))
	for _, node := range resp.Node.Fields.Nodes {
		if node.ID != "" {
			ids[node.Name] = node.ID
		}
	}
	return ids, nil
}
