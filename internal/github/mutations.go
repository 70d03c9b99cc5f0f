package github

import (
	"context"
	"fmt"

	"github.com/machinebox/graphql"
)

// CreateTrackingIssue creates the release train tracking issue and returns
// its node ID and database ID
func (c *Client) CreateTrackingIssue(ctx context.Context, repositoryID, title string) (string, int, error) {
	req := graphql.NewRequest(`
		mutation($repositoryId: ID!, $title: String!) {
			createIssue(input: {repositoryId: $repositoryId, title: $title}) {
				issue {
					id
					databaseId
				}
			}
		}
	`)
	req.Var("repositoryId", repositoryID)
	req.Var("title", title)

	var resp struct {
		CreateIssue struct {
			Issue struct {
				ID         string `json:"id"`
				DatabaseID int    `json:"databaseId"`
			} `json:"issue"`
		} `json:"createIssue"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return "", 0, fmt.Errorf("failed to create tracking issue: %w", err)
	}
	return resp.CreateIssue.Issue.ID, resp.CreateIssue.Issue.DatabaseID, nil
}

// AddSubIssue links a member issue beneath a tracking issue
func (c *Client) AddSubIssue(ctx context.Context, parentNodeID, childNodeID string) error {
	req := graphql.NewRequest(`
		mutation($issueId: ID!, $subIssueId: ID!) {
			addSubIssue(input: {issueId: $issueId, subIssueId: $subIssueId}) {
				issue {
					id
				}
			}
		}
	`)
	req.Var("issueId", parentNodeID)
	req.Var("subIssueId", childNodeID)

	var resp struct {
		AddSubIssue struct {
			Issue struct {
				ID string `json:"id"`
			} `json:"issue"`
		} `json:"addSubIssue"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return fmt.Errorf("failed to add sub-issue: %w", err)
	}
	return nil
}

// UpdateItemNumberField writes a number field value on a project item
func (c *Client) UpdateItemNumberField(ctx context.Context, projectID, itemID, fieldID string, value float64) error {
	return c.updateItemField(ctx, projectID, itemID, fieldID, map[string]interface{}{"number": value})
}

// UpdateItemTextField writes a text field value on a project item
func (c *Client) UpdateItemTextField(ctx context.Context, projectID, itemID, fieldID string, text string) error {
	return c.updateItemField(ctx, projectID, itemID, fieldID, map[string]interface{}{"text": text})
}

func (c *Client) updateItemField(ctx context.Context, projectID, itemID, fieldID string, value map[string]interface{}) error {
	req := graphql.NewRequest(`
		mutation($projectId: ID!, $itemId: ID!, $fieldId: ID!, $value: ProjectV2FieldValue!) {
			updateProjectV2ItemFieldValue(
				input: {
					projectId: $projectId
					itemId: $itemId
					fieldId: $fieldId
					value: $value
				}
			) {
				projectV2Item {
					id
				}
			}
		}
	`)
	req.Var("projectId", projectID)
	req.Var("itemId", itemID)
	req.Var("fieldId", fieldID)
	req.Var("value", value)

	var resp struct {
		UpdateProjectV2ItemFieldValue struct {
			ProjectV2Item struct {
				ID string `json:"id"`
			} `json:"projectV2Item"`
		} `json:"updateProjectV2ItemFieldValue"`
	}

	if err := c.makeRequest(ctx, req, &resp); err != nil {
		return fmt.Errorf("failed to update item field: %w", err)
	}
	return nil
}
