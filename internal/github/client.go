// Package github implements the work item repository against the GitHub
// Projects v2 GraphQL API. Release train parents are tracking issues linked
// to their members through sub-issues.
package github

import (
	"context"
	"net/http"
	"time"

	"github.com/boardsweep/boardsweep/internal/config"
	"github.com/machinebox/graphql"
)

// Endpoint is the GitHub GraphQL API endpoint
const Endpoint = "https://api.github.com/graphql"

// Client is a GitHub GraphQL client covering the Projects v2 surface
// boardsweep needs
type Client struct {
	gql   *graphql.Client
	token string
}

// NewClient creates a client from connection settings. The token is read
// from the configured environment variable.
func NewClient(cfg config.GitHubConfig) *Client {
	return newClientWithEndpoint(cfg, Endpoint)
}

func newClientWithEndpoint(cfg config.GitHubConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if cfg.TimeoutSeconds <= 0 {
		timeout = config.DefaultHTTPTimeoutSeconds * time.Second
	}

	return &Client{
		gql:   graphql.NewClient(endpoint, graphql.WithHTTPClient(&http.Client{Timeout: timeout})),
		token: cfg.Token(),
	}
}

// makeRequest executes a GraphQL request with authentication.
// This is a helper method to avoid repeating the authorization header setup.
func (c *Client) makeRequest(ctx context.Context, req *graphql.Request, resp interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.gql.Run(ctx, req, resp)
}
