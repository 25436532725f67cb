// Package github wraps the GitHub API for pull request, label and comment operations.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Default API throttle, well under GitHub's secondary rate limits
const (
	DefaultRatePerSecond = 5
	DefaultBurst         = 10
	maxPerPage           = 100
)

// Client wraps the GitHub API client for a single repository
type Client struct {
	client  *github.Client
	org     string
	repo    string
	limiter *rate.Limiter
}

// NewClient creates a new GitHub client with token authentication
func NewClient(ctx context.Context, token, org, repo string) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		client:  github.NewClient(tc),
		org:     org,
		repo:    repo,
		limiter: rate.NewLimiter(rate.Limit(DefaultRatePerSecond), DefaultBurst),
	}
}

// SetRateLimit changes how many API calls per second the client issues
func (c *Client) SetRateLimit(perSecond float64, burst int) {
	c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Org returns the repository owner
func (c *Client) Org() string { return c.org }

// Repo returns the repository name
func (c *Client) Repo() string { return c.repo }

// wait blocks until the rate limiter admits another API call
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// paginatedList collects pages until exhaustion or until limit items (limit <= 0 means no limit)
func paginatedList[T any](ctx context.Context, c *Client, limit int, fetch func(page int) ([]T, *github.Response, error)) ([]T, error) {
	var all []T
	page := 0
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		items, resp, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		page = resp.NextPage
	}
}

// perPage sizes a page request for a bounded listing
func perPage(limit int) int {
	if limit > 0 && limit < maxPerPage {
		return limit
	}
	return maxPerPage
}

// isNotFound reports whether err is a 404 from the API
func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode == http.StatusNotFound
	}
	return false
}
