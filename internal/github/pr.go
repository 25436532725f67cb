package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
)

// mergeableRetryDelay is how long to wait before re-reading a mergeable state GitHub has not computed yet
var mergeableRetryDelay = 3 * time.Second

// toPR converts a go-github pull request to our PR type
func toPR(pr *github.PullRequest) PR {
	labels := make([]string, 0, len(pr.Labels))
	for _, label := range pr.Labels {
		labels = append(labels, label.GetName())
	}

	return PR{
		Number:         pr.GetNumber(),
		Title:          pr.GetTitle(),
		URL:            pr.GetHTMLURL(),
		Author:         pr.GetUser().GetLogin(),
		State:          pr.GetState(),
		Base:           pr.GetBase().GetRef(),
		Head:           pr.GetHead().GetRef(),
		MergeCommitSHA: pr.GetMergeCommitSHA(),
		Merged:         pr.GetMerged() || pr.MergedAt != nil,
		Labels:         labels,
		Mergeable:      pr.Mergeable,
	}
}

// GetPR fetches details for a specific PR by number
func (c *Client) GetPR(ctx context.Context, number int) (*PR, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	slog.Debug("GitHub API: Getting PR", "org", c.org, "repo", c.repo, "pr", number)
	pr, _, err := c.client.PullRequests.Get(ctx, c.org, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PR #%d: %w", number, err)
	}

	result := toPR(pr)
	return &result, nil
}

// PullRequestsForCommit lists the pull requests associated with a commit
func (c *Client) PullRequestsForCommit(ctx context.Context, sha string) ([]PR, error) {
	prs, err := paginatedList(ctx, c, 0, func(page int) ([]*github.PullRequest, *github.Response, error) {
		slog.Debug("GitHub API: Listing PRs for commit", "org", c.org, "repo", c.repo, "sha", sha, "page", page)
		return c.client.PullRequests.ListPullRequestsWithCommit(ctx, c.org, c.repo, sha, &github.ListOptions{
			PerPage: maxPerPage,
			Page:    page,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for commit %s: %w", sha, err)
	}

	result := make([]PR, 0, len(prs))
	for _, pr := range prs {
		result = append(result, toPR(pr))
	}
	return result, nil
}

// ListPRCommits lists the commits of a pull request, oldest first
func (c *Client) ListPRCommits(ctx context.Context, number int) ([]PRCommit, error) {
	commits, err := paginatedList(ctx, c, 0, func(page int) ([]*github.RepositoryCommit, *github.Response, error) {
		slog.Debug("GitHub API: Listing PR commits", "org", c.org, "repo", c.repo, "pr", number, "page", page)
		return c.client.PullRequests.ListCommits(ctx, c.org, c.repo, number, &github.ListOptions{
			PerPage: maxPerPage,
			Page:    page,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of PR #%d: %w", number, err)
	}

	result := make([]PRCommit, 0, len(commits))
	for _, commit := range commits {
		subject, _, _ := strings.Cut(commit.GetCommit().GetMessage(), "\n")
		result = append(result, PRCommit{SHA: commit.GetSHA(), Subject: subject})
	}
	return result, nil
}

// ClosingCommit returns the commit that closed an unmerged pull request, for instance a
// direct push referencing it. It is empty when the pull request was closed without one.
func (c *Client) ClosingCommit(ctx context.Context, number int) (string, error) {
	events, err := paginatedList(ctx, c, 0, func(page int) ([]*github.IssueEvent, *github.Response, error) {
		slog.Debug("GitHub API: Listing issue events", "org", c.org, "repo", c.repo, "pr", number, "page", page)
		return c.client.Issues.ListIssueEvents(ctx, c.org, c.repo, number, &github.ListOptions{
			PerPage: maxPerPage,
			Page:    page,
		})
	})
	if err != nil {
		return "", fmt.Errorf("failed to list events of PR #%d: %w", number, err)
	}

	// the latest close wins when the pull request was reopened
	sha := ""
	for _, event := range events {
		if event.GetEvent() == "closed" && event.GetCommitID() != "" {
			sha = event.GetCommitID()
		}
	}
	return sha, nil
}

// FindOpenPR returns the open PR from head into base, or nil if there is none
func (c *Client) FindOpenPR(ctx context.Context, head, base string) (*PR, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  c.org + ":" + head,
		Base:  base,
		ListOptions: github.ListOptions{
			PerPage: 1,
		},
	}
	slog.Debug("GitHub API: Finding open PR", "org", c.org, "repo", c.repo, "head", head, "base", base)
	prs, _, err := c.client.PullRequests.List(ctx, c.org, c.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests from %s to %s: %w", head, base, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}

	result := toPR(prs[0])
	return &result, nil
}

// ListOpenPRs fetches the most recently updated open PRs, at most limit
func (c *Client) ListOpenPRs(ctx context.Context, limit int) ([]PR, error) {
	prs, err := paginatedList(ctx, c, limit, func(page int) ([]*github.PullRequest, *github.Response, error) {
		opts := &github.PullRequestListOptions{
			State:     "open",
			Sort:      "updated",
			Direction: "desc",
			ListOptions: github.ListOptions{
				PerPage: perPage(limit),
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing pull requests", "org", c.org, "repo", c.repo, "state", "open", "page", page)
		return c.client.PullRequests.List(ctx, c.org, c.repo, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open pull requests: %w", err)
	}

	result := make([]PR, 0, len(prs))
	for _, pr := range prs {
		result = append(result, toPR(pr))
	}
	return result, nil
}

// CreatePR creates a new pull request
func (c *Client) CreatePR(ctx context.Context, title, body, head, base string) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	newPR := &github.NewPullRequest{
		Title: &title,
		Body:  &body,
		Head:  &head,
		Base:  &base,
	}

	slog.Debug("GitHub API: Creating PR", "org", c.org, "repo", c.repo, "head", head, "base", base)
	pr, _, err := c.client.PullRequests.Create(ctx, c.org, c.repo, newPR)
	if err != nil {
		return 0, fmt.Errorf("failed to create PR from %s to %s: %w", head, base, err)
	}

	return pr.GetNumber(), nil
}

// GetMergeable returns the mergeable state of a PR, re-reading once if GitHub is still computing it.
// A nil result means the state is still unknown.
func (c *Client) GetMergeable(ctx context.Context, number int) (*bool, error) {
	pr, err := c.GetPR(ctx, number)
	if err != nil {
		return nil, err
	}
	if pr.Mergeable != nil || pr.State != "open" {
		return pr.Mergeable, nil
	}

	slog.Debug("Mergeable state not computed yet, re-reading", "pr", number, "delay", mergeableRetryDelay)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(mergeableRetryDelay):
	}

	pr, err = c.GetPR(ctx, number)
	if err != nil {
		return nil, err
	}
	return pr.Mergeable, nil
}
