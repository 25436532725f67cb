package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v57/github"
)

// buildSearchQuery constructs a GitHub search query for pull requests in org/repo
func buildSearchQuery(org, repo string, qualifiers ...string) string {
	parts := []string{fmt.Sprintf("repo:%s/%s", org, repo), "is:pr"}
	parts = append(parts, qualifiers...)
	return strings.Join(parts, " ")
}

// labelQualifier quotes a label so names containing '/' or spaces survive the search syntax
func labelQualifier(label string) string {
	return fmt.Sprintf("label:%q", label)
}

// issueToPR converts a search hit to our PR type; base, head and mergeability are not part of search results
func issueToPR(issue *github.Issue) PR {
	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}
	return PR{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		Author: issue.GetUser().GetLogin(),
		State:  issue.GetState(),
		Labels: labels,
	}
}

// searchPRs executes a search query and returns at most limit matching PRs, most recently updated first
func (c *Client) searchPRs(ctx context.Context, query string, limit int) ([]PR, error) {
	issues, err := paginatedList(ctx, c, limit, func(page int) ([]*github.Issue, *github.Response, error) {
		opts := &github.SearchOptions{
			Sort:  "updated",
			Order: "desc",
			ListOptions: github.ListOptions{
				PerPage: perPage(limit),
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Searching issues/PRs", "query", query, "page", page)
		result, resp, err := c.client.Search.Issues(ctx, query, opts)
		if err != nil {
			return nil, resp, err
		}
		return result.Issues, resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search PRs: %w", err)
	}

	var prs []PR
	for _, issue := range issues {
		if !issue.IsPullRequest() {
			slog.Debug("Skipping non-PR issue", "number", issue.GetNumber())
			continue
		}
		prs = append(prs, issueToPR(issue))
	}
	return prs, nil
}

// ListOpenPRsWithLabel returns open PRs carrying label, at most limit
func (c *Client) ListOpenPRsWithLabel(ctx context.Context, label string, limit int) ([]PR, error) {
	return c.searchPRs(ctx, buildSearchQuery(c.org, c.repo, "is:open", labelQualifier(label)), limit)
}

// ListMergedPRsWithLabel returns recently merged PRs carrying label, at most limit
func (c *Client) ListMergedPRsWithLabel(ctx context.Context, label string, limit int) ([]PR, error) {
	prs, err := c.searchPRs(ctx, buildSearchQuery(c.org, c.repo, "is:merged", labelQualifier(label)), limit)
	if err != nil {
		return nil, err
	}
	for i := range prs {
		prs[i].Merged = true
	}
	return prs, nil
}
