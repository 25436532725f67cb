package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/go-github/v57/github"
)

// GetIssueComments retrieves all comments for a specific issue
func (c *Client) GetIssueComments(ctx context.Context, issueNumber int) ([]Comment, error) {
	comments, err := paginatedList(ctx, c, 0, func(page int) ([]*github.IssueComment, *github.Response, error) {
		opts := &github.IssueListCommentsOptions{
			ListOptions: github.ListOptions{
				PerPage: maxPerPage,
				Page:    page,
			},
		}
		slog.Debug("GitHub API: Listing issue comments", "org", c.org, "repo", c.repo, "issue", issueNumber, "page", page)
		return c.client.Issues.ListComments(ctx, c.org, c.repo, issueNumber, opts)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list issue comments: %w", err)
	}

	allComments := make([]Comment, 0, len(comments))
	for _, comment := range comments {
		allComments = append(allComments, Comment{
			ID:        comment.GetID(),
			Body:      comment.GetBody(),
			User:      comment.GetUser().GetLogin(),
			CreatedAt: comment.GetCreatedAt().Time,
		})
	}

	return allComments, nil
}

// CreateIssueComment creates a new comment on an issue
func (c *Client) CreateIssueComment(ctx context.Context, issueNumber int, body string) (*Comment, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	commentInput := &github.IssueComment{
		Body: github.String(body),
	}

	slog.Debug("GitHub API: Creating issue comment", "org", c.org, "repo", c.repo, "issue", issueNumber)
	comment, _, err := c.client.Issues.CreateComment(ctx, c.org, c.repo, issueNumber, commentInput)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return &Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		User:      comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
	}, nil
}

// HasCommentWithMarker reports whether any comment on the issue contains marker
func (c *Client) HasCommentWithMarker(ctx context.Context, issueNumber int, marker string) (bool, error) {
	comments, err := c.GetIssueComments(ctx, issueNumber)
	if err != nil {
		return false, err
	}
	return ContainsMarker(comments, marker), nil
}

// ContainsMarker reports whether any comment body contains marker
func ContainsMarker(comments []Comment, marker string) bool {
	for _, comment := range comments {
		if strings.Contains(comment.Body, marker) {
			return true
		}
	}
	return false
}
