package github

import (
	"context"
	"fmt"
	"log/slog"
)

// AddLabels adds labels to an issue or pull request
func (c *Client) AddLabels(ctx context.Context, number int, labels ...string) error {
	if len(labels) == 0 {
		return nil
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	slog.Debug("GitHub API: Adding labels", "org", c.org, "repo", c.repo, "pr", number, "labels", labels)
	if _, _, err := c.client.Issues.AddLabelsToIssue(ctx, c.org, c.repo, number, labels); err != nil {
		return fmt.Errorf("failed to add labels %v to #%d: %w", labels, number, err)
	}
	return nil
}

// RemoveLabel removes a label from an issue or pull request; a label that is already gone is not an error
func (c *Client) RemoveLabel(ctx context.Context, number int, label string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	slog.Debug("GitHub API: Removing label", "org", c.org, "repo", c.repo, "pr", number, "label", label)
	if _, err := c.client.Issues.RemoveLabelForIssue(ctx, c.org, c.repo, number, label); err != nil {
		if isNotFound(err) {
			slog.Debug("Label already absent", "pr", number, "label", label)
			return nil
		}
		return fmt.Errorf("failed to remove label %s from #%d: %w", label, number, err)
	}
	return nil
}

// AddAssignees assigns users to an issue or pull request
func (c *Client) AddAssignees(ctx context.Context, number int, logins ...string) error {
	if len(logins) == 0 {
		return nil
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	slog.Debug("GitHub API: Adding assignees", "org", c.org, "repo", c.repo, "pr", number, "assignees", logins)
	if _, _, err := c.client.Issues.AddAssignees(ctx, c.org, c.repo, number, logins); err != nil {
		return fmt.Errorf("failed to assign %v to #%d: %w", logins, number, err)
	}
	return nil
}
