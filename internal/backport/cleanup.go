package backport

import (
	"context"
	"log/slog"
)

// Cleaner retires the backport label of a maintenance branch whose window has closed
type Cleaner struct {
	hosting Hosting
	naming  *Naming
	limit   int
}

// NewCleaner creates a cleaner that looks at most limit merged pull requests
func NewCleaner(hosting Hosting, naming *Naming, limit int) *Cleaner {
	return &Cleaner{hosting: hosting, naming: naming, limit: limit}
}

// Cleanup removes the backport label for branch from recently merged pull requests.
// It returns the pull requests that were unlabelled and the per-PR failures.
func (c *Cleaner) Cleanup(ctx context.Context, branch string) ([]int, []error, error) {
	target, err := c.naming.ParseBranch(branch)
	if err != nil {
		return nil, nil, err
	}

	prs, err := c.hosting.ListMergedPRsWithLabel(ctx, target.Label, c.limit)
	if err != nil {
		return nil, nil, hostingError("search merged PRs labelled "+target.Label, err)
	}
	slog.Info("Removing backport label from merged PRs", "label", target.Label, "count", len(prs))

	var cleared []int
	var errs []error
	for _, pr := range prs {
		if err := c.hosting.RemoveLabel(ctx, pr.Number, target.Label); err != nil {
			slog.Warn("Failed to remove label", "pr", pr.Number, "label", target.Label, "error", err)
			errs = append(errs, hostingError("remove label", err))
			continue
		}
		cleared = append(cleared, pr.Number)
	}
	return cleared, errs, nil
}
