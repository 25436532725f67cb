package backport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SweepResult lists the pull requests a reminder sweep acted on
type SweepResult struct {
	// Labelled PRs became conflicting and were labelled and notified
	Labelled []int
	// Cleared PRs are mergeable again and lost the conflicts label
	Cleared []int
	// Reminded PRs were still labelled and got a reminder comment
	Reminded []int
	Errors   []error
}

// Reminder runs the scheduled conflict sweep
type Reminder struct {
	hosting        Hosting
	naming         *Naming
	defaultBranch  string
	conflictsLabel string
	limit          int
}

// NewReminder creates a reminder sweep bounded to limit pull requests per listing
func NewReminder(hosting Hosting, naming *Naming, defaultBranch, conflictsLabel string, limit int) *Reminder {
	return &Reminder{
		hosting:        hosting,
		naming:         naming,
		defaultBranch:  defaultBranch,
		conflictsLabel: conflictsLabel,
		limit:          limit,
	}
}

// Sweep first moves open pull requests in and out of the conflicts label, notifying the
// author on the way in, then reminds the authors of pull requests that stayed labelled.
// Pull requests changed by the first step are not reminded in the same sweep.
func (r *Reminder) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}
	touched := make(map[int]bool)

	open, err := r.hosting.ListOpenPRs(ctx, r.limit)
	if err != nil {
		return nil, hostingError("list open PRs", err)
	}
	for _, pr := range open {
		if pr.Base != r.defaultBranch && !r.naming.IsMaintenanceBranch(pr.Base) {
			continue
		}

		mergeable, err := r.hosting.GetMergeable(ctx, pr.Number)
		if err != nil {
			result.Errors = append(result.Errors, hostingError(fmt.Sprintf("read mergeable state of #%d", pr.Number), err))
			continue
		}
		if mergeable == nil {
			slog.Debug("Mergeable state still unknown, skipping", "pr", pr.Number)
			continue
		}

		labelled := pr.HasLabel(r.conflictsLabel)
		switch {
		case !*mergeable && !labelled:
			if err := r.markConflicting(ctx, pr.Number, pr.Author, pr.Base); err != nil {
				result.Errors = append(result.Errors, err)
				continue
			}
			touched[pr.Number] = true
			result.Labelled = append(result.Labelled, pr.Number)
		case *mergeable && labelled:
			if err := r.hosting.RemoveLabel(ctx, pr.Number, r.conflictsLabel); err != nil {
				result.Errors = append(result.Errors, hostingError("remove conflicts label", err))
				continue
			}
			slog.Info("PR no longer conflicts, label removed", "pr", pr.Number)
			touched[pr.Number] = true
			result.Cleared = append(result.Cleared, pr.Number)
		}
	}

	labelled, err := r.hosting.ListOpenPRsWithLabel(ctx, r.conflictsLabel, r.limit)
	if err != nil {
		result.Errors = append(result.Errors, hostingError("list PRs labelled "+r.conflictsLabel, err))
		return result, nil
	}
	for _, pr := range labelled {
		if touched[pr.Number] {
			continue
		}
		if _, err := r.hosting.CreateIssueComment(ctx, pr.Number, reminderComment(pr.Author)); err != nil {
			result.Errors = append(result.Errors, hostingError(fmt.Sprintf("remind #%d", pr.Number), err))
			continue
		}
		slog.Info("Reminded author of unresolved conflicts", "pr", pr.Number, "author", pr.Author)
		result.Reminded = append(result.Reminded, pr.Number)
	}

	return result, nil
}

// markConflicting labels a pull request and notifies its author. The label is taken off
// again when the notice cannot be posted, so the next sweep retries both.
func (r *Reminder) markConflicting(ctx context.Context, number int, author, base string) error {
	if err := r.hosting.AddLabels(ctx, number, r.conflictsLabel); err != nil {
		return hostingError("add conflicts label", err)
	}
	if _, err := r.hosting.CreateIssueComment(ctx, number, conflictNotice(author, base)); err != nil {
		err = hostingError(fmt.Sprintf("notify #%d", number), err)
		if rollbackErr := r.hosting.RemoveLabel(ctx, number, r.conflictsLabel); rollbackErr != nil {
			return errors.Join(err, hostingError("remove conflicts label", rollbackErr))
		}
		return err
	}
	slog.Info("PR has merge conflicts, labelled and notified", "pr", number, "base", base)
	return nil
}

func mention(author string) string {
	if author == "" {
		return ""
	}
	return "@" + author + " "
}

func conflictNotice(author, base string) string {
	return fmt.Sprintf("%sthis pull request has merge conflicts with `%s`. Please rebase and resolve them.", mention(author), base)
}

func reminderComment(author string) string {
	return fmt.Sprintf("%sreminder: this pull request still has merge conflicts. Please rebase and resolve them.", mention(author))
}
