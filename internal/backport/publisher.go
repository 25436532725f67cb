package backport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan/backporter/cmd"
)

// ConflictMarker is the hidden tag that identifies a conflict notification for one target and commit
func ConflictMarker(targetBranch, sha string) string {
	return fmt.Sprintf("<!-- backport-conflict:%s:%s -->", targetBranch, sha)
}

// Publisher turns attempt results into pull requests, labels and comments
type Publisher struct {
	hosting Hosting
}

// NewPublisher creates a publisher
func NewPublisher(hosting Hosting) *Publisher {
	return &Publisher{hosting: hosting}
}

// Publish applies the hosting side effects for one result. Failures are recorded on the
// result as a *HostingAPIError as well as returned.
func (p *Publisher) Publish(ctx context.Context, res *Result) error {
	var err error
	switch res.Outcome {
	case cmd.OutcomeApplied:
		err = p.publishApplied(ctx, res)
	case cmd.OutcomeConflicted:
		err = p.publishConflict(ctx, res)
	default:
		return nil
	}
	if err != nil {
		res.Err = err
	}
	return err
}

func (p *Publisher) publishApplied(ctx context.Context, res *Result) error {
	attempt := res.Attempt
	target := attempt.Target.Branch

	existing, err := p.hosting.FindOpenPR(ctx, attempt.Branch, target)
	if err != nil {
		return hostingError("find backport PR", err)
	}

	if existing != nil {
		slog.Info("Reusing open backport PR", "pr", existing.Number, "branch", attempt.Branch)
		res.PullRequest = existing.Number
	} else {
		number, err := p.hosting.CreatePR(ctx, backportTitle(attempt), backportBody(res), attempt.Branch, target)
		if err != nil {
			return hostingError("create backport PR", err)
		}
		slog.Info("Created backport PR", "pr", number, "branch", attempt.Branch, "target", target)
		res.PullRequest = number

		if author := attempt.Source.Author; author != "" {
			if err := p.hosting.AddAssignees(ctx, number, author); err != nil {
				slog.Warn("Failed to assign backport PR to original author", "pr", number, "author", author, "error", err)
			}
		}
	}

	labels := append([]string{target}, attempt.Cascade...)
	if err := p.hosting.AddLabels(ctx, res.PullRequest, labels...); err != nil {
		return hostingError("label backport PR", err)
	}
	return nil
}

func (p *Publisher) publishConflict(ctx context.Context, res *Result) error {
	source := res.Attempt.Source
	if source.Number == 0 {
		slog.Warn("Conflict has no originating PR to comment on", "sha", res.ConflictCommit.ShortSHA())
		return nil
	}

	marker := ConflictMarker(res.Attempt.Target.Branch, res.ConflictCommit.SHA)
	found, err := p.hosting.HasCommentWithMarker(ctx, source.Number, marker)
	if err != nil {
		return hostingError("read PR comments", err)
	}
	if found {
		slog.Info("Conflict already reported", "pr", source.Number, "target", res.Attempt.Target.Branch)
		return nil
	}

	if _, err := p.hosting.CreateIssueComment(ctx, source.Number, conflictComment(res, marker)); err != nil {
		return hostingError("comment on conflict", err)
	}
	slog.Info("Reported backport conflict", "pr", source.Number, "target", res.Attempt.Target.Branch)
	return nil
}

func backportTitle(attempt Attempt) string {
	title := attempt.Source.Title
	if title == "" && len(attempt.Commits) > 0 {
		title = attempt.Commits[0].Subject
	}
	return fmt.Sprintf("[%s] %s", attempt.Target.Branch, title)
}

func backportBody(res *Result) string {
	var b strings.Builder
	attempt := res.Attempt
	if attempt.Source.Number > 0 {
		fmt.Fprintf(&b, "Backport of #%d to `%s`.\n\n", attempt.Source.Number, attempt.Target.Branch)
	} else {
		fmt.Fprintf(&b, "Backport to `%s`.\n\n", attempt.Target.Branch)
	}
	for _, commit := range res.Applied {
		fmt.Fprintf(&b, "- (cherry picked from commit %s)\n", commit.SHA)
	}
	if len(attempt.Cascade) > 0 {
		fmt.Fprintf(&b, "\nOnce merged, this continues to: %s\n", strings.Join(attempt.Cascade, ", "))
	}
	if attempt.Source.Number > 0 {
		fmt.Fprintf(&b, "\nParent PR: #%d\n", attempt.Source.Number)
	}
	return b.String()
}

func conflictComment(res *Result, marker string) string {
	var b strings.Builder
	attempt := res.Attempt
	commit := res.ConflictCommit
	if attempt.Source.Author != "" {
		fmt.Fprintf(&b, "@%s ", attempt.Source.Author)
	}
	fmt.Fprintf(&b, "backporting to `%s` stopped on a conflict in %s (%s).\n",
		attempt.Target.Branch, commit.ShortSHA(), commit.Subject)
	if len(res.ConflictFiles) > 0 {
		b.WriteString("\nConflicting files:\n")
		for _, file := range res.ConflictFiles {
			fmt.Fprintf(&b, "- `%s`\n", file)
		}
	}
	fmt.Fprintf(&b, "\nPlease cherry-pick it onto `%s` by hand (`git cherry-pick -x %s`) and open a pull request. "+
		"The `%s` label stays until the backport lands.\n\n%s\n",
		attempt.Target.Branch, commit.SHA, attempt.Target.Label, marker)
	return b.String()
}
