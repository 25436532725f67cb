package backport

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

// subjectPRPattern matches the "(#123)" suffix GitHub adds to squash-merge subjects
var subjectPRPattern = regexp.MustCompile(`\(#(\d+)\)`)

// Classified is a promoted commit together with the pull request it came from
// and the backport labels on that pull request
type Classified struct {
	Commit      git.Commit
	PullRequest github.PR
	Labels      []string
}

// Classification is the outcome of scanning a pushed range
type Classification struct {
	// Queued are the commits whose pull request asked for a backport, oldest first
	Queued []Classified
	// Promoted are the merged pull requests that introduced the range's commits
	Promoted []github.PR
	// Errors are per-commit lookup failures
	Errors []error
}

// Classifier decides which commits in a pushed range were queued for backport
type Classifier struct {
	vcs     VersionControl
	hosting Hosting
	naming  *Naming
}

// NewClassifier creates a classifier
func NewClassifier(vcs VersionControl, hosting Hosting, naming *Naming) *Classifier {
	return &Classifier{vcs: vcs, hosting: hosting, naming: naming}
}

// Classify walks before..after oldest first and keeps the commits whose originating
// pull request carries at least one backport label. An unresolvable range is a
// *ClassificationError. A lookup failure for one commit is recorded in Errors and the
// remaining commits are still classified.
func (c *Classifier) Classify(ctx context.Context, before, after string) (*Classification, error) {
	commits, err := c.vcs.ResolveRange(ctx, before, after)
	if err != nil {
		return nil, &ClassificationError{Range: before + ".." + after, Err: err}
	}
	slog.Info("Classifying commits", "range", before+".."+after, "count", len(commits))

	result := &Classification{}
	seen := make(map[int]bool)
	for _, commit := range commits {
		pr, err := c.originatingPR(ctx, commit)
		if err != nil {
			slog.Warn("Failed to resolve originating PR", "sha", commit.ShortSHA(), "error", err)
			result.Errors = append(result.Errors, err)
			continue
		}
		if pr == nil {
			slog.Debug("No originating PR", "sha", commit.ShortSHA())
			continue
		}
		if !seen[pr.Number] {
			seen[pr.Number] = true
			result.Promoted = append(result.Promoted, *pr)
		}

		var labels []string
		for _, label := range pr.Labels {
			if c.naming.IsBackportLabel(label) {
				labels = append(labels, label)
			}
		}
		if len(labels) == 0 {
			slog.Debug("No backport labels", "sha", commit.ShortSHA(), "pr", pr.Number)
			continue
		}

		slog.Info("Commit queued for backport", "sha", commit.ShortSHA(), "pr", pr.Number, "labels", labels)
		result.Queued = append(result.Queued, Classified{Commit: commit, PullRequest: *pr, Labels: labels})
	}
	return result, nil
}

// originatingPR returns the merged pull request that introduced commit, or nil
func (c *Classifier) originatingPR(ctx context.Context, commit git.Commit) (*github.PR, error) {
	prs, err := c.hosting.PullRequestsForCommit(ctx, commit.SHA)
	if err != nil {
		return nil, hostingError("list pull requests for "+commit.ShortSHA(), err)
	}
	if pr := pickOriginating(prs, commit.SHA); pr != nil {
		return pr, nil
	}

	m := subjectPRPattern.FindStringSubmatch(commit.Subject)
	if m == nil {
		return nil, nil
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, nil
	}
	pr, err := c.hosting.GetPR(ctx, number)
	if err != nil {
		return nil, hostingError("get PR #"+m[1], err)
	}
	if !pr.Merged {
		return nil, nil
	}
	return pr, nil
}

// pickOriginating prefers the PR whose merge commit is sha, then any merged PR
func pickOriginating(prs []github.PR, sha string) *github.PR {
	var merged *github.PR
	for i := range prs {
		if prs[i].MergeCommitSHA == sha {
			return &prs[i]
		}
		if merged == nil && prs[i].Merged {
			merged = &prs[i]
		}
	}
	return merged
}
