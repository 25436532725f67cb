package backport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

// Options configures an Orchestrator
type Options struct {
	DefaultBranch  string
	LabelPrefix    string
	BranchPrefix   string
	ConflictsLabel string
	RecentLimit    int
}

// Request carries the arguments of one invocation. Only the fields of the selected Mode are read.
type Request struct {
	Mode cmd.Mode

	// promote
	Before string
	After  string
	Ref    string

	// backport
	Base  string
	PR    int
	Head  string
	Label string

	// cleanup
	Branch string
}

// Report summarises what a run did
type Report struct {
	Mode    cmd.Mode
	Results []Result
	// Done lists parent pull requests whose backport was promoted and marked done
	Done []int
	// Unlabelled lists pull requests cleaned up by ModeCleanup
	Unlabelled []int
	Sweep      *SweepResult
}

// Count returns how many results ended with outcome
func (r *Report) Count(outcome cmd.Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Orchestrator sequences classification, planning, execution and publishing for one mode
type Orchestrator struct {
	vcs        VersionControl
	hosting    Hosting
	opts       Options
	naming     *Naming
	classifier *Classifier
	planner    *Planner
	executor   *Executor
	publisher  *Publisher
}

// New creates an orchestrator
func New(vcs VersionControl, hosting Hosting, opts Options) *Orchestrator {
	naming := NewNaming(opts.LabelPrefix, opts.BranchPrefix)
	return &Orchestrator{
		vcs:        vcs,
		hosting:    hosting,
		opts:       opts,
		naming:     naming,
		classifier: NewClassifier(vcs, hosting, naming),
		planner:    NewPlanner(naming),
		executor:   NewExecutor(vcs),
		publisher:  NewPublisher(hosting),
	}
}

// Run executes req. The report is returned even when the run failed; the error joins
// every per-item failure. Conflicts are outcomes, not errors.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{Mode: req.Mode}
	var errs []error

	switch req.Mode {
	case cmd.ModePromote:
		errs = o.promote(ctx, req, report)
	case cmd.ModeBackport:
		errs = o.backport(ctx, req, report)
	case cmd.ModeRemind:
		errs = o.remind(ctx, report)
	case cmd.ModeCleanup:
		errs = o.cleanup(ctx, req, report)
	default:
		return report, fmt.Errorf("unknown mode %q", req.Mode)
	}

	for _, res := range report.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Attempt.Target.Branch, res.Err))
		}
	}
	return report, errors.Join(errs...)
}

func (o *Orchestrator) promote(ctx context.Context, req Request, report *Report) []error {
	branch := strings.TrimPrefix(req.Ref, "refs/heads/")
	onDefault := branch == o.opts.DefaultBranch
	if !onDefault && !o.naming.IsMaintenanceBranch(branch) {
		slog.Info("Push is not to the default or a maintenance branch, nothing to do", "ref", req.Ref)
		return nil
	}

	if err := o.vcs.Fetch(ctx); err != nil {
		return []error{err}
	}

	classification, err := o.classifier.Classify(ctx, req.Before, req.After)
	if err != nil {
		return []error{err}
	}
	errs := classification.Errors

	if !onDefault {
		errs = append(errs, o.markDone(ctx, branch, classification.Promoted, report)...)
	}

	attempts, planErrs := o.planner.PlanCommits(classification.Queued)
	errs = append(errs, planErrs...)
	if !onDefault {
		attempts = o.belowBranch(branch, attempts)
	}
	if len(attempts) == 0 {
		slog.Info("No backports planned", "range", req.Before+".."+req.After)
		return errs
	}

	report.Results = o.executeAndPublish(ctx, attempts)
	return errs
}

func (o *Orchestrator) backport(ctx context.Context, req Request, report *Report) []error {
	if _, err := o.naming.ParseLabel(req.Label); err != nil {
		return []error{err}
	}

	pr, err := o.hosting.GetPR(ctx, req.PR)
	if err != nil {
		return []error{hostingError(fmt.Sprintf("get PR #%d", req.PR), err)}
	}
	if req.Base != "" && pr.Base != req.Base {
		slog.Warn("PR base differs from the event base", "pr", pr.Number, "pr_base", pr.Base, "event_base", req.Base)
	}

	sha, err := o.landedCommit(ctx, pr, req.Head)
	if err != nil {
		return []error{err}
	}
	if sha == "" {
		return nil
	}

	if err := o.vcs.Fetch(ctx); err != nil {
		return []error{err}
	}
	commits, err := o.labelledCommits(ctx, pr, sha)
	if err != nil {
		return []error{err}
	}

	attempts, err := o.planner.PlanLabel(*pr, req.Label, commits)
	if err != nil {
		return []error{err}
	}
	report.Results = o.executeAndPublish(ctx, attempts)
	return nil
}

// landedCommit returns the commit a labelled pull request landed as. It is empty for an
// open pull request and for one closed without a commit, which have nothing to backport.
func (o *Orchestrator) landedCommit(ctx context.Context, pr *github.PR, head string) (string, error) {
	if pr.Merged {
		if pr.MergeCommitSHA != "" {
			return pr.MergeCommitSHA, nil
		}
		if head != "" {
			return head, nil
		}
		return "", fmt.Errorf("PR #%d has no merge commit and no head commit was given", pr.Number)
	}
	if pr.State == "open" {
		slog.Info("PR is not merged yet, nothing to do", "pr", pr.Number)
		return "", nil
	}

	sha, err := o.hosting.ClosingCommit(ctx, pr.Number)
	if err != nil {
		return "", hostingError(fmt.Sprintf("closing commit of #%d", pr.Number), err)
	}
	if sha == "" {
		slog.Info("PR was closed without merging, nothing to do", "pr", pr.Number)
		return "", nil
	}
	slog.Info("PR was closed by a commit, backporting it", "pr", pr.Number, "sha", git.ShortSHA(sha))
	return sha, nil
}

// labelledCommits returns the commits to replay for a pull request that landed as sha.
// Merge commits and squashes are replayed as one commit. A rebase merge put one commit per
// pull request commit on the base branch, ending at sha, and each of them is replayed.
func (o *Orchestrator) labelledCommits(ctx context.Context, pr *github.PR, sha string) ([]git.Commit, error) {
	commit, err := o.vcs.Commit(ctx, sha)
	if err != nil {
		return nil, &ClassificationError{Range: sha, Err: err}
	}
	if commit.IsMerge() {
		return []git.Commit{commit}, nil
	}

	prCommits, err := o.hosting.ListPRCommits(ctx, pr.Number)
	if err != nil {
		return nil, hostingError(fmt.Sprintf("list commits of #%d", pr.Number), err)
	}
	if len(prCommits) <= 1 {
		return []git.Commit{commit}, nil
	}

	landed, err := o.vcs.ResolveRange(ctx, fmt.Sprintf("%s~%d", sha, len(prCommits)), sha)
	if err != nil || len(landed) != len(prCommits) {
		slog.Debug("Rebased commits not found, replaying the landed commit alone", "pr", pr.Number, "error", err)
		return []git.Commit{commit}, nil
	}
	for i, c := range landed {
		if c.Subject != prCommits[i].Subject {
			slog.Debug("PR was squashed, replaying the landed commit alone", "pr", pr.Number)
			return []git.Commit{commit}, nil
		}
	}
	slog.Info("PR was rebase merged, replaying each of its commits", "pr", pr.Number, "commits", len(landed))
	return landed, nil
}

func (o *Orchestrator) remind(ctx context.Context, report *Report) []error {
	reminder := NewReminder(o.hosting, o.naming, o.opts.DefaultBranch, o.opts.ConflictsLabel, o.opts.RecentLimit)
	sweep, err := reminder.Sweep(ctx)
	if err != nil {
		return []error{err}
	}
	report.Sweep = sweep
	return sweep.Errors
}

func (o *Orchestrator) cleanup(ctx context.Context, req Request, report *Report) []error {
	cleaner := NewCleaner(o.hosting, o.naming, o.opts.RecentLimit)
	cleared, errs, err := cleaner.Cleanup(ctx, req.Branch)
	if err != nil {
		return []error{err}
	}
	report.Unlabelled = cleared
	return errs
}

// executeAndPublish runs the attempts and publishes each result as soon as it is recorded
func (o *Orchestrator) executeAndPublish(ctx context.Context, attempts []Attempt) []Result {
	results := o.executor.Execute(ctx, attempts)
	for i := range results {
		if err := o.publisher.Publish(ctx, &results[i]); err != nil {
			slog.Error("Failed to publish backport result", "target", results[i].Attempt.Target.Branch, "error", err)
		}
	}
	return results
}

// markDone labels the parent of every promoted backport pull request into branch with <label>-done
func (o *Orchestrator) markDone(ctx context.Context, branch string, promoted []github.PR, report *Report) []error {
	target, err := o.naming.ParseBranch(branch)
	if err != nil {
		return nil
	}

	var errs []error
	for _, pr := range promoted {
		parent, into, ok := ParseBranchName(pr.Head)
		if !ok || into != branch || pr.Base != branch {
			continue
		}
		if err := o.hosting.AddLabels(ctx, parent, target.DoneLabel()); err != nil {
			errs = append(errs, hostingError(fmt.Sprintf("mark #%d done", parent), err))
			continue
		}
		slog.Info("Backport promoted, parent marked done", "parent", parent, "backport_pr", pr.Number, "label", target.DoneLabel())
		report.Done = append(report.Done, parent)
	}
	return errs
}

// belowBranch keeps attempts that target an older line than branch
func (o *Orchestrator) belowBranch(branch string, attempts []Attempt) []Attempt {
	current, err := o.naming.ParseBranch(branch)
	if err != nil {
		return nil
	}
	var kept []Attempt
	for _, attempt := range attempts {
		if !attempt.Target.Version.LessThan(current.Version) {
			slog.Warn("Ignoring backport label that is not older than the pushed branch",
				"pr", attempt.Source.Number, "label", attempt.Target.Label, "branch", branch)
			continue
		}
		kept = append(kept, attempt)
	}
	return kept
}
