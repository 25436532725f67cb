package backport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/git"
)

// Result is the recorded outcome of one attempt
type Result struct {
	Attempt Attempt
	Outcome cmd.Outcome
	// Applied lists the commits cherry-picked onto the backport branch
	Applied []git.Commit
	// ConflictCommit and ConflictFiles are set for OutcomeConflicted
	ConflictCommit git.Commit
	ConflictFiles  []string
	// PullRequest is the backport pull request number once published
	PullRequest int
	Err         error
}

// Executor replays planned attempts in a local clone
type Executor struct {
	vcs VersionControl
}

// NewExecutor creates an executor
func NewExecutor(vcs VersionControl) *Executor {
	return &Executor{vcs: vcs}
}

// Execute runs every attempt in order against freshly fetched remote refs. A failing
// attempt is recorded with OutcomeFailed and does not stop the others.
func (e *Executor) Execute(ctx context.Context, attempts []Attempt) []Result {
	results := make([]Result, 0, len(attempts))
	for _, attempt := range attempts {
		res := e.run(ctx, attempt)
		if res.Err != nil {
			res.Outcome = cmd.OutcomeFailed
			slog.Error("Backport attempt failed", "target", attempt.Target.Branch, "branch", attempt.Branch, "error", res.Err)
		} else {
			slog.Info("Backport attempt finished", "target", attempt.Target.Branch, "branch", attempt.Branch, "outcome", res.Outcome)
		}
		results = append(results, res)
	}
	return results
}

func (e *Executor) run(ctx context.Context, attempt Attempt) Result {
	res := Result{Attempt: attempt}
	target := attempt.Target.Branch
	targetRef := e.vcs.RemoteRef(target)

	exists, err := e.vcs.RemoteBranchExists(ctx, target)
	if err != nil {
		res.Err = err
		return res
	}
	if !exists {
		res.Err = fmt.Errorf("%w: %s", ErrTargetBranchMissing, target)
		return res
	}

	remaining, err := e.pending(ctx, attempt.Commits, targetRef)
	if err != nil {
		res.Err = err
		return res
	}
	if len(remaining) == 0 {
		slog.Info("All commits already on target", "target", target)
		res.Outcome = cmd.OutcomeSkipped
		return res
	}

	done, err := e.alreadyPushed(ctx, remaining, attempt.Branch, targetRef)
	if err != nil {
		res.Err = err
		return res
	}
	if done {
		slog.Info("Backport branch already carries every commit", "branch", attempt.Branch)
		res.Outcome = cmd.OutcomeSkipped
		return res
	}

	if err := e.vcs.CheckoutFresh(ctx, attempt.Branch, targetRef); err != nil {
		res.Err = err
		return res
	}

	for _, commit := range remaining {
		pick, err := e.vcs.CherryPick(ctx, commit)
		if err != nil {
			res.Err = fmt.Errorf("failed to cherry-pick %s: %w", commit.ShortSHA(), err)
			if abortErr := e.vcs.AbortCherryPick(ctx); abortErr != nil {
				slog.Warn("Failed to abort cherry-pick", "error", abortErr)
			}
			return res
		}

		switch pick.Status {
		case git.PickApplied:
			res.Applied = append(res.Applied, commit)
		case git.PickEmpty:
			if err := e.vcs.SkipCherryPick(ctx); err != nil {
				res.Err = err
				return res
			}
		case git.PickConflict:
			if err := e.vcs.AbortCherryPick(ctx); err != nil {
				res.Err = err
				return res
			}
			res.Outcome = cmd.OutcomeConflicted
			res.ConflictCommit = commit
			res.ConflictFiles = pick.ConflictFiles
			return res
		}
	}

	if len(res.Applied) == 0 {
		res.Outcome = cmd.OutcomeSkipped
		return res
	}

	if err := e.vcs.Push(ctx, attempt.Branch); err != nil {
		res.Err = err
		return res
	}
	res.Outcome = cmd.OutcomeApplied
	return res
}

// pending drops commits the target already contains, either directly or as a -x cherry-pick
func (e *Executor) pending(ctx context.Context, commits []git.Commit, targetRef string) ([]git.Commit, error) {
	var remaining []git.Commit
	for _, commit := range commits {
		contained, err := e.vcs.IsAncestor(ctx, commit.SHA, targetRef)
		if err != nil {
			return nil, fmt.Errorf("failed to check whether %s is on %s: %w", commit.ShortSHA(), targetRef, err)
		}
		if contained {
			slog.Info("Commit already on target", "sha", commit.ShortSHA(), "target", targetRef)
			continue
		}

		picked, err := e.vcs.CherryPickedFrom(ctx, commit.SHA+".."+targetRef)
		if err != nil {
			return nil, err
		}
		if picked[commit.SHA] {
			slog.Info("Commit already cherry-picked onto target", "sha", commit.ShortSHA(), "target", targetRef)
			continue
		}
		remaining = append(remaining, commit)
	}
	return remaining, nil
}

// alreadyPushed reports whether the remote backport branch carries a cherry-pick of every commit
func (e *Executor) alreadyPushed(ctx context.Context, commits []git.Commit, branch, targetRef string) (bool, error) {
	exists, err := e.vcs.RemoteBranchExists(ctx, branch)
	if err != nil || !exists {
		return false, err
	}

	picked, err := e.vcs.CherryPickedFrom(ctx, targetRef+".."+e.vcs.RemoteRef(branch))
	if err != nil {
		return false, err
	}
	for _, commit := range commits {
		if !picked[commit.SHA] {
			return false, nil
		}
	}
	return true, nil
}
