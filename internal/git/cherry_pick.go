package git

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// PickStatus is the result of cherry-picking a single commit
type PickStatus int

const (
	// PickApplied means a new commit was created on HEAD
	PickApplied PickStatus = iota
	// PickEmpty means the change is already present and the pick produced nothing to commit
	PickEmpty
	// PickConflict means the pick stopped with unmerged paths
	PickConflict
)

func (s PickStatus) String() string {
	switch s {
	case PickApplied:
		return "applied"
	case PickEmpty:
		return "empty"
	case PickConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// PickResult describes one cherry-pick
type PickResult struct {
	Status        PickStatus
	ConflictFiles []string
}

// emptyPickMarkers are substrings git prints when a cherry-pick has nothing left to commit
var emptyPickMarkers = []string{
	"The previous cherry-pick is now empty",
	"nothing to commit",
}

// CherryPick applies commit onto HEAD with a -x trailer and diff3 conflict markers.
// On PickConflict and PickEmpty the cherry-pick is left in progress for the caller to abort or skip.
func (r *Repository) CherryPick(ctx context.Context, commit Commit) (PickResult, error) {
	slog.Info("Cherry-picking commit", "sha", commit.ShortSHA(), "subject", commit.Subject)

	args := []string{"-c", "merge.conflictStyle=diff3", "cherry-pick", "-x"}
	if commit.IsMerge() {
		args = append(args, "-m", "1")
	}
	args = append(args, commit.SHA)

	res, err := r.run(ctx, args...)
	if err != nil {
		return PickResult{}, err
	}
	if res.exitCode == 0 {
		return PickResult{Status: PickApplied}, nil
	}

	conflicted, err := r.conflictedFiles(ctx)
	if err != nil {
		return PickResult{}, fmt.Errorf("failed to check for conflicts: %w", err)
	}
	if len(conflicted) > 0 {
		slog.Warn("Cherry-pick conflicts detected", "sha", commit.ShortSHA(), "conflicted_files", conflicted)
		return PickResult{Status: PickConflict, ConflictFiles: conflicted}, nil
	}

	output := res.stdout + res.stderr
	for _, marker := range emptyPickMarkers {
		if strings.Contains(output, marker) {
			slog.Info("Cherry-pick is empty, change already present", "sha", commit.ShortSHA())
			return PickResult{Status: PickEmpty}, nil
		}
	}

	return PickResult{}, &CommandError{Args: args, ExitCode: res.exitCode, Stderr: res.stderr}
}

// AbortCherryPick restores the branch to its state before the cherry-pick
func (r *Repository) AbortCherryPick(ctx context.Context) error {
	if _, err := r.mustRun(ctx, "cherry-pick", "--abort"); err != nil {
		return fmt.Errorf("failed to abort cherry-pick: %w", err)
	}
	return nil
}

// SkipCherryPick drops an empty in-progress cherry-pick
func (r *Repository) SkipCherryPick(ctx context.Context) error {
	if _, err := r.mustRun(ctx, "cherry-pick", "--skip"); err != nil {
		return fmt.Errorf("failed to skip empty cherry-pick: %w", err)
	}
	return nil
}

// conflictedFiles returns a list of files with merge conflicts
func (r *Repository) conflictedFiles(ctx context.Context) ([]string, error) {
	out, err := r.mustRun(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, file := range strings.Split(strings.TrimSpace(out), "\n") {
		if file != "" {
			files = append(files, file)
		}
	}
	return files, nil
}
