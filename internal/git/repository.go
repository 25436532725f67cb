// Package git drives the git binary inside a local clone of the repository being backported.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrUnknownRevision is returned when a revision cannot be resolved to a commit
var ErrUnknownRevision = errors.New("unknown revision")

// CommandError describes a git invocation that exited non-zero
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// result holds the captured output of a git invocation
type result struct {
	stdout   string
	stderr   string
	exitCode int
}

// Repository is a local clone with a configured remote
type Repository struct {
	Dir    string
	Remote string
}

// NewRepository returns a repository rooted at dir pushing to and fetching from remote
func NewRepository(dir, remote string) *Repository {
	if remote == "" {
		remote = "origin"
	}
	return &Repository{Dir: dir, Remote: remote}
}

// run executes git and returns its output; a non-zero exit is reported through result.exitCode, not err
func (r *Repository) run(ctx context.Context, args ...string) (result, error) {
	slog.Debug("Running git", "dir", r.Dir, "args", args)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.exitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("failed to run git %s: %w", strings.Join(args, " "), err)
	}
	return res, nil
}

// mustRun executes git and turns a non-zero exit into a *CommandError
func (r *Repository) mustRun(ctx context.Context, args ...string) (string, error) {
	res, err := r.run(ctx, args...)
	if err != nil {
		return "", err
	}
	if res.exitCode != 0 {
		return "", &CommandError{Args: args, ExitCode: res.exitCode, Stderr: res.stderr}
	}
	return res.stdout, nil
}

// Validate ensures the directory is a git work tree
func (r *Repository) Validate(ctx context.Context) error {
	out, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return err
	}
	if out.exitCode != 0 || strings.TrimSpace(out.stdout) != "true" {
		return fmt.Errorf("%s is not a git repository", r.Dir)
	}
	return nil
}

// ConfigureIdentity sets the committer identity used for cherry-picks
func (r *Repository) ConfigureIdentity(ctx context.Context, name, email string) error {
	if name != "" {
		if _, err := r.mustRun(ctx, "config", "user.name", name); err != nil {
			return fmt.Errorf("failed to set user.name: %w", err)
		}
	}
	if email != "" {
		if _, err := r.mustRun(ctx, "config", "user.email", email); err != nil {
			return fmt.Errorf("failed to set user.email: %w", err)
		}
	}
	return nil
}

// ModifiedFiles lists tracked files with uncommitted changes; untracked files are ignored
func (r *Repository) ModifiedFiles(ctx context.Context) ([]string, error) {
	out, err := r.mustRun(ctx, "status", "--porcelain", "--untracked-files=no")
	if err != nil {
		return nil, fmt.Errorf("failed to read working tree status: %w", err)
	}

	var files []string
	for line := range strings.SplitSeq(strings.TrimRight(out, "\n"), "\n") {
		// Skip the two status columns and the separating space
		if len(line) > 3 {
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return files, nil
}

// Fetch updates all remote-tracking branches from the remote
func (r *Repository) Fetch(ctx context.Context) error {
	slog.Info("Fetching latest changes from remote", "remote", r.Remote)
	if _, err := r.mustRun(ctx, "fetch", "--prune", r.Remote); err != nil {
		return fmt.Errorf("failed to fetch from %s: %w", r.Remote, err)
	}
	return nil
}

// RemoteRef returns the remote-tracking ref for a branch, e.g. origin/branch-6.0
func (r *Repository) RemoteRef(branch string) string {
	return r.Remote + "/" + branch
}

// RemoteBranchExists reports whether the remote-tracking branch exists after the last fetch
func (r *Repository) RemoteBranchExists(ctx context.Context, branch string) (bool, error) {
	res, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/"+r.RemoteRef(branch))
	if err != nil {
		return false, err
	}
	return res.exitCode == 0, nil
}

// ResolveCommit resolves a revision to its full commit SHA
func (r *Repository) ResolveCommit(ctx context.Context, rev string) (string, error) {
	res, err := r.run(ctx, "rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", err
	}
	if res.exitCode != 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
	}
	return strings.TrimSpace(res.stdout), nil
}

// IsAncestor reports whether sha is reachable from ref
func (r *Repository) IsAncestor(ctx context.Context, sha, ref string) (bool, error) {
	res, err := r.run(ctx, "merge-base", "--is-ancestor", sha, ref)
	if err != nil {
		return false, err
	}
	switch res.exitCode {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, &CommandError{Args: []string{"merge-base", "--is-ancestor", sha, ref}, ExitCode: res.exitCode, Stderr: res.stderr}
	}
}

// CheckoutFresh force-creates branch at startPoint and discards any local state
func (r *Repository) CheckoutFresh(ctx context.Context, branch, startPoint string) error {
	slog.Info("Checking out fresh branch", "branch", branch, "start_point", startPoint)

	// A previous run may have died mid cherry-pick; the abort fails harmlessly otherwise.
	_, _ = r.run(ctx, "cherry-pick", "--abort")

	if _, err := r.mustRun(ctx, "checkout", "--force", "-B", branch, startPoint); err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", branch, err)
	}
	if _, err := r.mustRun(ctx, "reset", "--hard", startPoint); err != nil {
		return fmt.Errorf("failed to reset branch %s to %s: %w", branch, startPoint, err)
	}
	if _, err := r.mustRun(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("failed to clean working tree: %w", err)
	}
	return nil
}

// Push force pushes the current HEAD to branch on the remote
func (r *Repository) Push(ctx context.Context, branch string) error {
	slog.Info("Pushing branch", "remote", r.Remote, "branch", branch)
	refSpec := fmt.Sprintf("HEAD:refs/heads/%s", branch)
	if _, err := r.mustRun(ctx, "push", "--force", r.Remote, refSpec); err != nil {
		return fmt.Errorf("git push failed for branch %s: %w", branch, err)
	}
	return nil
}
