// Package backport classifies promoted commits, plans backports onto maintenance
// branches, replays them with git and publishes the results as pull requests,
// comments and labels.
package backport

import (
	"context"

	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

// VersionControl is the local clone the executor works in. *git.Repository implements it.
type VersionControl interface {
	Fetch(ctx context.Context) error
	RemoteRef(branch string) string
	RemoteBranchExists(ctx context.Context, branch string) (bool, error)
	ResolveRange(ctx context.Context, before, after string) ([]git.Commit, error)
	Commit(ctx context.Context, rev string) (git.Commit, error)
	IsAncestor(ctx context.Context, sha, ref string) (bool, error)
	CherryPickedFrom(ctx context.Context, revRange string) (map[string]bool, error)
	CheckoutFresh(ctx context.Context, branch, startPoint string) error
	CherryPick(ctx context.Context, commit git.Commit) (git.PickResult, error)
	AbortCherryPick(ctx context.Context) error
	SkipCherryPick(ctx context.Context) error
	Push(ctx context.Context, branch string) error
}

// Hosting is the code hosting API. *github.Client implements it.
type Hosting interface {
	GetPR(ctx context.Context, number int) (*github.PR, error)
	PullRequestsForCommit(ctx context.Context, sha string) ([]github.PR, error)
	ListPRCommits(ctx context.Context, number int) ([]github.PRCommit, error)
	ClosingCommit(ctx context.Context, number int) (string, error)
	FindOpenPR(ctx context.Context, head, base string) (*github.PR, error)
	CreatePR(ctx context.Context, title, body, head, base string) (int, error)
	ListOpenPRs(ctx context.Context, limit int) ([]github.PR, error)
	ListOpenPRsWithLabel(ctx context.Context, label string, limit int) ([]github.PR, error)
	ListMergedPRsWithLabel(ctx context.Context, label string, limit int) ([]github.PR, error)
	GetMergeable(ctx context.Context, number int) (*bool, error)
	AddLabels(ctx context.Context, number int, labels ...string) error
	RemoveLabel(ctx context.Context, number int, label string) error
	AddAssignees(ctx context.Context, number int, logins ...string) error
	CreateIssueComment(ctx context.Context, number int, body string) (*github.Comment, error)
	HasCommentWithMarker(ctx context.Context, number int, marker string) (bool, error)
}

var (
	_ VersionControl = (*git.Repository)(nil)
	_ Hosting        = (*github.Client)(nil)
)
