package backport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

const remote = "origin"

// fakeVCS models remote branches as commit lists and applies picks in memory
type fakeVCS struct {
	commits  map[string]git.Commit
	ranges   map[string][]git.Commit
	branches map[string][]git.Commit

	// conflicts[target][sha] lists the files a pick of sha onto target conflicts on
	conflicts map[string]map[string][]string
	// empty[target][sha] makes a pick of sha onto target produce nothing
	empty map[string]map[string]bool

	fetchErr error
	pushErr  map[string]error

	fetches  int
	pushes   []string
	aborts   int
	skips    int
	local    []git.Commit
	localRef string
	base     string
	picked   int
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		commits:   make(map[string]git.Commit),
		ranges:    make(map[string][]git.Commit),
		branches:  make(map[string][]git.Commit),
		conflicts: make(map[string]map[string][]string),
		empty:     make(map[string]map[string]bool),
		pushErr:   make(map[string]error),
	}
}

func (f *fakeVCS) addCommit(c git.Commit) git.Commit {
	f.commits[c.SHA] = c
	return c
}

func (f *fakeVCS) setConflict(target, sha string, files ...string) {
	if f.conflicts[target] == nil {
		f.conflicts[target] = make(map[string][]string)
	}
	f.conflicts[target][sha] = files
}

func (f *fakeVCS) setEmpty(target, sha string) {
	if f.empty[target] == nil {
		f.empty[target] = make(map[string]bool)
	}
	f.empty[target][sha] = true
}

func (f *fakeVCS) branchOf(ref string) string {
	return strings.TrimPrefix(ref, remote+"/")
}

func (f *fakeVCS) Fetch(context.Context) error {
	f.fetches++
	return f.fetchErr
}

func (f *fakeVCS) RemoteRef(branch string) string { return remote + "/" + branch }

func (f *fakeVCS) RemoteBranchExists(_ context.Context, branch string) (bool, error) {
	_, ok := f.branches[branch]
	return ok, nil
}

func (f *fakeVCS) ResolveRange(_ context.Context, before, after string) ([]git.Commit, error) {
	commits, ok := f.ranges[before+".."+after]
	if !ok {
		return nil, fmt.Errorf("%w: %s", git.ErrUnknownRevision, after)
	}
	return commits, nil
}

func (f *fakeVCS) Commit(_ context.Context, rev string) (git.Commit, error) {
	c, ok := f.commits[rev]
	if !ok {
		return git.Commit{}, fmt.Errorf("%w: %s", git.ErrUnknownRevision, rev)
	}
	return c, nil
}

func (f *fakeVCS) IsAncestor(_ context.Context, sha, ref string) (bool, error) {
	for _, c := range f.branches[f.branchOf(ref)] {
		if c.SHA == sha {
			return true, nil
		}
	}
	return false, nil
}

// CherryPickedFrom reads trailers on the right side of a..b that are not on the left side when it is a branch
func (f *fakeVCS) CherryPickedFrom(_ context.Context, revRange string) (map[string]bool, error) {
	left, right, _ := strings.Cut(revRange, "..")
	exclude := make(map[string]bool)
	for _, c := range f.branches[f.branchOf(left)] {
		exclude[c.SHA] = true
	}
	var text strings.Builder
	for _, c := range f.branches[f.branchOf(right)] {
		if !exclude[c.SHA] {
			text.WriteString(c.Message + "\n")
		}
	}
	return git.ParseCherryPickTrailers(text.String()), nil
}

func (f *fakeVCS) CheckoutFresh(_ context.Context, branch, startPoint string) error {
	f.localRef = branch
	f.base = f.branchOf(startPoint)
	f.local = append([]git.Commit(nil), f.branches[f.base]...)
	return nil
}

func (f *fakeVCS) CherryPick(_ context.Context, commit git.Commit) (git.PickResult, error) {
	if files, ok := f.conflicts[f.base][commit.SHA]; ok {
		return git.PickResult{Status: git.PickConflict, ConflictFiles: files}, nil
	}
	if f.empty[f.base][commit.SHA] {
		return git.PickResult{Status: git.PickEmpty}, nil
	}
	f.picked++
	f.local = append(f.local, git.Commit{
		SHA:     fmt.Sprintf("pick%d%s", f.picked, commit.SHA),
		Subject: commit.Subject,
		Message: fmt.Sprintf("%s\n\n(cherry picked from commit %s)", commit.Subject, commit.SHA),
	})
	return git.PickResult{Status: git.PickApplied}, nil
}

func (f *fakeVCS) AbortCherryPick(context.Context) error {
	f.aborts++
	return nil
}

func (f *fakeVCS) SkipCherryPick(context.Context) error {
	f.skips++
	return nil
}

func (f *fakeVCS) Push(_ context.Context, branch string) error {
	if err := f.pushErr[branch]; err != nil {
		return err
	}
	f.pushes = append(f.pushes, branch)
	f.branches[branch] = append([]git.Commit(nil), f.local...)
	return nil
}

type createdPR struct {
	Number int
	Title  string
	Body   string
	Head   string
	Base   string
}

// fakeHosting keeps pull requests, labels and comments in memory
type fakeHosting struct {
	prs       map[int]*github.PR
	commitPRs map[string][]github.PR
	prCommits map[int][]github.PRCommit
	closedBy  map[int]string
	comments  map[int][]string
	mergeable map[int]*bool
	assignees map[int][]string

	// fail maps "<op>:<number or branch>" to an error
	fail map[string]error

	created []createdPR
	next    int
}

func newFakeHosting() *fakeHosting {
	return &fakeHosting{
		prs:       make(map[int]*github.PR),
		commitPRs: make(map[string][]github.PR),
		prCommits: make(map[int][]github.PRCommit),
		closedBy:  make(map[int]string),
		comments:  make(map[int][]string),
		mergeable: make(map[int]*bool),
		assignees: make(map[int][]string),
		fail:      make(map[string]error),
		next:      100,
	}
}

func (h *fakeHosting) addPR(pr github.PR) *github.PR {
	p := pr
	h.prs[pr.Number] = &p
	return &p
}

func (h *fakeHosting) labels(number int) []string {
	if pr, ok := h.prs[number]; ok {
		return pr.Labels
	}
	return nil
}

func (h *fakeHosting) GetPR(_ context.Context, number int) (*github.PR, error) {
	if err := h.fail[fmt.Sprintf("GetPR:%d", number)]; err != nil {
		return nil, err
	}
	pr, ok := h.prs[number]
	if !ok {
		return nil, fmt.Errorf("PR #%d not found", number)
	}
	copied := *pr
	return &copied, nil
}

func (h *fakeHosting) PullRequestsForCommit(_ context.Context, sha string) ([]github.PR, error) {
	if err := h.fail["PullRequestsForCommit:"+sha]; err != nil {
		return nil, err
	}
	return h.commitPRs[sha], nil
}

func (h *fakeHosting) ListPRCommits(_ context.Context, number int) ([]github.PRCommit, error) {
	if err := h.fail[fmt.Sprintf("ListPRCommits:%d", number)]; err != nil {
		return nil, err
	}
	return h.prCommits[number], nil
}

func (h *fakeHosting) ClosingCommit(_ context.Context, number int) (string, error) {
	if err := h.fail[fmt.Sprintf("ClosingCommit:%d", number)]; err != nil {
		return "", err
	}
	return h.closedBy[number], nil
}

func (h *fakeHosting) FindOpenPR(_ context.Context, head, base string) (*github.PR, error) {
	for _, pr := range h.prs {
		if pr.Head == head && pr.Base == base && pr.State == "open" {
			copied := *pr
			return &copied, nil
		}
	}
	return nil, nil
}

func (h *fakeHosting) CreatePR(_ context.Context, title, body, head, base string) (int, error) {
	if err := h.fail["CreatePR:"+base]; err != nil {
		return 0, err
	}
	h.next++
	h.created = append(h.created, createdPR{Number: h.next, Title: title, Body: body, Head: head, Base: base})
	h.prs[h.next] = &github.PR{Number: h.next, Title: title, Head: head, Base: base, State: "open"}
	return h.next, nil
}

// numbers returns PR numbers in ascending order
func (h *fakeHosting) numbers() []int {
	numbers := make([]int, 0, len(h.prs))
	for n := range h.prs {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

func (h *fakeHosting) ListOpenPRs(_ context.Context, limit int) ([]github.PR, error) {
	var open []github.PR
	for _, n := range h.numbers() {
		if limit > 0 && len(open) >= limit {
			break
		}
		if pr := h.prs[n]; pr.State == "open" {
			open = append(open, *pr)
		}
	}
	return open, nil
}

func (h *fakeHosting) ListOpenPRsWithLabel(ctx context.Context, label string, limit int) ([]github.PR, error) {
	open, _ := h.ListOpenPRs(ctx, 0)
	var matched []github.PR
	for _, pr := range open {
		if pr.HasLabel(label) && (limit <= 0 || len(matched) < limit) {
			matched = append(matched, pr)
		}
	}
	return matched, nil
}

func (h *fakeHosting) ListMergedPRsWithLabel(_ context.Context, label string, limit int) ([]github.PR, error) {
	if err := h.fail["ListMergedPRsWithLabel:"+label]; err != nil {
		return nil, err
	}
	var matched []github.PR
	for _, n := range h.numbers() {
		if limit > 0 && len(matched) >= limit {
			break
		}
		if pr := h.prs[n]; pr.Merged && pr.HasLabel(label) {
			matched = append(matched, *pr)
		}
	}
	return matched, nil
}

func (h *fakeHosting) GetMergeable(_ context.Context, number int) (*bool, error) {
	if err := h.fail[fmt.Sprintf("GetMergeable:%d", number)]; err != nil {
		return nil, err
	}
	return h.mergeable[number], nil
}

func (h *fakeHosting) AddLabels(_ context.Context, number int, labels ...string) error {
	if err := h.fail[fmt.Sprintf("AddLabels:%d", number)]; err != nil {
		return err
	}
	pr, ok := h.prs[number]
	if !ok {
		return fmt.Errorf("PR #%d not found", number)
	}
	for _, label := range labels {
		if !pr.HasLabel(label) {
			pr.Labels = append(pr.Labels, label)
		}
	}
	return nil
}

func (h *fakeHosting) RemoveLabel(_ context.Context, number int, label string) error {
	if err := h.fail[fmt.Sprintf("RemoveLabel:%d", number)]; err != nil {
		return err
	}
	pr, ok := h.prs[number]
	if !ok {
		return nil
	}
	var kept []string
	for _, l := range pr.Labels {
		if l != label {
			kept = append(kept, l)
		}
	}
	pr.Labels = kept
	return nil
}

func (h *fakeHosting) AddAssignees(_ context.Context, number int, logins ...string) error {
	h.assignees[number] = append(h.assignees[number], logins...)
	return nil
}

func (h *fakeHosting) CreateIssueComment(_ context.Context, number int, body string) (*github.Comment, error) {
	if err := h.fail[fmt.Sprintf("CreateIssueComment:%d", number)]; err != nil {
		return nil, err
	}
	h.comments[number] = append(h.comments[number], body)
	return &github.Comment{ID: int64(len(h.comments[number])), Body: body}, nil
}

func (h *fakeHosting) HasCommentWithMarker(_ context.Context, number int, marker string) (bool, error) {
	for _, body := range h.comments[number] {
		if strings.Contains(body, marker) {
			return true, nil
		}
	}
	return false, nil
}

func boolPtr(b bool) *bool { return &b }
