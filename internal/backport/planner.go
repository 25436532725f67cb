package backport

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

// backportBranchPrefix namespaces the branches pushed for backport pull requests
const backportBranchPrefix = "backport/"

// backportBranchPattern matches branches named by BranchName for a pull request source
var backportBranchPattern = regexp.MustCompile(`^` + backportBranchPrefix + `pr-(\d+)/(.+)$`)

// Attempt is one planned backport of a source pull request's commits onto a target branch
type Attempt struct {
	Source  github.PR
	Target  Target
	Commits []git.Commit
	// Branch is the backport branch pushed for this attempt
	Branch string
	// Cascade holds the lower-version backport labels handed on to the backport pull request
	Cascade []string
}

// SourceID identifies the attempt's source in branch names: pr-<N>, or the short SHA of
// the first commit when there is no pull request
func (a Attempt) SourceID() string {
	if a.Source.Number > 0 {
		return fmt.Sprintf("pr-%d", a.Source.Number)
	}
	if len(a.Commits) > 0 {
		return a.Commits[0].ShortSHA()
	}
	return "unknown"
}

// BranchName returns backport/<source>/<target-branch>
func BranchName(sourceID, targetBranch string) string {
	return backportBranchPrefix + sourceID + "/" + targetBranch
}

// ParseBranchName extracts the source pull request and target branch from a backport branch name
func ParseBranchName(branch string) (int, string, bool) {
	m := backportBranchPattern.FindStringSubmatch(branch)
	if m == nil {
		return 0, "", false
	}
	number, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return number, m[2], true
}

// Planner turns classified commits or a labelled pull request into ordered attempts
type Planner struct {
	naming *Naming
}

// NewPlanner creates a planner
func NewPlanner(naming *Naming) *Planner {
	return &Planner{naming: naming}
}

// PlanCommits groups classified commits by originating pull request and plans one attempt
// per pull request for its active (highest version) label. Commits keep their order from
// the range. Attempts are ordered by target version, highest first, then by first appearance.
// Malformed backport labels are returned as errors; the pull request is still planned if
// it has a valid label.
func (p *Planner) PlanCommits(classified []Classified) ([]Attempt, []error) {
	var attempts []Attempt
	var errs []error
	index := make(map[int]int)

	for _, item := range classified {
		number := item.PullRequest.Number
		if i, ok := index[number]; ok {
			if i >= 0 {
				attempts[i].Commits = append(attempts[i].Commits, item.Commit)
			}
			continue
		}

		active, lower, ok, invalid := p.naming.ActiveTarget(item.Labels)
		errs = append(errs, invalid...)
		if !ok {
			// Later commits of the same pull request carry the same labels
			index[number] = -1
			continue
		}
		if len(lower) > 0 {
			slog.Info("Multiple backport labels, only the highest is active",
				"pr", number, "labels", item.Labels, "active", active.Label)
		}

		index[number] = len(attempts)
		attempts = append(attempts, Attempt{
			Source:  item.PullRequest,
			Target:  active,
			Commits: []git.Commit{item.Commit},
			Cascade: labelsOf(lower),
		})
	}

	sortAttempts(attempts)
	return attempts, errs
}

// PlanLabel plans the backport of a pull request's commits for an explicitly added label.
// The plan is empty when label is not the pull request's active label, which includes a
// label whose done label is already present.
func (p *Planner) PlanLabel(pr github.PR, label string, commits []git.Commit) ([]Attempt, error) {
	target, err := p.naming.ParseLabel(label)
	if err != nil {
		return nil, err
	}

	active, lower, ok, _ := p.naming.ActiveTarget(pr.Labels)
	if !ok || active.Branch != target.Branch {
		slog.Info("Label is not the active backport label, nothing to do", "pr", pr.Number, "label", label)
		return nil, nil
	}

	attempts := []Attempt{{
		Source:  pr,
		Target:  active,
		Commits: commits,
		Cascade: labelsOf(lower),
	}}
	sortAttempts(attempts)
	return attempts, nil
}

// sortAttempts orders by target version descending, stable otherwise, and names each backport branch
func sortAttempts(attempts []Attempt) {
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Target.Version.GreaterThan(attempts[j].Target.Version)
	})
	for i := range attempts {
		attempts[i].Branch = BranchName(attempts[i].SourceID(), attempts[i].Target.Branch)
	}
}

func labelsOf(targets []Target) []string {
	var labels []string
	for _, t := range targets {
		labels = append(labels, t.Label)
	}
	return labels
}
