package git

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// cherryPickTrailerPattern matches the line added by 'git cherry-pick -x'
// Example: "(cherry picked from commit abc123def456)"
var cherryPickTrailerPattern = regexp.MustCompile(`\(cherry picked from commit ([0-9a-f]{7,40})\)`)

// Commit is an immutable commit read from history
type Commit struct {
	SHA     string
	Parents []string
	Author  string
	Subject string
	Message string
}

// IsMerge reports whether the commit has more than one parent
func (c Commit) IsMerge() bool {
	return len(c.Parents) > 1
}

// ShortSHA returns the first 12 characters of the SHA
func (c Commit) ShortSHA() string {
	return ShortSHA(c.SHA)
}

// ShortSHA abbreviates a SHA to 12 characters
func ShortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

// fields are separated by NUL and records by the ASCII record separator
const logFormat = "%H%x00%P%x00%an%x00%s%x00%B%x1e"

// ResolveRange lists the first-parent commits in before..after, oldest first.
// An empty or all-zero before yields only after.
func (r *Repository) ResolveRange(ctx context.Context, before, after string) ([]Commit, error) {
	afterSHA, err := r.ResolveCommit(ctx, after)
	if err != nil {
		return nil, err
	}

	if before == "" || strings.Trim(before, "0") == "" {
		commit, err := r.Commit(ctx, afterSHA)
		if err != nil {
			return nil, err
		}
		return []Commit{commit}, nil
	}

	beforeSHA, err := r.ResolveCommit(ctx, before)
	if err != nil {
		return nil, err
	}

	out, err := r.mustRun(ctx, "log", "--reverse", "--first-parent", "--format="+logFormat, beforeSHA+".."+afterSHA)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits %s..%s: %w", before, after, err)
	}
	return parseLog(out), nil
}

// Commit reads a single commit
func (r *Repository) Commit(ctx context.Context, rev string) (Commit, error) {
	sha, err := r.ResolveCommit(ctx, rev)
	if err != nil {
		return Commit{}, err
	}
	out, err := r.mustRun(ctx, "log", "-1", "--format="+logFormat, sha)
	if err != nil {
		return Commit{}, fmt.Errorf("failed to read commit %s: %w", rev, err)
	}
	commits := parseLog(out)
	if len(commits) == 0 {
		return Commit{}, fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
	}
	return commits[0], nil
}

// CherryPickedFrom returns the set of source SHAs named by cherry-pick trailers on commits in revRange
func (r *Repository) CherryPickedFrom(ctx context.Context, revRange string) (map[string]bool, error) {
	out, err := r.mustRun(ctx, "log", "--fixed-strings", "--grep=cherry picked from commit", "--format=%B%x1e", revRange)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for cherry-pick trailers: %w", revRange, err)
	}
	return ParseCherryPickTrailers(out), nil
}

// ParseCherryPickTrailers extracts source SHAs from '(cherry picked from commit ...)' lines
func ParseCherryPickTrailers(text string) map[string]bool {
	found := make(map[string]bool)
	for _, match := range cherryPickTrailerPattern.FindAllStringSubmatch(text, -1) {
		found[match[1]] = true
	}
	return found
}

// parseLog splits output produced with logFormat into commits
func parseLog(out string) []Commit {
	var commits []Commit
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, "\x00", 5)
		if len(fields) < 5 {
			continue
		}
		commits = append(commits, Commit{
			SHA:     fields[0],
			Parents: strings.Fields(fields[1]),
			Author:  fields[2],
			Subject: fields[3],
			Message: strings.TrimRight(fields[4], "\n"),
		})
	}
	return commits
}
