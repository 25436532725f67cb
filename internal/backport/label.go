package backport

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// doneSuffix marks a backport label whose backport has been promoted, e.g. backport/6.0-done
const doneSuffix = "-done"

// Target is a maintenance branch selected by a backport label
type Target struct {
	Label   string
	Branch  string
	Version *semver.Version
}

// Naming maps between backport labels (backport/6.0) and maintenance branches (branch-6.0)
type Naming struct {
	LabelPrefix  string
	BranchPrefix string

	labelPattern  *regexp.Regexp
	branchPattern *regexp.Regexp
}

// NewNaming compiles the label and branch patterns for the given prefixes
func NewNaming(labelPrefix, branchPrefix string) *Naming {
	return &Naming{
		LabelPrefix:   labelPrefix,
		BranchPrefix:  branchPrefix,
		labelPattern:  regexp.MustCompile(`^` + regexp.QuoteMeta(labelPrefix) + `(\d+)\.(\d+)$`),
		branchPattern: regexp.MustCompile(`^` + regexp.QuoteMeta(branchPrefix) + `(\d+)\.(\d+)$`),
	}
}

// IsBackportLabel reports whether label carries the backport prefix, valid or not.
// Done labels are not backport labels.
func (n *Naming) IsBackportLabel(label string) bool {
	return strings.HasPrefix(label, n.LabelPrefix) && !strings.HasSuffix(label, doneSuffix)
}

// DoneLabel returns the label recording that t's backport was promoted
func (t Target) DoneLabel() string {
	return t.Label + doneSuffix
}

// ParseLabel turns backport/<major>.<minor> into its Target
func (n *Naming) ParseLabel(label string) (Target, error) {
	m := n.labelPattern.FindStringSubmatch(label)
	if m == nil {
		return Target{}, &InvalidLabelError{Label: label}
	}
	version, err := minorVersion(m[1], m[2])
	if err != nil {
		return Target{}, &InvalidLabelError{Label: label}
	}
	return n.target(version), nil
}

// ParseBranch turns branch-<major>.<minor> into its Target
func (n *Naming) ParseBranch(branch string) (Target, error) {
	m := n.branchPattern.FindStringSubmatch(branch)
	if m == nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	version, err := minorVersion(m[1], m[2])
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	return n.target(version), nil
}

// IsMaintenanceBranch reports whether branch follows the maintenance branch pattern
func (n *Naming) IsMaintenanceBranch(branch string) bool {
	return n.branchPattern.MatchString(branch)
}

func (n *Naming) target(version *semver.Version) Target {
	suffix := fmt.Sprintf("%d.%d", version.Major(), version.Minor())
	return Target{
		Label:   n.LabelPrefix + suffix,
		Branch:  n.BranchPrefix + suffix,
		Version: version,
	}
}

// ActiveTarget returns the highest-version pending backport label among labels, with the
// lower pending targets that cascade after it. Labels with the backport prefix that do not
// parse are returned as InvalidLabelErrors.
func (n *Naming) ActiveTarget(labels []string) (Target, []Target, bool, []error) {
	targets, invalid := n.Targets(labels)
	if len(targets) == 0 {
		return Target{}, nil, false, invalid
	}
	return targets[0], targets[1:], true, invalid
}

// Targets parses every pending backport label, highest version first. A label whose
// done label is also present has already been backported and is left out.
func (n *Naming) Targets(labels []string) ([]Target, []error) {
	present := make(map[string]bool, len(labels))
	for _, label := range labels {
		present[label] = true
	}

	var targets []Target
	var invalid []error
	seen := make(map[string]bool)
	for _, label := range labels {
		if !n.IsBackportLabel(label) {
			continue
		}
		t, err := n.ParseLabel(label)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		if seen[t.Branch] || present[t.DoneLabel()] {
			continue
		}
		seen[t.Branch] = true
		targets = append(targets, t)
	}
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Version.GreaterThan(targets[j].Version)
	})
	return targets, invalid
}

func minorVersion(major, minor string) (*semver.Version, error) {
	majorNum, err := strconv.ParseUint(major, 10, 64)
	if err != nil {
		return nil, err
	}
	minorNum, err := strconv.ParseUint(minor, 10, 64)
	if err != nil {
		return nil, err
	}
	return semver.NewVersion(fmt.Sprintf("%d.%d.0", majorNum, minorNum))
}
