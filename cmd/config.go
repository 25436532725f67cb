// Package cmd defines core data structures for backporter configuration and attempt outcomes.
package cmd

// Outcome represents the terminal result of a backport attempt
type Outcome string

const (
	// OutcomeApplied indicates every commit was cherry-picked and the backport branch was pushed
	OutcomeApplied Outcome = "applied"
	// OutcomeConflicted indicates a commit could not be cherry-picked without manual resolution
	OutcomeConflicted Outcome = "conflicted"
	// OutcomeSkipped indicates the change is already present on the target (or its backport branch)
	OutcomeSkipped Outcome = "skipped-already-applied"
	// OutcomeFailed indicates the attempt stopped on an error (missing branch, API failure)
	OutcomeFailed Outcome = "failed"
)

// Mode selects which flow the orchestrator runs
type Mode string

const (
	// ModePromote scans a pushed commit range for backport intent
	ModePromote Mode = "promote"
	// ModeBackport backports one merged pull request using an explicit label
	ModeBackport Mode = "backport"
	// ModeRemind sweeps open pull requests for merge conflicts
	ModeRemind Mode = "remind"
	// ModeCleanup removes a closed maintenance branch's label from recently merged pull requests
	ModeCleanup Mode = "cleanup"
)

// Config represents the structure of backporter.yaml
type Config struct {
	Org              string  `yaml:"org"`
	Repo             string  `yaml:"repo"`
	DefaultBranch    string  `yaml:"default_branch"`
	Remote           string  `yaml:"remote"`
	LabelPrefix      string  `yaml:"label_prefix"`
	BranchPrefix     string  `yaml:"branch_prefix"`
	ConflictsLabel   string  `yaml:"conflicts_label"`
	RecentLimit      int     `yaml:"recent_limit"`
	APIRatePerSecond float64 `yaml:"api_rate_per_second"`
	APIBurst         int     `yaml:"api_burst"`
	GitUserName      string  `yaml:"git_user_name,omitempty"`
	GitUserEmail     string  `yaml:"git_user_email,omitempty"`
}
