package github

import "time"

// PR represents a pull request from GitHub
type PR struct {
	Number         int
	Title          string
	URL            string
	Author         string
	State          string // "open" or "closed"
	Base           string
	Head           string
	MergeCommitSHA string
	Merged         bool
	Labels         []string
	Mergeable      *bool // nil while GitHub is still computing it
}

// HasLabel reports whether the pull request carries label
func (p *PR) HasLabel(label string) bool {
	for _, l := range p.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// PRCommit is one commit of a pull request as GitHub lists it
type PRCommit struct {
	SHA     string
	Subject string
}

// Comment represents an issue or pull request comment
type Comment struct {
	ID        int64
	Body      string
	User      string
	CreatedAt time.Time
}
