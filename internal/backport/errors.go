package backport

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetBranchMissing is returned for an attempt whose maintenance branch does not exist on the remote
	ErrTargetBranchMissing = errors.New("target branch does not exist on remote")
	// ErrInvalidBranch is returned when a branch name does not follow the maintenance branch pattern
	ErrInvalidBranch = errors.New("not a maintenance branch")
)

// ClassificationError reports a commit range that could not be resolved. It aborts the run.
type ClassificationError struct {
	Range string
	Err   error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("failed to classify commit range %s: %v", e.Range, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// InvalidLabelError reports a backport label that does not name a <major>.<minor> version
type InvalidLabelError struct {
	Label string
}

func (e *InvalidLabelError) Error() string {
	return fmt.Sprintf("invalid backport label %q: expected <prefix><major>.<minor>", e.Label)
}

// HostingAPIError wraps a failed hosting API call for a single item
type HostingAPIError struct {
	Op  string
	Err error
}

func (e *HostingAPIError) Error() string {
	return fmt.Sprintf("hosting API %s failed: %v", e.Op, e.Err)
}

func (e *HostingAPIError) Unwrap() error { return e.Err }

func hostingError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &HostingAPIError{Op: op, Err: err}
}
