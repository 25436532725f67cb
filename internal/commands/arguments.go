package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRange splits a "before..after" revision range
func ParseRange(s string) (before, after string, err error) {
	if strings.Contains(s, "...") {
		return "", "", fmt.Errorf("invalid range %q: symmetric ranges are not supported", s)
	}
	before, after, found := strings.Cut(s, "..")
	if !found || before == "" || after == "" {
		return "", "", fmt.Errorf("invalid range %q: expected <before>..<after>", s)
	}
	return before, after, nil
}

// ParseRepository splits an "owner/name" repository argument
func ParseRepository(s string) (org, repo string, err error) {
	org, repo, found := strings.Cut(s, "/")
	if !found || org == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", s)
	}
	return org, repo, nil
}

// ParsePRNumber parses a pull request number, accepting an optional leading '#'
func ParsePRNumber(s string) (int, error) {
	prNumber, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid PR number: %w", err)
	}
	if prNumber <= 0 {
		return 0, fmt.Errorf("invalid PR number: %d", prNumber)
	}
	return prNumber, nil
}
