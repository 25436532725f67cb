package commands

import (
	"fmt"
	"regexp"
)

var shaPattern = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// ValidateSHA ensures s looks like an abbreviated or full commit SHA
func ValidateSHA(s string) error {
	if !shaPattern.MatchString(s) {
		return fmt.Errorf("invalid commit SHA %q", s)
	}
	return nil
}

// ValidateRequired reports the first flag whose value is empty
func ValidateRequired(flags map[string]string, order ...string) error {
	for _, name := range order {
		if flags[name] == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}
