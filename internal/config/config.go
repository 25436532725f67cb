// Package config provides functions for loading backporter configuration files.
package config

import (
	"errors"
	"fmt"

	"github.com/alan/backporter/cmd"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Default values applied to fields left empty in the configuration file
const (
	DefaultBranch           = "main"
	DefaultRemote           = "origin"
	DefaultLabelPrefix      = "backport/"
	DefaultBranchPrefix     = "branch-"
	DefaultConflictsLabel   = "conflicts"
	DefaultRecentLimit      = 50
	DefaultAPIRatePerSecond = 5
	DefaultAPIBurst         = 10
)

// fs is the file system used by LoadConfig; tests swap it for an in-memory one
var fs = afero.NewOsFs()

// LoadConfig loads the configuration from the specified file and applies defaults
func LoadConfig(filename string) (*cmd.Config, error) {
	return LoadConfigFs(fs, filename)
}

// LoadConfigFs loads the configuration from the given file system
func LoadConfigFs(fsys afero.Fs, filename string) (*cmd.Config, error) {
	data, err := afero.ReadFile(fsys, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config cmd.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&config)
	return &config, nil
}

// ApplyDefaults fills empty fields with their default values
func ApplyDefaults(config *cmd.Config) {
	if config.DefaultBranch == "" {
		config.DefaultBranch = DefaultBranch
	}
	if config.Remote == "" {
		config.Remote = DefaultRemote
	}
	if config.LabelPrefix == "" {
		config.LabelPrefix = DefaultLabelPrefix
	}
	if config.BranchPrefix == "" {
		config.BranchPrefix = DefaultBranchPrefix
	}
	if config.ConflictsLabel == "" {
		config.ConflictsLabel = DefaultConflictsLabel
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = DefaultRecentLimit
	}
	if config.APIRatePerSecond <= 0 {
		config.APIRatePerSecond = DefaultAPIRatePerSecond
	}
	if config.APIBurst <= 0 {
		config.APIBurst = DefaultAPIBurst
	}
}

// Validate reports configuration that cannot drive a run
func Validate(config *cmd.Config) error {
	var errs []error
	if config.Org == "" {
		errs = append(errs, errors.New("org is required"))
	}
	if config.Repo == "" {
		errs = append(errs, errors.New("repo is required"))
	}
	if config.RecentLimit > 1000 {
		errs = append(errs, fmt.Errorf("recent_limit %d exceeds 1000", config.RecentLimit))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
