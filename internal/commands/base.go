package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/backport"
	"github.com/alan/backporter/internal/config"
	"github.com/alan/backporter/internal/git"
	"github.com/alan/backporter/internal/github"
)

// GlobalFlags holds the persistent flags shared by every subcommand
type GlobalFlags struct {
	ConfigFile string
	Repository string
	Workdir    string
	Timeout    time.Duration
}

// BaseCommand provides common fields and initialization for all commands
type BaseCommand struct {
	Flags        *GlobalFlags
	LoadConfig   func(string) (*cmd.Config, error)
	GitHubClient *github.Client
	Git          *git.Repository
	Context      context.Context
	Config       *cmd.Config

	cancel context.CancelFunc
}

// Init loads configuration and builds the GitHub client
func (bc *BaseCommand) Init() error {
	cfg, err := bc.LoadConfig(bc.Flags.ConfigFile)
	if err != nil {
		return err
	}
	config.ApplyDefaults(cfg)

	if bc.Flags.Repository != "" {
		org, repo, err := ParseRepository(bc.Flags.Repository)
		if err != nil {
			return err
		}
		cfg.Org, cfg.Repo = org, repo
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	bc.Config = cfg

	token, err := getGitHubToken()
	if err != nil {
		return err
	}

	if bc.Flags.Timeout > 0 {
		bc.Context, bc.cancel = context.WithTimeout(context.Background(), bc.Flags.Timeout)
	} else {
		bc.Context, bc.cancel = context.WithCancel(context.Background())
	}
	bc.GitHubClient = github.NewClient(bc.Context, token, cfg.Org, cfg.Repo)
	bc.GitHubClient.SetRateLimit(cfg.APIRatePerSecond, cfg.APIBurst)

	return nil
}

// InitGit opens the working clone; only the modes that cherry-pick need it
func (bc *BaseCommand) InitGit() error {
	workdir := bc.Flags.Workdir
	if workdir == "" {
		workdir = "."
	}

	repo := git.NewRepository(workdir, bc.Config.Remote)
	if err := ValidateWorkdir(bc.Context, repo); err != nil {
		return err
	}
	if err := repo.ConfigureIdentity(bc.Context, bc.Config.GitUserName, bc.Config.GitUserEmail); err != nil {
		return err
	}
	bc.Git = repo
	return nil
}

// Orchestrator builds the backport orchestrator from the loaded configuration
func (bc *BaseCommand) Orchestrator() *backport.Orchestrator {
	var vcs backport.VersionControl
	if bc.Git != nil {
		vcs = bc.Git
	}
	return backport.New(vcs, bc.GitHubClient, OptionsFromConfig(bc.Config))
}

// Close releases the run context
func (bc *BaseCommand) Close() {
	if bc.cancel != nil {
		bc.cancel()
	}
}

// OptionsFromConfig maps configuration onto orchestrator options
func OptionsFromConfig(cfg *cmd.Config) backport.Options {
	return backport.Options{
		DefaultBranch:  cfg.DefaultBranch,
		LabelPrefix:    cfg.LabelPrefix,
		BranchPrefix:   cfg.BranchPrefix,
		ConflictsLabel: cfg.ConflictsLabel,
		RecentLimit:    cfg.RecentLimit,
	}
}

// getGitHubToken retrieves and validates the GitHub token
func getGitHubToken() (string, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return "", fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}
	return token, nil
}
