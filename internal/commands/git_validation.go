package commands

import (
	"context"
	"fmt"
	"strings"
)

// workdirRepository is the part of the git repository ValidateWorkdir needs
type workdirRepository interface {
	Validate(ctx context.Context) error
	ModifiedFiles(ctx context.Context) ([]string, error)
}

// ValidateWorkdir ensures the working directory is a git clone without uncommitted changes to tracked files
func ValidateWorkdir(ctx context.Context, repo workdirRepository) error {
	if err := repo.Validate(ctx); err != nil {
		return fmt.Errorf("invalid workdir: %w", err)
	}

	files, err := repo.ModifiedFiles(ctx)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		return fmt.Errorf("working directory is not clean, please commit or stash your changes: %s", strings.Join(files, ", "))
	}
	return nil
}
