package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/alan/backporter/internal/backport"
)

// Execute runs one orchestrator request, prints the report to w and returns the run error.
// Conflicts are reported but do not fail the command.
func Execute(bc *BaseCommand, req backport.Request, w io.Writer) error {
	slog.Info("Starting backporter run",
		"mode", req.Mode,
		"repository", bc.GitHubClient.Org()+"/"+bc.GitHubClient.Repo())

	report, err := bc.Orchestrator().Run(bc.Context, req)
	if report != nil {
		DisplayReport(w, report)
	}
	if err != nil {
		return fmt.Errorf("%s run failed: %w", req.Mode, err)
	}
	return nil
}
