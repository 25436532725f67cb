package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/alan/backporter/cmd"
	"github.com/alan/backporter/internal/backport"
)

var (
	appliedColor  = color.New(color.FgGreen)
	conflictColor = color.New(color.FgYellow)
	skippedColor  = color.New(color.FgCyan)
	failedColor   = color.New(color.FgRed, color.Bold)
)

// FormatReport renders a run report as human-readable lines
func FormatReport(report *backport.Report) string {
	var out strings.Builder

	if len(report.Results) > 0 || report.Mode == cmd.ModePromote || report.Mode == cmd.ModeBackport {
		out.WriteString(fmt.Sprintf("%s: %d applied, %d conflicted, %d skipped, %d failed\n",
			report.Mode,
			report.Count(cmd.OutcomeApplied),
			report.Count(cmd.OutcomeConflicted),
			report.Count(cmd.OutcomeSkipped),
			report.Count(cmd.OutcomeFailed)))
	}
	for _, res := range report.Results {
		out.WriteString("  " + formatResult(res) + "\n")
	}

	if len(report.Done) > 0 {
		out.WriteString(fmt.Sprintf("🏁 Marked backport done on %s\n", formatNumbers(report.Done)))
	}
	if report.Mode == cmd.ModeCleanup {
		if len(report.Unlabelled) == 0 {
			out.WriteString("cleanup: no pull requests needed unlabelling\n")
		} else {
			out.WriteString(fmt.Sprintf("🧹 Removed label from %s\n", formatNumbers(report.Unlabelled)))
		}
	}
	if sweep := report.Sweep; sweep != nil {
		out.WriteString(fmt.Sprintf("remind: %d labelled, %d cleared, %d reminded, %d failed\n",
			len(sweep.Labelled), len(sweep.Cleared), len(sweep.Reminded), len(sweep.Errors)))
		if len(sweep.Labelled) > 0 {
			out.WriteString("  " + conflictColor.Sprintf("⚠️  newly conflicting: %s", formatNumbers(sweep.Labelled)) + "\n")
		}
		if len(sweep.Cleared) > 0 {
			out.WriteString("  " + appliedColor.Sprintf("✅ resolved: %s", formatNumbers(sweep.Cleared)) + "\n")
		}
		if len(sweep.Reminded) > 0 {
			out.WriteString(fmt.Sprintf("  🔔 reminded: %s\n", formatNumbers(sweep.Reminded)))
		}
	}

	return out.String()
}

// DisplayReport writes the formatted report to w
func DisplayReport(w io.Writer, report *backport.Report) {
	fmt.Fprint(w, FormatReport(report))
}

func formatResult(res backport.Result) string {
	subject := fmt.Sprintf("%s → %s", describeSource(res.Attempt), res.Attempt.Target.Branch)

	switch res.Outcome {
	case cmd.OutcomeApplied:
		line := fmt.Sprintf("✅ %s: applied %d commit(s)", subject, len(res.Applied))
		if res.PullRequest > 0 {
			line += fmt.Sprintf(", PR #%d", res.PullRequest)
		}
		if res.Err != nil {
			return failedColor.Sprintf("%s (%v)", line, res.Err)
		}
		return appliedColor.Sprint(line)
	case cmd.OutcomeConflicted:
		line := fmt.Sprintf("⚠️  %s: conflict on %s", subject, res.ConflictCommit.ShortSHA())
		if len(res.ConflictFiles) > 0 {
			line += " (" + strings.Join(res.ConflictFiles, ", ") + ")"
		}
		if url := res.Attempt.Source.URL; url != "" {
			line += " " + url
		}
		return conflictColor.Sprint(line)
	case cmd.OutcomeSkipped:
		return skippedColor.Sprintf("⏭️  %s: already applied", subject)
	default:
		return failedColor.Sprintf("❌ %s: %v", subject, res.Err)
	}
}

func describeSource(attempt backport.Attempt) string {
	if attempt.Source.Number > 0 {
		return fmt.Sprintf("#%d", attempt.Source.Number)
	}
	return attempt.SourceID()
}

func formatNumbers(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return strings.Join(parts, ", ")
}
