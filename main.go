// package main is the entry point for the backporter tool
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	backportcmd "github.com/alan/backporter/cmd/backport"
	"github.com/alan/backporter/cmd/cleanup"
	"github.com/alan/backporter/cmd/promote"
	"github.com/alan/backporter/cmd/remind"
	"github.com/alan/backporter/internal/commands"
	"github.com/alan/backporter/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &commands.GlobalFlags{}
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:   "backporter",
		Short: "Backport merged pull requests to maintenance branches",
		Long: `backporter cherry-picks merged pull requests labelled backport/X.Y onto the
matching branch-X.Y maintenance branches, opens one backport pull request per
target branch and reports conflicts on the originating pull request.

It is meant to be invoked by CI on push, label and schedule events.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogger(logLevel, logFormat)
		},
	}

	// Add global flags
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "backporter.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "log-format", "f", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().DurationVar(&flags.Timeout, "timeout", 15*time.Minute, "Abort the run after this duration")
	rootCmd.PersistentFlags().StringVar(&flags.Workdir, "workdir", ".", "Local clone used for cherry-picks")
	rootCmd.PersistentFlags().StringVar(&flags.Repository, "repository", "", "Repository as owner/name, overriding the config file")

	rootCmd.AddCommand(promote.NewPromoteCmd(flags, config.LoadConfig))
	rootCmd.AddCommand(backportcmd.NewBackportCmd(flags, config.LoadConfig))
	rootCmd.AddCommand(remind.NewRemindCmd(flags, config.LoadConfig))
	rootCmd.AddCommand(cleanup.NewCleanupCmd(flags, config.LoadConfig))

	return rootCmd
}

func setupLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	// Logs go to stderr; stdout carries the run summary
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}

	slog.SetDefault(slog.New(handler))
}
