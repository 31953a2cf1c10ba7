package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/emilianohg/aimetrics/internal/config"
	"github.com/emilianohg/aimetrics/internal/git"
	"github.com/emilianohg/aimetrics/internal/ingest"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/parser"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/resolver"
	"github.com/emilianohg/aimetrics/internal/tui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Classify the commits of the current repository",
	Long: `Read the git history of the current repository, classify every commit
against the [type/JIRA-ID][tool] convention and estimate the time spent on it.

Gaps between 2h and 8h since the author's previous commit are ambiguous: you
are asked whether to record them as research. Longer gaps count as idle.

Examples:
  aimetrics analyze
  aimetrics analyze --since "2 weeks ago" --author ana@bank.com
  aimetrics analyze --branch main --no-prompt`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fail("Error: %v", err)
		}
		root, err := git.GetRepoRoot(cwd)
		if err != nil {
			fail("%s is not inside a git repository", cwd)
		}

		opts := git.HistoryOptions{}
		opts.Count, _ = cmd.Flags().GetInt("count")
		opts.Author, _ = cmd.Flags().GetString("author")
		opts.Branch, _ = cmd.Flags().GetString("branch")
		if since, _ := cmd.Flags().GetString("since"); since != "" {
			opts.Since, err = git.ParseSince(since, time.Now())
			if err != nil {
				fail("Invalid --since: %v", err)
			}
		}
		noPrompt, _ := cmd.Flags().GetBool("no-prompt")

		cfg := loadConfig()
		if err := analyze(cfg, root, opts, noPrompt); err != nil {
			switch {
			case errors.Is(err, tui.ErrAborted), isCanceled(err):
				fail("Analysis aborted; no commits were saved")
			case errors.Is(err, ingest.ErrPersist):
				fail("%v", err)
			default:
				fail("Error analyzing commits: %v", err)
			}
		}
	},
}

// analyze ingests the history of root and prints the summary. The logger
// is flushed and the database closed before it returns.
func analyze(cfg *config.Config, root string, opts git.HistoryOptions, noPrompt bool) error {
	logger := newLogger()
	defer logger.Sync()

	return withDatabase(cfg, func(database *sql.DB) error {
		commits := repository.NewCommitRepo(database)
		spin := output.NewSpinner(os.Stderr, "Analyzing commits...")

		var r resolver.Resolver = resolver.Decline{}
		if !noPrompt && term.IsTerminal(int(os.Stdin.Fd())) {
			prompt := tui.Prompt{}
			r = resolver.Func(func(ctx context.Context, gap resolver.Gap) (resolver.Decision, error) {
				spin.Stop()
				defer spin.Start()
				return prompt.Resolve(ctx, gap)
			})
		}

		ingester := ingest.New(historySource(cfg, root), commits, repository.NewActivityRepo(database), r, logger)

		ctx, stop := signalContext()
		defer stop()

		spin.Start()
		result, err := ingester.Run(ctx, opts)
		spin.Stop()
		if err != nil {
			return err
		}

		if result.Total == 0 {
			output.Warn(os.Stdout, "No commits found")
			return nil
		}

		output.Success(os.Stdout, "%d commits analyzed (%d valid, %d invalid)", result.Total, result.Valid, result.Invalid)
		if result.Ambiguous > 0 {
			fmt.Printf("Ambiguous gaps: %d, recorded as activities: %d\n", result.Ambiguous, len(result.Activities))
		}
		if result.Idle > 0 {
			output.Dim(os.Stdout, "Idle gaps over 8h (not counted): %d", result.Idle)
		}
		if result.Invalid > 0 {
			output.Warn(os.Stdout, "%d commits do not follow the convention and were not stored. Expected:", result.Invalid)
			fmt.Printf("  %s\n", parser.Example)
		}

		stats, err := commits.StatsByTool()
		if err != nil {
			return fmt.Errorf("reading summary: %w", err)
		}
		fmt.Println()
		return output.ToolStatsTable(os.Stdout, stats)
	})
}

func historySource(cfg *config.Config, root string) git.Source {
	if cfg.HistoryBackend == config.HistoryGoGit {
		return git.GoGitSource{Dir: root}
	}
	return git.ExecSource{Dir: root}
}

func init() {
	analyzeCmd.Flags().String("since", "", `Only commits after this date ("2024-06-01", "2 weeks ago", "yesterday")`)
	analyzeCmd.Flags().String("author", "", "Only commits whose author matches")
	analyzeCmd.Flags().StringP("branch", "b", "", "Specific branch (default: all branches)")
	analyzeCmd.Flags().IntP("count", "n", 0, "Only the last N commits")
	analyzeCmd.Flags().Bool("no-prompt", false, "Never ask about ambiguous gaps; they are not recorded")

	rootCmd.AddCommand(analyzeCmd)
}
