package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/emilianohg/aimetrics/internal/git"
	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/track"
	"github.com/emilianohg/aimetrics/internal/tui"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record a manual activity (research, meetings, reviews...)",
	Long: `Record time spent outside of commits.

Without flags an interactive form is shown. Pass --description and --duration
to record without prompting:

  aimetrics track --email ana@bank.com --tool copilot --type research \
    --description "Read the PIX settlement docs" --duration 45 \
    --links https://example.com/pix`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		answers := track.Answers{}
		answers.Email, _ = flags.GetString("email")
		answers.AITool, _ = flags.GetString("tool")
		answers.ActivityType, _ = flags.GetString("type")
		answers.Description, _ = flags.GetString("description")
		answers.Duration, _ = flags.GetString("duration")
		answers.Links, _ = flags.GetString("links")

		if answers.Email == "" {
			if cwd, err := os.Getwd(); err == nil {
				answers.Email = git.UserEmail(cwd)
			}
		}

		if !flags.Changed("description") {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				fail("No terminal available; pass --description and --duration")
			}

			ctx, stop := signalContext()
			defer stop()

			var err error
			answers, err = tui.RunTrackForm(ctx, answers.Email, nil, nil)
			if errors.Is(err, tui.ErrAborted) {
				output.Warn(os.Stdout, "Cancelled")
				return
			}
			if err != nil {
				fail("Error: %v", err)
			}
		}

		cfg := loadConfig()
		var (
			activity *models.Activity
			today    repository.DaySummary
		)
		err := withDatabase(cfg, func(database *sql.DB) error {
			var err error
			activity, today, err = track.Record(repository.NewActivityRepo(database), answers, time.Now())
			return err
		})
		if err != nil {
			fail("Error: %v", err)
		}

		output.Success(os.Stdout, "Activity recorded: %s (%d min, %s)", activity.Description, activity.DurationMinutes, activity.AITool)
		fmt.Printf("Today %s has %d activities, %d minutes in total\n", activity.AuthorEmail, today.Activities, today.TotalMinutes)
	},
}

func init() {
	trackCmd.Flags().String("email", "", "Your email (default: git config user.email)")
	trackCmd.Flags().String("tool", "no-ai", "AI tool used: copilot, devin or no-ai")
	trackCmd.Flags().String("type", "research", "Activity type: research, meeting, code-review, documentation, planning, other")
	trackCmd.Flags().String("description", "", "What you did")
	trackCmd.Flags().String("duration", "", "Duration in minutes")
	trackCmd.Flags().String("links", "", "Comma separated links")

	rootCmd.AddCommand(trackCmd)
}
