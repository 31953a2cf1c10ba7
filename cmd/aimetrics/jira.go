package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilianohg/aimetrics/internal/config"
	"github.com/emilianohg/aimetrics/internal/jira"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/parser"
	"github.com/emilianohg/aimetrics/internal/repository"
)

var syncJiraCmd = &cobra.Command{
	Use:   "sync-jira",
	Short: "Refresh the Jira tasks referenced by analyzed commits",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.LoadEnv(".env"); err != nil {
			fail("Error reading .env: %v", err)
		}
		creds, err := config.Jira()
		if errors.Is(err, config.ErrJiraNotConfigured) {
			fail("Jira credentials not configured. Run 'aimetrics init' for instructions.")
		}

		cfg := loadConfig()
		if err := syncJira(cfg, creds); err != nil {
			fail("Error: %v", err)
		}
	},
}

func syncJira(cfg *config.Config, creds config.JiraCredentials) error {
	logger := newLogger()
	defer logger.Sync()

	return withDatabase(cfg, func(database *sql.DB) error {
		keys, err := repository.NewCommitRepo(database).DistinctJiraIDs()
		if err != nil {
			return fmt.Errorf("reading Jira IDs: %w", err)
		}
		if len(keys) == 0 {
			output.Warn(os.Stdout, "No Jira IDs found in analyzed commits. Run 'aimetrics analyze' first.")
			return nil
		}

		client := jira.NewClient(creds.URL, creds.Email, creds.APIToken, &http.Client{Timeout: 30 * time.Second})
		tasks := repository.NewJiraTaskRepo(database)
		syncer := jira.NewSyncer(client, tasks, logger)

		ctx, stop := signalContext()
		defer stop()

		spin := output.NewSpinner(os.Stderr, fmt.Sprintf("Syncing %d Jira tasks...", len(keys)))
		spin.Start()
		result, err := syncer.Sync(ctx, keys, func(done, total int) {
			spin.SetMessage(fmt.Sprintf("Syncing Jira tasks (%d/%d)...", done+1, total))
		})
		spin.Stop()
		if err != nil {
			return fmt.Errorf("sync interrupted after %d tasks: %w", result.Updated, err)
		}

		output.Success(os.Stdout, "%d of %d tasks updated", result.Updated, result.Total)
		if len(result.NotFound) > 0 {
			output.Warn(os.Stdout, "Not found in Jira: %s", strings.Join(result.NotFound, ", "))
		}
		for _, f := range result.Failed {
			output.Error(os.Stdout, "%s: %v", f.Key, f.Err)
		}

		stats, err := tasks.StatsByStatus()
		if err != nil {
			return fmt.Errorf("reading summary: %w", err)
		}
		fmt.Println()
		return output.StatusStatsTable(os.Stdout, stats)
	})
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Show setup instructions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output.Title(os.Stdout, "aimetrics setup")
		fmt.Println(`1. Create a .env file in the repository root with your Jira credentials:

   JIRA_URL=https://your-company.atlassian.net
   JIRA_EMAIL=you@company.com
   JIRA_API_TOKEN=your-api-token

   Tokens are created at https://id.atlassian.com/manage-profile/security/api-tokens

2. Write commits following the convention:`)
		fmt.Printf("\n   %s\n\n", parser.Example)
		fmt.Println(`   Tools: copilot, devin, no-ai

3. Optionally reject non-conforming messages with 'aimetrics hooks install'.

4. Run 'aimetrics analyze', then 'aimetrics sync-jira' and 'aimetrics serve'.`)
	},
}

func init() {
	rootCmd.AddCommand(syncJiraCmd)
	rootCmd.AddCommand(initCmd)
}
