package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilianohg/aimetrics/internal/config"
	"github.com/emilianohg/aimetrics/internal/db"
	"github.com/emilianohg/aimetrics/internal/logging"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/query"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/tui"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "aimetrics",
	Short: "AI adoption metrics from git history and Jira",
	Long: `aimetrics classifies commits written with the [type/JIRA-ID][tool] convention,
estimates the time spent on each one and compares teams by the AI tool they use.

Run without arguments to open the metrics dashboard in the terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		err := withDatabase(cfg, func(database *sql.DB) error {
			opts := query.Options{TimelineDays: cfg.TimelineDays, RecentLimit: cfg.RecentCommits}
			return tui.Run(query.New(database), repository.NewDeveloperRepo(database), opts)
		})
		if err != nil {
			fail("Error: %v", err)
		}
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the metrics database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema migration status",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		database, err := db.Open(cfg.DatabasePath)
		if err != nil {
			fail("Error opening database: %v", err)
		}

		status, err := db.GetMigrationStatus(database)
		database.Close()
		if err != nil {
			fail("Error reading migration status: %v", err)
		}

		fmt.Printf("Database: %s\n", cfg.DatabasePath)
		fmt.Printf("Schema version: %d (latest %d)\n", status.CurrentVersion, status.LatestVersion)
		switch {
		case status.Dirty:
			output.Error(os.Stdout, "Schema is dirty; a migration failed halfway")
		case status.Pending:
			output.Warn(os.Stdout, "Migrations pending; they run on the next command")
		default:
			output.Success(os.Stdout, "Schema up to date")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Verbose logging")

	dbCmd.AddCommand(dbStatusCmd)
	rootCmd.AddCommand(dbCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fail(format string, args ...any) {
	output.Error(os.Stderr, format, args...)
	os.Exit(1)
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fail("Error loading config: %v", err)
	}
	return cfg
}

// withDatabase runs fn against the migrated metrics database and closes
// it before returning, including when fn fails. Commands report the
// returned error only after this, since fail exits without running defers.
func withDatabase(cfg *config.Config, fn func(*sql.DB) error) error {
	database, err := db.OpenAndMigrate(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	return fn(database)
}

func newLogger() *zap.SugaredLogger {
	logPath, err := config.ErrorLogPath()
	if err != nil || config.EnsureDirectories() != nil {
		logPath = ""
	}

	logger, err := logging.New(debug, logPath)
	if err != nil {
		fail("Error initialising logger: %v", err)
	}
	return logger
}

// signalContext is cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// logError appends err to the error log. Used by commands git runs for us,
// where stderr may not be seen.
func logError(source string, err error) {
	logPath, pathErr := config.ErrorLogPath()
	if pathErr != nil {
		return
	}

	if err := config.EnsureDirectories(); err != nil {
		return
	}

	f, fileErr := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "%s [%s] %v\n", time.Now().Format(time.RFC3339), source, err)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
