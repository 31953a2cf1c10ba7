package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilianohg/aimetrics/internal/config"
	"github.com/emilianohg/aimetrics/internal/dashboard"
	"github.com/emilianohg/aimetrics/internal/export"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/query"
	"github.com/emilianohg/aimetrics/internal/repository"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics dashboard over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.DashboardAddr = addr
		}

		if err := serve(cfg); err != nil {
			fail("Error: %v", err)
		}
	},
}

func serve(cfg *config.Config) error {
	logger := newLogger()
	defer logger.Sync()

	return withDatabase(cfg, func(database *sql.DB) error {
		opts := query.Options{TimelineDays: cfg.TimelineDays, RecentLimit: cfg.RecentCommits}
		srv, err := dashboard.NewServer(query.New(database), opts, logger)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		output.Success(os.Stdout, "Dashboard running on http://localhost%s (ctrl+c to stop)", cfg.DashboardAddr)
		return dashboard.ListenAndServe(ctx, cfg.DashboardAddr, srv, logger)
	})
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the metrics report",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg := loadConfig()
		var report *query.Report
		err := withDatabase(cfg, func(database *sql.DB) error {
			var err error
			report, err = query.New(database).Report(context.Background(), cfg.TimelineDays)
			return err
		})
		if err != nil {
			fail("Error generating report: %v", err)
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				fail("Error: %v", err)
			}
			return
		}

		if err := output.Report(os.Stdout, report); err != nil {
			fail("Error: %v", err)
		}
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export analyzed commits or activities to parquet, CSV or JSON",
	Long: `Export a table for analysis elsewhere.

Examples:
  aimetrics export --out commits.parquet
  aimetrics export --table activities --format csv > activities.csv`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out, _ := cmd.Flags().GetString("out")
		table, _ := cmd.Flags().GetString("table")
		formatFlag, _ := cmd.Flags().GetString("format")

		format := export.FormatJSON
		if f, ok := export.FormatFromPath(out); ok {
			format = f
		}
		if formatFlag != "" {
			var err error
			if format, err = export.ParseFormat(formatFlag); err != nil {
				fail("%v", err)
			}
		}

		if table != "commits" && table != "activities" {
			fail("Unknown table %q (expected commits or activities)", table)
		}

		cfg := loadConfig()
		if err := exportTable(cfg, table, format, out); err != nil {
			fail("Error exporting %s: %v", table, err)
		}

		if out != "" {
			output.Success(os.Stderr, "Exported %s to %s", table, out)
		}
	},
}

func exportTable(cfg *config.Config, table string, format export.Format, out string) error {
	return withDatabase(cfg, func(database *sql.DB) error {
		w := os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		if table == "activities" {
			activities, err := repository.NewActivityRepo(database).GetAll()
			if err != nil {
				return fmt.Errorf("reading activities: %w", err)
			}
			return export.WriteActivities(w, format, activities)
		}

		commits, err := repository.NewCommitRepo(database).GetAll()
		if err != nil {
			return fmt.Errorf("reading commits: %w", err)
		}
		return export.WriteCommits(w, format, commits)
	})
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :3000)")
	reportCmd.Flags().Bool("json", false, "Print the report as JSON")
	exportCmd.Flags().String("format", "", "parquet, csv or json (default: from --out extension, else json)")
	exportCmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")
	exportCmd.Flags().String("table", "commits", "commits or activities")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
}
