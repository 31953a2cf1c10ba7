package main

import (
	"database/sql"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/track"
)

var developersCmd = &cobra.Command{
	Use:   "developers",
	Short: "Manage the developers compared on the dashboard",
}

var developersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a developer and the AI tool group they belong to",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		group, _ := cmd.Flags().GetString("group")

		email = strings.ToLower(strings.TrimSpace(email))
		if err := track.ValidateEmail(email); err != nil {
			fail("%v: %q", err, email)
		}
		if strings.TrimSpace(name) == "" {
			fail("--name is required")
		}
		tool, ok := models.ParseAITool(group)
		if !ok {
			fail("Unknown group %q (expected copilot, devin or no-ai)", group)
		}

		cfg := loadConfig()
		dev := models.Developer{Email: email, Name: strings.TrimSpace(name), GroupType: tool}
		err := withDatabase(cfg, func(database *sql.DB) error {
			return repository.NewDeveloperRepo(database).Upsert(dev)
		})
		if err != nil {
			fail("Error saving developer: %v", err)
		}
		output.Success(os.Stdout, "Saved %s <%s> in group %s", dev.Name, dev.Email, dev.GroupType)
	},
}

var developersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List developers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		var devs []models.Developer
		err := withDatabase(cfg, func(database *sql.DB) error {
			var err error
			devs, err = repository.NewDeveloperRepo(database).GetAll()
			return err
		})
		if err != nil {
			fail("Error listing developers: %v", err)
		}
		if len(devs) == 0 {
			output.Dim(os.Stdout, "No developers yet. Add one with 'aimetrics developers add'.")
			return
		}
		if err := output.DevelopersTable(os.Stdout, devs); err != nil {
			fail("Error: %v", err)
		}
	},
}

var developersRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove a developer (their commits are kept)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		email := strings.ToLower(strings.TrimSpace(args[0]))
		err := withDatabase(cfg, func(database *sql.DB) error {
			return repository.NewDeveloperRepo(database).Delete(email)
		})
		if err != nil {
			fail("Error removing developer: %v", err)
		}
		output.Success(os.Stdout, "Removed %s", email)
	},
}

func init() {
	developersAddCmd.Flags().String("email", "", "Developer email, as used in commits")
	developersAddCmd.Flags().String("name", "", "Display name")
	developersAddCmd.Flags().String("group", "no-ai", "AI tool group: copilot, devin or no-ai")
	_ = developersAddCmd.MarkFlagRequired("email")
	_ = developersAddCmd.MarkFlagRequired("name")

	developersCmd.AddCommand(developersAddCmd)
	developersCmd.AddCommand(developersListCmd)
	developersCmd.AddCommand(developersRemoveCmd)
	rootCmd.AddCommand(developersCmd)
}
