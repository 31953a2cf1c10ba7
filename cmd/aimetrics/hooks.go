package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilianohg/aimetrics/internal/git/hooks"
	"github.com/emilianohg/aimetrics/internal/output"
	"github.com/emilianohg/aimetrics/internal/parser"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the commit-msg hook of the current repository",
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Reject commit messages that do not follow the convention",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fail("Error: %v", err)
		}

		if hooks.IsInstalled(cwd) {
			output.Dim(os.Stdout, "Hook already installed; rewriting it")
		}

		path, err := hooks.Install(cwd, os.Stdout)
		if err != nil {
			fail("Error installing hook: %v", err)
		}
		output.Success(os.Stdout, "commit-msg hook installed at %s", path)
		fmt.Printf("Commits must now look like: %s\n", parser.Example)
	},
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the aimetrics commit-msg hook",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fail("Error: %v", err)
		}

		if err := hooks.Uninstall(cwd, os.Stdout); err != nil {
			fail("Error uninstalling hook: %v", err)
		}
		output.Success(os.Stdout, "aimetrics commit-msg hook removed")
	},
}

var checkMessageCmd = &cobra.Command{
	Use:    "check-message <file>",
	Short:  "Validate a commit message file (called by the commit-msg hook)",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		msg, err := hooks.MessageFromFile(args[0])
		if err != nil {
			logError("check-message", err)
			fail("Error reading commit message: %v", err)
		}

		if hooks.Exempt(msg) {
			return
		}

		if parsed := parser.Parse(msg); !parsed.IsValid {
			output.Error(os.Stderr, "Commit message does not follow the convention:")
			fmt.Fprintf(os.Stderr, "  %s\n\nExpected:\n  %s\n", msg, parser.Example)
			os.Exit(1)
		}
	},
}

func init() {
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)

	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(checkMessageCmd)
}
