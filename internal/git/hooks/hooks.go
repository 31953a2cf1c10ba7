package hooks

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emilianohg/aimetrics/internal/git"
)

const marker = "aimetrics commit-msg hook"

const commitMsgHook = `#!/bin/sh
# ` + marker + `
# Chain existing hook if present
if [ -x "$0.legacy" ]; then
    "$0.legacy" "$@" || exit $?
fi
# Reject messages that do not follow [type/JIRA-ID][tool] - description
exec aimetrics check-message "$1"
`

// Install writes the commit-msg hook into the hooks directory of the
// repository containing dir. An existing foreign hook is kept as
// commit-msg.legacy and still runs first.
func Install(dir string, out io.Writer) (string, error) {
	hooksDir, err := git.GetHooksDir(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(hooksDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create hooks directory: %w", err)
	}

	hookPath := filepath.Join(hooksDir, "commit-msg")
	legacyPath := hookPath + ".legacy"

	if existing, err := os.ReadFile(hookPath); err == nil && !isOurs(existing) {
		if err := os.Rename(hookPath, legacyPath); err != nil {
			return "", fmt.Errorf("failed to backup existing commit-msg hook: %w", err)
		}
		fmt.Fprintln(out, "Backed up existing commit-msg hook to commit-msg.legacy")
	}

	if err := os.WriteFile(hookPath, []byte(commitMsgHook), 0755); err != nil {
		return "", fmt.Errorf("failed to write commit-msg hook: %w", err)
	}

	return hookPath, nil
}

// Uninstall removes our hook and restores a backed up one.
func Uninstall(dir string, out io.Writer) error {
	hooksDir, err := git.GetHooksDir(dir)
	if err != nil {
		return err
	}

	hookPath := filepath.Join(hooksDir, "commit-msg")
	legacyPath := hookPath + ".legacy"

	content, err := os.ReadFile(hookPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !isOurs(content) {
		fmt.Fprintln(out, "commit-msg hook was not installed by aimetrics; leaving it alone")
		return nil
	}

	if err := os.Remove(hookPath); err != nil {
		return err
	}

	if _, err := os.Stat(legacyPath); err == nil {
		if err := os.Rename(legacyPath, hookPath); err != nil {
			return fmt.Errorf("failed to restore commit-msg hook: %w", err)
		}
		fmt.Fprintln(out, "Restored original commit-msg hook")
	}

	return nil
}

// IsInstalled reports whether our hook is active for the repository.
func IsInstalled(dir string) bool {
	hooksDir, err := git.GetHooksDir(dir)
	if err != nil {
		return false
	}
	content, err := os.ReadFile(filepath.Join(hooksDir, "commit-msg"))
	return err == nil && isOurs(content)
}

func isOurs(content []byte) bool {
	return strings.Contains(string(content), marker)
}

// MessageFromFile extracts the subject git is about to record from a
// COMMIT_EDITMSG style file: the first line that is neither blank nor a
// comment.
func MessageFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return line, nil
	}

	return "", nil
}

// Exempt reports messages git generates itself, which the hook lets through.
func Exempt(message string) bool {
	for _, prefix := range []string{"Merge ", "Revert \"", "fixup! ", "squash! "} {
		if strings.HasPrefix(message, prefix) {
			return true
		}
	}
	return false
}
