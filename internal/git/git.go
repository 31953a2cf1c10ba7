package git

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var ErrNotRepository = errors.New("not a git repository")

// CommitInfo is one entry of the version-control history.
type CommitInfo struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	Message     string // subject only (%s); the body is not read
	CommittedAt time.Time
}

// GetRepoRoot returns the root directory of the repository containing dir.
func GetRepoRoot(dir string) (string, error) {
	root, err := runGitCommand(context.Background(), dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", ErrNotRepository
	}
	return root, nil
}

// GetHooksDir returns the hooks directory git uses for the repository
// containing dir, honouring core.hooksPath.
func GetHooksDir(dir string) (string, error) {
	path, err := runGitCommand(context.Background(), dir, "rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", ErrNotRepository
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return path, nil
}

// IsGitRepo checks if dir is inside a git repository
func IsGitRepo(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	return cmd.Run() == nil
}

// UserEmail returns the user.email configured for dir, or "" when unset.
func UserEmail(dir string) string {
	email, err := runGitCommand(context.Background(), dir, "config", "user.email")
	if err != nil {
		return ""
	}
	return email
}

func runGitCommand(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// subject mimics git's %s: the first paragraph of the message on one line.
func subject(message string) string {
	message = strings.TrimLeft(message, "\n")
	if i := strings.Index(message, "\n\n"); i >= 0 {
		message = message[:i]
	}
	return strings.TrimSpace(strings.Join(strings.Fields(strings.ReplaceAll(message, "\n", " ")), " "))
}
