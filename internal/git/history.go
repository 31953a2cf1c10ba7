package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type HistoryOptions struct {
	Count  int       // 0 means all
	Since  time.Time // zero = no filter
	Author string    // substring of "Name <email>", empty = everyone
	Branch string    // empty = all branches
}

// Source delivers the commit history, newest first.
type Source interface {
	History(ctx context.Context, opts HistoryOptions) ([]CommitInfo, error)
}

// ExecSource reads history by running the git binary in Dir.
type ExecSource struct {
	Dir string
}

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
	logFormat = "--format=%H%x1f%an%x1f%ae%x1f%aI%x1f%s%x1e"
)

func (s ExecSource) History(ctx context.Context, opts HistoryOptions) ([]CommitInfo, error) {
	if !IsGitRepo(s.Dir) {
		return nil, ErrNotRepository
	}

	args := []string{"log", logFormat}

	if opts.Count > 0 {
		args = append(args, fmt.Sprintf("-n%d", opts.Count))
	}

	if !opts.Since.IsZero() {
		args = append(args, "--since="+opts.Since.Format(time.RFC3339))
	}

	if opts.Author != "" {
		args = append(args, "--fixed-strings", "--author="+opts.Author)
	}

	if opts.Branch != "" {
		args = append(args, opts.Branch, "--")
	} else {
		args = append(args, "--all")
	}

	output, err := runGitCommand(ctx, s.Dir, args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && strings.Contains(string(exitErr.Stderr), "does not have any commits") {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("failed to get git log: %w", err)
	}

	return parseLog(output)
}

func parseLog(output string) ([]CommitInfo, error) {
	commits := []CommitInfo{}
	for _, record := range strings.Split(output, recordSep) {
		record = strings.Trim(record, "\n")
		if record == "" {
			continue
		}

		parts := strings.SplitN(record, fieldSep, 5)
		if len(parts) != 5 {
			return nil, fmt.Errorf("malformed git log record %q", record)
		}

		committedAt, err := time.Parse(time.RFC3339, parts[3])
		if err != nil {
			return nil, fmt.Errorf("failed to parse date of %s: %w", parts[0], err)
		}

		commits = append(commits, CommitInfo{
			Hash:        parts[0],
			AuthorName:  parts[1],
			AuthorEmail: parts[2],
			CommittedAt: committedAt,
			Message:     parts[4],
		})
	}

	return commits, nil
}

var relativeSince = regexp.MustCompile(`^(\d+)\s*\.?\s*(minute|hour|day|week|month|year)s?(\s+ago)?$`)

// ParseSince accepts YYYY-MM-DD, RFC 3339, "yesterday" and relative
// expressions such as "2 weeks ago" or "3.days".
func ParseSince(expr string, now time.Time) (time.Time, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))

	if expr == "yesterday" {
		return now.AddDate(0, 0, -1), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", expr, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, expr); err == nil {
		return t, nil
	}

	match := relativeSince.FindStringSubmatch(expr)
	if match == nil {
		return time.Time{}, fmt.Errorf("unrecognised date %q (use YYYY-MM-DD or e.g. \"2 weeks ago\")", expr)
	}

	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, err
	}

	switch match[2] {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute), nil
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), nil
	case "day":
		return now.AddDate(0, 0, -n), nil
	case "week":
		return now.AddDate(0, 0, -7*n), nil
	case "month":
		return now.AddDate(0, -n, 0), nil
	default:
		return now.AddDate(-n, 0, 0), nil
	}
}
