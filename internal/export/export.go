// Package export writes classified commits and activities to files for
// analysis outside the tool.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/emilianohg/aimetrics/internal/models"
)

type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatParquet, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected parquet, csv or json)", s)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return "", false
	}
	f, err := ParseFormat(path[i+1:])
	return f, err == nil
}

type CommitRow struct {
	Hash             string    `parquet:"hash,snappy" json:"hash"`
	AuthorEmail      string    `parquet:"author_email,snappy" json:"author_email"`
	Message          string    `parquet:"message,snappy" json:"message"`
	Timestamp        time.Time `parquet:"timestamp,snappy" json:"timestamp"`
	CommitType       *string   `parquet:"commit_type,optional,snappy" json:"commit_type"`
	JiraID           *string   `parquet:"jira_id,optional,snappy" json:"jira_id"`
	AITool           *string   `parquet:"ai_tool,optional,snappy" json:"ai_tool"`
	TimeSpentMinutes *int32    `parquet:"time_spent_minutes,optional,snappy" json:"time_spent_minutes"`
}

type ActivityRow struct {
	ID              int64     `parquet:"id,snappy" json:"id"`
	AuthorEmail     string    `parquet:"author_email,snappy" json:"author_email"`
	Description     string    `parquet:"description,snappy" json:"description"`
	ResearchLinks   []string  `parquet:"research_links,list" json:"research_links"`
	Timestamp       time.Time `parquet:"timestamp,snappy" json:"timestamp"`
	AITool          string    `parquet:"ai_tool,snappy" json:"ai_tool"`
	DurationMinutes int32     `parquet:"duration_minutes,snappy" json:"duration_minutes"`
	ActivityType    string    `parquet:"activity_type,snappy" json:"activity_type"`
}

var commitHeader = []string{"hash", "author_email", "message", "timestamp", "commit_type", "jira_id", "ai_tool", "time_spent_minutes"}

var activityHeader = []string{"id", "author_email", "description", "research_links", "timestamp", "ai_tool", "duration_minutes", "activity_type"}

func CommitRows(commits []models.Commit) []CommitRow {
	rows := make([]CommitRow, 0, len(commits))
	for _, c := range commits {
		row := CommitRow{
			Hash:        c.Hash,
			AuthorEmail: c.AuthorEmail,
			Message:     c.Message,
			Timestamp:   c.Timestamp.UTC(),
			CommitType:  optional(c.CommitType),
			JiraID:      c.JiraID,
			AITool:      optional(string(c.AITool)),
		}
		if c.TimeSpentMinutes != nil {
			v := int32(*c.TimeSpentMinutes)
			row.TimeSpentMinutes = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func ActivityRows(activities []models.Activity) []ActivityRow {
	rows := make([]ActivityRow, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, ActivityRow{
			ID:              a.ID,
			AuthorEmail:     a.AuthorEmail,
			Description:     a.Description,
			ResearchLinks:   a.ResearchLinks,
			Timestamp:       a.Timestamp.UTC(),
			AITool:          string(a.AITool),
			DurationMinutes: int32(a.DurationMinutes),
			ActivityType:    string(a.ActivityType),
		})
	}
	return rows
}

func WriteCommits(w io.Writer, format Format, commits []models.Commit) error {
	rows := CommitRows(commits)
	return write(w, format, rows, commitHeader, func(r CommitRow) []string {
		return []string{
			r.Hash, r.AuthorEmail, r.Message, r.Timestamp.Format(time.RFC3339),
			deref(r.CommitType), deref(r.JiraID), deref(r.AITool), int32String(r.TimeSpentMinutes),
		}
	})
}

func WriteActivities(w io.Writer, format Format, activities []models.Activity) error {
	rows := ActivityRows(activities)
	return write(w, format, rows, activityHeader, func(r ActivityRow) []string {
		return []string{
			strconv.FormatInt(r.ID, 10), r.AuthorEmail, r.Description, strings.Join(r.ResearchLinks, ","),
			r.Timestamp.Format(time.RFC3339), r.AITool, strconv.Itoa(int(r.DurationMinutes)), r.ActivityType,
		}
	})
}

func write[T any](w io.Writer, format Format, rows []T, header []string, record func(T) []string) error {
	switch format {
	case FormatParquet:
		writer := parquet.NewGenericWriter[T](w)
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		return writer.Close()

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, row := range rows {
			if err := cw.Write(record(row)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func int32String(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}
