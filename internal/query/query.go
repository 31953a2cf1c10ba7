// Package query is the read-only aggregation layer behind the dashboard,
// the report command and the TUI.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/emilianohg/aimetrics/internal/db"
)

// Filter narrows results to one developer. The zero value means everyone.
type Filter struct {
	Developer string
}

func (f Filter) args() map[string]any {
	return map[string]any{"developer": f.Developer}
}

type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(database *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(database, "sqlite3"), now: time.Now}
}

type Overview struct {
	TotalCommits    int      `db:"total_commits" json:"total_commits"`
	TotalActivities int      `db:"total_activities" json:"total_activities"`
	TotalDevelopers int      `db:"total_developers" json:"total_developers"`
	TotalJiraTasks  int      `db:"total_jira_tasks" json:"total_jira_tasks"`
	AvgCommitTime   *float64 `db:"avg_commit_time" json:"avg_commit_time"`
}

type ToolSummary struct {
	AITool           string  `db:"ai_tool" json:"ai_tool"`
	TotalCommits     int     `db:"total_commits" json:"total_commits"`
	AvgTimeMinutes   float64 `db:"avg_time_minutes" json:"avg_time_minutes"`
	TotalActivities  int     `db:"total_activities" json:"total_activities"`
	TotalTimeMinutes int     `db:"total_time_minutes" json:"total_time_minutes"`
}

type TimelinePoint struct {
	Date             string `db:"date" json:"date"`
	AITool           string `db:"ai_tool" json:"ai_tool"`
	CommitsCount     int    `db:"commits_count" json:"commits_count"`
	TotalTimeMinutes int    `db:"total_time_minutes" json:"total_time_minutes"`
}

type DeveloperStats struct {
	Email            string   `db:"email" json:"email"`
	Name             string   `db:"name" json:"name"`
	GroupType        string   `db:"group_type" json:"group_type"`
	TotalCommits     int      `db:"total_commits" json:"total_commits"`
	TotalActivities  int      `db:"total_activities" json:"total_activities"`
	AvgTimePerCommit *float64 `db:"avg_time_per_commit" json:"avg_time_per_commit"`
	TotalTimeHours   float64  `db:"total_time_hours" json:"total_time_hours"`
}

type JiraComparison struct {
	Key             string  `db:"key" json:"key"`
	Title           string  `db:"title" json:"title"`
	EstimateHours   float64 `db:"estimate_hours" json:"estimate_hours"`
	TimeLoggedHours float64 `db:"time_logged_hours" json:"time_logged_hours"`
	AITool          *string `db:"ai_tool" json:"ai_tool"`
	VarianceHours   float64 `db:"variance_hours" json:"variance_hours"`
}

type Commit struct {
	Hash             string  `db:"hash" json:"hash"`
	AuthorEmail      string  `db:"author_email" json:"author_email"`
	Message          string  `db:"message" json:"message"`
	Timestamp        string  `db:"timestamp" json:"timestamp"`
	CommitType       *string `db:"commit_type" json:"commit_type"`
	JiraID           *string `db:"jira_id" json:"jira_id"`
	AITool           *string `db:"ai_tool" json:"ai_tool"`
	TimeSpentMinutes *int    `db:"time_spent_minutes" json:"time_spent_minutes"`
}

type Activity struct {
	ID              int64   `db:"id" json:"id"`
	AuthorEmail     string  `db:"author_email" json:"author_email"`
	Description     string  `db:"description" json:"description"`
	ResearchLinks   *string `db:"research_links" json:"research_links"`
	Timestamp       string  `db:"timestamp" json:"timestamp"`
	AITool          string  `db:"ai_tool" json:"ai_tool"`
	DurationMinutes int     `db:"duration_minutes" json:"duration_minutes"`
	ActivityType    string  `db:"activity_type" json:"activity_type"`
}

type JiraTask struct {
	Key             string   `db:"key" json:"key"`
	Title           string   `db:"title" json:"title"`
	EstimateHours   *float64 `db:"estimate_hours" json:"estimate_hours"`
	TimeLoggedHours *float64 `db:"time_logged_hours" json:"time_logged_hours"`
	Status          string   `db:"status" json:"status"`
	AssigneeEmail   *string  `db:"assignee_email" json:"assignee_email"`
	CreatedDate     *string  `db:"created_date" json:"created_date"`
	CompletedDate   *string  `db:"completed_date" json:"completed_date"`
}

type Developer struct {
	Email     string `db:"email" json:"email"`
	Name      string `db:"name" json:"name"`
	GroupType string `db:"group_type" json:"group_type"`
}

func (s *Store) Overview(ctx context.Context, f Filter) (*Overview, error) {
	var o Overview
	if err := s.getNamed(ctx, &o, `
		SELECT
			(SELECT COUNT(*) FROM commits WHERE :developer = '' OR author_email = :developer) AS total_commits,
			(SELECT COUNT(*) FROM activities WHERE :developer = '' OR author_email = :developer) AS total_activities,
			(SELECT COUNT(DISTINCT author_email) FROM commits WHERE :developer = '' OR author_email = :developer) AS total_developers,
			(SELECT COUNT(*) FROM jira_tasks j WHERE `+jiraFilter+`) AS total_jira_tasks,
			(SELECT AVG(time_spent_minutes) FROM commits
				WHERE time_spent_minutes IS NOT NULL AND (:developer = '' OR author_email = :developer)) AS avg_commit_time
	`, f.args()); err != nil {
		return nil, fmt.Errorf("select overview: %w", err)
	}
	return &o, nil
}

// SummaryByTool merges per-tool commit and activity totals. A tool that
// only has activities, or only commits, still gets a row.
func (s *Store) SummaryByTool(ctx context.Context, f Filter) ([]ToolSummary, error) {
	summary := []ToolSummary{}
	if err := s.selectNamed(ctx, &summary, `
		WITH c AS (
			SELECT ai_tool, COUNT(*) AS total_commits, AVG(time_spent_minutes) AS avg_time_minutes
			FROM commits
			WHERE ai_tool IS NOT NULL AND (:developer = '' OR author_email = :developer)
			GROUP BY ai_tool
		),
		a AS (
			SELECT ai_tool, COUNT(*) AS total_activities, SUM(duration_minutes) AS total_time_minutes
			FROM activities
			WHERE ai_tool IS NOT NULL AND (:developer = '' OR author_email = :developer)
			GROUP BY ai_tool
		),
		tools AS (
			SELECT ai_tool FROM c UNION SELECT ai_tool FROM a
		)
		SELECT
			t.ai_tool,
			COALESCE(c.total_commits, 0) AS total_commits,
			COALESCE(c.avg_time_minutes, 0.0) AS avg_time_minutes,
			COALESCE(a.total_activities, 0) AS total_activities,
			COALESCE(a.total_time_minutes, 0) AS total_time_minutes
		FROM tools t
		LEFT JOIN c ON c.ai_tool = t.ai_tool
		LEFT JOIN a ON a.ai_tool = t.ai_tool
		ORDER BY t.ai_tool
	`, f.args()); err != nil {
		return nil, fmt.Errorf("select summary by tool: %w", err)
	}
	return summary, nil
}

// Timeline groups classified commits of the last days by day and tool.
func (s *Store) Timeline(ctx context.Context, days int, f Filter) ([]TimelinePoint, error) {
	if days <= 0 {
		return nil, fmt.Errorf("timeline window must be positive, got %d", days)
	}

	args := f.args()
	args["since"] = s.now().UTC().AddDate(0, 0, -days).Format(db.TimeLayout)

	points := []TimelinePoint{}
	if err := s.selectNamed(ctx, &points, `
		SELECT
			DATE(timestamp) AS date,
			ai_tool,
			COUNT(*) AS commits_count,
			SUM(COALESCE(time_spent_minutes, 0)) AS total_time_minutes
		FROM commits
		WHERE ai_tool IS NOT NULL
			AND timestamp >= :since
			AND (:developer = '' OR author_email = :developer)
		GROUP BY DATE(timestamp), ai_tool
		ORDER BY date ASC, ai_tool
	`, args); err != nil {
		return nil, fmt.Errorf("select timeline: %w", err)
	}
	return points, nil
}

// DeveloperStats reports registered developers, optionally restricted to
// the given emails.
func (s *Store) DeveloperStats(ctx context.Context, emails ...string) ([]DeveloperStats, error) {
	query := `
		SELECT
			d.email,
			d.name,
			d.group_type,
			COALESCE(c.total_commits, 0) AS total_commits,
			COALESCE(a.total_activities, 0) AS total_activities,
			c.avg_time_per_commit,
			(COALESCE(c.total_minutes, 0) + COALESCE(a.total_minutes, 0)) / 60.0 AS total_time_hours
		FROM developers d
		LEFT JOIN (
			SELECT author_email,
				COUNT(*) AS total_commits,
				AVG(time_spent_minutes) AS avg_time_per_commit,
				SUM(COALESCE(time_spent_minutes, 0)) AS total_minutes
			FROM commits
			GROUP BY author_email
		) c ON c.author_email = d.email
		LEFT JOIN (
			SELECT author_email, COUNT(*) AS total_activities, SUM(duration_minutes) AS total_minutes
			FROM activities
			GROUP BY author_email
		) a ON a.author_email = d.email`
	var args []any

	if len(emails) > 0 {
		var err error
		query, args, err = sqlx.In(query+` WHERE d.email IN (?)`, emails)
		if err != nil {
			return nil, fmt.Errorf("build developer stats query: %w", err)
		}
		query = s.db.Rebind(query)
	}

	stats := []DeveloperStats{}
	if err := s.db.SelectContext(ctx, &stats, query+` ORDER BY total_time_hours DESC, d.email`, args...); err != nil {
		return nil, fmt.Errorf("select developer stats: %w", err)
	}
	return stats, nil
}

// JiraComparison lists tasks with both an estimate and logged time,
// most under-estimate first.
func (s *Store) JiraComparison(ctx context.Context) ([]JiraComparison, error) {
	rows := []JiraComparison{}
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT
			j.key,
			j.title,
			j.estimate_hours,
			j.time_logged_hours,
			MAX(c.ai_tool) AS ai_tool,
			(j.time_logged_hours - j.estimate_hours) AS variance_hours
		FROM jira_tasks j
		LEFT JOIN commits c ON c.jira_id = j.key
		WHERE j.estimate_hours IS NOT NULL
			AND j.time_logged_hours IS NOT NULL
		GROUP BY j.key
		ORDER BY variance_hours ASC, j.key
	`); err != nil {
		return nil, fmt.Errorf("select jira comparison: %w", err)
	}
	return rows, nil
}

func (s *Store) RecentCommits(ctx context.Context, limit int, f Filter) ([]Commit, error) {
	args := f.args()
	args["limit"] = limit

	commits := []Commit{}
	if err := s.selectNamed(ctx, &commits, `
		SELECT hash, author_email, message, timestamp, commit_type, jira_id, ai_tool, time_spent_minutes
		FROM commits
		WHERE :developer = '' OR author_email = :developer
		ORDER BY timestamp DESC, hash
		LIMIT :limit
	`, args); err != nil {
		return nil, fmt.Errorf("select recent commits: %w", err)
	}
	return commits, nil
}

func (s *Store) RecentActivities(ctx context.Context, limit int, f Filter) ([]Activity, error) {
	args := f.args()
	args["limit"] = limit

	activities := []Activity{}
	if err := s.selectNamed(ctx, &activities, `
		SELECT id, author_email, description, research_links, timestamp, ai_tool, duration_minutes, activity_type
		FROM activities
		WHERE :developer = '' OR author_email = :developer
		ORDER BY timestamp DESC, id DESC
		LIMIT :limit
	`, args); err != nil {
		return nil, fmt.Errorf("select recent activities: %w", err)
	}
	return activities, nil
}

// jiraFilter keeps tasks assigned to the developer or referenced by one
// of their commits.
const jiraFilter = `(:developer = ''
	OR j.assignee_email = :developer
	OR j.key IN (SELECT jira_id FROM commits WHERE author_email = :developer AND jira_id IS NOT NULL))`

func (s *Store) JiraTasks(ctx context.Context, f Filter) ([]JiraTask, error) {
	tasks := []JiraTask{}
	if err := s.selectNamed(ctx, &tasks, `
		SELECT j.key, j.title, j.estimate_hours, j.time_logged_hours, j.status, j.assignee_email, j.created_date, j.completed_date
		FROM jira_tasks j
		WHERE `+jiraFilter+`
		ORDER BY j.created_date DESC, j.key
	`, f.args()); err != nil {
		return nil, fmt.Errorf("select jira tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) Developers(ctx context.Context) ([]Developer, error) {
	developers := []Developer{}
	if err := s.db.SelectContext(ctx, &developers, `SELECT email, name, group_type FROM developers ORDER BY name, email`); err != nil {
		return nil, fmt.Errorf("select developers: %w", err)
	}
	return developers, nil
}

func (s *Store) selectNamed(ctx context.Context, dest any, query string, arg map[string]any) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return s.db.SelectContext(ctx, dest, s.db.Rebind(q), args...)
}

func (s *Store) getNamed(ctx context.Context, dest any, query string, arg map[string]any) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	return s.db.GetContext(ctx, dest, s.db.Rebind(q), args...)
}
