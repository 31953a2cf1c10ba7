package repository

import (
	"database/sql"
	"fmt"

	"github.com/emilianohg/aimetrics/internal/models"
)

type CommitRepo struct {
	db *sql.DB
}

func NewCommitRepo(db *sql.DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// ToolStats is the per-tool summary printed after an analysis.
type ToolStats struct {
	AITool         models.AITool
	Commits        int
	AvgTimeMinutes *float64
}

const commitColumns = `hash, author_email, message, timestamp, commit_type, jira_id, ai_tool, time_spent_minutes`

// UpsertMany writes the whole batch in one transaction, replacing rows
// that share a hash. Nothing is written if any row fails.
func (r *CommitRepo) UpsertMany(commits []models.Commit) error {
	if len(commits) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO commits (` + commitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range commits {
		var timeSpent any
		if c.TimeSpentMinutes != nil {
			timeSpent = *c.TimeSpentMinutes
		}

		if _, err := stmt.Exec(
			c.Hash, c.AuthorEmail, c.Message, formatTime(c.Timestamp),
			nullIfEmpty(c.CommitType), nullStringPtr(c.JiraID), nullIfEmpty(string(c.AITool)), timeSpent,
		); err != nil {
			return fmt.Errorf("failed to write commit %s: %w", c.Hash, err)
		}
	}

	return tx.Commit()
}

func (r *CommitRepo) GetByHash(hash string) (*models.Commit, error) {
	c, err := scanCommit(r.db.QueryRow(`SELECT `+commitColumns+` FROM commits WHERE hash = ?`, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetAll returns every stored commit, newest first.
func (r *CommitRepo) GetAll() ([]models.Commit, error) {
	rows, err := r.db.Query(`SELECT ` + commitColumns + ` FROM commits ORDER BY timestamp DESC, hash`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commits []models.Commit
	for rows.Next() {
		c, err := scanCommit(rows)
		if err != nil {
			return nil, err
		}
		commits = append(commits, *c)
	}
	return commits, rows.Err()
}

func (r *CommitRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM commits").Scan(&count)
	return count, err
}

// DistinctJiraIDs lists every task key referenced by a stored commit.
func (r *CommitRepo) DistinctJiraIDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT jira_id FROM commits WHERE jira_id IS NOT NULL ORDER BY jira_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (r *CommitRepo) StatsByTool() ([]ToolStats, error) {
	rows, err := r.db.Query(`
		SELECT ai_tool, COUNT(*), AVG(time_spent_minutes)
		FROM commits
		WHERE ai_tool IS NOT NULL
		GROUP BY ai_tool
		ORDER BY ai_tool
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ToolStats
	for rows.Next() {
		var s ToolStats
		var tool string
		var avg sql.NullFloat64
		if err := rows.Scan(&tool, &s.Commits, &avg); err != nil {
			return nil, err
		}
		s.AITool = models.AITool(tool)
		s.AvgTimeMinutes = floatPtr(avg)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanCommit(row rowScanner) (*models.Commit, error) {
	var c models.Commit
	var timestamp string
	var commitType, jiraID, aiTool sql.NullString
	var timeSpent sql.NullInt64

	if err := row.Scan(
		&c.Hash, &c.AuthorEmail, &c.Message, &timestamp,
		&commitType, &jiraID, &aiTool, &timeSpent,
	); err != nil {
		return nil, err
	}

	ts, err := parseTime(timestamp)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", c.Hash, err)
	}
	c.Timestamp = ts
	c.CommitType = commitType.String
	c.JiraID = stringPtr(jiraID)
	c.AITool = models.AITool(aiTool.String)
	if timeSpent.Valid {
		v := int(timeSpent.Int64)
		c.TimeSpentMinutes = &v
	}

	return &c, nil
}
