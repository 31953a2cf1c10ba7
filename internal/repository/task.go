package repository

import (
	"database/sql"
	"fmt"

	"github.com/emilianohg/aimetrics/internal/models"
)

type JiraTaskRepo struct {
	db *sql.DB
}

func NewJiraTaskRepo(db *sql.DB) *JiraTaskRepo {
	return &JiraTaskRepo{db: db}
}

// StatusStats summarises synced tasks sharing a status.
type StatusStats struct {
	Status        string
	Tasks         int
	AvgEstimate   *float64
	AvgTimeLogged *float64
}

const taskColumns = `key, title, estimate_hours, time_logged_hours, status, assignee_email, created_date, completed_date`

// Upsert overwrites any stored task with the same key.
func (r *JiraTaskRepo) Upsert(t models.JiraTask) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO jira_tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Key, t.Title, nullFloatPtr(t.EstimateHours), nullFloatPtr(t.TimeLoggedHours), t.Status,
		nullStringPtr(t.AssigneeEmail), nullTime(t.CreatedDate), nullTime(t.CompletedDate),
	)
	return err
}

func (r *JiraTaskRepo) GetByKey(key string) (*models.JiraTask, error) {
	t, err := scanTask(r.db.QueryRow(`SELECT `+taskColumns+` FROM jira_tasks WHERE key = ?`, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *JiraTaskRepo) GetAll() ([]models.JiraTask, error) {
	rows, err := r.db.Query(`SELECT ` + taskColumns + ` FROM jira_tasks ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.JiraTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (r *JiraTaskRepo) StatsByStatus() ([]StatusStats, error) {
	rows, err := r.db.Query(`
		SELECT status, COUNT(*), AVG(estimate_hours), AVG(time_logged_hours)
		FROM jira_tasks
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []StatusStats
	for rows.Next() {
		var s StatusStats
		var estimate, logged sql.NullFloat64
		if err := rows.Scan(&s.Status, &s.Tasks, &estimate, &logged); err != nil {
			return nil, err
		}
		s.AvgEstimate = floatPtr(estimate)
		s.AvgTimeLogged = floatPtr(logged)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func scanTask(row rowScanner) (*models.JiraTask, error) {
	var t models.JiraTask
	var estimate, logged sql.NullFloat64
	var assignee, created, completed sql.NullString

	if err := row.Scan(&t.Key, &t.Title, &estimate, &logged, &t.Status, &assignee, &created, &completed); err != nil {
		return nil, err
	}

	var err error
	t.EstimateHours = floatPtr(estimate)
	t.TimeLoggedHours = floatPtr(logged)
	t.AssigneeEmail = stringPtr(assignee)
	if t.CreatedDate, err = parseNullTime(created); err != nil {
		return nil, fmt.Errorf("task %s: %w", t.Key, err)
	}
	if t.CompletedDate, err = parseNullTime(completed); err != nil {
		return nil, fmt.Errorf("task %s: %w", t.Key, err)
	}

	return &t, nil
}
