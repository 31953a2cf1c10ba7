package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/emilianohg/aimetrics/internal/models"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// DaySummary is an author's activity count and total minutes for one day.
type DaySummary struct {
	Activities   int
	TotalMinutes int
}

const activityColumns = `id, author_email, description, research_links, timestamp, ai_tool, duration_minutes, activity_type`

// Create appends an activity and returns its id.
func (r *ActivityRepo) Create(a *models.Activity) (int64, error) {
	links, err := encodeLinks(a.ResearchLinks)
	if err != nil {
		return 0, err
	}

	result, err := r.db.Exec(`
		INSERT INTO activities (author_email, description, research_links, timestamp, ai_tool, duration_minutes, activity_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.AuthorEmail, a.Description, links, formatTime(a.Timestamp), string(a.AITool), a.DurationMinutes, string(a.ActivityType))
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id

	return id, nil
}

func (r *ActivityRepo) GetByID(id int64) (*models.Activity, error) {
	a, err := scanActivity(r.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *ActivityRepo) GetByAuthor(email string) ([]models.Activity, error) {
	return r.list(`SELECT `+activityColumns+` FROM activities WHERE author_email = ? ORDER BY timestamp DESC, id DESC`, email)
}

func (r *ActivityRepo) GetAll() ([]models.Activity, error) {
	return r.list(`SELECT ` + activityColumns + ` FROM activities ORDER BY timestamp DESC, id DESC`)
}

func (r *ActivityRepo) list(query string, args ...any) ([]models.Activity, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// DaySummary counts the author's activities whose timestamp falls on the
// UTC day containing day.
func (r *ActivityRepo) DaySummary(email string, day time.Time) (DaySummary, error) {
	start := day.UTC().Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)

	var s DaySummary
	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(duration_minutes), 0)
		FROM activities
		WHERE author_email = ? AND timestamp >= ? AND timestamp < ?
	`, email, formatTime(start), formatTime(end)).Scan(&s.Activities, &s.TotalMinutes)

	return s, err
}

func scanActivity(row rowScanner) (*models.Activity, error) {
	var a models.Activity
	var links sql.NullString
	var timestamp, tool, activityType string

	if err := row.Scan(
		&a.ID, &a.AuthorEmail, &a.Description, &links, &timestamp, &tool, &a.DurationMinutes, &activityType,
	); err != nil {
		return nil, err
	}

	ts, err := parseTime(timestamp)
	if err != nil {
		return nil, fmt.Errorf("activity %d: %w", a.ID, err)
	}
	a.Timestamp = ts
	a.AITool = models.AITool(tool)
	a.ActivityType = models.ActivityType(activityType)

	if a.ResearchLinks, err = decodeLinks(links); err != nil {
		return nil, fmt.Errorf("activity %d: %w", a.ID, err)
	}

	return &a, nil
}
