package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/aimetrics/internal/db"
	"github.com/emilianohg/aimetrics/internal/models"
)

var t0 = time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

func TestCommitUpsertManyAndGet(t *testing.T) {
	repo := NewCommitRepo(openTestDB(t))

	commits := []models.Commit{
		{
			Hash: "aaa", AuthorEmail: "a@bank.io", Message: "[feat/BANK-1][copilot] - x",
			Timestamp: t0, CommitType: "feat", JiraID: strPtr("BANK-1"), AITool: models.AIToolCopilot,
			TimeSpentMinutes: intPtr(30),
		},
		{
			Hash: "bbb", AuthorEmail: "a@bank.io", Message: "wip",
			Timestamp: t0.Add(-time.Hour),
		},
	}
	require.NoError(t, repo.UpsertMany(commits))

	got, err := repo.GetByHash("aaa")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, commits[0], *got)

	invalid, err := repo.GetByHash("bbb")
	require.NoError(t, err)
	assert.Nil(t, invalid.JiraID)
	assert.Nil(t, invalid.TimeSpentMinutes)
	assert.Equal(t, models.AITool(""), invalid.AITool)

	missing, err := repo.GetByHash("zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "aaa", all[0].Hash)
}

func TestCommitUpsertReplacesByHash(t *testing.T) {
	repo := NewCommitRepo(openTestDB(t))

	c := models.Commit{Hash: "aaa", AuthorEmail: "a@bank.io", Message: "m", Timestamp: t0, AITool: models.AIToolDevin, TimeSpentMinutes: intPtr(10)}
	require.NoError(t, repo.UpsertMany([]models.Commit{c}))

	c.TimeSpentMinutes = intPtr(99)
	require.NoError(t, repo.UpsertMany([]models.Commit{c}))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetByHash("aaa")
	require.NoError(t, err)
	assert.Equal(t, 99, *got.TimeSpentMinutes)
}

func TestCommitUpsertManyIsAtomic(t *testing.T) {
	repo := NewCommitRepo(openTestDB(t))

	commits := []models.Commit{
		{Hash: "ok", AuthorEmail: "a@bank.io", Message: "m", Timestamp: t0, AITool: models.AIToolNone},
		{Hash: "bad", AuthorEmail: "a@bank.io", Message: "m", Timestamp: t0, AITool: models.AITool("chatgpt")},
	}
	assert.Error(t, repo.UpsertMany(commits))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDistinctJiraIDsAndStats(t *testing.T) {
	repo := NewCommitRepo(openTestDB(t))

	require.NoError(t, repo.UpsertMany([]models.Commit{
		{Hash: "1", AuthorEmail: "a@bank.io", Message: "m", Timestamp: t0, JiraID: strPtr("BANK-2"), AITool: models.AIToolCopilot, TimeSpentMinutes: intPtr(10)},
		{Hash: "2", AuthorEmail: "a@bank.io", Message: "m", Timestamp: t0, JiraID: strPtr("BANK-1"), AITool: models.AIToolCopilot, TimeSpentMinutes: intPtr(30)},
		{Hash: "3", AuthorEmail: "b@bank.io", Message: "m", Timestamp: t0, JiraID: strPtr("BANK-2"), AITool: models.AIToolNone},
		{Hash: "4", AuthorEmail: "b@bank.io", Message: "junk", Timestamp: t0},
	}))

	keys, err := repo.DistinctJiraIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"BANK-1", "BANK-2"}, keys)

	stats, err := repo.StatsByTool()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.AIToolCopilot, stats[0].AITool)
	assert.Equal(t, 2, stats[0].Commits)
	require.NotNil(t, stats[0].AvgTimeMinutes)
	assert.InDelta(t, 20.0, *stats[0].AvgTimeMinutes, 0.001)
	assert.Equal(t, models.AIToolNone, stats[1].AITool)
	assert.Nil(t, stats[1].AvgTimeMinutes)
}

func TestActivityCreateAndLinks(t *testing.T) {
	repo := NewActivityRepo(openTestDB(t))

	a := &models.Activity{
		AuthorEmail:     "a@bank.io",
		Description:     "debugging prod issue",
		ResearchLinks:   []string{"http://a.com", "http://b.com"},
		Timestamp:       t0,
		AITool:          models.AIToolCopilot,
		DurationMinutes: 200,
		ActivityType:    models.ActivityResearch,
	}
	id, err := repo.Create(a)
	require.NoError(t, err)
	assert.Equal(t, id, a.ID)

	got, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, *a, *got)

	noLinks := &models.Activity{AuthorEmail: "a@bank.io", Description: "standup", Timestamp: t0, AITool: models.AIToolNone, DurationMinutes: 15, ActivityType: models.ActivityMeeting}
	_, err = repo.Create(noLinks)
	require.NoError(t, err)

	var raw sql.NullString
	require.NoError(t, repo.db.QueryRow(`SELECT research_links FROM activities WHERE id = ?`, noLinks.ID).Scan(&raw))
	assert.False(t, raw.Valid)

	byAuthor, err := repo.GetByAuthor("a@bank.io")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	_, err = repo.Create(&models.Activity{AuthorEmail: "b@bank.io", Description: "pairing", Timestamp: t0.Add(time.Hour), AITool: models.AIToolDevin, DurationMinutes: 60, ActivityType: models.ActivityOther})
	require.NoError(t, err)

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "b@bank.io", all[0].AuthorEmail)
}

func TestActivityDaySummary(t *testing.T) {
	repo := NewActivityRepo(openTestDB(t))

	for _, a := range []models.Activity{
		{AuthorEmail: "a@bank.io", Description: "x", Timestamp: t0, AITool: models.AIToolNone, DurationMinutes: 30, ActivityType: models.ActivityOther},
		{AuthorEmail: "a@bank.io", Description: "y", Timestamp: t0.Add(5 * time.Hour), AITool: models.AIToolNone, DurationMinutes: 45, ActivityType: models.ActivityPlanning},
		{AuthorEmail: "a@bank.io", Description: "z", Timestamp: t0.Add(-24 * time.Hour), AITool: models.AIToolNone, DurationMinutes: 60, ActivityType: models.ActivityOther},
		{AuthorEmail: "b@bank.io", Description: "w", Timestamp: t0, AITool: models.AIToolNone, DurationMinutes: 90, ActivityType: models.ActivityOther},
	} {
		a := a
		_, err := repo.Create(&a)
		require.NoError(t, err)
	}

	s, err := repo.DaySummary("a@bank.io", t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, DaySummary{Activities: 2, TotalMinutes: 75}, s)

	empty, err := repo.DaySummary("nobody@bank.io", t0)
	require.NoError(t, err)
	assert.Equal(t, DaySummary{}, empty)
}

func TestJiraTaskUpsert(t *testing.T) {
	repo := NewJiraTaskRepo(openTestDB(t))

	estimate := 4.0
	created := t0
	task := models.JiraTask{Key: "BANK-1", Title: "Login", EstimateHours: &estimate, Status: "In Progress", AssigneeEmail: strPtr("a@bank.io"), CreatedDate: &created}
	require.NoError(t, repo.Upsert(task))

	logged := 5.5
	task.Status = "Done"
	task.TimeLoggedHours = &logged
	require.NoError(t, repo.Upsert(task))

	got, err := repo.GetByKey("BANK-1")
	require.NoError(t, err)
	assert.Equal(t, task, *got)

	require.NoError(t, repo.Upsert(models.JiraTask{Key: "BANK-2", Title: "Logout", Status: "Done"}))

	stats, err := repo.StatsByStatus()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "Done", stats[0].Status)
	assert.Equal(t, 2, stats[0].Tasks)
	assert.InDelta(t, 4.0, *stats[0].AvgEstimate, 0.001)
	assert.InDelta(t, 5.5, *stats[0].AvgTimeLogged, 0.001)

	missing, err := repo.GetByKey("NOPE-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeveloperUpsert(t *testing.T) {
	repo := NewDeveloperRepo(openTestDB(t))

	require.NoError(t, repo.Upsert(models.Developer{Email: "a@bank.io", Name: "Ana", GroupType: models.AIToolCopilot}))
	require.NoError(t, repo.Upsert(models.Developer{Email: "b@bank.io", Name: "Bo", GroupType: models.AIToolNone}))
	require.NoError(t, repo.Upsert(models.Developer{Email: "a@bank.io", Name: "Ana M", GroupType: models.AIToolDevin}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.Developer{Email: "a@bank.io", Name: "Ana M", GroupType: models.AIToolDevin}, all[0])

	require.NoError(t, repo.Delete("b@bank.io"))
	d, err := repo.GetByEmail("b@bank.io")
	require.NoError(t, err)
	assert.Nil(t, d)
}
