package query

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/aimetrics/internal/db"
	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/repository"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func f64(v float64) *float64  { return &v }

// seed stores two developers' work:
//
//	ana (copilot): 2 commits (30, 90 min) on BANK-1, 1 activity of 60 min
//	bo  (no-ai):   1 commit (no time) on BANK-2, 1 invalid commit 40 days ago
//	devin: one activity only
func seed(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	seedRows(t, database)

	s := New(database)
	s.now = func() time.Time { return now }
	return s
}

func seedRows(t *testing.T, database *sql.DB) {
	commits := repository.NewCommitRepo(database)
	require.NoError(t, commits.UpsertMany([]models.Commit{
		{Hash: "a1", AuthorEmail: "ana@bank.io", Message: "[feat/BANK-1][copilot] - a", Timestamp: now.Add(-50 * time.Hour), CommitType: "feat", JiraID: strPtr("BANK-1"), AITool: models.AIToolCopilot, TimeSpentMinutes: intPtr(30)},
		{Hash: "a2", AuthorEmail: "ana@bank.io", Message: "[feat/BANK-1][copilot] - b", Timestamp: now.Add(-48 * time.Hour), CommitType: "feat", JiraID: strPtr("BANK-1"), AITool: models.AIToolCopilot, TimeSpentMinutes: intPtr(90)},
		{Hash: "b1", AuthorEmail: "bo@bank.io", Message: "[fix/BANK-2][no-ai] - c", Timestamp: now.Add(-2 * time.Hour), CommitType: "fix", JiraID: strPtr("BANK-2"), AITool: models.AIToolNone},
		{Hash: "b0", AuthorEmail: "bo@bank.io", Message: "old junk", Timestamp: now.AddDate(0, 0, -40)},
	}))

	activities := repository.NewActivityRepo(database)
	for _, a := range []models.Activity{
		{AuthorEmail: "ana@bank.io", Description: "research", ResearchLinks: []string{"http://a.com"}, Timestamp: now.Add(-49 * time.Hour), AITool: models.AIToolCopilot, DurationMinutes: 60, ActivityType: models.ActivityResearch},
		{AuthorEmail: "cy@bank.io", Description: "pairing", Timestamp: now.Add(-time.Hour), AITool: models.AIToolDevin, DurationMinutes: 45, ActivityType: models.ActivityMeeting},
	} {
		a := a
		_, err := activities.Create(&a)
		require.NoError(t, err)
	}

	developers := repository.NewDeveloperRepo(database)
	require.NoError(t, developers.Upsert(models.Developer{Email: "ana@bank.io", Name: "Ana", GroupType: models.AIToolCopilot}))
	require.NoError(t, developers.Upsert(models.Developer{Email: "bo@bank.io", Name: "Bo", GroupType: models.AIToolNone}))

	tasks := repository.NewJiraTaskRepo(database)
	require.NoError(t, tasks.Upsert(models.JiraTask{Key: "BANK-1", Title: "Login", EstimateHours: f64(2), TimeLoggedHours: f64(3.5), Status: "Done", AssigneeEmail: strPtr("ana@bank.io")}))
	require.NoError(t, tasks.Upsert(models.JiraTask{Key: "BANK-2", Title: "Fix", EstimateHours: f64(4), TimeLoggedHours: f64(1), Status: "In Progress"}))
	require.NoError(t, tasks.Upsert(models.JiraTask{Key: "BANK-3", Title: "Unrelated", Status: "To Do"}))
}

func TestOverview(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	o, err := s.Overview(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, o.TotalCommits)
	assert.Equal(t, 2, o.TotalActivities)
	assert.Equal(t, 2, o.TotalDevelopers)
	assert.Equal(t, 3, o.TotalJiraTasks)
	require.NotNil(t, o.AvgCommitTime)
	assert.InDelta(t, 60.0, *o.AvgCommitTime, 0.001)

	ana, err := s.Overview(ctx, Filter{Developer: "ana@bank.io"})
	require.NoError(t, err)
	assert.Equal(t, 2, ana.TotalCommits)
	assert.Equal(t, 1, ana.TotalActivities)
	assert.Equal(t, 1, ana.TotalDevelopers)
	assert.Equal(t, 1, ana.TotalJiraTasks)
}

func TestOverviewFilterIsBound(t *testing.T) {
	s := seed(t)

	o, err := s.Overview(context.Background(), Filter{Developer: "' OR '1'='1"})
	require.NoError(t, err)
	assert.Equal(t, 0, o.TotalCommits)
	assert.Nil(t, o.AvgCommitTime)
}

func TestSummaryByTool(t *testing.T) {
	s := seed(t)

	summary, err := s.SummaryByTool(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []ToolSummary{
		{AITool: "copilot", TotalCommits: 2, AvgTimeMinutes: 60, TotalActivities: 1, TotalTimeMinutes: 60},
		{AITool: "devin", TotalCommits: 0, AvgTimeMinutes: 0, TotalActivities: 1, TotalTimeMinutes: 45},
		{AITool: "no-ai", TotalCommits: 1, AvgTimeMinutes: 0, TotalActivities: 0, TotalTimeMinutes: 0},
	}, summary)

	bo, err := s.SummaryByTool(context.Background(), Filter{Developer: "bo@bank.io"})
	require.NoError(t, err)
	require.Len(t, bo, 1)
	assert.Equal(t, "no-ai", bo[0].AITool)
}

func TestTimeline(t *testing.T) {
	s := seed(t)

	points, err := s.Timeline(context.Background(), 30, Filter{})
	require.NoError(t, err)
	assert.Equal(t, []TimelinePoint{
		{Date: "2024-06-28", AITool: "copilot", CommitsCount: 2, TotalTimeMinutes: 120},
		{Date: "2024-06-30", AITool: "no-ai", CommitsCount: 1, TotalTimeMinutes: 0},
	}, points)

	short, err := s.Timeline(context.Background(), 1, Filter{})
	require.NoError(t, err)
	assert.Len(t, short, 1)

	_, err = s.Timeline(context.Background(), 0, Filter{})
	assert.Error(t, err)
}

func TestDeveloperStats(t *testing.T) {
	s := seed(t)

	stats, err := s.DeveloperStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)

	ana := stats[0]
	assert.Equal(t, "ana@bank.io", ana.Email)
	assert.Equal(t, 2, ana.TotalCommits)
	assert.Equal(t, 1, ana.TotalActivities)
	assert.InDelta(t, 60.0, *ana.AvgTimePerCommit, 0.001)
	assert.InDelta(t, 3.0, ana.TotalTimeHours, 0.001)

	bo := stats[1]
	assert.Equal(t, 2, bo.TotalCommits)
	assert.Equal(t, 0, bo.TotalActivities)
	assert.Nil(t, bo.AvgTimePerCommit)
	assert.InDelta(t, 0.0, bo.TotalTimeHours, 0.001)

	only, err := s.DeveloperStats(context.Background(), "bo@bank.io", "nobody@bank.io")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "Bo", only[0].Name)
}

func TestJiraComparison(t *testing.T) {
	s := seed(t)

	rows, err := s.JiraComparison(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BANK-2", rows[0].Key)
	assert.InDelta(t, -3.0, rows[0].VarianceHours, 0.001)
	assert.Equal(t, "no-ai", *rows[0].AITool)
	assert.Equal(t, "BANK-1", rows[1].Key)
	assert.InDelta(t, 1.5, rows[1].VarianceHours, 0.001)
}

func TestRecentCommitsAndActivities(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	commits, err := s.RecentCommits(ctx, 2, Filter{})
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "b1", commits[0].Hash)
	assert.Equal(t, "a2", commits[1].Hash)

	bo, err := s.RecentCommits(ctx, 10, Filter{Developer: "bo@bank.io"})
	require.NoError(t, err)
	require.Len(t, bo, 2)
	assert.Nil(t, bo[1].AITool)

	activities, err := s.RecentActivities(ctx, 10, Filter{Developer: "ana@bank.io"})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, `["http://a.com"]`, *activities[0].ResearchLinks)
}

func TestJiraTasksAndDevelopers(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	all, err := s.JiraTasks(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	bo, err := s.JiraTasks(ctx, Filter{Developer: "bo@bank.io"})
	require.NoError(t, err)
	require.Len(t, bo, 1)
	assert.Equal(t, "BANK-2", bo[0].Key)

	devs, err := s.Developers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Developer{
		{Email: "ana@bank.io", Name: "Ana", GroupType: "copilot"},
		{Email: "bo@bank.io", Name: "Bo", GroupType: "no-ai"},
	}, devs)
}

func TestMetricsAndReport(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	m, err := s.Metrics(ctx, Options{TimelineDays: 30, RecentLimit: 15})
	require.NoError(t, err)
	assert.Equal(t, 4, m.Overview.TotalCommits)
	assert.Len(t, m.Summary, 3)
	assert.Len(t, m.RecentCommits, 4)
	assert.Len(t, m.Developers, 2)

	r, err := s.Report(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, now, r.GeneratedAt)
	assert.Len(t, r.Timeline, 2)
	assert.Len(t, r.DeveloperStats, 2)
}

func TestEmptyDatabase(t *testing.T) {
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer database.Close()

	m, err := New(database).Metrics(context.Background(), Options{TimelineDays: 30, RecentLimit: 15})
	require.NoError(t, err)
	assert.Equal(t, 0, m.Overview.TotalCommits)
	assert.NotNil(t, m.Summary)
	assert.Empty(t, m.Summary)
}
