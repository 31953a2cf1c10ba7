package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/aimetrics/internal/db"
	"github.com/emilianohg/aimetrics/internal/git"
	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/repository"
	"github.com/emilianohg/aimetrics/internal/resolver"
)

var t0 = time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

type staticSource []git.CommitInfo

func (s staticSource) History(context.Context, git.HistoryOptions) ([]git.CommitInfo, error) {
	return s, nil
}

type failingWriter struct{}

func (failingWriter) UpsertMany([]models.Commit) error { return errors.New("disk full") }

type stores struct {
	commits    *repository.CommitRepo
	activities *repository.ActivityRepo
}

func openStores(t *testing.T) stores {
	t.Helper()
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores{
		commits:    repository.NewCommitRepo(database),
		activities: repository.NewActivityRepo(database),
	}
}

func commit(hash, email, msg string, at time.Time) git.CommitInfo {
	return git.CommitInfo{Hash: hash, AuthorName: "Dev " + email, AuthorEmail: email, Message: msg, CommittedAt: at}
}

func TestRunClassifiesAndPersists(t *testing.T) {
	s := openStores(t)
	r := &resolver.MockResolver{}

	history := staticSource{
		commit("a3", "ana@bank.io", "[feat/bank-1][Copilot] - add login", t0.Add(3*time.Hour)),
		commit("a2", "ana@bank.io", "[fix/BANK-2][devin] - patch", t0.Add(1*time.Hour)),
		commit("a1", "ana@bank.io", "[chore/BANK-2][no-ai] - setup", t0),
	}

	result, err := New(history, s.commits, s.activities, r, nil).Run(context.Background(), git.HistoryOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Valid)
	assert.Equal(t, 0, result.Invalid)
	assert.Empty(t, result.Activities)
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)

	a3, err := s.commits.GetByHash("a3")
	require.NoError(t, err)
	assert.Equal(t, "feat", a3.CommitType)
	assert.Equal(t, "BANK-1", *a3.JiraID)
	assert.Equal(t, models.AIToolCopilot, a3.AITool)
	assert.Equal(t, 120, *a3.TimeSpentMinutes)

	a2, err := s.commits.GetByHash("a2")
	require.NoError(t, err)
	assert.Equal(t, 60, *a2.TimeSpentMinutes)

	a1, err := s.commits.GetByHash("a1")
	require.NoError(t, err)
	assert.Nil(t, a1.TimeSpentMinutes)
}

func TestInvalidCommitsAreCountedButNotStored(t *testing.T) {
	s := openStores(t)
	r := &resolver.MockResolver{}

	history := staticSource{
		commit("c3", "b@x.com", "not a valid message", t0.Add(100*time.Minute)),
		commit("c2", "a@x.com", "[fix/ABC-2][no-ai] - fix y", t0.Add(90*time.Minute)),
		commit("c1", "a@x.com", "[feat/ABC-1][copilot] - add x", t0),
	}

	result, err := New(history, s.commits, s.activities, r, nil).Run(context.Background(), git.HistoryOptions{})
	require.NoError(t, err)
	r.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Valid)
	assert.Equal(t, 1, result.Invalid)
	assert.Len(t, result.Commits, 2)

	count, err := s.commits.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	c3, err := s.commits.GetByHash("c3")
	require.NoError(t, err)
	assert.Nil(t, c3)

	c1, err := s.commits.GetByHash("c1")
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Nil(t, c1.TimeSpentMinutes)

	c2, err := s.commits.GetByHash("c2")
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, "fix", c2.CommitType)
	assert.Equal(t, "ABC-2", *c2.JiraID)
	assert.Equal(t, models.AIToolNone, c2.AITool)
	assert.Equal(t, 90, *c2.TimeSpentMinutes)
}

func TestAmbiguousGapEndingInInvalidCommitIsNotResolved(t *testing.T) {
	tests := []struct {
		name    string
		history []git.CommitInfo
	}{
		{"only invalid commits", []git.CommitInfo{
			commit("new", "ana@bank.io", "wip", t0.Add(200*time.Minute)),
			commit("old", "ana@bank.io", "wip", t0),
		}},
		{"invalid after valid", []git.CommitInfo{
			commit("new", "ana@bank.io", "misc changes", t0.Add(200*time.Minute)),
			commit("old", "ana@bank.io", "[feat/BANK-1][devin] - before", t0),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStores(t)
			r := &resolver.Scripted{Decisions: []resolver.Decision{{Record: true, Description: "reading docs"}}}

			result, err := New(staticSource(tt.history), s.commits, s.activities, r, nil).Process(context.Background(), tt.history)
			require.NoError(t, err)

			assert.Empty(t, r.Asked)
			assert.Empty(t, result.Activities)
			assert.Equal(t, 0, result.Ambiguous)

			stored, err := s.activities.GetByAuthor("ana@bank.io")
			require.NoError(t, err)
			assert.Empty(t, stored)

			missing, err := s.commits.GetByHash("new")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestInvalidCommitStillBoundsTheNextGap(t *testing.T) {
	s := openStores(t)
	r := &resolver.Scripted{}

	history := []git.CommitInfo{
		commit("new", "ana@bank.io", "[feat/BANK-1][devin] - after", t0.Add(300*time.Minute)),
		commit("mid", "ana@bank.io", "wip", t0.Add(250*time.Minute)),
		commit("old", "ana@bank.io", "[feat/BANK-1][devin] - before", t0),
	}

	result, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
	require.NoError(t, err)

	assert.Empty(t, r.Asked)
	require.Len(t, result.Commits, 2)
	assert.Equal(t, 50, *result.Commits[0].TimeSpentMinutes)
	assert.Nil(t, result.Commits[1].TimeSpentMinutes)
}

func TestGapBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		gap       time.Duration
		wantAsked bool
		wantSpent *int
	}{
		{"120 minutes", 120 * time.Minute, false, intPtr(120)},
		{"121 minutes", 121 * time.Minute, true, intPtr(121)},
		{"480 minutes", 480 * time.Minute, true, intPtr(480)},
		{"481 minutes", 481 * time.Minute, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStores(t)
			r := &resolver.Scripted{Decisions: []resolver.Decision{{}}}

			history := []git.CommitInfo{
				commit("new", "ana@bank.io", "[feat/BANK-1][devin] - b", t0.Add(tt.gap)),
				commit("old", "ana@bank.io", "[feat/BANK-1][devin] - a", t0),
			}

			result, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
			require.NoError(t, err)

			assert.Equal(t, tt.wantAsked, len(r.Asked) == 1)
			assert.Equal(t, tt.wantSpent, result.Commits[0].TimeSpentMinutes)

			stored, err := s.commits.GetByHash("new")
			require.NoError(t, err)
			assert.Equal(t, tt.wantSpent, stored.TimeSpentMinutes)
		})
	}
}

func TestAmbiguousGapAccepted(t *testing.T) {
	s := openStores(t)
	r := &resolver.Scripted{Decisions: []resolver.Decision{{
		Record:      true,
		Description: "debugging prod issue",
		Links:       resolver.NormalizeLinks("http://a.com, http://b.com"),
	}}}

	history := []git.CommitInfo{
		commit("new", "ana@bank.io", "[feat/BANK-1][copilot] - after", t0.Add(200*time.Minute)),
		commit("old", "ana@bank.io", "[feat/BANK-1][devin] - before", t0),
	}

	result, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, r.Asked, 1)
	gap := r.Asked[0]
	assert.Equal(t, 200, gap.Minutes)
	assert.Equal(t, 3, gap.Hours())
	assert.Equal(t, "Dev ana@bank.io", gap.AuthorName)

	require.Len(t, result.Activities, 1)
	stored, err := s.activities.GetByAuthor("ana@bank.io")
	require.NoError(t, err)
	require.Len(t, stored, 1)

	a := stored[0]
	assert.Equal(t, 200, a.DurationMinutes)
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, a.ResearchLinks)
	assert.Equal(t, models.ActivityResearch, a.ActivityType)
	assert.Equal(t, models.AIToolCopilot, a.AITool)
	assert.True(t, a.Timestamp.Equal(t0))
	assert.Equal(t, "debugging prod issue", a.Description)

	c, err := s.commits.GetByHash("new")
	require.NoError(t, err)
	assert.Equal(t, 200, *c.TimeSpentMinutes)
}

func TestAmbiguousGapDeclined(t *testing.T) {
	s := openStores(t)
	r := &resolver.MockResolver{}
	r.On("Resolve", mock.Anything, mock.MatchedBy(func(g resolver.Gap) bool { return g.Minutes == 200 })).
		Return(resolver.Decision{}, nil).Once()

	history := []git.CommitInfo{
		commit("new", "ana@bank.io", "[feat/BANK-1][copilot] - after", t0.Add(200*time.Minute)),
		commit("old", "ana@bank.io", "[feat/BANK-1][copilot] - before", t0),
	}

	result, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
	require.NoError(t, err)
	r.AssertExpectations(t)

	assert.Empty(t, result.Activities)
	stored, err := s.activities.GetByAuthor("ana@bank.io")
	require.NoError(t, err)
	assert.Empty(t, stored)

	c, err := s.commits.GetByHash("new")
	require.NoError(t, err)
	assert.Equal(t, 200, *c.TimeSpentMinutes)
}

func TestReingestIsIdempotent(t *testing.T) {
	s := openStores(t)
	history := []git.CommitInfo{
		commit("c2", "ana@bank.io", "[feat/BANK-1][copilot] - b", t0.Add(30*time.Minute)),
		commit("c1", "ana@bank.io", "[feat/BANK-1][copilot] - a", t0),
	}
	in := New(staticSource(history), s.commits, s.activities, resolver.Decline{}, nil)

	_, err := in.Process(context.Background(), history)
	require.NoError(t, err)
	first, err := s.commits.GetAll()
	require.NoError(t, err)

	_, err = in.Process(context.Background(), history)
	require.NoError(t, err)
	second, err := s.commits.GetAll()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestPriorsIgnoreOtherAuthorsAndDeliveryOrder(t *testing.T) {
	s := openStores(t)
	history := []git.CommitInfo{
		commit("a-old", "ana@bank.io", "[feat/BANK-1][copilot] - a", t0),
		commit("b", "bo@bank.io", "[feat/BANK-1][copilot] - b", t0.Add(10*time.Minute)),
		commit("a-new", "ana@bank.io", "[feat/BANK-1][copilot] - c", t0.Add(50*time.Minute)),
	}

	result, err := New(staticSource(history), s.commits, s.activities, resolver.Decline{}, nil).Process(context.Background(), history)
	require.NoError(t, err)

	assert.Nil(t, result.Commits[0].TimeSpentMinutes)
	assert.Nil(t, result.Commits[1].TimeSpentMinutes)
	assert.Equal(t, 50, *result.Commits[2].TimeSpentMinutes)
}

func TestPersistFailure(t *testing.T) {
	s := openStores(t)
	history := []git.CommitInfo{commit("c1", "ana@bank.io", "[feat/BANK-1][copilot] - a", t0)}

	_, err := New(staticSource(history), failingWriter{}, s.activities, resolver.Decline{}, nil).Process(context.Background(), history)
	assert.ErrorIs(t, err, ErrPersist)
}

func TestResolverErrorAbortsRun(t *testing.T) {
	s := openStores(t)
	r := &resolver.MockResolver{}
	r.On("Resolve", mock.Anything, mock.Anything).Return(resolver.Decision{}, errors.New("interrupted"))

	history := []git.CommitInfo{
		commit("new", "ana@bank.io", "[feat/BANK-1][copilot] - b", t0.Add(3*time.Hour)),
		commit("old", "ana@bank.io", "[feat/BANK-1][copilot] - a", t0),
	}

	_, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
	require.Error(t, err)

	count, err := s.commits.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestEmptyDescriptionRejected(t *testing.T) {
	s := openStores(t)
	r := &resolver.Scripted{Decisions: []resolver.Decision{{Record: true, Description: " "}}}

	history := []git.CommitInfo{
		commit("new", "ana@bank.io", "[feat/BANK-1][copilot] - b", t0.Add(3*time.Hour)),
		commit("old", "ana@bank.io", "[feat/BANK-1][copilot] - a", t0),
	}

	_, err := New(staticSource(history), s.commits, s.activities, r, nil).Process(context.Background(), history)
	assert.ErrorIs(t, err, resolver.ErrEmptyDescription)
}

func TestEmptyHistory(t *testing.T) {
	s := openStores(t)

	result, err := New(staticSource(nil), s.commits, s.activities, resolver.Decline{}, nil).Run(context.Background(), git.HistoryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
}

func intPtr(v int) *int { return &v }
