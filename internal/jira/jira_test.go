package jira

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/aimetrics/internal/db"
	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/repository"
)

const bank1 = `{
	"key": "BANK-1",
	"fields": {
		"summary": "Login validation",
		"status": {"name": "Done"},
		"assignee": {"emailAddress": "ana@bank.io"},
		"created": "2024-01-10T09:30:00.000+0000",
		"resolutiondate": "2024-01-12T17:00:00.000-0300",
		"timeoriginalestimate": 14400,
		"timespent": 19800
	}
}`

const bank2 = `{
	"key": "BANK-2",
	"fields": {
		"summary": "Unestimated",
		"status": {"name": "To Do"},
		"assignee": null,
		"created": "2024-01-11T09:30:00.000+0000",
		"resolutiondate": null,
		"timeoriginalestimate": null,
		"timespent": 0
	}
}`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "me@bank.io" || pass != "token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch r.URL.Path {
		case "/rest/api/3/issue/BANK-1":
			_, _ = w.Write([]byte(bank1))
		case "/rest/api/3/issue/BANK-2":
			_, _ = w.Write([]byte(bank2))
		case "/rest/api/3/issue/BANK-500":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetIssue(t *testing.T) {
	srv := newServer(t)
	client := NewClient(srv.URL+"/", "me@bank.io", "token", srv.Client())

	issue, err := client.GetIssue(context.Background(), "BANK-1")
	require.NoError(t, err)

	task, err := issue.Task()
	require.NoError(t, err)
	assert.Equal(t, "BANK-1", task.Key)
	assert.Equal(t, "Login validation", task.Title)
	assert.Equal(t, "Done", task.Status)
	assert.Equal(t, "ana@bank.io", *task.AssigneeEmail)
	assert.InDelta(t, 4.0, *task.EstimateHours, 0.0001)
	assert.InDelta(t, 5.5, *task.TimeLoggedHours, 0.0001)
	assert.True(t, task.CreatedDate.Equal(time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)))
	assert.True(t, task.CompletedDate.Equal(time.Date(2024, 1, 12, 20, 0, 0, 0, time.UTC)))
}

func TestIssueWithoutOptionalFields(t *testing.T) {
	srv := newServer(t)
	client := NewClient(srv.URL, "me@bank.io", "token", srv.Client())

	issue, err := client.GetIssue(context.Background(), "BANK-2")
	require.NoError(t, err)

	task, err := issue.Task()
	require.NoError(t, err)
	assert.Nil(t, task.AssigneeEmail)
	assert.Nil(t, task.EstimateHours)
	assert.Nil(t, task.TimeLoggedHours)
	assert.Nil(t, task.CompletedDate)
	assert.NotNil(t, task.CreatedDate)
}

func TestGetIssueErrors(t *testing.T) {
	srv := newServer(t)
	client := NewClient(srv.URL, "me@bank.io", "token", srv.Client())

	_, err := client.GetIssue(context.Background(), "NOPE-1")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = client.GetIssue(context.Background(), "BANK-500")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
	assert.Contains(t, err.Error(), "500")

	bad := NewClient(srv.URL, "me@bank.io", "wrong", srv.Client())
	_, err = bad.GetIssue(context.Background(), "BANK-1")
	assert.ErrorContains(t, err, "401")
}

func TestSyncStoresAndCountsFailures(t *testing.T) {
	srv := newServer(t)
	database, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	defer database.Close()

	repo := repository.NewJiraTaskRepo(database)
	syncer := NewSyncer(NewClient(srv.URL, "me@bank.io", "token", srv.Client()), repo, nil)

	var calls int
	result, err := syncer.Sync(context.Background(), []string{"BANK-1", "NOPE-1", "BANK-500", "BANK-2"}, func(done, total int) {
		calls++
		assert.Equal(t, 4, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, []string{"NOPE-1"}, result.NotFound)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "BANK-500", result.Failed[0].Key)
	assert.Equal(t, 2, result.Errors())

	stored, err := repo.GetByKey("BANK-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Done", stored.Status)

	missing, err := repo.GetByKey("NOPE-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetIssue(ctx context.Context, key string) (*Issue, error) {
	args := m.Called(ctx, key)
	issue, _ := args.Get(0).(*Issue)
	return issue, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(t models.JiraTask) error {
	return m.Called(t).Error(0)
}

func TestSyncStoreFailureIsCounted(t *testing.T) {
	fetcher := &mockFetcher{}
	issue := &Issue{Key: "BANK-1"}
	issue.Fields.Status.Name = "Done"
	fetcher.On("GetIssue", mock.Anything, "BANK-1").Return(issue, nil)

	store := &mockStore{}
	store.On("Upsert", mock.Anything).Return(errors.New("database is locked"))

	result, err := NewSyncer(fetcher, store, nil).Sync(context.Background(), []string{"BANK-1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Failed, 1)
	fetcher.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestSyncStopsOnCancelledContext(t *testing.T) {
	fetcher := &mockFetcher{}
	store := &mockStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSyncer(fetcher, store, nil).Sync(ctx, []string{"BANK-1"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	fetcher.AssertNotCalled(t, "GetIssue", mock.Anything, mock.Anything)
}
