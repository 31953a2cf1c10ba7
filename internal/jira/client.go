// Package jira fetches issues from the Jira Cloud REST API and keeps the
// local jira_tasks table in sync with them.
package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emilianohg/aimetrics/internal/models"
)

var ErrTaskNotFound = errors.New("jira task not found")

// dateLayouts are the formats Jira uses for created/resolutiondate.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339,
}

type Issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			EmailAddress string `json:"emailAddress"`
		} `json:"assignee"`
		Created              string `json:"created"`
		ResolutionDate       string `json:"resolutiondate"`
		TimeOriginalEstimate int64  `json:"timeoriginalestimate"` // seconds
		TimeSpent            int64  `json:"timespent"`            // seconds
	} `json:"fields"`
}

// Task converts the issue into a row. Zero or missing durations become nil.
func (i *Issue) Task() (models.JiraTask, error) {
	task := models.JiraTask{
		Key:             i.Key,
		Title:           i.Fields.Summary,
		Status:          i.Fields.Status.Name,
		EstimateHours:   secondsToHours(i.Fields.TimeOriginalEstimate),
		TimeLoggedHours: secondsToHours(i.Fields.TimeSpent),
	}

	if i.Fields.Assignee != nil && i.Fields.Assignee.EmailAddress != "" {
		email := i.Fields.Assignee.EmailAddress
		task.AssigneeEmail = &email
	}

	var err error
	if task.CreatedDate, err = parseDate(i.Fields.Created); err != nil {
		return models.JiraTask{}, fmt.Errorf("%s: created: %w", i.Key, err)
	}
	if task.CompletedDate, err = parseDate(i.Fields.ResolutionDate); err != nil {
		return models.JiraTask{}, fmt.Errorf("%s: resolutiondate: %w", i.Key, err)
	}

	return task, nil
}

type Client struct {
	baseURL  string
	email    string
	apiToken string
	http     *http.Client
}

func NewClient(baseURL, email, apiToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		email:    email,
		apiToken: apiToken,
		http:     httpClient,
	}
}

// GetIssue fetches one issue by key. A 404 is reported as ErrTaskNotFound.
func (c *Client) GetIssue(ctx context.Context, key string) (*Issue, error) {
	endpoint := c.baseURL + "/rest/api/3/issue/" + url.PathEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, key)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch %s: %s: %s", key, resp.Status, strings.TrimSpace(string(body)))
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	if issue.Key == "" {
		issue.Key = key
	}

	return &issue, nil
}

func secondsToHours(seconds int64) *float64 {
	if seconds == 0 {
		return nil
	}
	hours := float64(seconds) / 3600
	return &hours
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognised date %q", s)
}
