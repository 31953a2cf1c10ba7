package query

import (
	"context"
	"time"
)

type Options struct {
	Filter       Filter
	TimelineDays int
	RecentLimit  int
}

// Metrics is everything the dashboard renders in one payload.
type Metrics struct {
	Overview         *Overview        `json:"overview"`
	Summary          []ToolSummary    `json:"summary"`
	Timeline         []TimelinePoint  `json:"timeline"`
	DevStats         []DeveloperStats `json:"devStats"`
	RecentCommits    []Commit         `json:"recentCommits"`
	RecentActivities []Activity       `json:"recentActivities"`
	JiraTasks        []JiraTask       `json:"jiraTasks"`
	JiraComparison   []JiraComparison `json:"jiraComparison"`
	Developers       []Developer      `json:"developers"`
}

// Report is the downloadable snapshot. It is never filtered.
type Report struct {
	GeneratedAt    time.Time        `json:"generated_at"`
	Overview       *Overview        `json:"overview"`
	SummaryByTool  []ToolSummary    `json:"summary_by_tool"`
	Timeline       []TimelinePoint  `json:"timeline_30_days"`
	DeveloperStats []DeveloperStats `json:"developer_stats"`
}

func (s *Store) Metrics(ctx context.Context, opts Options) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)

	if m.Overview, err = s.Overview(ctx, opts.Filter); err != nil {
		return nil, err
	}
	if m.Summary, err = s.SummaryByTool(ctx, opts.Filter); err != nil {
		return nil, err
	}
	if m.Timeline, err = s.Timeline(ctx, opts.TimelineDays, opts.Filter); err != nil {
		return nil, err
	}
	if m.DevStats, err = s.DeveloperStats(ctx); err != nil {
		return nil, err
	}
	if m.RecentCommits, err = s.RecentCommits(ctx, opts.RecentLimit, opts.Filter); err != nil {
		return nil, err
	}
	if m.RecentActivities, err = s.RecentActivities(ctx, opts.RecentLimit, opts.Filter); err != nil {
		return nil, err
	}
	if m.JiraTasks, err = s.JiraTasks(ctx, opts.Filter); err != nil {
		return nil, err
	}
	if m.JiraComparison, err = s.JiraComparison(ctx); err != nil {
		return nil, err
	}
	if m.Developers, err = s.Developers(ctx); err != nil {
		return nil, err
	}

	return &m, nil
}

func (s *Store) Report(ctx context.Context, timelineDays int) (*Report, error) {
	var (
		r   = Report{GeneratedAt: s.now().UTC()}
		err error
	)

	if r.Overview, err = s.Overview(ctx, Filter{}); err != nil {
		return nil, err
	}
	if r.SummaryByTool, err = s.SummaryByTool(ctx, Filter{}); err != nil {
		return nil, err
	}
	if r.Timeline, err = s.Timeline(ctx, timelineDays, Filter{}); err != nil {
		return nil, err
	}
	if r.DeveloperStats, err = s.DeveloperStats(ctx); err != nil {
		return nil, err
	}

	return &r, nil
}
