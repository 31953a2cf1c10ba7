// Package ingest turns the commit history into classified commits and
// resolves ambiguous gaps along the way.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilianohg/aimetrics/internal/estimate"
	"github.com/emilianohg/aimetrics/internal/git"
	"github.com/emilianohg/aimetrics/internal/models"
	"github.com/emilianohg/aimetrics/internal/parser"
	"github.com/emilianohg/aimetrics/internal/resolver"
)

// ErrPersist wraps failures to write the classified commits. Nothing from
// the batch is stored when it is returned.
var ErrPersist = errors.New("failed to persist commits")

type CommitWriter interface {
	UpsertMany(commits []models.Commit) error
}

type ActivityWriter interface {
	Create(a *models.Activity) (int64, error)
}

type Result struct {
	RunID      string
	Total      int
	Valid      int
	Invalid    int
	Ambiguous  int
	Idle       int
	Activities []models.Activity
	Commits    []models.Commit
}

type Ingester struct {
	source     git.Source
	commits    CommitWriter
	activities ActivityWriter
	resolver   resolver.Resolver
	logger     *zap.SugaredLogger
}

func New(source git.Source, commits CommitWriter, activities ActivityWriter, r resolver.Resolver, logger *zap.SugaredLogger) *Ingester {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Ingester{
		source:     source,
		commits:    commits,
		activities: activities,
		resolver:   r,
		logger:     logger,
	}
}

// Run reads the history once and processes it.
func (in *Ingester) Run(ctx context.Context, opts git.HistoryOptions) (*Result, error) {
	history, err := in.source.History(ctx, opts)
	if err != nil {
		return nil, err
	}
	return in.Process(ctx, history)
}

// Process classifies every commit in delivered order. Commits whose
// message does not parse are counted but never estimated or stored; they
// still act as the previous commit for their author. Accepted gaps are
// written as activities as soon as they are answered; the commits
// themselves are written in a single batch at the end.
func (in *Ingester) Process(ctx context.Context, history []git.CommitInfo) (*Result, error) {
	result := &Result{
		RunID:   uuid.NewString(),
		Total:   len(history),
		Commits: make([]models.Commit, 0, len(history)),
	}
	log := in.logger.With("run_id", result.RunID)
	log.Infof("processing %d commits", len(history))

	points := make([]estimate.Point, len(history))
	for i, c := range history {
		points[i] = estimate.Point{Author: c.AuthorEmail, At: c.CommittedAt}
	}
	priors := estimate.Priors(points)

	for i, info := range history {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed := parser.Parse(info.Message)
		if !parsed.IsValid {
			result.Invalid++
			log.Debugf("skipping commit %s, message does not follow the convention: %q", shortHash(info.Hash), info.Message)
			continue
		}

		result.Valid++
		commit := models.Commit{
			Hash:        info.Hash,
			AuthorName:  info.AuthorName,
			AuthorEmail: info.AuthorEmail,
			Message:     info.Message,
			Timestamp:   info.CommittedAt,
			CommitType:  parsed.CommitType,
			AITool:      parsed.AITool,
		}
		if parsed.JiraID != "" {
			jiraID := parsed.JiraID
			commit.JiraID = &jiraID
		}

		var prior *git.CommitInfo
		if p := priors[i]; p >= 0 {
			prior = &history[p]
		}

		var priorAt *time.Time
		if prior != nil {
			priorAt = &prior.CommittedAt
		}
		est := estimate.Classify(info.CommittedAt, priorAt)
		commit.TimeSpentMinutes = est.TimeSpent()

		switch est.Kind {
		case estimate.Idle:
			result.Idle++
		case estimate.Ambiguous:
			result.Ambiguous++
			activity, err := in.resolve(ctx, info, prior, est, parsed.Tool())
			if err != nil {
				return nil, err
			}
			if activity != nil {
				result.Activities = append(result.Activities, *activity)
			}
		}

		result.Commits = append(result.Commits, commit)
	}

	if err := in.commits.UpsertMany(result.Commits); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	log.Infof("stored %d of %d commits (%d invalid), %d activities", len(result.Commits), result.Total, result.Invalid, len(result.Activities))

	return result, nil
}

func (in *Ingester) resolve(ctx context.Context, info git.CommitInfo, prior *git.CommitInfo, est estimate.Estimate, tool models.AITool) (*models.Activity, error) {
	gap := resolver.Gap{
		AuthorName:  info.AuthorName,
		AuthorEmail: info.AuthorEmail,
		Start:       prior.CommittedAt,
		End:         info.CommittedAt,
		Minutes:     est.Minutes,
		AITool:      tool,
	}

	decision, err := in.resolver.Resolve(ctx, gap)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve gap before %s: %w", shortHash(info.Hash), err)
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}
	if !decision.Record {
		return nil, nil
	}

	activity := decision.Activity(gap)
	if _, err := in.activities.Create(&activity); err != nil {
		return nil, fmt.Errorf("failed to record activity for %s: %w", info.AuthorEmail, err)
	}
	in.logger.Debugf("recorded %d minute activity for %s", activity.DurationMinutes, activity.AuthorEmail)

	return &activity, nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
