package jira

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/emilianohg/aimetrics/internal/models"
)

type IssueFetcher interface {
	GetIssue(ctx context.Context, key string) (*Issue, error)
}

type TaskStore interface {
	Upsert(t models.JiraTask) error
}

type KeyError struct {
	Key string
	Err error
}

type SyncResult struct {
	Total    int
	Updated  int
	NotFound []string
	Failed   []KeyError
}

// Errors is the number of keys that were not stored.
func (r *SyncResult) Errors() int {
	return len(r.NotFound) + len(r.Failed)
}

type Syncer struct {
	fetcher IssueFetcher
	store   TaskStore
	logger  *zap.SugaredLogger
}

func NewSyncer(fetcher IssueFetcher, store TaskStore, logger *zap.SugaredLogger) *Syncer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Syncer{fetcher: fetcher, store: store, logger: logger}
}

// Sync refreshes every key one at a time. A failing key is recorded and
// skipped; only a cancelled context stops the loop early.
func (s *Syncer) Sync(ctx context.Context, keys []string, progress func(done, total int)) (*SyncResult, error) {
	result := &SyncResult{Total: len(keys)}

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress(i, len(keys))
		}

		if err := s.syncOne(ctx, key); err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				s.logger.Warnf("task %s not found", key)
				result.NotFound = append(result.NotFound, key)
				continue
			}
			s.logger.Errorf("failed to sync %s: %v", key, err)
			result.Failed = append(result.Failed, KeyError{Key: key, Err: err})
			continue
		}
		result.Updated++
	}

	return result, nil
}

func (s *Syncer) syncOne(ctx context.Context, key string) error {
	issue, err := s.fetcher.GetIssue(ctx, key)
	if err != nil {
		return err
	}

	task, err := issue.Task()
	if err != nil {
		return err
	}

	return s.store.Upsert(task)
}
