package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/httpx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

const (
	OutcomeDone  = "done"
	OutcomeRetry = "retry"
	OutcomeDead  = "dead"
)

type OutboxConfig struct {
	MaxAttempts  int
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	StaleRunning time.Duration
}

func (c OutboxConfig) withDefaults() OutboxConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 8
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 5 * time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Minute
	}
	if c.StaleRunning <= 0 {
		c.StaleRunning = 5 * time.Minute
	}
	return c
}

// VectorOutbox applies committed vector_sync_task rows to the vector index.
type VectorOutbox interface {
	// ProcessNext claims and applies one runnable task. It reports false when
	// nothing was runnable.
	ProcessNext(ctx context.Context) (bool, error)
	// Drain processes runnable tasks until none remain and returns the count.
	Drain(ctx context.Context) (int, error)
}

type vectorOutbox struct {
	log   *logger.Logger
	tasks repos.VectorSyncTaskRepo
	query repos.ResourceQueryRepo
	sync  VectorSync
	cfg   OutboxConfig
	now   func() time.Time
}

func NewVectorOutbox(log *logger.Logger, tasks repos.VectorSyncTaskRepo, query repos.ResourceQueryRepo, sync VectorSync, cfg OutboxConfig) VectorOutbox {
	return &vectorOutbox{
		log:   log.With("service", "VectorOutbox"),
		tasks: tasks,
		query: query,
		sync:  sync,
		cfg:   cfg.withDefaults(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (o *vectorOutbox) ProcessNext(ctx context.Context) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	task, err := o.tasks.ClaimNextRunnable(dbc, o.cfg.StaleRunning)
	if err != nil {
		return false, fmt.Errorf("claim vector task: %w", err)
	}
	if task == nil {
		return false, nil
	}

	applyErr := o.apply(ctx, task)
	if applyErr == nil {
		if err := o.tasks.MarkDone(dbc, task.ID); err != nil {
			return true, fmt.Errorf("mark vector task done: %w", err)
		}
		observability.Current().ObserveOutboxTask(task.Op, OutcomeDone)
		return true, nil
	}

	retryAt := o.now().Add(httpx.Backoff(task.Attempts-1, o.cfg.BaseBackoff, o.cfg.MaxBackoff))
	dead, err := o.tasks.MarkFailed(dbc, task.ID, task.Attempts, o.cfg.MaxAttempts, retryAt, applyErr)
	if err != nil {
		return true, fmt.Errorf("mark vector task failed: %w", err)
	}
	outcome := OutcomeRetry
	if dead {
		outcome = OutcomeDead
		o.log.Error("vector task exhausted retries",
			"task_id", task.ID,
			"op", task.Op,
			"attempts", task.Attempts,
			"error", applyErr,
		)
	} else {
		o.log.Warn("vector task failed; rescheduled",
			"task_id", task.ID,
			"op", task.Op,
			"attempts", task.Attempts,
			"retry_at", retryAt,
			"error", applyErr,
		)
	}
	observability.Current().ObserveOutboxTask(task.Op, outcome)
	return true, nil
}

func (o *vectorOutbox) Drain(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		ok, err := o.ProcessNext(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

func (o *vectorOutbox) apply(ctx context.Context, task *types.VectorSyncTask) error {
	if o.sync == nil {
		return ErrVectorSyncDisabled
	}
	ids, err := repos.DecodeResourceIDs(task)
	if err != nil {
		return fmt.Errorf("decode task payload: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	switch task.Op {
	case jobs.VectorSyncOpDelete:
		return o.sync.DeleteResources(ctx, ids)
	case jobs.VectorSyncOpUpsert, jobs.VectorSyncOpUpdate:
		rows, err := o.load(ctx, ids)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			// Rows deleted after the task committed; a later delete task covers the index.
			return nil
		}
		if task.Op == jobs.VectorSyncOpUpdate && len(rows) == 1 {
			return o.sync.UpdateResource(ctx, rows[0])
		}
		return o.sync.UpsertResources(ctx, rows)
	default:
		return errors.New("unknown vector task op " + task.Op)
	}
}

func (o *vectorOutbox) load(ctx context.Context, ids []int64) ([]*types.ResourceView, error) {
	page, err := o.query.FindResources(dbctx.Context{Ctx: ctx}, repos.ResourceFilter{
		ResourceIDs: ids,
		Limit:       repos.NoLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load resources for vector sync: %w", err)
	}
	return page.Rows, nil
}

// EnqueueReindex records one upsert task per batch of existing resource ids
// and returns how many ids were enqueued.
func EnqueueReindex(ctx context.Context, resources repos.ResourceRepo, tasks repos.VectorSyncTaskRepo, batch int) (int, error) {
	if batch <= 0 {
		batch = 100
	}
	dbc := dbctx.Context{Ctx: ctx}
	var after int64
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		ids, err := resources.ListIDsAfter(dbc, after, batch)
		if err != nil {
			return total, fmt.Errorf("list resource ids: %w", err)
		}
		if len(ids) == 0 {
			return total, nil
		}
		if _, err := tasks.Enqueue(dbc, jobs.VectorSyncOpUpsert, ids); err != nil {
			return total, fmt.Errorf("enqueue reindex batch: %w", err)
		}
		total += len(ids)
		after = ids[len(ids)-1]
		if len(ids) < batch {
			return total, nil
		}
	}
}
