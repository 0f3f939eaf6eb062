package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type memTaskRepo struct {
	queue    []*types.VectorSyncTask
	done     []uuid.UUID
	failed   []uuid.UUID
	retryAt  []time.Time
	lastErr  []string
	deadSeen bool
}

func (m *memTaskRepo) add(op string, ids ...int64) *types.VectorSyncTask {
	raw, _ := json.Marshal(ids)
	task := &types.VectorSyncTask{ID: uuid.New(), Op: op, ResourceIDs: datatypes.JSON(raw), Status: jobs.VectorSyncStatusPending}
	m.queue = append(m.queue, task)
	return task
}

func (m *memTaskRepo) Enqueue(_ dbctx.Context, op string, ids []int64) (*types.VectorSyncTask, error) {
	return m.add(op, ids...), nil
}
func (m *memTaskRepo) GetByID(dbctx.Context, uuid.UUID) (*types.VectorSyncTask, error) { return nil, nil }

func (m *memTaskRepo) ClaimNextRunnable(dbctx.Context, time.Duration) (*types.VectorSyncTask, error) {
	for _, t := range m.queue {
		if t.Status == jobs.VectorSyncStatusPending {
			t.Status = jobs.VectorSyncStatusRunning
			t.Attempts++
			return t, nil
		}
	}
	return nil, nil
}

func (m *memTaskRepo) find(id uuid.UUID) *types.VectorSyncTask {
	for _, t := range m.queue {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (m *memTaskRepo) MarkDone(_ dbctx.Context, id uuid.UUID) error {
	m.done = append(m.done, id)
	m.find(id).Status = jobs.VectorSyncStatusDone
	return nil
}

func (m *memTaskRepo) MarkFailed(_ dbctx.Context, id uuid.UUID, attempts, maxAttempts int, retryAt time.Time, cause error) (bool, error) {
	m.failed = append(m.failed, id)
	m.retryAt = append(m.retryAt, retryAt)
	m.lastErr = append(m.lastErr, cause.Error())
	dead := attempts >= maxAttempts
	task := m.find(id)
	if dead {
		task.Status = jobs.VectorSyncStatusDead
		m.deadSeen = true
	} else {
		// Parked until the test releases it, standing in for available_at.
		task.Status = jobs.VectorSyncStatusFailed
	}
	return dead, nil
}

func (m *memTaskRepo) CountByStatus(dbctx.Context) (map[string]int64, error) { return nil, nil }

type memQueryRepo struct {
	rows map[int64]*types.ResourceView
	last repos.ResourceFilter
}

func (m *memQueryRepo) FindResources(_ dbctx.Context, f repos.ResourceFilter) (*repos.ResourcePage, error) {
	m.last = f
	page := &repos.ResourcePage{Rows: []*types.ResourceView{}}
	for _, id := range f.ResourceIDs {
		if row, ok := m.rows[id]; ok {
			page.Rows = append(page.Rows, row)
		}
	}
	if f.ResourceIDs == nil {
		for _, row := range m.rows {
			if f.OwnerID == nil || row.OwnerID == *f.OwnerID {
				page.Rows = append(page.Rows, row)
			}
		}
	}
	page.TotalCount = int64(len(page.Rows))
	return page, nil
}

type recordingSync struct {
	upserts [][]int64
	updates []int64
	deletes [][]int64
	err     error
}

func (r *recordingSync) UpsertResources(_ context.Context, rows []*types.ResourceView) error {
	if r.err != nil {
		return r.err
	}
	r.upserts = append(r.upserts, idsOf(rows))
	return nil
}
func (r *recordingSync) UpdateResource(_ context.Context, row *types.ResourceView) error {
	if r.err != nil {
		return r.err
	}
	r.updates = append(r.updates, row.ID)
	return nil
}
func (r *recordingSync) DeleteResources(_ context.Context, ids []int64) error {
	if r.err != nil {
		return r.err
	}
	r.deletes = append(r.deletes, ids)
	return nil
}
func (r *recordingSync) SimilarResourceIDs(context.Context, *types.ResourceView, int) ([]int64, error) {
	return nil, r.err
}

func TestVectorOutboxAppliesEachOp(t *testing.T) {
	tasks := &memTaskRepo{}
	query := &memQueryRepo{rows: map[int64]*types.ResourceView{1: {ID: 1}, 2: {ID: 2}}}
	sync := &recordingSync{}
	outbox := NewVectorOutbox(logger.Nop(), tasks, query, sync, OutboxConfig{})

	tasks.add(jobs.VectorSyncOpUpsert, 1, 2)
	tasks.add(jobs.VectorSyncOpUpdate, 2)
	tasks.add(jobs.VectorSyncOpDelete, 5)

	n, err := outbox.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, [][]int64{{1, 2}}, sync.upserts)
	assert.Equal(t, []int64{2}, sync.updates)
	assert.Equal(t, [][]int64{{5}}, sync.deletes)
	assert.Len(t, tasks.done, 3)
	assert.Equal(t, repos.NoLimit, query.last.Limit)
}

func TestVectorOutboxFailureReschedulesWithBackoff(t *testing.T) {
	tasks := &memTaskRepo{}
	query := &memQueryRepo{rows: map[int64]*types.ResourceView{1: {ID: 1}}}
	sync := &recordingSync{err: errors.New("index unavailable")}
	ob := NewVectorOutbox(logger.Nop(), tasks, query, sync, OutboxConfig{MaxAttempts: 3, BaseBackoff: time.Second, MaxBackoff: time.Minute}).(*vectorOutbox)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ob.now = func() time.Time { return fixed }

	task := tasks.add(jobs.VectorSyncOpUpsert, 1)

	ok, err := ob.ProcessNext(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, tasks.failed, 1)
	assert.Equal(t, fixed.Add(time.Second), tasks.retryAt[0])
	assert.Contains(t, tasks.lastErr[0], "index unavailable")
	assert.Empty(t, tasks.done)

	// The committed row stays readable regardless of the index failure.
	page, err := query.FindResources(dbctx.Context{}, repos.ResourceFilter{ResourceIDs: []int64{1}})
	require.NoError(t, err)
	assert.Len(t, page.Rows, 1)

	task.Status = jobs.VectorSyncStatusPending
	_, err = ob.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(2*time.Second), tasks.retryAt[1])

	task.Status = jobs.VectorSyncStatusPending
	_, err = ob.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, tasks.deadSeen)
	assert.Equal(t, jobs.VectorSyncStatusDead, task.Status)

	ok, err = ob.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVectorOutboxSkipsVanishedRows(t *testing.T) {
	tasks := &memTaskRepo{}
	sync := &recordingSync{}
	ob := NewVectorOutbox(logger.Nop(), tasks, &memQueryRepo{rows: map[int64]*types.ResourceView{}}, sync, OutboxConfig{})
	tasks.add(jobs.VectorSyncOpUpdate, 42)

	ok, err := ob.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, sync.updates)
	assert.Len(t, tasks.done, 1)
}

type pagedResourceRepo struct {
	repos.ResourceRepo
	ids []int64
}

func (p *pagedResourceRepo) ListIDsAfter(_ dbctx.Context, after int64, limit int) ([]int64, error) {
	out := []int64{}
	for _, id := range p.ids {
		if id > after && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

func TestEnqueueReindexBatchesAllIDs(t *testing.T) {
	tasks := &memTaskRepo{}
	res := &pagedResourceRepo{ids: []int64{1, 2, 3, 5, 8}}

	n, err := EnqueueReindex(context.Background(), res, tasks, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	require.Len(t, tasks.queue, 3)

	var got [][]int64
	for _, task := range tasks.queue {
		assert.Equal(t, jobs.VectorSyncOpUpsert, task.Op)
		ids, err := repos.DecodeResourceIDs(task)
		require.NoError(t, err)
		got = append(got, ids)
	}
	assert.Equal(t, [][]int64{{1, 2}, {3, 5}, {8}}, got)
}

func TestEnqueueReindexEmpty(t *testing.T) {
	tasks := &memTaskRepo{}
	n, err := EnqueueReindex(context.Background(), &pagedResourceRepo{}, tasks, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, tasks.queue)
}
