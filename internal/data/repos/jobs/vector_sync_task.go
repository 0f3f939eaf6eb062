package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type VectorSyncTaskRepo interface {
	Enqueue(dbc dbctx.Context, op string, resourceIDs []int64) (*types.VectorSyncTask, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VectorSyncTask, error)
	// ClaimNextRunnable locks the oldest due pending task, or a running task
	// whose lock went stale, and marks it running. Nil when nothing is due.
	ClaimNextRunnable(dbc dbctx.Context, staleRunning time.Duration) (*types.VectorSyncTask, error)
	MarkDone(dbc dbctx.Context, id uuid.UUID) error
	// MarkFailed records err and reschedules, or marks the task dead once
	// attempts reaches maxAttempts.
	MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, maxAttempts int, retryAt time.Time, cause error) (dead bool, err error)
	CountByStatus(dbc dbctx.Context) (map[string]int64, error)
}

type vectorSyncTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVectorSyncTaskRepo(db *gorm.DB, baseLog *logger.Logger) VectorSyncTaskRepo {
	return &vectorSyncTaskRepo{db: db, log: baseLog.With("repo", "VectorSyncTaskRepo")}
}

// DecodeResourceIDs reads the task payload.
func DecodeResourceIDs(task *types.VectorSyncTask) ([]int64, error) {
	if task == nil || len(task.ResourceIDs) == 0 {
		return []int64{}, nil
	}
	var ids []int64
	if err := json.Unmarshal(task.ResourceIDs, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *vectorSyncTaskRepo) Enqueue(dbc dbctx.Context, op string, resourceIDs []int64) (*types.VectorSyncTask, error) {
	switch op {
	case jobs.VectorSyncOpUpsert, jobs.VectorSyncOpUpdate, jobs.VectorSyncOpDelete:
	default:
		return nil, errors.New("unknown vector sync op: " + op)
	}
	if resourceIDs == nil {
		resourceIDs = []int64{}
	}
	payload, err := json.Marshal(resourceIDs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	task := &types.VectorSyncTask{
		ID:          uuid.New(),
		Op:          op,
		ResourceIDs: datatypes.JSON(payload),
		Status:      jobs.VectorSyncStatusPending,
		AvailableAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := dbc.Conn(r.db).Create(task).Error; err != nil {
		return nil, err
	}
	return task, nil
}

func (r *vectorSyncTaskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.VectorSyncTask, error) {
	var task types.VectorSyncTask
	if err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&task).Error; err != nil {
		return nil, err
	}
	if task.ID == uuid.Nil {
		return nil, nil
	}
	return &task, nil
}

func (r *vectorSyncTaskRepo) ClaimNextRunnable(dbc dbctx.Context, staleRunning time.Duration) (*types.VectorSyncTask, error) {
	now := time.Now().UTC()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.VectorSyncTask
	err := dbc.Conn(r.db).Transaction(func(txx *gorm.DB) error {
		var task types.VectorSyncTask
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (status = ? AND available_at <= ?)
        OR (status = ? AND locked_at IS NOT NULL AND locked_at < ?)
      `, jobs.VectorSyncStatusPending, now, jobs.VectorSyncStatusRunning, staleCutoff).
			Order("available_at ASC, created_at ASC").
			First(&task).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.VectorSyncTask{}).
			Where("id = ?", task.ID).
			Updates(map[string]interface{}{
				"status":     jobs.VectorSyncStatusRunning,
				"attempts":   gorm.Expr("attempts + 1"),
				"locked_at":  now,
				"updated_at": now,
			}).Error
		if uErr != nil {
			return uErr
		}
		task.Status = jobs.VectorSyncStatusRunning
		task.Attempts++
		task.LockedAt = &now
		claimed = &task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *vectorSyncTaskRepo) MarkDone(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.Conn(r.db).Model(&types.VectorSyncTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     jobs.VectorSyncStatusDone,
			"last_error": "",
			"locked_at":  nil,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *vectorSyncTaskRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, attempts int, maxAttempts int, retryAt time.Time, cause error) (bool, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if len(msg) > 2000 {
		msg = msg[:2000]
	}
	dead := maxAttempts > 0 && attempts >= maxAttempts
	status := jobs.VectorSyncStatusPending
	if dead {
		status = jobs.VectorSyncStatusDead
	}
	err := dbc.Conn(r.db).Model(&types.VectorSyncTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"last_error":   msg,
			"available_at": retryAt.UTC(),
			"locked_at":    nil,
			"updated_at":   time.Now().UTC(),
		}).Error
	return dead, err
}

func (r *vectorSyncTaskRepo) CountByStatus(dbc dbctx.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := dbc.Conn(r.db).Model(&types.VectorSyncTask{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
