package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	VectorSyncOpUpsert = "upsert"
	VectorSyncOpUpdate = "update"
	VectorSyncOpDelete = "delete"
)

const (
	VectorSyncStatusPending = "pending"
	VectorSyncStatusRunning = "running"
	VectorSyncStatusDone    = "done"
	VectorSyncStatusFailed  = "failed"
	VectorSyncStatusDead    = "dead"
)

// VectorSyncTask is an outbox row recorded in the same transaction as the
// relational write it mirrors. ResourceIDs is a JSON array of int64.
type VectorSyncTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Op          string         `gorm:"column:op;not null" json:"op"`
	ResourceIDs datatypes.JSON `gorm:"column:resource_ids;type:jsonb;not null" json:"resource_ids"`
	Status      string         `gorm:"column:status;not null;index:idx_vector_sync_task_runnable,priority:1" json:"status"`
	Attempts    int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError   string         `gorm:"column:last_error" json:"last_error,omitempty"`
	AvailableAt time.Time      `gorm:"column:available_at;not null;default:now();index:idx_vector_sync_task_runnable,priority:2" json:"available_at"`
	LockedAt    *time.Time     `gorm:"column:locked_at" json:"locked_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (VectorSyncTask) TableName() string { return "vector_sync_task" }
