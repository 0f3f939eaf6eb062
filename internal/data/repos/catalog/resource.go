package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type ResourceRepo interface {
	Create(dbc dbctx.Context, row *types.Resource) (*types.Resource, error)
	GetByID(dbc dbctx.Context, id int64) (*types.Resource, error)
	// LockByID reads the row FOR UPDATE; nil when missing.
	LockByID(dbc dbctx.Context, id int64) (*types.Resource, error)
	ExistsByOwnerURL(dbc dbctx.Context, ownerID uuid.UUID, url string, excludeID int64) (bool, error)
	UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) (int64, error)
	DeleteByIDsForOwner(dbc dbctx.Context, ids []int64, ownerID uuid.UUID) (int64, error)
	IncrementViewCount(dbc dbctx.Context, id int64) (bool, error)
	CountOwnedBy(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// ListIDsAfter pages through ids in ascending order.
	ListIDsAfter(dbc dbctx.Context, afterID int64, limit int) ([]int64, error)
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return &resourceRepo{db: db, log: baseLog.With("repo", "ResourceRepo")}
}

func (r *resourceRepo) Create(dbc dbctx.Context, row *types.Resource) (*types.Resource, error) {
	if row == nil {
		return nil, errors.New("resource row required")
	}
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *resourceRepo) GetByID(dbc dbctx.Context, id int64) (*types.Resource, error) {
	var row types.Resource
	err := dbc.Conn(r.db).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *resourceRepo) LockByID(dbc dbctx.Context, id int64) (*types.Resource, error) {
	var row types.Resource
	err := dbc.Conn(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *resourceRepo) ExistsByOwnerURL(dbc dbctx.Context, ownerID uuid.UUID, url string, excludeID int64) (bool, error) {
	var count int64
	q := dbc.Conn(r.db).Model(&types.Resource{}).Where("owner_id = ? AND url = ?", ownerID, url)
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *resourceRepo) UpdateFields(dbc dbctx.Context, id int64, updates map[string]interface{}) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := dbc.Conn(r.db).Model(&types.Resource{}).Where("id = ?", id).Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *resourceRepo) DeleteByIDsForOwner(dbc dbctx.Context, ids []int64, ownerID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).Where("id IN ? AND owner_id = ?", ids, ownerID).Delete(&types.Resource{})
	return res.RowsAffected, res.Error
}

func (r *resourceRepo) IncrementViewCount(dbc dbctx.Context, id int64) (bool, error) {
	res := dbc.Conn(r.db).Model(&types.Resource{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	return res.RowsAffected > 0, res.Error
}

func (r *resourceRepo) CountOwnedBy(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := dbc.Conn(r.db).Model(&types.ResourceOwner{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *resourceRepo) ListIDsAfter(dbc dbctx.Context, afterID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 500
	}
	ids := []int64{}
	err := dbc.Conn(r.db).Model(&types.Resource{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
