package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type ResourceOwnerRepo interface {
	Link(dbc dbctx.Context, resourceID int64, userID uuid.UUID) error
	// Unlink removes only the (ids, userID) ownership rows.
	Unlink(dbc dbctx.Context, resourceIDs []int64, userID uuid.UUID) (int64, error)
	IsOwner(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error)
}

type resourceOwnerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceOwnerRepo(db *gorm.DB, baseLog *logger.Logger) ResourceOwnerRepo {
	return &resourceOwnerRepo{db: db, log: baseLog.With("repo", "ResourceOwnerRepo")}
}

func (r *resourceOwnerRepo) Link(dbc dbctx.Context, resourceID int64, userID uuid.UUID) error {
	row := &types.ResourceOwner{ResourceID: resourceID, UserID: userID}
	return dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *resourceOwnerRepo) Unlink(dbc dbctx.Context, resourceIDs []int64, userID uuid.UUID) (int64, error) {
	if len(resourceIDs) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).
		Where("resource_id IN ? AND user_id = ?", resourceIDs, userID).
		Delete(&types.ResourceOwner{})
	return res.RowsAffected, res.Error
}

func (r *resourceOwnerRepo) IsOwner(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error) {
	var count int64
	err := dbc.Conn(r.db).Model(&types.ResourceOwner{}).
		Where("resource_id = ? AND user_id = ?", resourceID, userID).
		Count(&count).Error
	return count > 0, err
}
