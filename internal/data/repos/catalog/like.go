package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type ResourceLikeRepo interface {
	Like(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error)
	Unlike(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error)
}

type resourceLikeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceLikeRepo(db *gorm.DB, baseLog *logger.Logger) ResourceLikeRepo {
	return &resourceLikeRepo{db: db, log: baseLog.With("repo", "ResourceLikeRepo")}
}

// Like reports whether a new like row was written.
func (r *resourceLikeRepo) Like(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error) {
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.ResourceLike{ResourceID: resourceID, UserID: userID})
	return res.RowsAffected > 0, res.Error
}

func (r *resourceLikeRepo) Unlike(dbc dbctx.Context, resourceID int64, userID uuid.UUID) (bool, error) {
	res := dbc.Conn(r.db).
		Where("resource_id = ? AND user_id = ?", resourceID, userID).
		Delete(&types.ResourceLike{})
	return res.RowsAffected > 0, res.Error
}
