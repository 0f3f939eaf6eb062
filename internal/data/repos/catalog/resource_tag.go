package catalog

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type ResourceTagRepo interface {
	// Associate links tagIDs to the resource, skipping existing pairs.
	Associate(dbc dbctx.Context, resourceID int64, tagIDs []int64) (int64, error)
	DeleteByTagIDs(dbc dbctx.Context, resourceID int64, tagIDs []int64) (int64, error)
	TagIDsForResource(dbc dbctx.Context, resourceID int64) ([]int64, error)
}

type resourceTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceTagRepo(db *gorm.DB, baseLog *logger.Logger) ResourceTagRepo {
	return &resourceTagRepo{db: db, log: baseLog.With("repo", "ResourceTagRepo")}
}

func (r *resourceTagRepo) Associate(dbc dbctx.Context, resourceID int64, tagIDs []int64) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	rows := make([]*types.ResourceTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, &types.ResourceTag{ResourceID: resourceID, TagID: id})
	}
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resource_id"}, {Name: "tag_id"}},
			DoNothing: true,
		}).
		Create(&rows)
	return res.RowsAffected, res.Error
}

func (r *resourceTagRepo) DeleteByTagIDs(dbc dbctx.Context, resourceID int64, tagIDs []int64) (int64, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	res := dbc.Conn(r.db).Where("resource_id = ? AND tag_id IN ?", resourceID, tagIDs).Delete(&types.ResourceTag{})
	return res.RowsAffected, res.Error
}

func (r *resourceTagRepo) TagIDsForResource(dbc dbctx.Context, resourceID int64) ([]int64, error) {
	ids := []int64{}
	err := dbc.Conn(r.db).Model(&types.ResourceTag{}).
		Where("resource_id = ?", resourceID).
		Order("tag_id ASC").
		Pluck("tag_id", &ids).Error
	return ids, err
}
