package catalog

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type TagRepo interface {
	// UpsertByNames get-or-creates every name in one statement. names must be
	// distinct and sorted so overlapping batches lock rows in the same order;
	// new rows record categoryID, existing rows keep theirs.
	UpsertByNames(dbc dbctx.Context, categoryID *int64, names []string) ([]*types.Tag, error)
	IDsByNames(dbc dbctx.Context, names []string) ([]int64, error)
	ListAll(dbc dbctx.Context) ([]*types.Tag, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) UpsertByNames(dbc dbctx.Context, categoryID *int64, names []string) ([]*types.Tag, error) {
	if len(names) == 0 {
		return []*types.Tag{}, nil
	}
	rows := make([]*types.Tag, 0, len(names))
	for _, n := range names {
		rows = append(rows, &types.Tag{Name: n, CategoryID: categoryID})
	}
	err := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"name": gorm.Expr("EXCLUDED.name")}),
		}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *tagRepo) IDsByNames(dbc dbctx.Context, names []string) ([]int64, error) {
	ids := []int64{}
	if len(names) == 0 {
		return ids, nil
	}
	if err := dbc.Conn(r.db).Model(&types.Tag{}).Where("name IN ?", names).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *tagRepo) ListAll(dbc dbctx.Context) ([]*types.Tag, error) {
	var out []*types.Tag
	if err := dbc.Conn(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
