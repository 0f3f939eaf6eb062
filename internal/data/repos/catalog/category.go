package catalog

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type CategoryRepo interface {
	// UpsertByName returns the id of the category with name, inserting it if absent.
	UpsertByName(dbc dbctx.Context, name string) (int64, error)
	GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Category, error)
	ListAll(dbc dbctx.Context) ([]*types.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) UpsertByName(dbc dbctx.Context, name string) (int64, error) {
	row := &types.Category{Name: strings.TrimSpace(name)}
	err := dbc.Conn(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"name": gorm.Expr("EXCLUDED.name")}),
		}).
		Create(row).Error
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

func (r *categoryRepo) GetByIDs(dbc dbctx.Context, ids []int64) ([]*types.Category, error) {
	var out []*types.Category
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryRepo) ListAll(dbc dbctx.Context) ([]*types.Category, error) {
	var out []*types.Category
	if err := dbc.Conn(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
