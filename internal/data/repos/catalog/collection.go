package catalog

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type CollectionRepo interface {
	Create(dbc dbctx.Context, ownerID uuid.UUID, name string) (*types.Collection, error)
	GetForOwner(dbc dbctx.Context, id int64, ownerID uuid.UUID) (*types.Collection, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Collection, error)
	AddResource(dbc dbctx.Context, collectionID, resourceID int64) (bool, error)
	RemoveResource(dbc dbctx.Context, collectionID, resourceID int64) (bool, error)
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return &collectionRepo{db: db, log: baseLog.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) Create(dbc dbctx.Context, ownerID uuid.UUID, name string) (*types.Collection, error) {
	row := &types.Collection{OwnerID: ownerID, Name: strings.TrimSpace(name)}
	if err := dbc.Conn(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *collectionRepo) GetForOwner(dbc dbctx.Context, id int64, ownerID uuid.UUID) (*types.Collection, error) {
	var row types.Collection
	err := dbc.Conn(r.db).Where("id = ? AND owner_id = ?", id, ownerID).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *collectionRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Collection, error) {
	var out []*types.Collection
	if err := dbc.Conn(r.db).Where("owner_id = ?", ownerID).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *collectionRepo) AddResource(dbc dbctx.Context, collectionID, resourceID int64) (bool, error) {
	res := dbc.Conn(r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.CollectionResource{CollectionID: collectionID, ResourceID: resourceID})
	return res.RowsAffected > 0, res.Error
}

func (r *collectionRepo) RemoveResource(dbc dbctx.Context, collectionID, resourceID int64) (bool, error) {
	res := dbc.Conn(r.db).
		Where("collection_id = ? AND resource_id = ?", collectionID, resourceID).
		Delete(&types.CollectionResource{})
	return res.RowsAffected > 0, res.Error
}
