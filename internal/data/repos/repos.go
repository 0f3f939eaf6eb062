package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/resourcehub-backend/internal/data/repos/catalog"
	"github.com/yungbote/resourcehub-backend/internal/data/repos/jobs"
	types "github.com/yungbote/resourcehub-backend/internal/domain"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type CategoryRepo = catalog.CategoryRepo
type TagRepo = catalog.TagRepo
type ResourceRepo = catalog.ResourceRepo
type ResourceTagRepo = catalog.ResourceTagRepo
type ResourceOwnerRepo = catalog.ResourceOwnerRepo
type ResourceLikeRepo = catalog.ResourceLikeRepo
type CollectionRepo = catalog.CollectionRepo
type ResourceQueryRepo = catalog.ResourceQueryRepo
type ResourceFilter = catalog.ResourceFilter
type ResourcePage = catalog.ResourcePage

type VectorSyncTaskRepo = jobs.VectorSyncTaskRepo

const (
	DefaultPageSize = catalog.DefaultPageSize
	MaxPageSize     = catalog.MaxPageSize
	NoLimit         = catalog.NoLimit
)

// SortColumn reports whether sortBy is an accepted list ordering.
func SortColumn(sortBy string) (string, bool) { return catalog.SortColumn(sortBy) }

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return catalog.NewCategoryRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return catalog.NewTagRepo(db, baseLog)
}
func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	return catalog.NewResourceRepo(db, baseLog)
}
func NewResourceTagRepo(db *gorm.DB, baseLog *logger.Logger) ResourceTagRepo {
	return catalog.NewResourceTagRepo(db, baseLog)
}
func NewResourceOwnerRepo(db *gorm.DB, baseLog *logger.Logger) ResourceOwnerRepo {
	return catalog.NewResourceOwnerRepo(db, baseLog)
}
func NewResourceLikeRepo(db *gorm.DB, baseLog *logger.Logger) ResourceLikeRepo {
	return catalog.NewResourceLikeRepo(db, baseLog)
}
func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return catalog.NewCollectionRepo(db, baseLog)
}
func NewResourceQueryRepo(db *gorm.DB, tags TagRepo, baseLog *logger.Logger) ResourceQueryRepo {
	return catalog.NewResourceQueryRepo(db, tags, baseLog)
}

func NewVectorSyncTaskRepo(db *gorm.DB, baseLog *logger.Logger) VectorSyncTaskRepo {
	return jobs.NewVectorSyncTaskRepo(db, baseLog)
}

// Set bundles every table repo for wiring.
type Set struct {
	Categories  CategoryRepo
	Tags        TagRepo
	Resources   ResourceRepo
	ResourceTag ResourceTagRepo
	Owners      ResourceOwnerRepo
	Likes       ResourceLikeRepo
	Collections CollectionRepo
	Query       ResourceQueryRepo
	VectorTasks VectorSyncTaskRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	tags := NewTagRepo(db, baseLog)
	return Set{
		Categories:  NewCategoryRepo(db, baseLog),
		Tags:        tags,
		Resources:   NewResourceRepo(db, baseLog),
		ResourceTag: NewResourceTagRepo(db, baseLog),
		Owners:      NewResourceOwnerRepo(db, baseLog),
		Likes:       NewResourceLikeRepo(db, baseLog),
		Collections: NewCollectionRepo(db, baseLog),
		Query:       NewResourceQueryRepo(db, tags, baseLog),
		VectorTasks: NewVectorSyncTaskRepo(db, baseLog),
	}
}

// DecodeResourceIDs reads a vector sync task's resource id payload.
func DecodeResourceIDs(task *types.VectorSyncTask) ([]int64, error) {
	return jobs.DecodeResourceIDs(task)
}
