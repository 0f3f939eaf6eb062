// Package domain re-exports the persisted model types under one import.
package domain

import (
	"github.com/yungbote/resourcehub-backend/internal/domain/catalog"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
)

type Resource = catalog.Resource
type ResourceTag = catalog.ResourceTag
type ResourceOwner = catalog.ResourceOwner
type ResourceLike = catalog.ResourceLike
type Category = catalog.Category
type Tag = catalog.Tag
type Collection = catalog.Collection
type CollectionResource = catalog.CollectionResource
type ResourceView = catalog.ResourceView
type TaxonomySnapshot = catalog.TaxonomySnapshot

type VectorSyncTask = jobs.VectorSyncTask

const (
	VectorSyncOpUpsert = jobs.VectorSyncOpUpsert
	VectorSyncOpUpdate = jobs.VectorSyncOpUpdate
	VectorSyncOpDelete = jobs.VectorSyncOpDelete
)

// Models lists every table owned by this service, in migration order.
func Models() []any {
	return []any{
		&Category{},
		&Tag{},
		&Resource{},
		&ResourceTag{},
		&ResourceOwner{},
		&ResourceLike{},
		&Collection{},
		&CollectionResource{},
		&VectorSyncTask{},
	}
}
