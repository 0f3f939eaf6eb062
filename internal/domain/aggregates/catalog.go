package aggregates

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/resourcehub-backend/internal/domain/catalog"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

var TaxonomyResolverContract = Contract{
	Name:             "Catalog.Taxonomy",
	WriteTxOwnership: WriteTxOwnedByCaller,
	ReadPolicy:       ReadPolicyInvariantScoped,
	Notes:            "Get-or-create of categories and tags by unique name. Runs inside the caller's transaction so created rows roll back with it.",
}

var ResourceAggregateContract = Contract{
	Name:             "Catalog.Resource",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	ReadPolicy:       ReadPolicyTableRepoQueries,
	Notes:            "Resource row, tag associations, ownership links and vector outbox rows commit together. Listing and search reads stay on the query repo.",
}

// TaxonomyResolver turns category and tag refs into ids.
//
// Error codes:
//   - validation: blank names
//   - internal: missing transaction context
type TaxonomyResolver interface {
	Aggregate
	ResolveCategory(dbc dbctx.Context, ref CategoryRef) (int64, error)
	// ResolveTags returns ids for refs; output order does not follow input order.
	ResolveTags(dbc dbctx.Context, categoryID int64, refs []TagRef) ([]int64, error)
}

type DeleteMode string

const (
	DeleteModeSoft DeleteMode = "soft"
	DeleteModeHard DeleteMode = "hard"
)

func ParseDeleteMode(raw string) (DeleteMode, bool) {
	switch DeleteMode(strings.ToLower(strings.TrimSpace(raw))) {
	case DeleteModeSoft:
		return DeleteModeSoft, true
	case DeleteModeHard:
		return DeleteModeHard, true
	default:
		return "", false
	}
}

type CreateResourceInput struct {
	OwnerID     uuid.UUID
	Category    CategoryRef
	Tags        []TagRef
	Name        string
	Icon        string
	Thumbnail   string
	Description string
	URL         string
	SyncVectors bool
}

type ResourceFields struct {
	Name        *string
	Icon        *string
	Thumbnail   *string
	Description *string
	URL         *string
}

func (f ResourceFields) IsEmpty() bool {
	return f.Name == nil && f.Icon == nil && f.Thumbnail == nil && f.Description == nil && f.URL == nil
}

type TagDiff struct {
	Add    []TagRef
	Delete []int64
}

type UpdateResourceInput struct {
	ResourceID int64
	ActorID    uuid.UUID
	// Privileged actors may edit any resource; others only resources they own.
	Privileged  bool
	Fields      ResourceFields
	Tags        TagDiff
	Category    *CategoryRef
	SyncVectors bool
}

type DeleteResourcesInput struct {
	IDs         []int64
	OwnerID     uuid.UUID
	Mode        DeleteMode
	SyncVectors bool
}

type DeleteResourcesResult struct {
	IDs []int64
	// Affected counts removed rows; callers still report IDs as requested.
	Affected int64
}

// ResourceAggregate owns resource writes.
//
// Error codes:
//   - validation: missing fields or unknown delete mode
//   - not_found: resource missing or not visible to the actor
//   - conflict: duplicate (owner, url)
//   - precondition_failed: referenced category does not exist
//   - retryable: transient transaction failure
type ResourceAggregate interface {
	Aggregate
	CreateResource(ctx context.Context, in CreateResourceInput) (*catalog.Resource, error)
	UpdateResource(ctx context.Context, in UpdateResourceInput) (*catalog.Resource, error)
	DeleteResources(ctx context.Context, in DeleteResourcesInput) (DeleteResourcesResult, error)
}
