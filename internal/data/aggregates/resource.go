package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	"github.com/yungbote/resourcehub-backend/internal/domain/catalog"
	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/domain/jobs"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

type ResourceAggregateDeps struct {
	Base BaseDeps

	Taxonomy     domainagg.TaxonomyResolver
	Resources    repos.ResourceRepo
	ResourceTags repos.ResourceTagRepo
	Owners       repos.ResourceOwnerRepo
	VectorTasks  repos.VectorSyncTaskRepo
}

type resourceAggregate struct {
	deps ResourceAggregateDeps
}

func NewResourceAggregate(deps ResourceAggregateDeps) domainagg.ResourceAggregate {
	deps.Base = deps.Base.withDefaults()
	return &resourceAggregate{deps: deps}
}

func (a *resourceAggregate) Contract() domainagg.Contract {
	return domainagg.ResourceAggregateContract
}

func (a *resourceAggregate) configured() bool {
	return a.deps.Taxonomy != nil && a.deps.Resources != nil && a.deps.ResourceTags != nil &&
		a.deps.Owners != nil && a.deps.VectorTasks != nil
}

func (a *resourceAggregate) CreateResource(ctx context.Context, in domainagg.CreateResourceInput) (*catalog.Resource, error) {
	const op = "Catalog.Resource.CreateResource"
	if in.OwnerID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "name is required", "name")
	}
	url := strings.TrimSpace(in.URL)
	if url == "" {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "url is required", "url")
	}
	if in.Category.IsZero() {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "category is required", "category")
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "resource aggregate repos not configured", nil)
	}

	var out *catalog.Resource
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		dup, err := a.deps.Resources.ExistsByOwnerURL(dbc, in.OwnerID, url, 0)
		if err != nil {
			return err
		}
		if dup {
			return domainagg.NewFieldError(domainagg.CodeConflict, op, "resource with this url already exists", "url")
		}

		categoryID, err := a.deps.Taxonomy.ResolveCategory(dbc, in.Category)
		if err != nil {
			return err
		}
		tagIDs, err := a.deps.Taxonomy.ResolveTags(dbc, categoryID, in.Tags)
		if err != nil {
			return err
		}

		row, err := a.deps.Resources.Create(dbc, &catalog.Resource{
			CategoryID:  categoryID,
			Name:        name,
			Icon:        strings.TrimSpace(in.Icon),
			Thumbnail:   strings.TrimSpace(in.Thumbnail),
			Description: strings.TrimSpace(in.Description),
			URL:         url,
			ViewCount:   0,
			OwnerID:     in.OwnerID,
		})
		if err != nil {
			return err
		}
		if _, err := a.deps.ResourceTags.Associate(dbc, row.ID, tagIDs); err != nil {
			return err
		}
		if err := a.deps.Owners.Link(dbc, row.ID, in.OwnerID); err != nil {
			return err
		}
		if in.SyncVectors {
			if _, err := a.deps.VectorTasks.Enqueue(dbc, jobs.VectorSyncOpUpsert, []int64{row.ID}); err != nil {
				return err
			}
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *resourceAggregate) UpdateResource(ctx context.Context, in domainagg.UpdateResourceInput) (*catalog.Resource, error) {
	const op = "Catalog.Resource.UpdateResource"
	if in.ResourceID <= 0 {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "invalid resource id", "id")
	}
	if in.ActorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing actor_id", nil)
	}
	updates, err := fieldUpdates(op, in.Fields)
	if err != nil {
		return nil, err
	}
	if in.Category != nil && in.Category.IsZero() {
		return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "category must not be empty", "category")
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "resource aggregate repos not configured", nil)
	}

	var out *catalog.Resource
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := a.deps.Resources.LockByID(dbc, in.ResourceID)
		if err != nil {
			return err
		}
		if row == nil {
			return NotFoundError(op, fmt.Sprintf("resource %d not found", in.ResourceID))
		}
		if !in.Privileged {
			owns, err := a.deps.Owners.IsOwner(dbc, row.ID, in.ActorID)
			if err != nil {
				return err
			}
			if !owns {
				return NotFoundError(op, fmt.Sprintf("resource %d not found", in.ResourceID))
			}
		}

		if url, ok := updates["url"].(string); ok && url != row.URL {
			dup, err := a.deps.Resources.ExistsByOwnerURL(dbc, row.OwnerID, url, row.ID)
			if err != nil {
				return err
			}
			if dup {
				return domainagg.NewFieldError(domainagg.CodeConflict, op, "resource with this url already exists", "url")
			}
		}

		categoryID := row.CategoryID
		if in.Category != nil {
			categoryID, err = a.deps.Taxonomy.ResolveCategory(dbc, *in.Category)
			if err != nil {
				return err
			}
			updates["category_id"] = categoryID
		}
		if len(updates) == 0 && (len(in.Tags.Add) > 0 || len(in.Tags.Delete) > 0) {
			updates["updated_at"] = nowUTC()
		}
		if _, err := a.deps.Resources.UpdateFields(dbc, row.ID, updates); err != nil {
			return err
		}

		if _, err := a.deps.ResourceTags.DeleteByTagIDs(dbc, row.ID, in.Tags.Delete); err != nil {
			return err
		}
		if len(in.Tags.Add) > 0 {
			tagIDs, err := a.deps.Taxonomy.ResolveTags(dbc, categoryID, in.Tags.Add)
			if err != nil {
				return err
			}
			if _, err := a.deps.ResourceTags.Associate(dbc, row.ID, tagIDs); err != nil {
				return err
			}
		}

		if in.SyncVectors {
			if _, err := a.deps.VectorTasks.Enqueue(dbc, jobs.VectorSyncOpUpdate, []int64{row.ID}); err != nil {
				return err
			}
		}

		updated, err := a.deps.Resources.GetByID(dbc, row.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return NotFoundError(op, fmt.Sprintf("resource %d not found", in.ResourceID))
		}
		out = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *resourceAggregate) DeleteResources(ctx context.Context, in domainagg.DeleteResourcesInput) (domainagg.DeleteResourcesResult, error) {
	const op = "Catalog.Resource.DeleteResources"
	out := domainagg.DeleteResourcesResult{IDs: in.IDs}
	if out.IDs == nil {
		out.IDs = []int64{}
	}
	if in.OwnerID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	mode, ok := domainagg.ParseDeleteMode(string(in.Mode))
	if !ok {
		return out, domainagg.NewFieldError(domainagg.CodeValidation, op, fmt.Sprintf("unknown delete mode %q", in.Mode), "mode")
	}
	ids := dedupeIDs(in.IDs)
	if len(ids) == 0 {
		return out, nil
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "resource aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		switch mode {
		case domainagg.DeleteModeSoft:
			n, err := a.deps.Owners.Unlink(dbc, ids, in.OwnerID)
			if err != nil {
				return err
			}
			out.Affected = n
		case domainagg.DeleteModeHard:
			n, err := a.deps.Resources.DeleteByIDsForOwner(dbc, ids, in.OwnerID)
			if err != nil {
				return err
			}
			out.Affected = n
			if in.SyncVectors && n > 0 {
				if _, err := a.deps.VectorTasks.Enqueue(dbc, jobs.VectorSyncOpDelete, ids); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

func fieldUpdates(op string, f domainagg.ResourceFields) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if name == "" {
			return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "name must not be empty", "name")
		}
		updates["name"] = name
	}
	if f.URL != nil {
		url := strings.TrimSpace(*f.URL)
		if url == "" {
			return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "url must not be empty", "url")
		}
		updates["url"] = url
	}
	if f.Icon != nil {
		updates["icon"] = strings.TrimSpace(*f.Icon)
	}
	if f.Thumbnail != nil {
		updates["thumbnail"] = strings.TrimSpace(*f.Thumbnail)
	}
	if f.Description != nil {
		updates["description"] = strings.TrimSpace(*f.Description)
	}
	return updates, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
