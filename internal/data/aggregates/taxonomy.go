package aggregates

import (
	"sort"
	"strings"

	"github.com/yungbote/resourcehub-backend/internal/data/repos"
	domainagg "github.com/yungbote/resourcehub-backend/internal/domain/aggregates"
	"github.com/yungbote/resourcehub-backend/internal/platform/dbctx"
)

type TaxonomyResolverDeps struct {
	Categories repos.CategoryRepo
	Tags       repos.TagRepo
}

type taxonomyResolver struct {
	deps TaxonomyResolverDeps
}

func NewTaxonomyResolver(deps TaxonomyResolverDeps) domainagg.TaxonomyResolver {
	return &taxonomyResolver{deps: deps}
}

func (a *taxonomyResolver) Contract() domainagg.Contract {
	return domainagg.TaxonomyResolverContract
}

func (a *taxonomyResolver) ResolveCategory(dbc dbctx.Context, ref domainagg.CategoryRef) (int64, error) {
	const op = "Catalog.Taxonomy.ResolveCategory"
	if ref.Resolved() {
		return ref.ID, nil
	}
	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return 0, domainagg.NewFieldError(domainagg.CodeValidation, op, "category is required", "category")
	}
	if dbc.Tx == nil {
		return 0, domainagg.NewError(domainagg.CodeInternal, op, "missing transaction", nil)
	}
	return a.deps.Categories.UpsertByName(dbc, name)
}

func (a *taxonomyResolver) ResolveTags(dbc dbctx.Context, categoryID int64, refs []domainagg.TagRef) ([]int64, error) {
	const op = "Catalog.Taxonomy.ResolveTags"
	ids := make([]int64, 0, len(refs))
	seenID := map[int64]bool{}
	seenName := map[string]bool{}
	var names []string
	for _, ref := range refs {
		if ref.Resolved() {
			if !seenID[ref.ID] {
				seenID[ref.ID] = true
				ids = append(ids, ref.ID)
			}
			continue
		}
		name := strings.TrimSpace(ref.Name)
		if name == "" {
			return nil, domainagg.NewFieldError(domainagg.CodeValidation, op, "tag names must not be blank", "tags")
		}
		if !seenName[name] {
			seenName[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ids, nil
	}
	if dbc.Tx == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "missing transaction", nil)
	}
	var cat *int64
	if categoryID > 0 {
		cat = &categoryID
	}
	// Fixed row-lock order across concurrent batches.
	sort.Strings(names)
	rows, err := a.deps.Tags.UpsertByNames(dbc, cat, names)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if !seenID[row.ID] {
			seenID[row.ID] = true
			ids = append(ids, row.ID)
		}
	}
	return ids, nil
}
