package catalog

import (
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// NoLimit disables LIMIT while keeping the statement text unchanged.
	NoLimit = -1
)

// ResourceFilter drives FindResources. Nil slices mean "no constraint"; a
// non-nil empty ResourceIDs matches nothing.
type ResourceFilter struct {
	Page        int
	Limit       int
	Search      string
	CategoryID  *int64
	Tags        []string
	ResourceIDs []int64
	OwnerID     *uuid.UUID
	SortBy      string
	SortType    string
	ViewerID    uuid.UUID
}

// Normalize clamps paging and trims inputs.
func (f ResourceFilter) Normalize() ResourceFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.Limit == NoLimit:
	case f.Limit <= 0:
		f.Limit = DefaultPageSize
	case f.Limit > MaxPageSize:
		f.Limit = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Tags != nil {
		seen := map[string]bool{}
		tags := make([]string, 0, len(f.Tags))
		for _, t := range f.Tags {
			t = strings.TrimSpace(t)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			tags = append(tags, t)
		}
		f.Tags = tags
		if len(tags) == 0 {
			f.Tags = nil
		}
	}
	return f
}

// sortColumns maps accepted sortBy values to ORDER BY expressions.
var sortColumns = map[string]string{
	"id":             "r.id",
	"name":           "r.name",
	"url":            "r.url",
	"viewcount":      "r.view_count",
	"view_count":     "r.view_count",
	"createdat":      "r.created_at",
	"created_at":     "r.created_at",
	"updatedat":      "r.updated_at",
	"updated_at":     "r.updated_at",
	"category":       "category_name",
	"bookmarkscount": "bookmarks_count",
	"likescount":     "likes_count",
}

// SortColumn resolves sortBy against the whitelist, defaulting to id.
func SortColumn(sortBy string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(sortBy))
	if key == "" {
		return "r.id", true
	}
	col, ok := sortColumns[key]
	if !ok {
		return "r.id", false
	}
	return col, true
}

func SortDirection(sortType string) string {
	if strings.EqualFold(strings.TrimSpace(sortType), "desc") {
		return "DESC"
	}
	return "ASC"
}

// ResourceQuery is the compiled statement pair. Both statements bind Args by
// name; the text depends only on the sort column and direction.
type ResourceQuery struct {
	CountSQL string
	PageSQL  string
	Args     map[string]interface{}
}

const resourcePredicate = `
	(CAST(@search AS text) IS NULL
		OR r.name ILIKE CAST(@search AS text)
		OR r.description ILIKE CAST(@search AS text))
	AND (CAST(@category_id AS bigint) IS NULL OR r.category_id = CAST(@category_id AS bigint))
	AND (CAST(@resource_ids AS bigint[]) IS NULL OR r.id = ANY(CAST(@resource_ids AS bigint[])))
	AND (CAST(@owner_id AS uuid) IS NULL OR EXISTS (
		SELECT 1 FROM resource_owner ro
		WHERE ro.resource_id = r.id AND ro.user_id = CAST(@owner_id AS uuid)))
	AND (CAST(@tag_ids AS bigint[]) IS NULL OR EXISTS (
		SELECT 1 FROM resource_tag rt
		WHERE rt.resource_id = r.id AND rt.tag_id = ANY(CAST(@tag_ids AS bigint[]))))`

const resourceColumns = `
	r.id, r.category_id, r.name, r.icon, r.thumbnail, r.description, r.url,
	r.view_count, r.owner_id, r.created_at, r.updated_at,
	(SELECT c.name FROM category c WHERE c.id = r.category_id) AS category_name,
	(SELECT COALESCE(json_agg(t.name ORDER BY t.name), CAST('[]' AS json))
		FROM resource_tag rt JOIN tag t ON t.id = rt.tag_id
		WHERE rt.resource_id = r.id) AS tag_names,
	(SELECT COUNT(*) FROM collection_resource cr WHERE cr.resource_id = r.id) AS bookmarks_count,
	(SELECT COUNT(*) FROM resource_like rl WHERE rl.resource_id = r.id) AS likes_count,
	EXISTS (SELECT 1 FROM resource_like rl
		WHERE rl.resource_id = r.id AND rl.user_id = CAST(@viewer_id AS uuid)) AS is_liked,
	(SELECT COALESCE(json_agg(cr.collection_id ORDER BY cr.collection_id), CAST('[]' AS json))
		FROM collection_resource cr JOIN collection col ON col.id = cr.collection_id
		WHERE cr.resource_id = r.id AND col.owner_id = CAST(@viewer_id AS uuid)) AS collection_ids`

// BuildResourceQuery compiles f (already normalized) with the resolved tag ids.
// tagIDs is ignored when f.Tags is nil; an empty tagIDs with tags requested
// matches nothing.
func BuildResourceQuery(f ResourceFilter, tagIDs []int64) ResourceQuery {
	col, _ := SortColumn(f.SortBy)
	dir := SortDirection(f.SortType)
	order := col + " " + dir
	if col != "r.id" {
		order += ", r.id ASC"
	}

	var b strings.Builder
	b.WriteString("SELECT")
	b.WriteString(resourceColumns)
	b.WriteString("\nFROM resource r\nWHERE")
	b.WriteString(resourcePredicate)
	b.WriteString("\nORDER BY ")
	b.WriteString(order)
	b.WriteString("\nLIMIT CAST(@limit AS bigint) OFFSET CAST(@offset AS bigint)")

	return ResourceQuery{
		CountSQL: "SELECT COUNT(*) FROM resource r\nWHERE" + resourcePredicate,
		PageSQL:  b.String(),
		Args:     queryArgs(f, tagIDs),
	}
}

func queryArgs(f ResourceFilter, tagIDs []int64) map[string]interface{} {
	args := map[string]interface{}{
		"search":       nil,
		"category_id":  nil,
		"resource_ids": Int64Array(nil),
		"owner_id":     nil,
		"tag_ids":      Int64Array(nil),
		"viewer_id":    nil,
		"limit":        nil,
		"offset":       0,
	}
	if f.Search != "" {
		args["search"] = "%" + EscapeLike(f.Search) + "%"
	}
	if f.CategoryID != nil {
		args["category_id"] = *f.CategoryID
	}
	if f.ResourceIDs != nil {
		args["resource_ids"] = append(Int64Array{}, f.ResourceIDs...)
	}
	if f.OwnerID != nil && *f.OwnerID != uuid.Nil {
		args["owner_id"] = f.OwnerID.String()
	}
	if f.Tags != nil {
		args["tag_ids"] = append(Int64Array{}, tagIDs...)
	}
	if f.ViewerID != uuid.Nil {
		args["viewer_id"] = f.ViewerID.String()
	}
	if f.Limit != NoLimit {
		args["limit"] = f.Limit
		args["offset"] = (f.Page - 1) * f.Limit
	}
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards using the default backslash escape.
func EscapeLike(s string) string { return likeEscaper.Replace(s) }
