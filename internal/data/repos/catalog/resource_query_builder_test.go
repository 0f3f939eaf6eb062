package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeClampsPaging(t *testing.T) {
	f := ResourceFilter{Page: 0, Limit: 0}.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.Limit)

	f = ResourceFilter{Page: 3, Limit: 5000}.Normalize()
	assert.Equal(t, MaxPageSize, f.Limit)

	f = ResourceFilter{Limit: NoLimit}.Normalize()
	assert.Equal(t, NoLimit, f.Limit)
}

func TestNormalizeDedupesTags(t *testing.T) {
	f := ResourceFilter{Tags: []string{" go ", "go", "", "db"}}.Normalize()
	assert.Equal(t, []string{"go", "db"}, f.Tags)

	f = ResourceFilter{Tags: []string{" "}}.Normalize()
	assert.Nil(t, f.Tags)
}

func TestStatementShapeIndependentOfValues(t *testing.T) {
	cat := int64(4)
	owner := uuid.New()
	a := BuildResourceQuery(ResourceFilter{Page: 1, Limit: 10}.Normalize(), nil)
	b := BuildResourceQuery(ResourceFilter{
		Page:        7,
		Limit:       NoLimit,
		Search:      "kube",
		CategoryID:  &cat,
		Tags:        []string{"a"},
		ResourceIDs: []int64{3, 1},
		OwnerID:     &owner,
		ViewerID:    uuid.New(),
	}.Normalize(), []int64{9})

	assert.Equal(t, a.PageSQL, b.PageSQL)
	assert.Equal(t, a.CountSQL, b.CountSQL)
	assert.Len(t, b.Args, len(a.Args))
}

func TestDefaultOrderIsAscendingID(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{}.Normalize(), nil)
	assert.Contains(t, q.PageSQL, "ORDER BY r.id ASC\n")
}

func TestSortWhitelistAndTiebreaker(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{SortBy: "likesCount", SortType: "DESC"}.Normalize(), nil)
	assert.Contains(t, q.PageSQL, "ORDER BY likes_count DESC, r.id ASC")

	q = BuildResourceQuery(ResourceFilter{SortBy: "id; DROP TABLE resource", SortType: "desc"}.Normalize(), nil)
	assert.Contains(t, q.PageSQL, "ORDER BY r.id DESC\n")
	assert.NotContains(t, q.PageSQL, "DROP")

	_, ok := SortColumn("password")
	assert.False(t, ok)
}

func TestPagingArgs(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{Page: 2, Limit: 10}.Normalize(), nil)
	assert.Equal(t, 10, q.Args["limit"])
	assert.Equal(t, 10, q.Args["offset"])

	q = BuildResourceQuery(ResourceFilter{Page: 5, Limit: NoLimit}.Normalize(), nil)
	assert.Nil(t, q.Args["limit"])
	assert.Equal(t, 0, q.Args["offset"])
	assert.Contains(t, q.PageSQL, "LIMIT CAST(@limit AS bigint) OFFSET CAST(@offset AS bigint)")
}

func TestOptionalArgsBindNull(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{}.Normalize(), nil)
	for _, key := range []string{"search", "category_id", "owner_id", "viewer_id"} {
		assert.Nil(t, q.Args[key], key)
	}
	v, err := q.Args["tag_ids"].(Int64Array).Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTagFilterWithNoResolvedIDsMatchesNothing(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{Tags: []string{"missing"}}.Normalize(), nil)
	v, err := q.Args["tag_ids"].(Int64Array).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}

func TestTagFilterIsAnyMatch(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{Tags: []string{"a", "b"}}.Normalize(), []int64{1, 2})
	assert.Contains(t, q.PageSQL, "rt.tag_id = ANY(CAST(@tag_ids AS bigint[]))")
	v, err := q.Args["tag_ids"].(Int64Array).Value()
	require.NoError(t, err)
	assert.Equal(t, "{1,2}", v)
}

func TestSearchIsEscapedSubstring(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{Search: " 50%_off "}.Normalize(), nil)
	assert.Equal(t, `%50\%\_off%`, q.Args["search"])
	assert.True(t, strings.Contains(q.CountSQL, "r.description ILIKE"))
}

func TestCountSQLHasNoPaging(t *testing.T) {
	q := BuildResourceQuery(ResourceFilter{}.Normalize(), nil)
	assert.NotContains(t, q.CountSQL, "LIMIT")
	assert.NotContains(t, q.CountSQL, "ORDER BY")
}
