package aggregates

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRefAcceptsNumberOrString(t *testing.T) {
	var in struct {
		Category CategoryRef `json:"category"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category": 7}`), &in))
	assert.Equal(t, CategoryRef{ID: 7}, in.Category)
	assert.True(t, in.Category.Resolved())

	require.NoError(t, json.Unmarshal([]byte(`{"category": "  Design "}`), &in))
	assert.Equal(t, CategoryRef{Name: "Design"}, in.Category)
	assert.False(t, in.Category.Resolved())

	require.NoError(t, json.Unmarshal([]byte(`{"category": null}`), &in))
	assert.True(t, in.Category.IsZero())
}

func TestCategoryRefRejectsBadIDs(t *testing.T) {
	var ref CategoryRef
	assert.Error(t, json.Unmarshal([]byte(`-3`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`true`), &ref))
}

func TestTagRefsMixed(t *testing.T) {
	var tags []TagRef
	require.NoError(t, json.Unmarshal([]byte(`[1, "go", 3]`), &tags))
	require.Len(t, tags, 3)
	assert.Equal(t, TagByID(1), tags[0])
	assert.Equal(t, TagByName("go"), tags[1])
	assert.Equal(t, TagByID(3), tags[2])

	out, err := json.Marshal(tags)
	require.NoError(t, err)
	assert.JSONEq(t, `[1,"go",3]`, string(out))
}

func TestTagNamesSkipsBlanks(t *testing.T) {
	assert.Equal(t, []TagRef{{Name: "a"}, {Name: "b"}}, TagNames("a", " ", " b "))
}

func TestParseDeleteMode(t *testing.T) {
	m, ok := ParseDeleteMode(" HARD ")
	assert.True(t, ok)
	assert.Equal(t, DeleteModeHard, m)
	_, ok = ParseDeleteMode("archive")
	assert.False(t, ok)
}
