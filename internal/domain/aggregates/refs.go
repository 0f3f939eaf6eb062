package aggregates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CategoryRef is either an already resolved category id or a name to
// get-or-create. JSON accepts a number or a string.
type CategoryRef struct {
	ID   int64
	Name string
}

func CategoryByID(id int64) CategoryRef      { return CategoryRef{ID: id} }
func CategoryByName(name string) CategoryRef { return CategoryRef{Name: strings.TrimSpace(name)} }

func (r CategoryRef) IsZero() bool   { return r.ID <= 0 && strings.TrimSpace(r.Name) == "" }
func (r CategoryRef) Resolved() bool { return r.ID > 0 }

func (r *CategoryRef) UnmarshalJSON(b []byte) error {
	id, name, err := decodeRef(b)
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	*r = CategoryRef{ID: id, Name: name}
	return nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.Resolved() {
		return json.Marshal(r.ID)
	}
	if r.Name == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.Name)
}

// TagRef is either an already resolved tag id or a tag name.
type TagRef struct {
	ID   int64
	Name string
}

func TagByID(id int64) TagRef      { return TagRef{ID: id} }
func TagByName(name string) TagRef { return TagRef{Name: strings.TrimSpace(name)} }

func (r TagRef) Resolved() bool { return r.ID > 0 }

func (r *TagRef) UnmarshalJSON(b []byte) error {
	id, name, err := decodeRef(b)
	if err != nil {
		return fmt.Errorf("tag: %w", err)
	}
	*r = TagRef{ID: id, Name: name}
	return nil
}

func (r TagRef) MarshalJSON() ([]byte, error) {
	if r.Resolved() {
		return json.Marshal(r.ID)
	}
	return json.Marshal(r.Name)
}

// TagNames builds name refs, skipping blanks.
func TagNames(names ...string) []TagRef {
	out := make([]TagRef, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, TagByName(n))
		}
	}
	return out
}

func decodeRef(b []byte) (int64, string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0, "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, "", err
		}
		return 0, strings.TrimSpace(s), nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0, "", fmt.Errorf("expected number or string")
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid id %s", n.String())
	}
	return id, "", nil
}
