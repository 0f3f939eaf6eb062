package catalog

import (
	"database/sql/driver"
	"strconv"
	"strings"
)

// Int64Array binds as a single Postgres bigint[] literal. gorm expands plain
// slices into value lists, which would change the statement text per call.
// A nil array binds as NULL.
type Int64Array []int64

func (a Int64Array) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	b.WriteByte('}')
	return b.String(), nil
}
