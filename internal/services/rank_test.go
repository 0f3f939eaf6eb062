package services

import (
	"testing"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
)

func views(ids ...int64) []*types.ResourceView {
	out := make([]*types.ResourceView, 0, len(ids))
	for _, id := range ids {
		out = append(out, &types.ResourceView{ID: id})
	}
	return out
}

func idsOf(rows []*types.ResourceView) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestRankOrder(t *testing.T) {
	cases := []struct {
		name string
		rank []int64
		rows []int64
		want []int64
	}{
		{"follows rank", []int64{3, 1, 2}, []int64{1, 2, 3}, []int64{3, 1, 2}},
		{"drops unranked rows", []int64{2}, []int64{1, 2, 3}, []int64{2}},
		{"skips ids without rows", []int64{9, 1}, []int64{1}, []int64{1}},
		{"repeated ids once", []int64{1, 1, 2}, []int64{2, 1}, []int64{1, 2}},
		{"empty rank", nil, []int64{1, 2}, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := idsOf(RankOrder(tc.rank, views(tc.rows...)))
			if len(got) != len(tc.want) {
				t.Fatalf("want=%v got=%v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("want=%v got=%v", tc.want, got)
				}
			}
		})
	}
}

func TestRankOrderWorksOnValues(t *testing.T) {
	rows := []types.ResourceView{{ID: 1}, {ID: 2}}
	got := RankOrder([]int64{2, 1}, rows)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestPaginate(t *testing.T) {
	rows := []int{0, 1, 2, 3, 4}
	if got := paginate(rows, 2, 2); len(got) != 2 || got[0] != 2 {
		t.Fatalf("page 2: %v", got)
	}
	if got := paginate(rows, 4, 2); len(got) != 0 {
		t.Fatalf("past end: %v", got)
	}
	if got := paginate(rows, 1, -1); len(got) != 5 {
		t.Fatalf("no limit: %v", got)
	}
}
