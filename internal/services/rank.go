package services

// Ranked is anything carrying a resource id.
type Ranked interface {
	ResourceID() int64
}

// RankOrder returns rows reordered to follow rank. Rows missing from rank are
// dropped. Repeated ids in rank count once.
func RankOrder[T Ranked](rank []int64, rows []T) []T {
	byID := make(map[int64]T, len(rows))
	for _, row := range rows {
		id := row.ResourceID()
		if _, ok := byID[id]; !ok {
			byID[id] = row
		}
	}
	out := make([]T, 0, len(rank))
	for _, id := range rank {
		row, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, row)
		delete(byID, id)
	}
	return out
}
