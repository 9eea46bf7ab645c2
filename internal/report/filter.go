package report

import (
	"sort"
	"strings"

	"github.com/jjudge-oj/useradmin/types"
)

// Direction selects the order of SortByCreatedAt.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Filter returns the records whose attribute values, joined with single
// spaces, contain query case-insensitively. An empty query keeps every
// record. The input is never modified and relative order is preserved.
func Filter(records []types.User, query string) []types.User {
	out := make([]types.User, 0, len(records))
	needle := strings.ToLower(query)
	for _, record := range records {
		if needle == "" || strings.Contains(searchText(record), needle) {
			out = append(out, record)
		}
	}
	return out
}

func searchText(u types.User) string {
	return strings.ToLower(strings.Join(u.Values(), " "))
}

// SortByCreatedAt returns a copy of records ordered by creation instant.
// Records created at the same instant keep their relative order.
func SortByCreatedAt(records []types.User, dir Direction) []types.User {
	out := make([]types.User, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Descending {
			return out[i].CreatedAt.After(out[j].CreatedAt.Time)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt.Time)
	})
	return out
}
