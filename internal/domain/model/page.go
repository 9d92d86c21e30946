package model

// Page is a cursor page. NextCursor is the id of the last item when more
// rows follow.
type Page[T any] struct {
	Data       []T     `json:"data"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// NewPage trims a take-N+1 result down to limit items.
func NewPage[T any](rows []T, limit int, id func(T) string) Page[T] {
	if rows == nil {
		rows = []T{}
	}
	if limit <= 0 || len(rows) <= limit {
		return Page[T]{Data: rows}
	}
	items := rows[:limit]
	next := id(items[len(items)-1])
	return Page[T]{Data: items, NextCursor: &next, HasMore: true}
}
