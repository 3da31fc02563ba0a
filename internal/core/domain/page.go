package domain

import "strconv"

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

type Page struct {
	Limit  int
	Offset int
}

// NewPage clamps raw query values. Anything that is not an integer falls
// back to the default.
func NewPage(limitRaw, offsetRaw string) Page {
	limit, err := strconv.Atoi(limitRaw)
	if err != nil || limit == 0 {
		limit = DefaultPageLimit
	}
	limit = min(max(limit, 1), MaxPageLimit)

	offset, err := strconv.Atoi(offsetRaw)
	if err != nil {
		offset = 0
	}
	offset = max(offset, 0)

	return Page{Limit: limit, Offset: offset}
}

// List is the envelope returned by every list endpoint.
type List[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

func NewList[T any](rows []T) List[T] {
	if rows == nil {
		rows = []T{}
	}
	return List[T]{Count: len(rows), Data: rows}
}
