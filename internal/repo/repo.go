// Package repo holds what the storage drivers share.
package repo

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Transactor runs fn in one atomic unit. Calls nested inside fn reuse the
// outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const DefaultPageLimit = 20

// ClampLimit maps non-positive limits to the default and caps at max.
func ClampLimit(limit, max int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if max > 0 && limit > max {
		return max
	}
	return limit
}
