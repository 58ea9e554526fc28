package ch

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dailyyoga/refreshkit/cache"
)

// Select returns a fetch that runs query and scans every row into a T.
// T is a struct whose fields carry `ch:"column"` tags.
//
// An empty result is a valid value; use it with a query that always returns
// the full data set the cache should hold.
func Select[T any](c Client, query string, args ...any) cache.FetchFunc[[]T] {
	return func(ctx context.Context) ([]T, error) {
		var rows []T
		if err := c.Select(ctx, &rows, query, args...); err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []T{}
		}
		return rows, nil
	}
}

// Scalar returns a fetch that runs a single-row, single-column query, for
// example a count or a max(updated_at).
func Scalar[T any](c Client, query string, args ...any) cache.FetchFunc[T] {
	return func(ctx context.Context) (T, error) {
		var v T
		if err := c.QueryRow(ctx, query, args...).Scan(&v); err != nil {
			var zero T
			if errors.Is(err, sql.ErrNoRows) {
				return zero, ErrNoRows
			}
			return zero, err
		}
		return v, nil
	}
}
