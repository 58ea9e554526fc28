package db

import (
	"context"
	"errors"

	"github.com/dailyyoga/refreshkit/cache"
	"gorm.io/gorm"
)

// Scope narrows a query, e.g. func(tx *gorm.DB) *gorm.DB { return tx.Where("active = ?", true) }
type Scope = func(*gorm.DB) *gorm.DB

// Find returns a fetch that loads every T matching scopes.
// An empty result is a valid value.
func Find[T any](d Database, scopes ...Scope) cache.FetchFunc[[]T] {
	return func(ctx context.Context) ([]T, error) {
		gdb, err := d.DB()
		if err != nil {
			return nil, err
		}
		var rows []T
		if err := gdb.WithContext(ctx).Scopes(scopes...).Find(&rows).Error; err != nil {
			return nil, ErrQuery(err)
		}
		if rows == nil {
			rows = []T{}
		}
		return rows, nil
	}
}

// First returns a fetch that loads the first T matching scopes, ordered by
// primary key. No match fails with ErrRecordNotFound so the cache keeps its
// previous value.
func First[T any](d Database, scopes ...Scope) cache.FetchFunc[T] {
	return func(ctx context.Context) (T, error) {
		var zero T
		gdb, err := d.DB()
		if err != nil {
			return zero, err
		}
		var v T
		if err := gdb.WithContext(ctx).Scopes(scopes...).First(&v).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return zero, ErrRecordNotFound
			}
			return zero, ErrQuery(err)
		}
		return v, nil
	}
}
