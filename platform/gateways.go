package platform

import (
	"context"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/sync"
)

// fetchRecords adapts a typed list read into a cache fetch.
func fetchRecords[T core.Record](fn func(context.Context) ([]T, error)) sync.FetchFunc {
	return func(ctx context.Context) ([]core.Record, error) {
		xs, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		recs := make([]core.Record, len(xs))
		for i, x := range xs {
			recs[i] = x
		}
		return recs, nil
	}
}

// fetchOne adapts a typed single-record read into a cache fetch.
func fetchOne[T core.Record](fn func(context.Context) (T, error)) sync.FetchFunc {
	return func(ctx context.Context) ([]core.Record, error) {
		x, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return []core.Record{x}, nil
	}
}
