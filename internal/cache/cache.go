// Package cache memoizes slow listing calls.
package cache

import (
	"context"
	"slices"
	"sync"
)

// Fn wraps fn so that it runs at most once per process. Callers get a
// copy of the cached slice, so they can't mutate the cache. Errors are
// not cached; a failed call will be retried on the next invocation.
func Fn[V any](fn func(ctx context.Context) ([]V, error)) func(ctx context.Context) ([]V, error) {
	var mu sync.Mutex
	var cached []V
	var ok bool
	return func(ctx context.Context) ([]V, error) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			return slices.Clone(cached), nil
		}
		values, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		cached, ok = values, true
		return slices.Clone(cached), nil
	}
}
