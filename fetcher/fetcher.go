// Package fetcher runs independent read-only lookups concurrently.
package fetcher

import (
	"context"
	"fmt"
	"sync"
)

// FetchAll calls fetch once per key with at most workers calls in flight and
// returns the results in key order. The first failure cancels the context
// passed to the remaining calls and is returned.
func FetchAll[T any](ctx context.Context, keys []string, workers int, fetch func(ctx context.Context, key string) (T, error)) ([]T, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]T, len(keys))
	sem := make(chan struct{}, workers)
	errChan := make(chan error, len(keys))
	var wg sync.WaitGroup

	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			sem <- struct{}{}        // Acquire semaphore
			defer func() { <-sem }() // Release semaphore

			if ctx.Err() != nil {
				return
			}
			result, err := fetch(ctx, key)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", key, err)
				cancel()
				return
			}
			results[i] = result
		}(i, key)
	}

	wg.Wait()
	close(errChan)

	if err, ok := <-errChan; ok {
		return nil, err
	}
	// Only the parent can have cancelled ctx at this point.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
