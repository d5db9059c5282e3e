package workpool

import (
	"context"
	"sync"
)

// Result is the outcome of one item, kept at the item's input index
type Result[T any] struct {
	Value T
	Err   error
}

// Run applies fn to every item with at most workers concurrent calls and
// returns results in input order. Items not started before ctx is done get ctx.Err().
// ⭐ SSOT: 종목별 fan-out 은 모두 이 함수를 통해 수행
func Run[I, T any](ctx context.Context, workers int, items []I, fn func(ctx context.Context, item I) (T, error)) []Result[T] {
	results := make([]Result[T], len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	indexCh := make(chan int, len(items))
	for i := range items {
		indexCh <- i
	}
	close(indexCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				select {
				case <-ctx.Done():
					results[i] = Result[T]{Err: ctx.Err()}
					continue
				default:
				}

				v, err := fn(ctx, items[i])
				results[i] = Result[T]{Value: v, Err: err}
			}
		}()
	}

	wg.Wait()
	return results
}
