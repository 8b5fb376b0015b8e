package bankledger

import (
	"context"
	"io"
)

// Iterator is a lazy, single-use iterator over items of type T.
//
// Store implementations produce iterators so readers never observe a torn
// event list: the snapshot of the stream is fixed when the iterator is
// created.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
}

// NewIteratorFunc creates an Iterator from a function producing the next
// item. The function returns io.EOF when the iterator is exhausted.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{nextFunc: nextFunc}
}

// NewSliceIterator creates an Iterator over a fixed slice.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	index := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if index >= len(items) {
			return zero, io.EOF
		}
		item := items[index]
		index++
		return item, nil
	})
}

// Next advances the iterator. Returns false when the iterator is exhausted
// or an error occurred.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}

	it.current, it.err = it.nextFunc(ctx)
	if it.err != nil {
		if it.err == io.EOF {
			it.err = nil
		}
		return false
	}
	return true
}

// Value returns the current item.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the first error encountered during iteration, if any.
// io.EOF is not reported as an error.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and returns the remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	var results []T
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
