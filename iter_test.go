package bankledger_test

import (
	"context"
	"errors"
	"io"
	"testing"

	cqrs "github.com/terraskye/bankledger"
)

func TestIteratorBasic(t *testing.T) {
	items := []int{1, 2, 3}
	i := 0

	iter := cqrs.NewIteratorFunc(func(ctx context.Context) (int, error) {
		if i >= len(items) {
			return 0, io.EOF
		}
		val := items[i]
		i++
		return val, nil
	})

	var got []int
	for iter.Next(t.Context()) {
		got = append(got, iter.Value())
	}

	if iter.Err() != nil {
		t.Fatalf("unexpected error: %v", iter.Err())
	}
	if len(got) != len(items) {
		t.Fatalf("expected %v items, got %v", len(items), len(got))
	}
	for i := range items {
		if got[i] != items[i] {
			t.Errorf("index %d: expected %v got %v", i, items[i], got[i])
		}
	}
}

func TestIteratorEOFIsNotAnError(t *testing.T) {
	iter := cqrs.NewIteratorFunc(func(ctx context.Context) (int, error) {
		return 0, io.EOF
	})

	if iter.Next(t.Context()) {
		t.Fatal("expected exhausted iterator")
	}
	if iter.Err() != nil {
		t.Fatalf("EOF must not surface as error, got %v", iter.Err())
	}
}

func TestIteratorError(t *testing.T) {
	boom := errors.New("boom")
	iter := cqrs.NewIteratorFunc(func(ctx context.Context) (int, error) {
		return 0, boom
	})

	if iter.Next(t.Context()) {
		t.Fatal("expected failed iteration")
	}
	if !errors.Is(iter.Err(), boom) {
		t.Fatalf("expected boom, got %v", iter.Err())
	}
	// The error is sticky.
	if iter.Next(t.Context()) {
		t.Fatal("iterator must stay failed")
	}
}

func TestSliceIterator(t *testing.T) {
	iter := cqrs.NewSliceIterator([]string{"a", "b"})

	all, err := iter.All(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0] != "a" || all[1] != "b" {
		t.Fatalf("unexpected items: %v", all)
	}
}

func TestSliceIteratorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	iter := cqrs.NewSliceIterator([]int{1, 2, 3})
	if iter.Next(ctx) {
		t.Fatal("expected no progress with canceled context")
	}
	if !errors.Is(iter.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", iter.Err())
	}
}

func TestIteratorAllEmpty(t *testing.T) {
	iter := cqrs.NewSliceIterator([]int(nil))
	all, err := iter.All(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no items, got %v", all)
	}
}
