package bankledger_test

import (
	"context"
	"errors"
	"testing"

	cqrs "github.com/terraskye/bankledger"
	"github.com/terraskye/bankledger/fixtures"
)

// balance is the minimal state evolved by the generic handler tests.
type balance struct {
	total int64
}

func evolveBalance(state balance, envelope *cqrs.Envelope) balance {
	switch e := envelope.Event.(type) {
	case cqrs.MoneyDeposited:
		state.total += e.Amount
	case cqrs.MoneyWithdrawn:
		state.total -= e.Amount
	}
	return state
}

func decideDeposit(state balance, cmd cqrs.DepositMoney) ([]cqrs.Event, error) {
	if cmd.Amount <= 0 {
		return nil, &cqrs.InvalidStateError{AggregateID: cmd.AccountID, Reason: "deposit amount must be positive"}
	}
	return []cqrs.Event{cqrs.MoneyDeposited{AccountID: cmd.AccountID, Amount: cmd.Amount}}, nil
}

func TestNewCommandHandler_AppendsDecidedEvents(t *testing.T) {
	store := fixtures.NewStoreSpy()
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit)

	result, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 42})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Successful || result.NextExpectedVersion != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if store.AppendCalls != 1 {
		t.Fatalf("expected one append, got %d", store.AppendCalls)
	}
	if len(store.LastAppendEvents) != 1 {
		t.Fatalf("expected one event, got %d", len(store.LastAppendEvents))
	}
	event, ok := store.LastAppendEvents[0].Event.(cqrs.MoneyDeposited)
	if !ok || event.Amount != 42 {
		t.Fatalf("unexpected appended event: %+v", store.LastAppendEvents[0].Event)
	}
	if store.LastAppendEvents[0].Version != 1 {
		t.Fatalf("expected version 1, got %d", store.LastAppendEvents[0].Version)
	}
}

func TestNewCommandHandler_EvolvesBeforeDeciding(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1",
		cqrs.MoneyDeposited{AccountID: "acc-1", Amount: 10},
		cqrs.MoneyDeposited{AccountID: "acc-1", Amount: 20},
	)

	var seen int64
	decide := func(state balance, cmd cqrs.DepositMoney) ([]cqrs.Event, error) {
		seen = state.total
		return decideDeposit(state, cmd)
	}

	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decide)
	result, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 5})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if seen != 30 {
		t.Fatalf("decider saw state %d, expected 30", seen)
	}
	if result.NextExpectedVersion != 3 {
		t.Fatalf("expected appended at version 3, got %d", result.NextExpectedVersion)
	}
	if store.LastAppendExpected != 2 {
		t.Fatalf("expected append under version 2, got %d", store.LastAppendExpected)
	}
}

func TestNewCommandHandler_BusinessRejectionIsPermanent(t *testing.T) {
	store := fixtures.NewStoreSpy()
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit,
		cqrs.WithRetryStrategy(retryTwice()))

	_, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: -1})
	var invalid *cqrs.InvalidStateError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if store.AppendCalls != 0 {
		t.Fatalf("rejected command must not append, got %d appends", store.AppendCalls)
	}
	if store.LoadStreamCalls != 1 {
		t.Fatalf("business rejections must not retry, got %d loads", store.LoadStreamCalls)
	}
}

func TestNewCommandHandler_ConflictRetried(t *testing.T) {
	store := &conflictOnceStore{EventStore: fixtures.NewStoreSpy()}
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit,
		cqrs.WithRetryStrategy(retryTwice()))

	result, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 7})
	if err != nil {
		t.Fatalf("expected retried command to succeed, got %v", err)
	}
	if !result.Successful {
		t.Fatalf("unexpected result: %+v", result)
	}
	if store.Appends != 2 {
		t.Fatalf("expected 2 append attempts, got %d", store.Appends)
	}
}

func TestNewCommandHandler_ConflictWithoutRetrySurfaces(t *testing.T) {
	store := fixtures.ConcurrencyConflictStore("acc-1", 0, 9)
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit)

	_, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 7})
	if !cqrs.IsConcurrencyError(err) {
		t.Fatalf("expected surfaced conflict, got %v", err)
	}
}

func TestNewCommandHandler_NoEventsIsSuccess(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1",
		cqrs.MoneyDeposited{AccountID: "acc-1", Amount: 10},
	)

	decide := func(state balance, cmd cqrs.DepositMoney) ([]cqrs.Event, error) {
		return nil, nil
	}
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decide)

	result, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 1})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !result.Successful || result.NextExpectedVersion != 1 {
		t.Fatalf("expected no-op success at current version, got %+v", result)
	}
	if store.AppendCalls != 0 {
		t.Fatalf("no decided events must mean no append, got %d", store.AppendCalls)
	}
}

func TestNewCommandHandler_MetadataFunc(t *testing.T) {
	store := fixtures.NewStoreSpy()
	md := cqrs.NewEventMetadata().WithCorrelation("fixed-correlation")

	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit,
		cqrs.WithMetadataFunc(func(ctx context.Context) cqrs.EventMetadata { return md }))

	if _, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 1}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := store.LastAppendEvents[0].Metadata.CorrelationID; got != "fixed-correlation" {
		t.Fatalf("expected the configured metadata, got correlation %q", got)
	}
}

func TestNewCommandHandler_LoadFailureIsPermanent(t *testing.T) {
	boom := errors.New("backend down")
	store := fixtures.FailingStore(boom)
	handler := cqrs.NewCommandHandler(store, func() balance { return balance{} }, evolveBalance, decideDeposit,
		cqrs.WithRetryStrategy(retryTwice()))

	_, err := handler(t.Context(), cqrs.DepositMoney{AccountID: "acc-1", Amount: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the load failure, got %v", err)
	}
	if store.LoadStreamCalls != 1 {
		t.Fatalf("load failures must not retry, got %d loads", store.LoadStreamCalls)
	}
}
