package bankledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	cqrs "github.com/terraskye/bankledger"
	"github.com/terraskye/bankledger/fixtures"
)

func transferHistory() []cqrs.Event {
	return fixtures.NewAccountEvents().
		WithAccountID("acc-1").
		WithHolder("Ada").
		Opened().
		Deposited(100).
		Withdrawn(25).
		Deposited(50).
		TransferredOut("acc-2", 30).
		Build()
}

func TestReplayAll_VisitsInStreamOrder(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1", transferHistory()...)
	replay := cqrs.NewReplayService(store)

	var versions []uint64
	err := replay.ReplayAll(t.Context(), "acc-1", func(ctx context.Context, envelope *cqrs.Envelope) error {
		versions = append(versions, envelope.Version)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(versions) != 5 {
		t.Fatalf("expected 5 visits, got %d", len(versions))
	}
	for i, v := range versions {
		if v != uint64(i+1) {
			t.Fatalf("expected ascending versions, got %v", versions)
		}
	}
}

func TestReplayAll_MissingStreamVisitsNothing(t *testing.T) {
	replay := cqrs.NewReplayService(fixtures.StreamNotFoundStore())

	visits := 0
	err := replay.ReplayAll(t.Context(), "ghost", func(ctx context.Context, envelope *cqrs.Envelope) error {
		visits++
		return nil
	})
	if err != nil {
		t.Fatalf("a missing stream is an empty history, got %v", err)
	}
	if visits != 0 {
		t.Fatalf("expected zero visits, got %d", visits)
	}
}

func TestReplayAll_VisitorErrorStopsReplay(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1", transferHistory()...)
	replay := cqrs.NewReplayService(store)

	boom := errors.New("projection broke")
	visits := 0
	err := replay.ReplayAll(t.Context(), "acc-1", func(ctx context.Context, envelope *cqrs.Envelope) error {
		visits++
		if visits == 2 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the visitor error, got %v", err)
	}
	if visits != 2 {
		t.Fatalf("expected replay to stop at the failing visit, got %d visits", visits)
	}
}

func TestReplayFiltered_PreservesRelativeOrder(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1", transferHistory()...)
	replay := cqrs.NewReplayService(store)

	deposits := func(envelope *cqrs.Envelope) bool {
		_, ok := envelope.Event.(cqrs.MoneyDeposited)
		return ok
	}

	var amounts []int64
	err := replay.ReplayFiltered(t.Context(), "acc-1", deposits, func(ctx context.Context, envelope *cqrs.Envelope) error {
		amounts = append(amounts, envelope.Event.(cqrs.MoneyDeposited).Amount)
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if len(amounts) != 2 || amounts[0] != 100 || amounts[1] != 50 {
		t.Fatalf("expected deposits [100 50] in order, got %v", amounts)
	}
}

func TestOnEvent_TypedVisitor(t *testing.T) {
	store := fixtures.NewStoreSpy().WithEventsFromSlice("acc-1", transferHistory()...)
	replay := cqrs.NewReplayService(store)

	var transfers int
	var others int
	visitor := cqrs.Visitors(
		cqrs.OnEvent(func(ctx context.Context, event cqrs.MoneyTransferredOut, envelope *cqrs.Envelope) error {
			transfers++
			return nil
		}),
		func(ctx context.Context, envelope *cqrs.Envelope) error {
			others++
			return nil
		},
	)

	if err := replay.ReplayAll(t.Context(), "acc-1", visitor); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if transfers != 1 {
		t.Fatalf("expected 1 typed visit, got %d", transfers)
	}
	if others != 5 {
		t.Fatalf("expected the untyped visitor to see all 5 events, got %d", others)
	}
}

func TestReplayToPointInTime(t *testing.T) {
	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	history := fixtures.EnvelopeValuesAt(1, base, time.Minute, transferHistory()...)
	ptrs := make([]*cqrs.Envelope, len(history))
	for i := range history {
		ptrs[i] = &history[i]
	}

	store := fixtures.NewStoreSpy().WithEvents("acc-1", ptrs...)
	replay := cqrs.NewReplayService(store)

	// At the third event (open, +100, -25): balance 75.
	account, err := replay.ReplayToPointInTime(t.Context(), "acc-1", base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("replay to point in time: %v", err)
	}
	if !account.Opened() {
		t.Fatal("expected opened account at t2")
	}
	if got := account.Balance(); got != 75 {
		t.Fatalf("expected balance 75 at t2, got %d", got)
	}
	if got := account.AggregateVersion(); got != 3 {
		t.Fatalf("expected version 3 at t2, got %d", got)
	}
}

func TestReplayToPointInTime_BeforeFirstEvent(t *testing.T) {
	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	history := fixtures.EnvelopeValuesAt(1, base, time.Minute, transferHistory()...)
	ptrs := make([]*cqrs.Envelope, len(history))
	for i := range history {
		ptrs[i] = &history[i]
	}

	store := fixtures.NewStoreSpy().WithEvents("acc-1", ptrs...)
	replay := cqrs.NewReplayService(store)

	account, err := replay.ReplayToPointInTime(t.Context(), "acc-1", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("expected empty state, not an error: %v", err)
	}
	if account.Opened() {
		t.Fatal("expected unopened account before the first event")
	}
	if got := account.Balance(); got != 0 {
		t.Fatalf("expected zero balance, got %d", got)
	}
}

func TestReplayToPointInTime_MissingAggregate(t *testing.T) {
	replay := cqrs.NewReplayService(fixtures.StreamNotFoundStore())

	account, err := replay.ReplayToPointInTime(t.Context(), "ghost", time.Now())
	if err != nil {
		t.Fatalf("expected empty state for missing aggregate, got %v", err)
	}
	if account.Opened() || account.Balance() != 0 {
		t.Fatal("expected pristine account for missing aggregate")
	}
}

func TestReplayAll_StoreFailureSurfaces(t *testing.T) {
	boom := errors.New("backend down")
	replay := cqrs.NewReplayService(fixtures.FailingStore(boom))

	err := replay.ReplayAll(t.Context(), "acc-1", func(ctx context.Context, envelope *cqrs.Envelope) error {
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the store error, got %v", err)
	}
}
