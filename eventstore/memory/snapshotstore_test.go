package memory_test

import (
	"errors"
	"testing"
	"time"

	cqrs "github.com/terraskye/bankledger"
	"github.com/terraskye/bankledger/eventstore/memory"
)

func TestSnapshotStore_SaveAndGetLatest(t *testing.T) {
	store := memory.NewSnapshotStore()
	taken := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	snapshot := cqrs.Snapshot{
		AggregateID:    "acc-1",
		AccountHolder:  "Ada",
		Balance:        250,
		OverdraftLimit: 50,
		SnapshotTime:   taken,
	}
	if err := store.Save(t.Context(), snapshot); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.GetLatest(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got != snapshot {
		t.Fatalf("expected %+v, got %+v", snapshot, got)
	}
}

func TestSnapshotStore_NewerSnapshotReplacesOlder(t *testing.T) {
	store := memory.NewSnapshotStore()
	taken := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	first := cqrs.Snapshot{AggregateID: "acc-1", Balance: 100, SnapshotTime: taken}
	second := cqrs.Snapshot{AggregateID: "acc-1", Balance: 300, SnapshotTime: taken.Add(time.Hour)}

	if err := store.Save(t.Context(), first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(t.Context(), second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, err := store.GetLatest(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got.Balance != 300 || !got.SnapshotTime.Equal(second.SnapshotTime) {
		t.Fatalf("expected the newer snapshot, got %+v", got)
	}
}

func TestSnapshotStore_RejectsTimeRegression(t *testing.T) {
	store := memory.NewSnapshotStore()
	taken := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	current := cqrs.Snapshot{AggregateID: "acc-1", Balance: 300, SnapshotTime: taken}
	if err := store.Save(t.Context(), current); err != nil {
		t.Fatalf("save: %v", err)
	}

	stale := cqrs.Snapshot{AggregateID: "acc-1", Balance: 100, SnapshotTime: taken.Add(-time.Hour)}
	if err := store.Save(t.Context(), stale); err == nil {
		t.Fatal("expected a stale save to be rejected")
	}

	got, _ := store.GetLatest(t.Context(), "acc-1")
	if got.Balance != 300 {
		t.Fatalf("stale save must not replace the stored snapshot, got %+v", got)
	}
}

func TestSnapshotStore_MissingSnapshot(t *testing.T) {
	store := memory.NewSnapshotStore()

	_, err := store.GetLatest(t.Context(), "ghost")
	if !errors.Is(err, cqrs.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestSnapshotStore_RequiresAggregateID(t *testing.T) {
	store := memory.NewSnapshotStore()

	if err := store.Save(t.Context(), cqrs.Snapshot{Balance: 1}); err == nil {
		t.Fatal("expected a save without aggregate id to fail")
	}
}
