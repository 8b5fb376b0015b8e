package sqlite_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	cqrs "github.com/terraskye/bankledger"
	"github.com/terraskye/bankledger/eventstore/sqlite"
	"github.com/terraskye/bankledger/fixtures"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(sqlite.Config{
		Path:              filepath.Join(t.TempDir(), "ledger.db"),
		BusyTimeoutMillis: 5000,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_AppendLoadRoundTrip(t *testing.T) {
	store := openStore(t)

	md := cqrs.NewEventMetadata().
		WithCorrelation("corr-1").
		WithCausation("cause-1").
		WithExtra("channel", "branch")
	occurred := time.Date(2025, 4, 1, 9, 30, 0, 123456789, time.UTC)

	history := fixtures.EnvelopeValuesAt(1, occurred, time.Second,
		fixtures.NewAccountEvents().WithAccountID("acc-1").WithHolder("Ada").WithOverdraftLimit(50).
			Opened().Deposited(100).Withdrawn(30).Build()...)
	history[1].Metadata = md

	result, err := store.Append(t.Context(), "acc-1", history, 0)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !result.Successful || result.NextExpectedVersion != 3 {
		t.Fatalf("unexpected append result: %+v", result)
	}

	iter, err := store.LoadStream(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	envelopes, err := iter.All(t.Context())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(envelopes) != 3 {
		t.Fatalf("expected 3 envelopes, got %d", len(envelopes))
	}

	opened, ok := envelopes[0].Event.(cqrs.AccountOpened)
	if !ok || opened.Holder != "Ada" || opened.OverdraftLimit != 50 {
		t.Fatalf("opening event did not survive the round trip: %+v", envelopes[0].Event)
	}
	if envelopes[0].EventID != history[0].EventID {
		t.Fatalf("expected event id %s, got %s", history[0].EventID, envelopes[0].EventID)
	}
	for i, env := range envelopes {
		if env.Version != uint64(i+1) {
			t.Fatalf("expected version %d, got %d", i+1, env.Version)
		}
		if !env.OccurredAt.Equal(history[i].OccurredAt) {
			t.Fatalf("timestamp %d lost precision: %s vs %s", i, env.OccurredAt, history[i].OccurredAt)
		}
	}

	got := envelopes[1].Metadata
	if got.CorrelationID != "corr-1" || got.CausationID != "cause-1" || got.Extra["channel"] != "branch" {
		t.Fatalf("metadata did not survive the round trip: %+v", got)
	}
}

func TestStore_VersionConflict(t *testing.T) {
	store := openStore(t)

	seed := fixtures.EnvelopeValuesFromEvents(
		cqrs.AccountOpened{AccountID: "acc-1", Holder: "Ada"},
	)
	if _, err := store.Append(t.Context(), "acc-1", seed, 0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	stale := fixtures.EnvelopeValuesFromEvents(cqrs.MoneyDeposited{AccountID: "acc-1", Amount: 5})
	_, err := store.Append(t.Context(), "acc-1", stale, 0)

	var conflict *cqrs.ConcurrencyError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConcurrencyError, got %v", err)
	}
	if conflict.ExpectedVersion != 0 || conflict.ActualVersion != 1 {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}

	// The losing transaction rolled back.
	count, err := store.Count(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event after rejected append, got %d", count)
	}
}

func TestStore_BatchStreamMismatch(t *testing.T) {
	store := openStore(t)

	foreign := fixtures.EnvelopeValuesFromEvents(cqrs.MoneyDeposited{AccountID: "other", Amount: 5})
	_, err := store.Append(t.Context(), "acc-1", foreign, 0)
	if !errors.Is(err, cqrs.ErrInvalidEventBatch) {
		t.Fatalf("expected ErrInvalidEventBatch, got %v", err)
	}
}

func TestStore_MissingStream(t *testing.T) {
	store := openStore(t)

	_, err := store.LoadStream(t.Context(), "ghost")
	if !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestStore_ExistsCountDelete(t *testing.T) {
	store := openStore(t)

	exists, err := store.Exists(t.Context(), "acc-1")
	if err != nil || exists {
		t.Fatalf("expected no stream yet, got exists=%v err=%v", exists, err)
	}

	history := fixtures.EnvelopeValuesFromEvents(
		fixtures.NewAccountEvents().WithAccountID("acc-1").Opened().DepositedN(3, 10).Build()...)
	if _, err := store.Append(t.Context(), "acc-1", history, 0); err != nil {
		t.Fatalf("append: %v", err)
	}

	exists, _ = store.Exists(t.Context(), "acc-1")
	if !exists {
		t.Fatal("expected the stream to exist")
	}
	count, _ := store.Count(t.Context(), "acc-1")
	if count != 4 {
		t.Fatalf("expected 4 events, got %d", count)
	}

	if err := store.Delete(t.Context(), "acc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.LoadStream(t.Context(), "acc-1"); !errors.Is(err, cqrs.ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound after delete, got %v", err)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	cfg := sqlite.Config{Path: path, BusyTimeoutMillis: 5000}

	store, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	history := fixtures.EnvelopeValuesFromEvents(
		fixtures.NewAccountEvents().WithAccountID("acc-1").WithHolder("Ada").Opened().Deposited(100).Build()...)
	if _, err := store.Append(t.Context(), "acc-1", history, 0); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected the stream to survive reopen, got %d events", count)
	}
}

func TestStore_SnapshotUpsertIsMonotonic(t *testing.T) {
	store := openStore(t)
	taken := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	current := cqrs.Snapshot{
		AggregateID:    "acc-1",
		AccountHolder:  "Ada",
		Balance:        300,
		OverdraftLimit: 50,
		SnapshotTime:   taken,
	}
	if err := store.Save(t.Context(), current); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A newer snapshot replaces the row.
	newer := current
	newer.Balance = 500
	newer.SnapshotTime = taken.Add(time.Hour)
	if err := store.Save(t.Context(), newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}
	got, err := store.GetLatest(t.Context(), "acc-1")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got.Balance != 500 {
		t.Fatalf("expected the newer snapshot, got %+v", got)
	}

	// An older one is a silent no-op; the stored row stays.
	stale := current
	stale.Balance = 100
	stale.SnapshotTime = taken.Add(-time.Hour)
	if err := store.Save(t.Context(), stale); err != nil {
		t.Fatalf("stale save must not error: %v", err)
	}
	got, _ = store.GetLatest(t.Context(), "acc-1")
	if got.Balance != 500 || !got.SnapshotTime.Equal(newer.SnapshotTime) {
		t.Fatalf("stale save must not regress the snapshot, got %+v", got)
	}
}

func TestStore_SnapshotMiss(t *testing.T) {
	store := openStore(t)

	_, err := store.GetLatest(t.Context(), "ghost")
	if !errors.Is(err, cqrs.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestStore_OpenRequiresPath(t *testing.T) {
	if _, err := sqlite.Open(sqlite.Config{}); err == nil {
		t.Fatal("expected open without a path to fail")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("BANKLEDGER_SQLITE_PATH", "/tmp/custom.db")
	t.Setenv("BANKLEDGER_SQLITE_BUSY_TIMEOUT_MS", "250")

	cfg, err := sqlite.ConfigFromEnv()
	if err != nil {
		t.Fatalf("config from env: %v", err)
	}
	if cfg.Path != "/tmp/custom.db" || cfg.BusyTimeoutMillis != 250 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	dsn := cfg.DSN()
	if dsn != "/tmp/custom.db?_journal_mode=WAL&_busy_timeout=250&_synchronous=NORMAL" {
		t.Fatalf("unexpected DSN: %s", dsn)
	}
}
