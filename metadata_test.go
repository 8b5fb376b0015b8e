package bankledger_test

import (
	"testing"

	cqrs "github.com/terraskye/bankledger"
)

func TestNewEventMetadata(t *testing.T) {
	first := cqrs.NewEventMetadata()
	second := cqrs.NewEventMetadata()

	if first.CorrelationID == "" {
		t.Fatal("expected a fresh correlation id")
	}
	if first.CorrelationID == second.CorrelationID {
		t.Fatal("expected distinct correlation ids per metadata")
	}
	if first.SchemaVersion != cqrs.CurrentSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", cqrs.CurrentSchemaVersion, first.SchemaVersion)
	}
}

func TestEventMetadata_WithHelpersCopy(t *testing.T) {
	base := cqrs.NewEventMetadata()

	derived := base.
		WithCausation("cause-1").
		WithActor("user-1", "agent", "127.0.0.1").
		WithExtra("k", "v")

	if base.CausationID != "" || base.UserID != "" || len(base.Extra) != 0 {
		t.Fatalf("With* helpers must not mutate the receiver: %+v", base)
	}
	if derived.CausationID != "cause-1" || derived.UserID != "user-1" || derived.Extra["k"] != "v" {
		t.Fatalf("unexpected derived metadata: %+v", derived)
	}

	// The extra map is not shared between copies.
	other := derived.WithExtra("k2", "v2")
	if _, ok := derived.Extra["k2"]; ok {
		t.Fatal("WithExtra must not leak into the receiver's map")
	}
	if other.Extra["k"] != "v" {
		t.Fatal("WithExtra must carry existing entries forward")
	}
}

func TestEventMetadata_WithCorrelationKeepsExisting(t *testing.T) {
	base := cqrs.NewEventMetadata()
	same := base.WithCorrelation("")
	if same.CorrelationID != base.CorrelationID {
		t.Fatal("empty correlation id must keep the existing one")
	}

	changed := base.WithCorrelation("corr-9")
	if changed.CorrelationID != "corr-9" {
		t.Fatalf("expected corr-9, got %q", changed.CorrelationID)
	}
}

func TestEventMetadata_Equal(t *testing.T) {
	a := cqrs.NewEventMetadata().WithCausation("c").WithExtra("k", "v")
	b := a
	if !a.Equal(b) {
		t.Fatal("copies must be equal")
	}
	if a.Equal(b.WithExtra("k", "other")) {
		t.Fatal("differing extras must not be equal")
	}
	if a.Equal(b.WithCausation("d")) {
		t.Fatal("differing causation must not be equal")
	}
}
