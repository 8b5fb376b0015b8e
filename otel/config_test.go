package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSpanAttributes_AppendsDoNotShareBackingArray(t *testing.T) {
	cfg := newConfig(WithAttributes(attribute.String("component", "store")))

	first := append(cfg.spanAttributes(context.Background()), attribute.String("op", "append"))
	second := append(cfg.spanAttributes(context.Background()), attribute.String("op", "load"))

	if got := first[1].Value.AsString(); got != "append" {
		t.Fatalf("concurrent-style append leaked into the first slice: %v", first)
	}
	if got := second[1].Value.AsString(); got != "load" {
		t.Fatalf("unexpected second slice: %v", second)
	}
	if len(cfg.Attributes) != 1 {
		t.Fatalf("configured attributes must not grow, got %v", cfg.Attributes)
	}
}

func TestSpanAttributes_MergesGetterAttributes(t *testing.T) {
	cfg := newConfig(
		WithAttributes(attribute.String("component", "store")),
		WithAttributeGetter(func(ctx context.Context) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("tenant", "acme")}
		}),
	)

	attrs := cfg.spanAttributes(context.Background())
	if len(attrs) != 2 || attrs[1].Value.AsString() != "acme" {
		t.Fatalf("expected configured plus getter attributes, got %v", attrs)
	}
	if len(cfg.Attributes) != 1 {
		t.Fatalf("getter merge must not mutate the configured slice, got %v", cfg.Attributes)
	}
}
