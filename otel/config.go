package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// config holds the options for tracing a decorated component.
type config struct {
	// Operation identifies the current operation and serves as a span name.
	Operation string

	// Attributes holds the default attributes for each span created by this
	// decorator.
	Attributes []attribute.KeyValue

	// GetAttributes is an optional function that can extract trace attributes
	// from the context and add them to the span.
	GetAttributes func(ctx context.Context) []attribute.KeyValue
}

// Option configures a telemetry decorator.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (o optionFunc) apply(c *config) {
	o(c)
}

// WithOperation overrides the operation name used in span names.
func WithOperation(operation string) Option {
	return optionFunc(func(o *config) {
		o.Operation = operation
	})
}

// WithAttributes sets the default attributes for the spans created by a
// decorator.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.Attributes = attrs
	})
}

// WithAttributeGetter extracts additional attributes from the context.
func WithAttributeGetter(fn func(ctx context.Context) []attribute.KeyValue) Option {
	return optionFunc(func(o *config) {
		o.GetAttributes = fn
	})
}

func newConfig(options ...Option) *config {
	cfg := &config{}
	for _, option := range options {
		option.apply(cfg)
	}
	return cfg
}

func (c *config) spanAttributes(ctx context.Context) []attribute.KeyValue {
	// Clamp the capacity so appends by callers allocate instead of writing
	// into the shared backing array.
	attrs := c.Attributes[:len(c.Attributes):len(c.Attributes)]
	if c.GetAttributes != nil {
		attrs = append(attrs, c.GetAttributes(ctx)...)
	}
	return attrs
}
