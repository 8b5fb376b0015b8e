package bankledger

import (
	"fmt"
	"reflect"
	"sync"
)

var (
	// registry maps event type tags to their factory functions.
	// Each factory must return a new instance of a concrete Event type.
	registry = map[string]func() Event{}

	// mu protects access to the registry for concurrent operations.
	mu sync.RWMutex
)

// RegisterEventByType registers a new Event type under its EventType tag.
//
// The factory must return a new instance of the event each time it is
// called. Registration panics if the factory is nil, returns nil, or the
// tag is already taken; these are programming errors caught at init time.
func RegisterEventByType(fn func() Event) {
	registerEventName(fn().EventType(), fn)
}

// RegisterEventByName registers a new Event type under a custom name,
// independent of its EventType tag.
func RegisterEventByName(name string, fn func() Event) {
	registerEventName(name, fn)
}

// NewEventByName creates a new instance of a registered Event by its tag.
// Returns an error for unknown tags: the set of event types is closed and
// unknown tags must fail loudly rather than be guessed at.
func NewEventByName(name string) (Event, error) {
	mu.RLock()
	factory, ok := registry[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("event not registered: %s", name)
	}
	ev := factory()
	if ev == nil {
		return nil, fmt.Errorf("factory returned nil for event: %s", name)
	}
	return ev, nil
}

// RegisteredEventNames returns the tags of all registered event types.
func RegisteredEventNames() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func registerEventName(name string, fn func() Event) {
	if fn == nil {
		panic("cannot register nil factory")
	}

	mu.Lock()
	defer mu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("event already registered: %s", name))
	}

	ev := fn()
	if ev == nil {
		panic(fmt.Sprintf("factory returned nil for event: %s", name))
	}

	registry[name] = fn
}

// TypeName returns the bare type name of v, without package or pointer
// markers. Used for routing commands and queries by type.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
