package bankledger

import "time"

// ReadModel represents a query-side data model. Read models are derived
// from the event stream and are never a source of truth.
type ReadModel interface {
}

// AccountSummary is the read model answering "what does this account look
// like right now" without exposing the aggregate itself.
type AccountSummary struct {
	AccountID      string
	Holder         string
	Balance        int64
	OverdraftLimit int64
	Opened         bool
	EventCount     uint64
	LastEventAt    time.Time
}
