package bankledger

import (
	"fmt"
	"time"
)

// BankAccount is an event-sourced aggregate: its state is derived solely
// from its ordered event stream. The only control states are unopened and
// opened; the first applied event transitions unopened to opened.
//
// Command methods (Open, Deposit, ...) validate against current state,
// record the resulting event in the uncommitted buffer and apply it. Replay
// goes through Reconstruct, which applies historical events without
// recording them.
type BankAccount struct {
	*AggregateBase

	holder         string
	balance        int64
	overdraftLimit int64
	opened         bool

	lastEventAt    time.Time
	sinceSnapshot  int
	snapshotDue    bool
	latestSnapshot *Snapshot
}

// NewBankAccount creates an empty, unopened account aggregate.
func NewBankAccount(id string) *BankAccount {
	return &BankAccount{
		AggregateBase: NewAggregateBase(id),
	}
}

// Holder returns the account holder name.
func (a *BankAccount) Holder() string { return a.holder }

// Balance returns the current balance in minor units.
func (a *BankAccount) Balance() int64 { return a.balance }

// OverdraftLimit returns the allowed overdraft in minor units.
func (a *BankAccount) OverdraftLimit() int64 { return a.overdraftLimit }

// Opened reports whether the account has been opened.
func (a *BankAccount) Opened() bool { return a.opened }

// LatestSnapshot returns the snapshot the aggregate was reconstructed from
// or last built, if any.
func (a *BankAccount) LatestSnapshot() *Snapshot { return a.latestSnapshot }

// Open records the opening event. Fails with *InvalidStateError if any
// event has already been applied: an account opens at most once.
func (a *BankAccount) Open(holder string, overdraftLimit int64, options ...EnvelopeOption) error {
	if a.opened {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "account already opened"}
	}
	if holder == "" {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "account holder is required"}
	}
	if overdraftLimit < 0 {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "overdraft limit must not be negative"}
	}

	return a.record(AccountOpened{
		AccountID:      a.EntityID(),
		Holder:         holder,
		OverdraftLimit: overdraftLimit,
	}, options...)
}

// Deposit records a deposit. The amount must be positive; validation
// happens here, before event creation, never during apply.
func (a *BankAccount) Deposit(amount int64, options ...EnvelopeOption) error {
	if err := a.requireOpened("deposit"); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "deposit amount must be positive"}
	}

	return a.record(MoneyDeposited{AccountID: a.EntityID(), Amount: amount}, options...)
}

// Withdraw records a withdrawal after checking the overdraft rule. On
// violation it fails with *OverdraftError and produces no event.
func (a *BankAccount) Withdraw(amount int64, options ...EnvelopeOption) error {
	if err := a.requireOpened("withdraw"); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "withdrawal amount must be positive"}
	}
	if err := a.checkOverdraft(amount); err != nil {
		return err
	}

	return a.record(MoneyWithdrawn{AccountID: a.EntityID(), Amount: amount}, options...)
}

// Receive records the credit leg of a transfer from another account.
func (a *BankAccount) Receive(fromAccountID string, amount int64, description string, options ...EnvelopeOption) error {
	if err := a.requireOpened("receive"); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "received amount must be positive"}
	}

	return a.record(MoneyReceived{
		AccountID:     a.EntityID(),
		FromAccountID: fromAccountID,
		Amount:        amount,
		Description:   description,
	}, options...)
}

// TransferOut records the debit leg of a transfer to another account,
// subject to the same overdraft rule as Withdraw.
func (a *BankAccount) TransferOut(toAccountID string, amount int64, description string, options ...EnvelopeOption) error {
	if err := a.requireOpened("transfer"); err != nil {
		return err
	}
	if amount <= 0 {
		return &InvalidStateError{AggregateID: a.EntityID(), Reason: "transfer amount must be positive"}
	}
	if err := a.checkOverdraft(amount); err != nil {
		return err
	}

	return a.record(MoneyTransferredOut{
		AccountID:   a.EntityID(),
		ToAccountID: toAccountID,
		Amount:      amount,
		Description: description,
	}, options...)
}

// Reconstruct rebuilds aggregate state from the full event stream and an
// optional snapshot. With a snapshot, state is initialized from it and only
// events stamped after SnapshotTime are folded in. The result is identical
// to folding the entire stream from empty state.
func (a *BankAccount) Reconstruct(envelopes []*Envelope, snapshot *Snapshot) error {
	if snapshot != nil {
		a.opened = true
		a.holder = snapshot.AccountHolder
		a.balance = snapshot.Balance
		a.overdraftLimit = snapshot.OverdraftLimit
		a.lastEventAt = snapshot.SnapshotTime
		a.latestSnapshot = snapshot
		a.sinceSnapshot = 0
		a.snapshotDue = false
	}

	for _, envelope := range envelopes {
		a.SetAggregateVersion(envelope.Version)
		if snapshot != nil && !envelope.OccurredAt.After(snapshot.SnapshotTime) {
			continue
		}
		if err := a.apply(envelope.Event, envelope.OccurredAt); err != nil {
			return fmt.Errorf("reconstruct account %q at version %d: %w", a.EntityID(), envelope.Version, err)
		}
	}

	return nil
}

// SnapshotDue reports whether enough events accumulated since the last
// snapshot that the caller should persist a new one.
func (a *BankAccount) SnapshotDue() bool {
	return a.snapshotDue
}

// BuildSnapshot captures the current state as a snapshot and resets the
// snapshot counter. The aggregate never persists snapshots itself; the
// caller writes the returned value to a SnapshotStore so the store write
// and the derived-cache write stay separately retryable.
func (a *BankAccount) BuildSnapshot() Snapshot {
	snapshot := Snapshot{
		AggregateID:    a.EntityID(),
		AccountHolder:  a.holder,
		Balance:        a.balance,
		OverdraftLimit: a.overdraftLimit,
		SnapshotTime:   a.lastEventAt,
	}
	a.latestSnapshot = &snapshot
	a.sinceSnapshot = 0
	a.snapshotDue = false
	return snapshot
}

func (a *BankAccount) requireOpened(op string) error {
	if !a.opened {
		return &InvalidStateError{
			AggregateID: a.EntityID(),
			Reason:      fmt.Sprintf("cannot %s: account not opened", op),
		}
	}
	return nil
}

func (a *BankAccount) checkOverdraft(amount int64) error {
	if a.balance-amount < -a.overdraftLimit {
		return &OverdraftError{
			AccountID:      a.EntityID(),
			Balance:        a.balance,
			OverdraftLimit: a.overdraftLimit,
			Requested:      amount,
		}
	}
	return nil
}

// record applies the event and appends it to the uncommitted buffer.
func (a *BankAccount) record(event Event, options ...EnvelopeOption) error {
	if err := a.apply(event, now()); err != nil {
		return err
	}
	a.AppendEvent(event, options...)
	if envelopes := a.UncommittedEvents(); len(envelopes) > 0 {
		a.lastEventAt = envelopes[len(envelopes)-1].OccurredAt
	}
	return nil
}

// apply folds a single event into state. Pure function of current state and
// event; deterministic so replaying the same sequence always yields the
// same state. Balance-mutating events advance the snapshot counter,
// lifecycle events do not.
func (a *BankAccount) apply(event Event, occurredAt time.Time) error {
	if _, ok := event.(AccountOpened); !ok && !a.opened {
		return &InvalidStateError{
			AggregateID: a.EntityID(),
			Reason:      fmt.Sprintf("event %q applied before account was opened", event.EventType()),
		}
	}

	switch e := event.(type) {
	case AccountOpened:
		if a.opened {
			return &InvalidStateError{AggregateID: a.EntityID(), Reason: "account already opened"}
		}
		a.opened = true
		a.holder = e.Holder
		a.overdraftLimit = e.OverdraftLimit
		a.balance = 0
	case MoneyDeposited:
		a.balance += e.Amount
		a.countMutation()
	case MoneyWithdrawn:
		a.balance -= e.Amount
		a.countMutation()
	case MoneyReceived:
		a.balance += e.Amount
		a.countMutation()
	case MoneyTransferredOut:
		a.balance -= e.Amount
		a.countMutation()
	default:
		return &InvalidStateError{
			AggregateID: a.EntityID(),
			Reason:      fmt.Sprintf("unsupported event type %q", event.EventType()),
		}
	}

	if occurredAt.After(a.lastEventAt) {
		a.lastEventAt = occurredAt
	}
	return nil
}

func (a *BankAccount) countMutation() {
	a.sinceSnapshot++
	if a.sinceSnapshot == SnapshotThreshold {
		a.snapshotDue = true
	}
}
