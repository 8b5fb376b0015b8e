package bankledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
)

// AccountService is the command-side entry point for single-account
// operations. It loads accounts through snapshot-accelerated
// reconstruction, applies commands, appends the resulting events under
// optimistic concurrency and persists snapshots when the aggregate flags
// one due.
type AccountService struct {
	store     EventStore
	snapshots SnapshotStore
	retry     func() backoff.BackOff
}

// AccountServiceOption customizes an AccountService.
type AccountServiceOption func(*AccountService)

// WithConflictRetry sets the backoff strategy used to reload and retry a
// command after a *ConcurrencyError. Default is no retries.
func WithConflictRetry(strategy func() backoff.BackOff) AccountServiceOption {
	return func(s *AccountService) { s.retry = strategy }
}

// NewAccountService creates an AccountService. The snapshot store may be
// nil, in which case reconstruction always folds the full stream and no
// snapshots are written.
func NewAccountService(store EventStore, snapshots SnapshotStore, opts ...AccountServiceOption) *AccountService {
	s := &AccountService{
		store:     store,
		snapshots: snapshots,
		retry:     func() backoff.BackOff { return &backoff.StopBackOff{} },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load reconstructs the account from the latest snapshot (if any) plus its
// event stream. A stale or missing snapshot never produces incorrect
// state, only a longer fold. Returns ErrStreamNotFound if the account has
// no events at all.
func (s *AccountService) Load(ctx context.Context, accountID string) (*BankAccount, error) {
	var snapshot *Snapshot
	if s.snapshots != nil {
		latest, err := s.snapshots.GetLatest(ctx, accountID)
		switch {
		case err == nil:
			snapshot = &latest
		case errors.Is(err, ErrSnapshotNotFound):
			// fold from empty state
		default:
			return nil, fmt.Errorf("load account %q: read snapshot: %w", accountID, err)
		}
	}

	iter, err := s.store.LoadStream(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrStreamNotFound) && snapshot == nil {
			return nil, err
		}
		if !errors.Is(err, ErrStreamNotFound) {
			return nil, WrapEventStoreError(err)
		}
	}

	var envelopes []*Envelope
	if iter != nil {
		envelopes, err = iter.All(ctx)
		if err != nil {
			return nil, WrapEventStoreError(err)
		}
	}

	account := NewBankAccount(accountID)
	if err := account.Reconstruct(envelopes, snapshot); err != nil {
		return nil, err
	}
	return account, nil
}

// Open handles an OpenAccount command.
func (s *AccountService) Open(ctx context.Context, cmd OpenAccount) (AppendResult, error) {
	return s.execute(ctx, cmd.AccountID, func(account *BankAccount) error {
		return account.Open(cmd.Holder, cmd.OverdraftLimit, WithMetadata(MetadataForContext(ctx)))
	})
}

// Deposit handles a DepositMoney command.
func (s *AccountService) Deposit(ctx context.Context, cmd DepositMoney) (AppendResult, error) {
	return s.execute(ctx, cmd.AccountID, func(account *BankAccount) error {
		return account.Deposit(cmd.Amount, WithMetadata(MetadataForContext(ctx)))
	})
}

// Withdraw handles a WithdrawMoney command.
func (s *AccountService) Withdraw(ctx context.Context, cmd WithdrawMoney) (AppendResult, error) {
	return s.execute(ctx, cmd.AccountID, func(account *BankAccount) error {
		return account.Withdraw(cmd.Amount, WithMetadata(MetadataForContext(ctx)))
	})
}

// RegisterHandlers wires the account command handlers onto a CommandBus.
func (s *AccountService) RegisterHandlers(bus *CommandBus) {
	Register(bus, CommandHandler[OpenAccount](s.Open))
	Register(bus, CommandHandler[DepositMoney](s.Deposit))
	Register(bus, CommandHandler[WithdrawMoney](s.Withdraw))
}

// execute runs the optimistic cycle for one mutation: reconstruct, mutate,
// append under the loaded version. A *ConcurrencyError restarts the cycle
// against fresh state per the configured retry strategy; no lock is held
// across the reload.
func (s *AccountService) execute(ctx context.Context, accountID string, mutate func(*BankAccount) error) (AppendResult, error) {
	attempt := func() (AppendResult, error) {
		account, err := s.Load(ctx, accountID)
		if err != nil {
			if errors.Is(err, ErrStreamNotFound) {
				account = NewBankAccount(accountID)
			} else {
				return AppendResult{Successful: false}, backoff.Permanent(err)
			}
		}

		expectedVersion := account.AggregateVersion()

		if err := mutate(account); err != nil {
			// Business-rule rejection: no event produced, nothing to retry.
			return AppendResult{Successful: false}, backoff.Permanent(err)
		}

		envelopes := account.UncommittedEvents()
		if len(envelopes) == 0 {
			return AppendResult{Successful: true, StreamID: accountID, NextExpectedVersion: expectedVersion}, nil
		}

		result, err := s.store.Append(ctx, accountID, envelopes, expectedVersion)
		if err != nil {
			var conflict *ConcurrencyError
			if errors.As(err, &conflict) {
				return AppendResult{Successful: false, StreamID: accountID}, err
			}
			return result, backoff.Permanent(err)
		}

		account.SetAggregateVersion(result.NextExpectedVersion)
		account.ClearUncommittedEvents()

		if s.snapshots != nil && account.SnapshotDue() {
			snapshot := account.BuildSnapshot()
			if err := s.snapshots.Save(ctx, snapshot); err != nil {
				// The events are committed; only the derived cache write
				// failed. Surface it so the caller can retry the snapshot,
				// but keep the result successful.
				return result, backoff.Permanent(fmt.Errorf("events committed, snapshot save failed for %q: %w", accountID, err))
			}
		}

		return result, nil
	}

	return backoff.RetryWithData(attempt, backoff.WithContext(s.retry(), ctx))
}
