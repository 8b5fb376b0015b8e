package bankledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// TransferService sequences the two legs of a money transfer: a debit on
// the source account and a credit on the destination, each persisted as an
// independent append. Both legs share one correlation id; the credit leg's
// causation id is the debit leg's stream position.
//
// If the credit append fails after the debit committed, the service
// attempts one compensating re-credit of the source. If the compensation
// also fails, the accounts are left inconsistent and the returned error
// says so; detecting and repairing that state is the caller's duty, using
// the correlation id to find the orphaned debit.
type TransferService struct {
	accounts *AccountService
}

// NewTransferService creates a TransferService on top of an AccountService.
func NewTransferService(accounts *AccountService) *TransferService {
	return &TransferService{accounts: accounts}
}

// Transfer executes a TransferMoney command. The overdraft rule is checked
// on the source account before the debit leg.
func (t *TransferService) Transfer(ctx context.Context, cmd TransferMoney) error {
	if cmd.FromAccountID == cmd.ToAccountID {
		return &InvalidStateError{AggregateID: cmd.FromAccountID, Reason: "cannot transfer to the same account"}
	}

	correlationID := CorrelationFromContext(ctx)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	ctx = WithCorrelationID(ctx, correlationID)

	// Debit leg.
	debit, err := t.accounts.execute(ctx, cmd.FromAccountID, func(account *BankAccount) error {
		return account.TransferOut(cmd.ToAccountID, cmd.Amount, cmd.Description,
			WithMetadata(MetadataForContext(ctx)))
	})
	if err != nil {
		return fmt.Errorf("transfer %s: debit leg: %w", correlationID, err)
	}

	// Credit leg, caused by the debit.
	creditCtx := WithCausationID(ctx, fmt.Sprintf("%s@%d", debit.StreamID, debit.NextExpectedVersion))
	_, err = t.accounts.execute(creditCtx, cmd.ToAccountID, func(account *BankAccount) error {
		return account.Receive(cmd.FromAccountID, cmd.Amount, cmd.Description,
			WithMetadata(MetadataForContext(creditCtx)))
	})
	if err == nil {
		return nil
	}

	// The debit committed but the credit did not. Compensate by
	// re-crediting the source under the same correlation id.
	_, compErr := t.accounts.execute(ctx, cmd.FromAccountID, func(account *BankAccount) error {
		return account.Receive(cmd.ToAccountID, cmd.Amount,
			fmt.Sprintf("compensation: %s", cmd.Description),
			WithMetadata(MetadataForContext(ctx)))
	})
	if compErr != nil {
		return errors.Join(
			fmt.Errorf("transfer %s: credit leg failed after debit committed: %w", correlationID, err),
			fmt.Errorf("transfer %s: compensation failed, accounts inconsistent: %w", correlationID, compErr),
		)
	}

	return fmt.Errorf("transfer %s: credit leg failed, debit compensated: %w", correlationID, err)
}
