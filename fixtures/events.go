package fixtures

import (
	cqrs "github.com/terraskye/bankledger"
)

// AccountEventBuilder provides a fluent API for constructing account event
// histories without repeating the opening boilerplate in every test.
type AccountEventBuilder struct {
	accountID      string
	holder         string
	overdraftLimit int64
	events         []cqrs.Event
}

// NewAccountEvents creates a builder with sensible defaults.
func NewAccountEvents() *AccountEventBuilder {
	return &AccountEventBuilder{
		accountID:      "account-1",
		holder:         "Test Holder",
		overdraftLimit: 0,
	}
}

// WithAccountID sets the aggregate ID used by all built events.
func (b *AccountEventBuilder) WithAccountID(id string) *AccountEventBuilder {
	b.accountID = id
	return b
}

// WithHolder sets the account holder name.
func (b *AccountEventBuilder) WithHolder(holder string) *AccountEventBuilder {
	b.holder = holder
	return b
}

// WithOverdraftLimit sets the overdraft limit of the opening event.
func (b *AccountEventBuilder) WithOverdraftLimit(limit int64) *AccountEventBuilder {
	b.overdraftLimit = limit
	return b
}

// Opened appends the opening event.
func (b *AccountEventBuilder) Opened() *AccountEventBuilder {
	b.events = append(b.events, cqrs.AccountOpened{
		AccountID:      b.accountID,
		Holder:         b.holder,
		OverdraftLimit: b.overdraftLimit,
	})
	return b
}

// Deposited appends a deposit event.
func (b *AccountEventBuilder) Deposited(amount int64) *AccountEventBuilder {
	b.events = append(b.events, cqrs.MoneyDeposited{
		AccountID: b.accountID,
		Amount:    amount,
	})
	return b
}

// Withdrawn appends a withdrawal event.
func (b *AccountEventBuilder) Withdrawn(amount int64) *AccountEventBuilder {
	b.events = append(b.events, cqrs.MoneyWithdrawn{
		AccountID: b.accountID,
		Amount:    amount,
	})
	return b
}

// Received appends an incoming transfer event.
func (b *AccountEventBuilder) Received(from string, amount int64) *AccountEventBuilder {
	b.events = append(b.events, cqrs.MoneyReceived{
		AccountID:     b.accountID,
		FromAccountID: from,
		Amount:        amount,
		Description:   "incoming transfer",
	})
	return b
}

// TransferredOut appends an outgoing transfer event.
func (b *AccountEventBuilder) TransferredOut(to string, amount int64) *AccountEventBuilder {
	b.events = append(b.events, cqrs.MoneyTransferredOut{
		AccountID:   b.accountID,
		ToAccountID: to,
		Amount:      amount,
		Description: "outgoing transfer",
	})
	return b
}

// DepositedN appends n deposit events of the same amount.
func (b *AccountEventBuilder) DepositedN(n int, amount int64) *AccountEventBuilder {
	for i := 0; i < n; i++ {
		b.Deposited(amount)
	}
	return b
}

// Build returns the accumulated events.
func (b *AccountEventBuilder) Build() []cqrs.Event {
	return b.events
}
