package fixtures

import (
	cqrs "github.com/terraskye/bankledger"
)

// Common pre-built commands for quick testing.
var (
	OpenCheckingCmd = cqrs.OpenAccount{AccountID: "account-1", Holder: "Ada", OverdraftLimit: 0}
	OpenOverdraftCmd = cqrs.OpenAccount{AccountID: "account-2", Holder: "Grace", OverdraftLimit: 50_00}

	SmallDepositCmd = cqrs.DepositMoney{AccountID: "account-1", Amount: 10_00}
	SmallWithdrawCmd = cqrs.WithdrawMoney{AccountID: "account-1", Amount: 5_00}
)

// OpenAccountBuilder provides a fluent API for constructing open commands.
type OpenAccountBuilder struct {
	accountID      string
	holder         string
	overdraftLimit int64
}

// NewOpenAccount creates a builder with sensible defaults.
func NewOpenAccount() *OpenAccountBuilder {
	return &OpenAccountBuilder{
		accountID: "account-1",
		holder:    "Test Holder",
	}
}

// WithAccountID sets the aggregate ID.
func (b *OpenAccountBuilder) WithAccountID(id string) *OpenAccountBuilder {
	b.accountID = id
	return b
}

// WithHolder sets the account holder name.
func (b *OpenAccountBuilder) WithHolder(holder string) *OpenAccountBuilder {
	b.holder = holder
	return b
}

// WithOverdraftLimit sets the overdraft limit.
func (b *OpenAccountBuilder) WithOverdraftLimit(limit int64) *OpenAccountBuilder {
	b.overdraftLimit = limit
	return b
}

// Build constructs the OpenAccount command.
func (b *OpenAccountBuilder) Build() cqrs.OpenAccount {
	return cqrs.OpenAccount{
		AccountID:      b.accountID,
		Holder:         b.holder,
		OverdraftLimit: b.overdraftLimit,
	}
}
