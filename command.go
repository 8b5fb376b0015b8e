package bankledger

// Command expresses an intent to change one aggregate. The aggregate id
// doubles as the stream id in the EventStore.
type Command interface {
	AggregateID() string
}

// OpenAccount opens a new account for a holder with an overdraft allowance.
type OpenAccount struct {
	AccountID      string
	Holder         string
	OverdraftLimit int64
}

func (c OpenAccount) AggregateID() string { return c.AccountID }

// DepositMoney credits cash to an account.
type DepositMoney struct {
	AccountID string
	Amount    int64
}

func (c DepositMoney) AggregateID() string { return c.AccountID }

// WithdrawMoney debits cash from an account, subject to the overdraft rule.
type WithdrawMoney struct {
	AccountID string
	Amount    int64
}

func (c WithdrawMoney) AggregateID() string { return c.AccountID }

// TransferMoney moves money between two accounts as two independent
// aggregate mutations: a debit on the source and a credit on the
// destination. AggregateID returns the source account, which carries the
// business rules (overdraft) for the transfer.
type TransferMoney struct {
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Description   string
}

func (c TransferMoney) AggregateID() string { return c.FromAccountID }
