package bankledger

// Event type tags. The tag is the wire discriminator; renaming one is a
// breaking change for every stored stream.
const (
	EventTypeAccountOpened       = "AccountOpened"
	EventTypeMoneyDeposited      = "MoneyDeposited"
	EventTypeMoneyWithdrawn      = "MoneyWithdrawn"
	EventTypeMoneyReceived       = "MoneyReceived"
	EventTypeMoneyTransferredOut = "MoneyTransferredOut"
)

// All monetary amounts are in minor units (cents).

// AccountOpened is the first and only opening event of an account stream.
type AccountOpened struct {
	AccountID      string `json:"accountId"`
	Holder         string `json:"holder"`
	OverdraftLimit int64  `json:"overdraftLimit"`
}

func (e AccountOpened) AggregateID() string { return e.AccountID }
func (e AccountOpened) EventType() string   { return EventTypeAccountOpened }

// MoneyDeposited records a cash deposit.
type MoneyDeposited struct {
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"`
}

func (e MoneyDeposited) AggregateID() string { return e.AccountID }
func (e MoneyDeposited) EventType() string   { return EventTypeMoneyDeposited }

// MoneyWithdrawn records a cash withdrawal.
type MoneyWithdrawn struct {
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"`
}

func (e MoneyWithdrawn) AggregateID() string { return e.AccountID }
func (e MoneyWithdrawn) EventType() string   { return EventTypeMoneyWithdrawn }

// MoneyReceived is the credit leg of a transfer between two accounts.
type MoneyReceived struct {
	AccountID     string `json:"accountId"`
	FromAccountID string `json:"fromAccountId"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

func (e MoneyReceived) AggregateID() string { return e.AccountID }
func (e MoneyReceived) EventType() string   { return EventTypeMoneyReceived }

// MoneyTransferredOut is the debit leg of a transfer between two accounts.
type MoneyTransferredOut struct {
	AccountID   string `json:"accountId"`
	ToAccountID string `json:"toAccountId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (e MoneyTransferredOut) AggregateID() string { return e.AccountID }
func (e MoneyTransferredOut) EventType() string   { return EventTypeMoneyTransferredOut }

func init() {
	RegisterEventByType(func() Event { return AccountOpened{} })
	RegisterEventByType(func() Event { return MoneyDeposited{} })
	RegisterEventByType(func() Event { return MoneyWithdrawn{} })
	RegisterEventByType(func() Event { return MoneyReceived{} })
	RegisterEventByType(func() Event { return MoneyTransferredOut{} })
}
