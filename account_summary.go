package bankledger

import (
	"context"
	"fmt"

	"github.com/io-da/query"
)

// AccountSummaryQuery asks for the current AccountSummary of one account.
type AccountSummaryQuery struct {
	AccountID string
}

// ID implements query.Query.
func (q AccountSummaryQuery) ID() []byte {
	return []byte(q.AccountID)
}

type accountSummaryHandler struct {
	replay *ReplayService
}

// NewAccountSummaryHandler builds the AccountSummary read model by folding
// the account's full stream through the ReplayService. Register it on a
// QueryProvider under the AccountSummaryQuery type name.
func NewAccountSummaryHandler(replay *ReplayService) GenericQueryHandler[query.Query, ReadModel] {
	return &accountSummaryHandler{replay: replay}
}

func (h *accountSummaryHandler) HandleQuery(ctx context.Context, qry query.Query) (ReadModel, error) {
	q, ok := qry.(AccountSummaryQuery)
	if !ok {
		return nil, fmt.Errorf("expected AccountSummaryQuery but got %T", qry)
	}

	summary := AccountSummary{AccountID: q.AccountID}

	var envelopes []*Envelope
	err := h.replay.ReplayAll(ctx, q.AccountID, func(ctx context.Context, envelope *Envelope) error {
		envelopes = append(envelopes, envelope)
		summary.EventCount++
		summary.LastEventAt = envelope.OccurredAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	account := NewBankAccount(q.AccountID)
	if err := account.Reconstruct(envelopes, nil); err != nil {
		return nil, err
	}

	summary.Holder = account.Holder()
	summary.Balance = account.Balance()
	summary.OverdraftLimit = account.OverdraftLimit()
	summary.Opened = account.Opened()

	return summary, nil
}
