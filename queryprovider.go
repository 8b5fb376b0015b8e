package bankledger

import (
	"context"
	"fmt"

	"github.com/io-da/query"
)

// GenericQueryHandler answers one query type with one read model type.
type GenericQueryHandler[T query.Query, R ReadModel] interface {
	HandleQuery(ctx context.Context, qry T) (R, error)
}

// QueryProvider routes queries to their registered handlers and adapts
// them onto the io-da/query handler contract.
type QueryProvider interface {
	query.Handler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, ReadModel])
}

// QueryIteratorProvider is QueryProvider for handlers yielding results
// through an iterator.
type QueryIteratorProvider interface {
	query.IteratorHandler
	RegisterHandler(name string, handler GenericQueryHandler[query.Query, ReadModel])
}

type handler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

// NewQueryHandler creates an empty QueryProvider.
func NewQueryHandler() QueryProvider {
	return &handler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *handler) RegisterHandler(name string, h GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = h
}

func (t *handler) Handle(ctx context.Context, qry query.Query, res *query.Result) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Add(result)
	res.Done()

	return nil
}

type iteratorHandler struct {
	handlers map[string]GenericQueryHandler[query.Query, ReadModel]
}

// NewQueryIteratorHandler creates an empty QueryIteratorProvider.
func NewQueryIteratorHandler() QueryIteratorProvider {
	return &iteratorHandler{
		handlers: make(map[string]GenericQueryHandler[query.Query, ReadModel]),
	}
}

func (t *iteratorHandler) RegisterHandler(name string, h GenericQueryHandler[query.Query, ReadModel]) {
	if _, ok := t.handlers[name]; ok {
		panic("duplicate query handler " + name)
	}
	t.handlers[name] = h
}

func (t *iteratorHandler) Handle(ctx context.Context, qry query.Query, res *query.IteratorResult) error {
	provider, exists := t.handlers[TypeName(qry)]
	if !exists {
		return fmt.Errorf("unknown query type: %s", TypeName(qry))
	}

	result, err := provider.HandleQuery(ctx, qry)
	if err != nil {
		return err
	}

	res.Yield(result)
	res.Done()

	return nil
}
