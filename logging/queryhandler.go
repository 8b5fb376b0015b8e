package logging

import (
	"context"
	"reflect"

	"github.com/io-da/query"
	"github.com/sirupsen/logrus"
	cqrs "github.com/terraskye/bankledger"
)

type queryHandlerLogger[T query.Query, R cqrs.ReadModel] struct {
	logger *logrus.Entry
	next   cqrs.GenericQueryHandler[T, R]
}

func (q *queryHandlerLogger[T, R]) HandleQuery(ctx context.Context, qry T) (R, error) {
	qryType := reflect.TypeOf(qry).String()
	q.logger.Infof("Query: %s", qryType)

	result, err := q.next.HandleQuery(ctx, qry)
	if err != nil {
		q.logger.Errorf("Query failed: %s: %v", qryType, err)
	}

	return result, err
}

// WithQueryLogging wraps a query handler with logging functionality.
// It logs the query type before execution, and logs errors if the query fails.
func WithQueryLogging[T query.Query, R cqrs.ReadModel](logger *logrus.Entry, next cqrs.GenericQueryHandler[T, R]) cqrs.GenericQueryHandler[T, R] {
	return &queryHandlerLogger[T, R]{
		logger: logger,
		next:   next,
	}
}
