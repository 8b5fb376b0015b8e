package otel

import (
	cqrs "github.com/terraskye/bankledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/terraskye/bankledger"
)

// Semantic attribute keys following OpenTelemetry conventions
const (
	// Command attributes
	AttrCommandType = attribute.Key("bankledger.command.type")
	AttrAggregateID = attribute.Key("bankledger.aggregate.id")

	// Stream attributes
	AttrStreamID      = attribute.Key("bankledger.stream.id")
	AttrStreamVersion = attribute.Key("bankledger.stream.version")

	// Event attributes
	AttrEventType  = attribute.Key("bankledger.event.type")
	AttrEventID    = attribute.Key("bankledger.event.id")
	AttrEventCount = attribute.Key("bankledger.events.count")

	// Query attributes
	AttrQueryType = attribute.Key("bankledger.query.type")
	AttrQueryID   = attribute.Key("bankledger.query.id")

	// Error attributes
	AttrErrorType    = attribute.Key("bankledger.error.type")
	AttrErrorMessage = attribute.Key("bankledger.error.message")

	// Operation attributes
	AttrOperation    = attribute.Key("bankledger.operation")
	AttrConflictType = attribute.Key("bankledger.conflict.type")
)

var (
	meter  = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(cqrs.InstrumentationVersion))
	tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(cqrs.InstrumentationVersion))

	// Command metrics
	CommandsHandled, _ = meter.Int64Counter(
		"bankledger.commands.handled",
		metric.WithDescription("Total number of commands handled"),
		metric.WithUnit("{command}"),
	)

	CommandsDuration, _ = meter.Float64Histogram(
		"bankledger.commands.duration",
		metric.WithDescription("Command handling duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	)

	CommandsInFlight, _ = meter.Int64UpDownCounter(
		"bankledger.commands.in_flight",
		metric.WithDescription("Number of commands currently being processed"),
		metric.WithUnit("{command}"),
	)

	CommandsFailed, _ = meter.Int64Counter(
		"bankledger.commands.failed",
		metric.WithDescription("Number of failed commands"),
		metric.WithUnit("{command}"),
	)

	// Event metrics
	EventsAppended, _ = meter.Int64Counter(
		"bankledger.events.appended",
		metric.WithDescription("Number of events appended to streams"),
		metric.WithUnit("{event}"),
	)

	EventsLoaded, _ = meter.Int64Counter(
		"bankledger.events.loaded",
		metric.WithDescription("Number of events loaded from streams"),
		metric.WithUnit("{event}"),
	)

	// Query metrics
	QueriesHandled, _ = meter.Int64Counter(
		"bankledger.queries.handled",
		metric.WithDescription("Total number of queries handled"),
		metric.WithUnit("{query}"),
	)

	QueriesDuration, _ = meter.Float64Histogram(
		"bankledger.queries.duration",
		metric.WithDescription("Query handling duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	QueriesInFlight, _ = meter.Int64UpDownCounter(
		"bankledger.queries.in_flight",
		metric.WithDescription("Number of queries currently being processed"),
		metric.WithUnit("{query}"),
	)

	QueriesFailed, _ = meter.Int64Counter(
		"bankledger.queries.failed",
		metric.WithDescription("Number of failed queries"),
		metric.WithUnit("{query}"),
	)

	// EventStore metrics
	EventStoreAppends, _ = meter.Int64Counter(
		"bankledger.eventstore.appends",
		metric.WithDescription("Number of append operations"),
		metric.WithUnit("{operation}"),
	)

	EventStoreLoads, _ = meter.Int64Counter(
		"bankledger.eventstore.loads",
		metric.WithDescription("Number of load operations"),
		metric.WithUnit("{operation}"),
	)

	EventStoreDuration, _ = meter.Float64Histogram(
		"bankledger.eventstore.duration",
		metric.WithDescription("Event store operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	EventStoreErrors, _ = meter.Int64Counter(
		"bankledger.eventstore.errors",
		metric.WithDescription("Number of event store errors"),
		metric.WithUnit("{error}"),
	)

	// Snapshot metrics
	SnapshotsSaved, _ = meter.Int64Counter(
		"bankledger.snapshots.saved",
		metric.WithDescription("Number of snapshots saved"),
		metric.WithUnit("{snapshot}"),
	)

	SnapshotsLoaded, _ = meter.Int64Counter(
		"bankledger.snapshots.loaded",
		metric.WithDescription("Number of snapshots loaded"),
		metric.WithUnit("{snapshot}"),
	)

	SnapshotErrors, _ = meter.Int64Counter(
		"bankledger.snapshots.errors",
		metric.WithDescription("Number of snapshot store errors"),
		metric.WithUnit("{error}"),
	)

	// System metrics
	ConcurrencyConflicts, _ = meter.Int64Counter(
		"bankledger.concurrency.conflicts",
		metric.WithDescription("Number of optimistic concurrency conflicts"),
		metric.WithUnit("{conflict}"),
	)

	StreamVersionGauge, _ = meter.Int64Gauge(
		"bankledger.stream.version",
		metric.WithDescription("Current version of streams"),
		metric.WithUnit("{version}"),
	)
)
