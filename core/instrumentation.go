package navigation

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/microsoft/soundscape-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	eventsProcessed, _ = meter.Int64Counter("navigation.events.processed", metric.WithDescription("Events handed to the behavior chain"))
	groupsSkipped, _   = meter.Int64Counter("navigation.groups.skipped", metric.WithDescription("Callout groups dropped from the queue before they played"))
)

var bgCtx = context.Background()
