package guidance

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/microsoft/soundscape-core/core/guidance"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var bgCtx = context.Background()

var waypointsCompleted, _ = meter.Int64Counter("guidance.waypoints.completed", metric.WithDescription("Waypoints reached for the first time"))
