package callouts

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/microsoft/soundscape-core/core/callouts"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var bgCtx = context.Background()

var (
	calloutsPlayed, _  = meter.Int64Counter("callouts.played", metric.WithDescription("Callouts handed to the audio engine"))
	calloutsSkipped, _ = meter.Int64Counter("callouts.skipped", metric.WithDescription("Callouts dropped before they were played"))
)
