package geolocation

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/geolocation"

var logger = otelslog.NewLogger(scopeName)
