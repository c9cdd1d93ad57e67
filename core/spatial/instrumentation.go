package spatial

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/spatial"

var logger = otelslog.NewLogger(scopeName)
