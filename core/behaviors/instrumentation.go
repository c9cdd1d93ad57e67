package behaviors

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/behaviors"

var logger = otelslog.NewLogger(scopeName)
