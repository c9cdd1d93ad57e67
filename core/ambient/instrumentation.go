package ambient

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/ambient"

var logger = otelslog.NewLogger(scopeName)
