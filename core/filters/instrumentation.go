package filters

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/filters"

var logger = otelslog.NewLogger(scopeName)
