package roads

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/roads"

var logger = otelslog.NewLogger(scopeName)
