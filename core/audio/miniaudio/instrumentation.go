package miniaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/microsoft/soundscape-core/core/audio/miniaudio"

var logger = otelslog.NewLogger(scopeName)
