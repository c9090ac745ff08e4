// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/cigen/internal/adapters/config"
	_ "go.trai.ch/cigen/internal/adapters/emitter"
	_ "go.trai.ch/cigen/internal/adapters/environ"
	_ "go.trai.ch/cigen/internal/adapters/logger"
	_ "go.trai.ch/cigen/internal/adapters/shell"
	_ "go.trai.ch/cigen/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/cigen/internal/app"
)
