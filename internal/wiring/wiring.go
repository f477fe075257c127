// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/neja/internal/adapters/fs"
	_ "go.trai.ch/neja/internal/adapters/logger"
	_ "go.trai.ch/neja/internal/adapters/manifest"
	_ "go.trai.ch/neja/internal/adapters/telemetry"
	_ "go.trai.ch/neja/internal/adapters/units"
	// Register app nodes.
	_ "go.trai.ch/neja/internal/app"
)
