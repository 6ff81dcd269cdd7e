// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/backfill/internal/adapters/config"
	_ "go.trai.ch/backfill/internal/adapters/fs"
	_ "go.trai.ch/backfill/internal/adapters/git"
	_ "go.trai.ch/backfill/internal/adapters/lockfile"
	_ "go.trai.ch/backfill/internal/adapters/logger"
	_ "go.trai.ch/backfill/internal/adapters/shell"
	_ "go.trai.ch/backfill/internal/adapters/storage"
	_ "go.trai.ch/backfill/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/backfill/internal/adapters/workspace"
	// Register app and engine nodes.
	_ "go.trai.ch/backfill/internal/app"
	_ "go.trai.ch/backfill/internal/engine/hasher"
)
