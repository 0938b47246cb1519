package session

import "go.uber.org/fx"

var Module = fx.Provide(
	NewConfig,
	NewStore,
	NewHub,
	NewManager,
)
