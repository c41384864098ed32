package worker

import "github.com/google/wire"

// ProviderSet builds a connected Worker from a config.Config and a context.
var ProviderSet = wire.NewSet(
	NewLogger,
	NewCodec,
	Connect,
	OpenStore,
	New,
)
