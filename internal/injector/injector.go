//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"

	"github.com/zeusync/asteroidworker/internal/config"
	"github.com/zeusync/asteroidworker/internal/worker"
)

func InitializeWorker(ctx context.Context, cfg config.Config) (*worker.Worker, func(), error) {
	wire.Build(worker.ProviderSet)
	return nil, nil, nil
}
