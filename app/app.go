package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/trialmatch/workspace/cohort"
	"github.com/trialmatch/workspace/config"
	"github.com/trialmatch/workspace/gateway"
	"github.com/trialmatch/workspace/logger"
	"github.com/trialmatch/workspace/matching"
	"github.com/trialmatch/workspace/navigation"
	"github.com/trialmatch/workspace/upload"
)

// Dependencies returns the DI graph of the workspace. Every instance is scoped to the fx app,
// so each command gets its own cohort store.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			config.NewConfig,
			logger.NewProductionLogger,
			logger.Suggar,
			gateway.NewGateway,
			cohort.NewStore,
			cohort.NewRefresher,
			upload.NewOrchestrator,
			matching.NewOrchestrator,
			navigation.NewController,
		),
		fx.Invoke(FlushLogger),
	}
}

func FlushLogger(logger *zap.Logger, lifecycle fx.Lifecycle) {
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// syncing stderr fails on some platforms
			_ = logger.Sync()
			return nil
		},
	})
}
