// Package positions implements the position algebra bounded context: condition,
// collection and position ids, and split, merge and redeem over the ledger.
package positions

import (
	"context"

	"github.com/fd1az/condrouter/business/positions/app"
	positionsDI "github.com/fd1az/condrouter/business/positions/di"
	"github.com/fd1az/condrouter/business/positions/infra/memory"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
)

// Module implements the positions bounded context.
type Module struct{}

// RegisterServices registers all positions services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, positionsDI.ConditionRepository, func(sr di.ServiceRegistry) app.ConditionRepository {
		return memory.NewConditionRepository()
	})

	di.RegisterToken(c, positionsDI.PositionService, func(sr di.ServiceRegistry) *app.PositionService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		l := sr.Get("ledger").(*ledger.Ledger)

		svc, err := app.NewPositionService(l, positionsDI.GetConditionRepository(sr),
			cfg.Contracts.ConditionalTokensAddress(), log)
		if err != nil {
			panic("failed to create position service: " + err.Error())
		}
		return svc
	})

	di.RegisterToken(c, positionsDI.Wrapper, func(sr di.ServiceRegistry) *app.Wrapper {
		return app.NewWrapper(positionsDI.GetPositionService(sr))
	})

	return nil
}

// Startup initializes the positions module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := positionsDI.GetPositionService(mono.Services())

	mono.Logger().Info(ctx, "positions module started",
		"conditional_tokens", svc.ConditionalTokens().Hex(),
	)
	return nil
}
