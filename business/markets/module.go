// Package markets implements the market graph bounded context: market records,
// their repository, market creation and path building through the market tree.
package markets

import (
	"context"
	"math/big"

	"github.com/fd1az/condrouter/business/markets/app"
	marketsDI "github.com/fd1az/condrouter/business/markets/di"
	"github.com/fd1az/condrouter/business/markets/infra/memory"
	"github.com/fd1az/condrouter/business/markets/infra/sqlite"
	positionsDI "github.com/fd1az/condrouter/business/positions/di"
	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
)

// Module implements the markets bounded context.
type Module struct{}

// RegisterServices registers all markets services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketsDI.Repository, func(sr di.ServiceRegistry) app.Repository {
		cfg := sr.Get("config").(*config.Config)

		if cfg.Store.Driver != "sqlite" {
			return memory.NewMarketRepository()
		}
		repo, err := sqlite.Open(context.Background(), cfg.Store.DSN)
		if err != nil {
			panic("failed to open market store: " + err.Error())
		}
		return repo
	})

	di.RegisterToken(c, marketsDI.Graph, func(sr di.ServiceRegistry) *app.Graph {
		cfg := sr.Get("config").(*config.Config)
		return app.NewGraph(marketsDI.GetRepository(sr), cfg.Router.MaxDepth)
	})

	di.RegisterToken(c, marketsDI.Factory, func(sr di.ServiceRegistry) *app.Factory {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		assets := sr.Get("assetRegistry").(*asset.Registry)

		minBond, ok := new(big.Int).SetString(cfg.Oracle.MinBond, 10)
		if !ok {
			minBond = new(big.Int)
		}

		factoryCfg := app.FactoryConfig{
			ChainID:    cfg.Chain.ChainID,
			Address:    cfg.Contracts.MarketFactoryAddress(),
			RealityETH: cfg.Contracts.RealityETHAddress(),
			Oracle:     cfg.Contracts.RealityProxyAddress(),
			Arbitrator: cfg.Contracts.ArbitratorAddress(),
			Timeout:    cfg.Oracle.Timeout,
			MinBond:    minBond,
		}

		factory, err := app.NewFactory(factoryCfg, marketsDI.GetRepository(sr),
			positionsDI.GetPositionService(sr), positionsDI.GetWrapper(sr), assets, log)
		if err != nil {
			panic("failed to create market factory: " + err.Error())
		}
		return factory
	})

	return nil
}

// Startup binds the outcome tokens of stored markets.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	factory := marketsDI.GetFactory(mono.Services())

	n, err := factory.Load(ctx)
	if err != nil {
		return err
	}

	mono.Logger().Info(ctx, "markets module started",
		"store", mono.Config().Store.Driver,
		"markets", n,
		"max_depth", mono.Config().Router.MaxDepth,
	)
	return nil
}
