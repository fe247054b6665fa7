// Package blockchain implements the chain clock used for trade deadlines.
package blockchain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/condrouter/business/blockchain/app"
	blockchainDI "github.com/fd1az/condrouter/business/blockchain/di"
	"github.com/fd1az/condrouter/business/blockchain/domain"
	"github.com/fd1az/condrouter/business/blockchain/infra/ethereum"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
)

// Module implements the blockchain bounded context.
type Module struct{}

// RegisterServices registers all blockchain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.Clock, func(sr di.ServiceRegistry) *app.ClockService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client, _ := sr.Get("ethClient").(*ethclient.Client)

		if domain.ClockSource(cfg.Chain.Clock) != domain.ClockBlock || client == nil {
			return app.NewClockService(domain.ClockSystem, app.SystemClock{}, log)
		}

		clock, err := ethereum.NewBlockClock(ethereum.DefaultBlockClockConfig(), client, log)
		if err != nil {
			panic("failed to create block clock: " + err.Error())
		}
		return app.NewClockService(domain.ClockBlock, clock, log)
	})

	return nil
}

// Startup reads the clock once and logs its source.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	clock := blockchainDI.GetClock(mono.Services())

	now, _ := clock.Now(ctx)
	mono.Logger().Info(ctx, "blockchain module started",
		"clock", string(clock.Source()),
		"now", now.Format(time.RFC3339),
	)
	return nil
}
