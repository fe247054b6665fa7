// Package resolution implements the payout resolver bounded context: it reads
// final oracle answers and reports payout vectors for prepared conditions.
package resolution

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	positionsDI "github.com/fd1az/condrouter/business/positions/di"
	"github.com/fd1az/condrouter/business/resolution/app"
	resolutionDI "github.com/fd1az/condrouter/business/resolution/di"
	"github.com/fd1az/condrouter/business/resolution/infra/memory"
	"github.com/fd1az/condrouter/business/resolution/infra/reality"
	"github.com/fd1az/condrouter/business/resolution/infra/redis"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/contract"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
	"github.com/fd1az/condrouter/internal/ratelimit"
)

const redisDialTimeout = 5 * time.Second

// Module implements the resolution bounded context.
type Module struct{}

// RegisterServices registers all resolution services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, resolutionDI.OracleReader, func(sr di.ServiceRegistry) app.OracleReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Oracle.Source != "reality" {
			return memory.NewOracle()
		}

		ethClient := sr.Get("ethClient").(*ethclient.Client)
		oracle, err := reality.NewOracle(ethClient, cfg.Contracts.RealityETHAddress(), log,
			contract.WithLimiter(ratelimit.ForEndpoint(cfg.Chain.RPCURL, cfg.Chain.RequestsPerSecond, cfg.Chain.Burst)),
			contract.WithTimeout(cfg.Chain.CallTimeout),
		)
		if err != nil {
			panic("failed to create reality oracle: " + err.Error())
		}
		return oracle
	})

	di.RegisterToken(c, resolutionDI.AnswerCache, func(sr di.ServiceRegistry) app.AnswerCache {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Oracle.Cache == "redis" {
			ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
			defer cancel()

			cache, err := redis.Dial(ctx, cfg.Oracle.RedisAddr, cfg.Oracle.RedisDB, cfg.Oracle.CacheTTL)
			if err == nil {
				return cache
			}
			log.Warn(ctx, "redis answer cache unavailable, using memory cache",
				"addr", cfg.Oracle.RedisAddr, "error", err)
		}
		return memory.NewAnswerCache(cfg.Oracle.CacheTTL)
	})

	di.RegisterToken(c, resolutionDI.Service, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewService(
			resolutionDI.GetOracleReader(sr),
			resolutionDI.GetAnswerCache(sr),
			positionsDI.GetPositionService(sr),
			cfg.Contracts.RealityProxyAddress(),
			log,
		)
		if err != nil {
			panic("failed to create resolution service: " + err.Error())
		}
		return svc
	})

	return nil
}

// Startup initializes the resolution module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	svc := resolutionDI.GetService(mono.Services())

	mono.Logger().Info(ctx, "resolution module started",
		"source", cfg.Oracle.Source,
		"cache", cfg.Oracle.Cache,
		"report_as", svc.Oracle().Hex(),
	)
	return nil
}
