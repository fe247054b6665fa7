// Package trading implements the trade quoter and router: per-hop choice
// between pool swaps and full-set mints, and atomic multi-hop execution.
package trading

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	blockchainDI "github.com/fd1az/condrouter/business/blockchain/di"
	marketsDI "github.com/fd1az/condrouter/business/markets/di"
	positionsDI "github.com/fd1az/condrouter/business/positions/di"
	"github.com/fd1az/condrouter/business/trading/app"
	tradingDI "github.com/fd1az/condrouter/business/trading/di"
	"github.com/fd1az/condrouter/business/trading/infra/amm"
	"github.com/fd1az/condrouter/business/trading/infra/swapr"
	"github.com/fd1az/condrouter/business/trading/infra/uniswap"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/contract"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
	"github.com/fd1az/condrouter/internal/ratelimit"
)

// Module implements the trading bounded context.
type Module struct{}

// RegisterServices registers all trading services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradingDI.Pools, func(sr di.ServiceRegistry) *amm.Pools {
		cfg := sr.Get("config").(*config.Config)
		l := sr.Get("ledger").(*ledger.Ledger)

		// pools are deployed by the router's own factory address
		deployer := crypto.CreateAddress(cfg.Contracts.RouterAddress(), 0)
		return amm.NewPools(l, deployer, cfg.Router.PoolFeeBps)
	})

	// Pool prices come from the simulated pools unless an on-chain quoter is
	// configured; swaps always execute against the simulated pools.
	di.RegisterToken(c, tradingDI.SwapQuoter, func(sr di.ServiceRegistry) app.SwapQuoter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client, _ := sr.Get("ethClient").(*ethclient.Client)

		if client == nil || cfg.Router.Quoter == "simulated" || cfg.Router.Quoter == "" {
			return tradingDI.GetPools(sr)
		}

		opts := []contract.Option{
			contract.WithLimiter(ratelimit.ForEndpoint(cfg.Chain.RPCURL, cfg.Chain.RequestsPerSecond, cfg.Chain.Burst)),
			contract.WithTimeout(cfg.Chain.CallTimeout),
		}

		var (
			quoter app.SwapQuoter
			err    error
		)
		switch cfg.Router.Quoter {
		case "swapr":
			quoter, err = swapr.NewQuoter(client, common.HexToAddress(cfg.Contracts.SwaprQuoter), log, opts...)
		case "uniswap":
			quoter, err = uniswap.NewQuoter(client, common.HexToAddress(cfg.Contracts.UniswapQuoter), cfg.Router.FeeTiers, log, opts...)
		default:
			panic("unknown router quoter: " + cfg.Router.Quoter)
		}
		if err != nil {
			panic("failed to create " + cfg.Router.Quoter + " quoter: " + err.Error())
		}
		return quoter
	})

	di.RegisterToken(c, tradingDI.Quoter, func(sr di.ServiceRegistry) *app.Quoter {
		log := sr.Get("logger").(logger.LoggerInterface)
		l := sr.Get("ledger").(*ledger.Ledger)

		q, err := app.NewQuoter(tradingDI.GetSwapQuoter(sr), marketsDI.GetRepository(sr), l, log)
		if err != nil {
			panic("failed to create quoter: " + err.Error())
		}
		return q
	})

	di.RegisterToken(c, tradingDI.Router, func(sr di.ServiceRegistry) *app.Router {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		l := sr.Get("ledger").(*ledger.Ledger)

		routerCfg := app.RouterConfig{
			Address:         cfg.Contracts.RouterAddress(),
			DefaultDeadline: cfg.Router.DefaultDeadline,
			SlippageBps:     cfg.Router.SlippageBps,
		}
		deps := app.RouterDeps{
			Ledger:    l,
			Positions: positionsDI.GetPositionService(sr),
			Wrapper:   positionsDI.GetWrapper(sr),
			Markets:   marketsDI.GetRepository(sr),
			Swaps:     tradingDI.GetPools(sr),
			Paths:     marketsDI.GetGraph(sr),
			Quoter:    tradingDI.GetQuoter(sr),
			Clock:     blockchainDI.GetClock(sr),
		}

		r, err := app.NewRouter(routerCfg, deps, log)
		if err != nil {
			panic("failed to create router: " + err.Error())
		}
		return r
	})

	return nil
}

// Startup initializes the trading module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	router := tradingDI.GetRouter(mono.Services())
	pools := tradingDI.GetPools(mono.Services())

	quoter := cfg.Router.Quoter
	if mono.EthClient() == nil {
		quoter = "simulated"
	}

	mono.Logger().Info(ctx, "trading module started",
		"router", router.Address().Hex(),
		"quoter", quoter,
		"pool_fee_bps", pools.FeeBps(),
		"slippage_bps", cfg.Router.SlippageBps,
	)
	return nil
}
