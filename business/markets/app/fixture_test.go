package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/business/markets/app"
	"github.com/fd1az/condrouter/business/markets/domain"
	"github.com/fd1az/condrouter/business/markets/infra/memory"
	positionsapp "github.com/fd1az/condrouter/business/positions/app"
	positionsmemory "github.com/fd1az/condrouter/business/positions/infra/memory"
	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

var (
	factoryAddr = common.HexToAddress("0x83183DA839Ce8228E31Ae41222EaD9EDBb5cDcf1")
	realityAddr = common.HexToAddress("0xE78996A233895bE74a66F451f1019cA9734205cc")
	proxyAddr   = common.HexToAddress("0xc260ADfAC11f97c001dC143d2a4F45b98e0f2D6C")
	arbitrator  = common.HexToAddress("0x29f39dE98D750eb77b5FAfb31B2837f079FcE222")
	ctfAddr     = common.HexToAddress("0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce")
	collateral  = asset.AddrSDAIGnosis
)

type fixture struct {
	ledger    *ledger.Ledger
	repo      *memory.MarketRepository
	positions *positionsapp.PositionService
	wrapper   *positionsapp.Wrapper
	assets    *asset.Registry
	factory   *app.Factory
	cfg       app.FactoryConfig
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	l := ledger.New()
	positions, err := positionsapp.NewPositionService(l, positionsmemory.NewConditionRepository(), ctfAddr, logger.NewDiscard())
	require.NoError(t, err)

	cfg := app.FactoryConfig{
		ChainID:    asset.ChainIDGnosis,
		Address:    factoryAddr,
		RealityETH: realityAddr,
		Oracle:     proxyAddr,
		Arbitrator: arbitrator,
		Timeout:    86_400,
		MinBond:    big.NewInt(5e18),
	}

	repo := memory.NewMarketRepository()
	wrapper := positionsapp.NewWrapper(positions)
	assets := asset.DefaultRegistry()

	factory, err := app.NewFactory(cfg, repo, positions, wrapper, assets, logger.NewDiscard())
	require.NoError(t, err)

	return fixture{ledger: l, repo: repo, positions: positions, wrapper: wrapper, assets: assets, factory: factory, cfg: cfg}
}

func categorical(name string, outcomes ...string) app.CreateMarketParams {
	return app.CreateMarketParams{
		Name:       name,
		Kind:       resolution.KindCategorical,
		Outcomes:   outcomes,
		OpeningTS:  1_735_689_600,
		Collateral: collateral,
	}
}

func scalar(name string, lower, upper int64) app.CreateMarketParams {
	return app.CreateMarketParams{
		Name:       name,
		Kind:       resolution.KindScalar,
		Outcomes:   []string{"DOWN", "UP"},
		LowerBound: big.NewInt(lower),
		UpperBound: big.NewInt(upper),
		OpeningTS:  1_735_689_600,
		Collateral: collateral,
	}
}

func childOf(p app.CreateMarketParams, parent *domain.Market, outcome int) app.CreateMarketParams {
	p.ParentMarket = parent.ID
	p.ParentOutcome = outcome
	p.Collateral = common.Address{}
	return p
}

func (f fixture) create(t *testing.T, p app.CreateMarketParams) *domain.Market {
	t.Helper()
	m, err := f.factory.CreateMarket(context.Background(), p)
	require.NoError(t, err)
	return m
}

// tree builds:
//
//	root (A, B)
//	├── a on root/A (X, Y)
//	│   └── g on a/Y scalar
//	└── b on root/B (P, Q)
type tree struct {
	root, a, g, b *domain.Market
}

func (f fixture) tree(t *testing.T) tree {
	t.Helper()
	var tr tree
	tr.root = f.create(t, categorical("Who wins?", "A", "B"))
	tr.a = f.create(t, childOf(categorical("Will X happen?", "X", "Y"), tr.root, 0))
	tr.g = f.create(t, childOf(scalar("ETH price?", 0, 10_000), tr.a, 1))
	tr.b = f.create(t, childOf(categorical("Will P happen?", "P", "Q"), tr.root, 1))
	return tr
}
