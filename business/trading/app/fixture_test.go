package app_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	marketsapp "github.com/fd1az/condrouter/business/markets/app"
	markets "github.com/fd1az/condrouter/business/markets/domain"
	marketsmemory "github.com/fd1az/condrouter/business/markets/infra/memory"
	positionsapp "github.com/fd1az/condrouter/business/positions/app"
	positionsmemory "github.com/fd1az/condrouter/business/positions/infra/memory"
	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/business/trading/app"
	"github.com/fd1az/condrouter/business/trading/domain"
	"github.com/fd1az/condrouter/business/trading/infra/amm"
	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

var (
	factoryAddr = common.HexToAddress("0x83183DA839Ce8228E31Ae41222EaD9EDBb5cDcf1")
	ctfAddr     = common.HexToAddress("0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce")
	routerAddr  = common.HexToAddress("0xeC9048b59b3467415b1a38F63416407eA0c70fB8")
	collateral  = asset.AddrSDAIGnosis

	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
	lp    = common.HexToAddress("0x1f")

	epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now(context.Context) (time.Time, error) {
	return c.now, nil
}

type fixture struct {
	ledger *ledger.Ledger
	repo   *marketsmemory.MarketRepository
	graph  *marketsapp.Graph
	pools  *amm.Pools
	quoter *app.Quoter
	router *app.Router
	clock  *fixedClock

	// root (A, B); child on root/A (X, Y)
	root, child *markets.Market
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.NewDiscard()

	l := ledger.New()
	positions, err := positionsapp.NewPositionService(l, positionsmemory.NewConditionRepository(), ctfAddr, log)
	require.NoError(t, err)
	wrapper := positionsapp.NewWrapper(positions)

	repo := marketsmemory.NewMarketRepository()
	factory, err := marketsapp.NewFactory(marketsapp.FactoryConfig{
		ChainID:    asset.ChainIDGnosis,
		Address:    factoryAddr,
		RealityETH: common.HexToAddress("0xE78996A233895bE74a66F451f1019cA9734205cc"),
		Oracle:     common.HexToAddress("0xc260ADfAC11f97c001dC143d2a4F45b98e0f2D6C"),
		Timeout:    86_400,
		MinBond:    new(big.Int),
	}, repo, positions, wrapper, asset.DefaultRegistry(), log)
	require.NoError(t, err)

	root, err := factory.CreateMarket(ctx, marketsapp.CreateMarketParams{
		Name:       "Who wins?",
		Kind:       resolution.KindCategorical,
		Outcomes:   []string{"A", "B"},
		OpeningTS:  1_735_689_600,
		Collateral: collateral,
	})
	require.NoError(t, err)
	child, err := factory.CreateMarket(ctx, marketsapp.CreateMarketParams{
		Name:          "Will X happen?",
		Kind:          resolution.KindCategorical,
		Outcomes:      []string{"X", "Y"},
		OpeningTS:     1_735_689_600,
		ParentMarket:  root.ID,
		ParentOutcome: 0,
	})
	require.NoError(t, err)

	graph := marketsapp.NewGraph(repo, marketsapp.DefaultMaxDepth)
	pools := amm.NewPools(l, common.HexToAddress("0x9001"), 30)

	quoter, err := app.NewQuoter(pools, repo, l, log)
	require.NoError(t, err)

	clock := &fixedClock{now: epoch}
	router, err := app.NewRouter(app.RouterConfig{Address: routerAddr, SlippageBps: 50}, app.RouterDeps{
		Ledger:    l,
		Positions: positions,
		Wrapper:   wrapper,
		Markets:   repo,
		Swaps:     pools,
		Paths:     graph,
		Quoter:    quoter,
		Clock:     clock,
	}, log)
	require.NoError(t, err)

	return &fixture{
		ledger: l,
		repo:   repo,
		graph:  graph,
		pools:  pools,
		quoter: quoter,
		router: router,
		clock:  clock,
		root:   root,
		child:  child,
	}
}

func (f *fixture) fund(t *testing.T, account common.Address, amount int64) {
	t.Helper()
	require.NoError(t, f.ledger.Mint(context.Background(), account, ledger.ERC20(collateral), big.NewInt(amount)))
}

func (f *fixture) balance(account, token common.Address) *big.Int {
	return f.ledger.BalanceOf(context.Background(), account, ledger.ERC20(token))
}

// buy funds account with amount of collateral and routes all of it into token.
func (f *fixture) buy(t *testing.T, account, token common.Address, amount int64) *domain.Execution {
	t.Helper()
	f.fund(t, account, amount)
	_, exec, err := f.router.QuoteAndExecute(context.Background(), collateral, token, domain.ExactInputParams{
		Payer:    account,
		AmountIn: big.NewInt(amount),
	})
	require.NoError(t, err)
	return exec
}

// tokens lists collateral and every outcome token of both markets.
func (f *fixture) tokens() []common.Address {
	out := []common.Address{collateral}
	out = append(out, f.root.WrappedTokens...)
	return append(out, f.child.WrappedTokens...)
}

// snapshot captures every balance the router can touch.
func (f *fixture) snapshot(accounts ...common.Address) map[string]string {
	ctx := context.Background()
	snap := map[string]string{}
	for _, a := range append(accounts, routerAddr, ctfAddr) {
		for _, token := range f.tokens() {
			snap[a.Hex()+"/"+token.Hex()] = f.ledger.BalanceOf(ctx, a, ledger.ERC20(token)).String()
			snap["supply/"+token.Hex()] = f.ledger.TotalSupply(ctx, ledger.ERC20(token)).String()
		}
	}
	return snap
}
