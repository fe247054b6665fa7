package main

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	marketsapp "github.com/fd1az/condrouter/business/markets/app"
	marketsDI "github.com/fd1az/condrouter/business/markets/di"
	markets "github.com/fd1az/condrouter/business/markets/domain"
	positionsapp "github.com/fd1az/condrouter/business/positions/app"
	positionsDI "github.com/fd1az/condrouter/business/positions/di"
	positionsDomain "github.com/fd1az/condrouter/business/positions/domain"
	resolutionapp "github.com/fd1az/condrouter/business/resolution/app"
	resolutionDI "github.com/fd1az/condrouter/business/resolution/di"
	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/business/resolution/infra/memory"
	tradingapp "github.com/fd1az/condrouter/business/trading/app"
	tradingDI "github.com/fd1az/condrouter/business/trading/di"
	trading "github.com/fd1az/condrouter/business/trading/domain"
	"github.com/fd1az/condrouter/business/trading/infra/amm"
	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
	"github.com/fd1az/condrouter/internal/monolith"
	"github.com/fd1az/condrouter/pkg/ui"
	"github.com/fd1az/condrouter/pkg/ui/components"
)

var (
	trader   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	provider = common.HexToAddress("0x000000000000000000000000000000000000001f")
)

type demo struct {
	collateral common.Address
	ledger     *ledger.Ledger
	assets     *asset.Registry
	log        logger.LoggerInterface

	factory   *marketsapp.Factory
	repo      marketsapp.Repository
	positions *positionsapp.PositionService
	wrapper   *positionsapp.Wrapper
	resolver  *resolutionapp.Service
	oracle    resolutionapp.OracleReader
	pools     *amm.Pools
	router    *tradingapp.Router
}

func newDemo(mono monolith.Monolith) *demo {
	sr := mono.Services()
	return &demo{
		collateral: mono.Config().Contracts.CollateralAddress(),
		ledger:     mono.Ledger(),
		assets:     mono.AssetRegistry(),
		log:        mono.Logger(),
		factory:    marketsDI.GetFactory(sr),
		repo:       marketsDI.GetRepository(sr),
		positions:  positionsDI.GetPositionService(sr),
		wrapper:    positionsDI.GetWrapper(sr),
		resolver:   resolutionDI.GetService(sr),
		oracle:     resolutionDI.GetOracleReader(sr),
		pools:      tradingDI.GetPools(sr),
		router:     tradingDI.GetRouter(sr),
	}
}

// run creates a categorical root market with a scalar child on its first
// outcome, prices the root outcome in a pool, routes a buy and a partial
// sell, then resolves both markets and redeems everything the trader holds.
func (d *demo) run(ctx context.Context) error {
	oracle, ok := d.oracle.(*memory.Oracle)
	if !ok {
		return fmt.Errorf("demo needs oracle.source=memory")
	}

	opening := uint32(time.Now().Unix())
	root, err := d.factory.CreateMarket(ctx, marketsapp.CreateMarketParams{
		Name:       "Which team wins the final?",
		Kind:       resolution.KindCategorical,
		Outcomes:   []string{"Alpha", "Beta"},
		OpeningTS:  opening,
		Collateral: d.collateral,
	})
	if err != nil {
		return fmt.Errorf("create root market: %w", err)
	}
	child, err := d.factory.CreateMarket(ctx, marketsapp.CreateMarketParams{
		Name:          "How many points does Alpha score?",
		Kind:          resolution.KindScalar,
		Outcomes:      []string{"DOWN", "UP"},
		TokenNames:    []string{"ALPHA-DOWN", "ALPHA-UP"},
		LowerBound:    big.NewInt(0),
		UpperBound:    big.NewInt(100),
		OpeningTS:     opening,
		ParentMarket:  root.ID,
		ParentOutcome: 0,
	})
	if err != nil {
		return fmt.Errorf("create child market: %w", err)
	}
	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("markets %s (root) and %s (child of %s)",
		root.ID.Hex(), child.ID.Hex(), root.Outcomes[0])))

	alpha, up := root.WrappedTokens[0], child.WrappedTokens[1]

	// provider mints 4000 Alpha at par and prices it at a quarter of collateral
	if err := d.fund(ctx, provider, 5000); err != nil {
		return err
	}
	if _, _, err := d.router.QuoteAndExecute(ctx, d.collateral, alpha, trading.ExactInputParams{
		Payer:    provider,
		AmountIn: d.units(4000),
	}); err != nil {
		return fmt.Errorf("seed outcome tokens: %w", err)
	}
	pool, err := d.pools.AddLiquidity(ctx, provider, d.collateral, alpha, d.units(1000), d.units(4000))
	if err != nil {
		return fmt.Errorf("seed pool: %w", err)
	}
	d.log.Info(ctx, "pool seeded", "pool", pool.Hex(), "fee_bps", d.pools.FeeBps())

	if err := d.fund(ctx, trader, 100); err != nil {
		return err
	}
	if err := d.trade(ctx, "BUY", d.collateral, up, d.units(100)); err != nil {
		return err
	}

	half := new(big.Int).Quo(d.ledger.BalanceOf(ctx, trader, ledger.ERC20(up)), big.NewInt(2))
	if err := d.trade(ctx, "SELL", up, alpha, half); err != nil {
		return err
	}
	fmt.Println(ui.Section("BALANCES AFTER TRADING", d.balances(ctx, root, child)))

	// Alpha wins and scores 75 of 100
	oracle.Finalize(root.QuestionIDs[0], common.BigToHash(big.NewInt(0)))
	oracle.Finalize(child.QuestionIDs[0], common.BigToHash(big.NewInt(75)))
	for _, m := range []*markets.Market{root, child} {
		shape, err := m.Shape()
		if err != nil {
			return err
		}
		payouts, err := d.resolver.Resolve(ctx, resolutionapp.Request{Shape: shape, QuestionIDs: m.QuestionIDs})
		if err != nil {
			return fmt.Errorf("resolve %s: %w", m.Name, err)
		}
		d.log.Info(ctx, "resolved", "market", m.Name, "payouts", fmt.Sprint(payouts))
	}

	// child payouts land in the root Alpha position, so redeem bottom-up
	for _, m := range []*markets.Market{child, root} {
		paid, err := d.redeem(ctx, trader, m)
		if err != nil {
			return fmt.Errorf("redeem %s: %w", m.Name, err)
		}
		d.log.Info(ctx, "redeemed", "market", m.Name, "payout", paid.String())
	}
	fmt.Println(ui.Section("BALANCES AFTER REDEMPTION", d.balances(ctx, root, child)))
	return nil
}

func (d *demo) trade(ctx context.Context, label string, tokenIn, tokenOut common.Address, amount *big.Int) error {
	quote, exec, err := d.router.QuoteAndExecute(ctx, tokenIn, tokenOut, trading.ExactInputParams{
		Payer:    trader,
		AmountIn: amount,
	})
	if quote != nil {
		fmt.Println(ui.Section(label+" QUOTE", d.route(ctx, quote)))
	}
	if exec != nil {
		fmt.Println(ui.Section(label+" EXECUTION", d.execution(exec)))
	}
	if err != nil {
		return fmt.Errorf("%s %s -> %s: %w", label, d.assets.Symbol(tokenIn), d.assets.Symbol(tokenOut), err)
	}
	return nil
}

// redeem unwraps every outcome token account holds in m and redeems the
// full singleton partition.
func (d *demo) redeem(ctx context.Context, account common.Address, m *markets.Market) (*big.Int, error) {
	for _, token := range m.WrappedTokens {
		bal := d.ledger.BalanceOf(ctx, account, ledger.ERC20(token))
		if bal.Sign() == 0 {
			continue
		}
		if err := d.wrapper.Unwrap(ctx, account, token, bal); err != nil {
			return nil, err
		}
	}
	return d.positions.RedeemPositions(ctx, positionsapp.RedeemParams{
		Account:            account,
		Collateral:         m.Collateral,
		ParentCollectionID: m.ParentCollectionID,
		ConditionID:        m.ConditionID,
		IndexSets:          positionsDomain.SingletonPartition(uint64(m.Slots())),
	})
}

func (d *demo) fund(ctx context.Context, account common.Address, whole int64) error {
	if err := d.ledger.Mint(ctx, account, ledger.ERC20(d.collateral), d.units(whole)); err != nil {
		return fmt.Errorf("fund %s: %w", account.Hex(), err)
	}
	return nil
}

// units scales whole collateral units by the collateral's decimals.
func (d *demo) units(whole int64) *big.Int {
	decimals := int32(18)
	if a, ok := d.assets.Get(d.collateral); ok {
		decimals = int32(a.Decimals())
	}
	return decimal.NewFromInt(whole).Shift(decimals).BigInt()
}

func (d *demo) display(token common.Address, raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	if a, ok := d.assets.Get(token); ok {
		return asset.NewAmount(a, raw).ToDecimal()
	}
	return decimal.NewFromBigInt(raw, -18)
}

func (d *demo) route(ctx context.Context, q *trading.Quote) string {
	rows := make([]components.HopRow, len(q.Hops))
	for i, h := range q.Hops {
		name := h.Hop.Market.Hex()
		if m, err := d.repo.Get(ctx, h.Hop.Market); err == nil {
			name = m.Name
		}
		rows[i] = components.HopRow{
			Market:    name,
			Direction: h.Hop.Direction.String(),
			TokenIn:   d.assets.Symbol(h.Hop.TokenIn),
			TokenOut:  d.assets.Symbol(h.Hop.TokenOut),
			SwapOut:   d.display(h.Hop.TokenOut, h.SwapAmountOut),
			MintOut:   d.display(h.Hop.TokenOut, h.MintAmountOut),
			Choice:    h.Choice.String(),
		}
	}
	in, out := q.Path.TokenIn(), q.Path.TokenOut()
	return components.NewRouteComponent(d.display(in, q.AmountIn), d.display(out, q.AmountOut), rows).View()
}

func (d *demo) execution(e *trading.Execution) string {
	in, out := e.Path.TokenIn(), e.Path.TokenOut()
	summary := components.ExecutionSummary{
		ID:        e.ID.String(),
		State:     string(e.State),
		AmountIn:  d.display(in, e.AmountIn),
		AmountOut: d.display(out, e.AmountOut),
		Duration:  e.Duration(),
		FailedHop: e.FailedHop,
	}
	if e.Err != nil {
		summary.Error = e.Err.Error()
	}
	return components.ExecutionView(summary)
}

func (d *demo) balances(ctx context.Context, ms ...*markets.Market) string {
	tokens := []common.Address{d.collateral}
	for _, m := range ms {
		tokens = append(tokens, m.WrappedTokens...)
	}
	var rows []components.BalanceRow
	for _, token := range tokens {
		rows = append(rows, components.BalanceRow{
			Account: "trader",
			Token:   d.assets.Symbol(token),
			Amount:  d.display(token, d.ledger.BalanceOf(ctx, trader, ledger.ERC20(token))),
		})
	}
	return components.BalancesView(rows)
}
