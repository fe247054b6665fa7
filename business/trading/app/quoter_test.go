package app_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/business/trading/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
)

func TestQuoter_PrefersMintWhenPoolPaysLess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.root.WrappedTokens[0]

	f.buy(t, lp, a, 1000)
	f.fund(t, lp, 1000)
	_, err := f.pools.AddLiquidity(ctx, lp, collateral, a, big.NewInt(1000), big.NewInt(1000))
	require.NoError(t, err)

	path, err := f.graph.PathBetween(ctx, collateral, a)
	require.NoError(t, err)

	quote, err := f.quoter.Quote(ctx, path, big.NewInt(100), alice)
	require.NoError(t, err)
	require.Len(t, quote.Hops, 1)
	// 100*9970*1000 / (1000*10000 + 100*9970) = 90
	assert.Equal(t, big.NewInt(90), quote.Hops[0].SwapAmountOut)
	assert.Equal(t, domain.StrategyMint, quote.Hops[0].Choice)
	assert.Equal(t, big.NewInt(100), quote.AmountOut)

	again, err := f.quoter.Quote(ctx, path, big.NewInt(100), alice)
	require.NoError(t, err)
	assert.Equal(t, quote, again)
}

func TestQuoter_SellNeedsFullSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	x, y := f.child.WrappedTokens[0], f.child.WrappedTokens[1]
	f.buy(t, alice, x, 100)

	path, err := f.graph.PathBetween(ctx, x, f.root.WrappedTokens[0])
	require.NoError(t, err)

	quote, err := f.quoter.Quote(ctx, path, big.NewInt(100), alice)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyMint, quote.Hops[0].Choice)

	// without Y there is no full set to merge and no pool to sell into
	require.NoError(t, f.ledger.Transfer(ctx, alice, bob, ledger.ERC20(y), big.NewInt(1)))

	_, err = f.quoter.Quote(ctx, path, big.NewInt(100), alice)
	assert.Equal(t, apperror.CodeNoRouteAvailable, apperror.GetCode(err))

	quote, err = f.quoter.Quote(ctx, path, big.NewInt(99), alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(99), quote.AmountOut)
}

func TestQuoter_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	path, err := f.graph.PathBetween(ctx, collateral, f.root.WrappedTokens[0])
	require.NoError(t, err)

	_, err = f.quoter.Quote(ctx, nil, big.NewInt(1), alice)
	assert.Equal(t, apperror.CodeInvalidPath, apperror.GetCode(err))

	_, err = f.quoter.Quote(ctx, path, new(big.Int), alice)
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.GetCode(err))
}
