package amm_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/business/trading/infra/amm"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
)

var (
	deployer = common.HexToAddress("0xd0")
	lp       = common.HexToAddress("0x11")
	trader   = common.HexToAddress("0x22")
	tokenA   = common.HexToAddress("0xaa")
	tokenB   = common.HexToAddress("0xbb")
)

func seeded(t *testing.T, feeBps int64, reserveA, reserveB int64) (*ledger.Ledger, *amm.Pools, common.Address) {
	t.Helper()
	ctx := context.Background()

	l := ledger.New()
	require.NoError(t, l.Mint(ctx, lp, ledger.ERC20(tokenA), big.NewInt(reserveA)))
	require.NoError(t, l.Mint(ctx, lp, ledger.ERC20(tokenB), big.NewInt(reserveB)))

	pools := amm.NewPools(l, deployer, feeBps)
	addr, err := pools.AddLiquidity(ctx, lp, tokenA, tokenB, big.NewInt(reserveA), big.NewInt(reserveB))
	require.NoError(t, err)
	return l, pools, addr
}

func TestPoolAddress_OrderIndependent(t *testing.T) {
	assert.Equal(t, amm.PoolAddress(deployer, tokenA, tokenB), amm.PoolAddress(deployer, tokenB, tokenA))
	assert.NotEqual(t, amm.PoolAddress(deployer, tokenA, tokenB), amm.PoolAddress(common.HexToAddress("0xd1"), tokenA, tokenB))
}

func TestPools_QuoteMatchesExecution(t *testing.T) {
	ctx := context.Background()
	l, pools, addr := seeded(t, 30, 1000, 4000)
	require.NoError(t, l.Mint(ctx, trader, ledger.ERC20(tokenA), big.NewInt(100)))

	quote, err := pools.QuoteExactInputSingle(ctx, tokenA, tokenB, big.NewInt(100))
	require.NoError(t, err)
	// 100*9970*4000 / (1000*10000 + 100*9970)
	assert.Equal(t, big.NewInt(362), quote)

	out, err := pools.ExactInputSingle(ctx, trader, tokenA, tokenB, big.NewInt(100), quote)
	require.NoError(t, err)
	assert.Equal(t, quote, out)

	assert.Equal(t, big.NewInt(362), l.BalanceOf(ctx, trader, ledger.ERC20(tokenB)))
	assert.Equal(t, 0, l.BalanceOf(ctx, trader, ledger.ERC20(tokenA)).Sign())
	assert.Equal(t, big.NewInt(1100), l.BalanceOf(ctx, addr, ledger.ERC20(tokenA)))
	assert.Equal(t, big.NewInt(3638), l.BalanceOf(ctx, addr, ledger.ERC20(tokenB)))
}

func TestPools_Errors(t *testing.T) {
	ctx := context.Background()
	l, pools, _ := seeded(t, 0, 1000, 1000)
	require.NoError(t, l.Mint(ctx, trader, ledger.ERC20(tokenA), big.NewInt(100)))

	tests := []struct {
		name string
		run  func() error
		want apperror.Code
	}{
		{
			name: "unknown_pool",
			run: func() error {
				_, err := pools.QuoteExactInputSingle(ctx, tokenA, common.HexToAddress("0xcc"), big.NewInt(1))
				return err
			},
			want: apperror.CodePoolNotFound,
		},
		{
			name: "dust",
			run: func() error {
				// 1*1000/1001 rounds to zero
				_, err := pools.QuoteExactInputSingle(ctx, tokenA, tokenB, big.NewInt(1))
				return err
			},
			want: apperror.CodeInsufficientLiquidity,
		},
		{
			name: "minimum_out",
			run: func() error {
				_, err := pools.ExactInputSingle(ctx, trader, tokenA, tokenB, big.NewInt(100), big.NewInt(91))
				return err
			},
			want: apperror.CodeSlippageExceeded,
		},
		{
			name: "trader_balance",
			run: func() error {
				_, err := pools.ExactInputSingle(ctx, trader, tokenA, tokenB, big.NewInt(101), nil)
				return err
			},
			want: apperror.CodeInsufficientBalance,
		},
		{
			name: "identical_tokens",
			run: func() error {
				_, err := pools.CreatePool(tokenA, tokenA)
				return err
			},
			want: apperror.CodeValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.GetCode(tt.run()))
		})
	}

	assert.Equal(t, big.NewInt(100), l.BalanceOf(ctx, trader, ledger.ERC20(tokenA)))
}

func TestPools_RollsBackWithOuterUpdate(t *testing.T) {
	ctx := context.Background()
	l, pools, addr := seeded(t, 30, 1000, 1000)
	require.NoError(t, l.Mint(ctx, trader, ledger.ERC20(tokenA), big.NewInt(100)))

	boom := errors.New("later step failed")
	err := l.Update(ctx, func(ctx context.Context, _ *ledger.Tx) error {
		out, err := pools.ExactInputSingle(ctx, trader, tokenA, tokenB, big.NewInt(100), nil)
		require.NoError(t, err)
		require.Positive(t, out.Sign())
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, big.NewInt(1000), l.BalanceOf(ctx, addr, ledger.ERC20(tokenA)))
	assert.Equal(t, big.NewInt(1000), l.BalanceOf(ctx, addr, ledger.ERC20(tokenB)))
	assert.Equal(t, big.NewInt(100), l.BalanceOf(ctx, trader, ledger.ERC20(tokenA)))
}
