package ledger_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
)

var (
	alice = common.HexToAddress("0xA11CE")
	bob   = common.HexToAddress("0xB0B")
	sdai  = ledger.ERC20(common.HexToAddress("0xaf204776c7245bF4147c2612BF6e5972Ee483701"))
	pos   = ledger.ERC1155(common.HexToAddress("0xCe3d"), common.HexToHash("0x01"))
)

func TestLedger_MintTransferBurn(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()

	require.NoError(t, l.Mint(ctx, alice, sdai, big.NewInt(100)))
	require.NoError(t, l.Transfer(ctx, alice, bob, sdai, big.NewInt(30)))

	assert.Equal(t, int64(70), l.BalanceOf(ctx, alice, sdai).Int64())
	assert.Equal(t, int64(30), l.BalanceOf(ctx, bob, sdai).Int64())
	assert.Equal(t, int64(100), l.TotalSupply(ctx, sdai).Int64())

	err := l.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		return tx.Burn(bob, sdai, big.NewInt(30))
	})
	require.NoError(t, err)
	assert.Zero(t, l.BalanceOf(ctx, bob, sdai).Sign())
	assert.Equal(t, int64(70), l.TotalSupply(ctx, sdai).Int64())
}

func TestLedger_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()
	require.NoError(t, l.Mint(ctx, alice, sdai, big.NewInt(5)))

	err := l.Transfer(ctx, alice, bob, sdai, big.NewInt(6))
	assert.Equal(t, apperror.CodeInsufficientBalance, apperror.GetCode(err))

	err = l.Transfer(ctx, alice, alice, sdai, big.NewInt(6))
	assert.Equal(t, apperror.CodeInsufficientBalance, apperror.GetCode(err))

	err = l.Mint(ctx, alice, sdai, big.NewInt(-1))
	assert.Equal(t, apperror.CodeInvalidAmount, apperror.GetCode(err))
}

func TestLedger_UpdateRevertsEverything(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()
	require.NoError(t, l.Mint(ctx, alice, sdai, big.NewInt(100)))

	errBoom := errors.New("boom")
	err := l.Update(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		require.NoError(t, tx.Transfer(alice, bob, sdai, big.NewInt(40)))
		require.NoError(t, tx.Mint(bob, pos, big.NewInt(7)))
		assert.Equal(t, int64(40), l.BalanceOf(ctx, bob, sdai).Int64())
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, int64(100), l.BalanceOf(ctx, alice, sdai).Int64())
	assert.Zero(t, l.BalanceOf(ctx, bob, sdai).Sign())
	assert.Zero(t, l.BalanceOf(ctx, bob, pos).Sign())
	assert.Zero(t, l.TotalSupply(ctx, pos).Sign())
}

func TestLedger_NestedUpdate(t *testing.T) {
	ctx := context.Background()
	l := ledger.New()
	require.NoError(t, l.Mint(ctx, alice, sdai, big.NewInt(100)))

	err := l.Update(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		require.NoError(t, l.Transfer(ctx, alice, bob, sdai, big.NewInt(10)))

		inner := l.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
			require.NoError(t, tx.Transfer(alice, bob, sdai, big.NewInt(20)))
			return errors.New("inner failure")
		})
		require.Error(t, inner)

		assert.Equal(t, int64(10), tx.BalanceOf(bob, sdai).Int64())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(90), l.BalanceOf(ctx, alice, sdai).Int64())
	assert.Equal(t, int64(10), l.BalanceOf(ctx, bob, sdai).Int64())
}
