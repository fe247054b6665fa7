package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	markets "github.com/fd1az/condrouter/business/markets/domain"
	positions "github.com/fd1az/condrouter/business/positions/app"
	"github.com/fd1az/condrouter/internal/ledger"
)

// SwapQuoter prices a single pool swap. Errors mean "no liquidity" to the quoter.
type SwapQuoter interface {
	QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error)
}

// SwapExecutor performs a single pool swap for trader. Calls made with a
// context inside a ledger.Update must join that update.
type SwapExecutor interface {
	ExactInputSingle(ctx context.Context, trader, tokenIn, tokenOut common.Address, amountIn, amountOutMinimum *big.Int) (*big.Int, error)
}

// Clock supplies the time deadlines are checked against.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// BalanceReader reads ledger balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, account common.Address, asset ledger.Asset) *big.Int
}

// MarketReader resolves hop markets.
type MarketReader interface {
	Get(ctx context.Context, id common.Address) (*markets.Market, error)
}

// PathFinder builds a path between two tokens.
type PathFinder interface {
	PathBetween(ctx context.Context, tokenIn, tokenOut common.Address) (markets.Path, error)
}

// PositionManager splits and merges full sets.
type PositionManager interface {
	SplitPosition(ctx context.Context, p positions.SplitParams) error
	MergePositions(ctx context.Context, p positions.SplitParams) error
}

// TokenWrapper converts between positions and their ERC-20 outcome tokens.
type TokenWrapper interface {
	Wrap(ctx context.Context, account, token common.Address, amount *big.Int) error
	Unwrap(ctx context.Context, account, token common.Address, amount *big.Int) error
}
