// Package amm provides constant-product pools whose reserves live on the
// ledger, so pool state moves and rolls back with the surrounding update.
package amm

import (
	"bytes"
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/condrouter/business/trading/app"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
)

var (
	_ app.SwapQuoter   = (*Pools)(nil)
	_ app.SwapExecutor = (*Pools)(nil)
)

const bpsDenominator = 10_000

var poolInitCodeHash = crypto.Keccak256Hash([]byte("condrouter.ConstantProductPool"))

type pair struct {
	token0, token1 common.Address
}

func sortTokens(a, b common.Address) pair {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return pair{a, b}
	}
	return pair{b, a}
}

// PoolAddress is the deterministic CREATE2 address of the a/b pool under deployer.
func PoolAddress(deployer, a, b common.Address) common.Address {
	p := sortTokens(a, b)
	salt := crypto.Keccak256Hash(p.token0.Bytes(), p.token1.Bytes())
	return crypto.CreateAddress2(deployer, salt, poolInitCodeHash.Bytes())
}

// Pools is a set of x*y=k pools sharing one fee.
type Pools struct {
	ledger   *ledger.Ledger
	deployer common.Address
	feeBps   int64

	mu    sync.RWMutex
	pools map[pair]common.Address
}

// NewPools creates an empty pool set. feeBps is charged on the input amount.
func NewPools(l *ledger.Ledger, deployer common.Address, feeBps int64) *Pools {
	if feeBps < 0 || feeBps >= bpsDenominator {
		feeBps = 0
	}
	return &Pools{
		ledger:   l,
		deployer: deployer,
		feeBps:   feeBps,
		pools:    make(map[pair]common.Address),
	}
}

// FeeBps returns the swap fee in basis points.
func (p *Pools) FeeBps() int64 {
	return p.feeBps
}

// CreatePool registers the a/b pool and returns its address. Creating an
// existing pool returns the same address.
func (p *Pools) CreatePool(a, b common.Address) (common.Address, error) {
	if a == b {
		return common.Address{}, apperror.New(apperror.CodeValidationError,
			apperror.WithContextf("pool tokens are identical: %s", a.Hex()))
	}

	key := sortTokens(a, b)
	p.mu.Lock()
	defer p.mu.Unlock()

	if addr, ok := p.pools[key]; ok {
		return addr, nil
	}
	addr := PoolAddress(p.deployer, a, b)
	p.pools[key] = addr
	return addr, nil
}

// Pool returns the address of the a/b pool.
func (p *Pools) Pool(a, b common.Address) (common.Address, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	addr, ok := p.pools[sortTokens(a, b)]
	if !ok {
		return common.Address{}, apperror.New(apperror.CodePoolNotFound,
			apperror.WithContextf("%s/%s", a.Hex(), b.Hex()))
	}
	return addr, nil
}

// AddLiquidity moves amountA of a and amountB of b from provider into the pool,
// creating it if needed.
func (p *Pools) AddLiquidity(ctx context.Context, provider, a, b common.Address, amountA, amountB *big.Int) (common.Address, error) {
	addr, err := p.CreatePool(a, b)
	if err != nil {
		return common.Address{}, err
	}

	err = p.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		if err := tx.Transfer(provider, addr, ledger.ERC20(a), amountA); err != nil {
			return err
		}
		return tx.Transfer(provider, addr, ledger.ERC20(b), amountB)
	})
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

// Reserves returns the pool's balances of tokenIn and tokenOut.
func (p *Pools) Reserves(ctx context.Context, tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	addr, err := p.Pool(tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	return p.ledger.BalanceOf(ctx, addr, ledger.ERC20(tokenIn)),
		p.ledger.BalanceOf(ctx, addr, ledger.ERC20(tokenOut)), nil
}

// QuoteExactInputSingle returns what ExactInputSingle would pay for the
// current reserves.
func (p *Pools) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	reserveIn, reserveOut, err := p.Reserves(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	return p.amountOut(amountIn, reserveIn, reserveOut)
}

// ExactInputSingle swaps amountIn of tokenIn from trader for tokenOut.
func (p *Pools) ExactInputSingle(ctx context.Context, trader, tokenIn, tokenOut common.Address, amountIn, amountOutMinimum *big.Int) (*big.Int, error) {
	addr, err := p.Pool(tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}

	var out *big.Int
	err = p.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		reserveIn := tx.BalanceOf(addr, ledger.ERC20(tokenIn))
		reserveOut := tx.BalanceOf(addr, ledger.ERC20(tokenOut))

		amount, err := p.amountOut(amountIn, reserveIn, reserveOut)
		if err != nil {
			return err
		}
		if amountOutMinimum != nil && amount.Cmp(amountOutMinimum) < 0 {
			return apperror.New(apperror.CodeSlippageExceeded,
				apperror.WithContextf("pool pays %s, minimum %s", amount, amountOutMinimum))
		}

		if err := tx.Transfer(trader, addr, ledger.ERC20(tokenIn), amountIn); err != nil {
			return err
		}
		if err := tx.Transfer(addr, trader, ledger.ERC20(tokenOut), amount); err != nil {
			return err
		}
		out = amount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// amountOut is reserveOut * in' / (reserveIn + in') with in' the input after fee.
func (p *Pools) amountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidAmount, apperror.WithContext("amount in must be positive"))
	}
	if reserveIn.Sign() == 0 || reserveOut.Sign() == 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity, apperror.WithContext("empty pool"))
	}

	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(bpsDenominator-p.feeBps))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, big.NewInt(bpsDenominator))
	den.Add(den, inWithFee)

	out := num.Quo(num, den)
	if out.Sign() == 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContextf("%s in yields nothing", amountIn))
	}
	return out, nil
}
