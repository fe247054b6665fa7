package domain

import (
	"math/big"

	markets "github.com/fd1az/condrouter/business/markets/domain"
)

// HopQuote holds both candidate outputs for one hop and the chosen strategy.
type HopQuote struct {
	Hop           markets.Hop
	AmountIn      *big.Int
	SwapAmountOut *big.Int
	MintAmountOut *big.Int
	Choice        Strategy
}

// AmountOut is the output of the chosen strategy.
func (q HopQuote) AmountOut() *big.Int {
	if q.Choice == StrategySwap {
		return new(big.Int).Set(q.SwapAmountOut)
	}
	return new(big.Int).Set(q.MintAmountOut)
}

// Quote is the result of quoting a whole path in order. The output of hop i is
// the input of hop i+1.
type Quote struct {
	Path      markets.Path
	AmountIn  *big.Int
	Hops      []HopQuote
	AmountOut *big.Int
}

// Choices returns the per-hop strategies in path order.
func (q *Quote) Choices() []Strategy {
	out := make([]Strategy, len(q.Hops))
	for i, h := range q.Hops {
		out[i] = h.Choice
	}
	return out
}

// MinimumOut returns AmountOut reduced by slippageBps basis points, rounded down.
func (q *Quote) MinimumOut(slippageBps int64) *big.Int {
	if q.AmountOut == nil {
		return new(big.Int)
	}
	if slippageBps <= 0 {
		return new(big.Int).Set(q.AmountOut)
	}
	if slippageBps > 10_000 {
		slippageBps = 10_000
	}
	v := new(big.Int).Mul(q.AmountOut, big.NewInt(10_000-slippageBps))
	return v.Quo(v, big.NewInt(10_000))
}
