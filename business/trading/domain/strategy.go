// Package domain contains the core domain types for the trading context.
package domain

import "math/big"

// Strategy is how a single hop moves value.
type Strategy string

const (
	// StrategySwap trades the hop through the AMM pool.
	StrategySwap Strategy = "SWAP"

	// StrategyMint splits (buy) or merges (sell) a full set at par.
	StrategyMint Strategy = "MINT"
)

// String returns a human-readable description of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategySwap:
		return "swap via pool"
	case StrategyMint:
		return "mint via full set"
	default:
		return "unknown"
	}
}

// Choose picks the swap only when it pays strictly more than minting. Ties go to
// the mint, which does not depend on pool state.
func Choose(swapOut, mintOut *big.Int) Strategy {
	if swapOut != nil && swapOut.Cmp(orZero(mintOut)) > 0 {
		return StrategySwap
	}
	return StrategyMint
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
