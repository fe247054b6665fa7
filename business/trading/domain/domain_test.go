package domain_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fd1az/condrouter/business/trading/domain"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name       string
		swap, mint *big.Int
		want       domain.Strategy
	}{
		{name: "swap_pays_more", swap: big.NewInt(101), mint: big.NewInt(100), want: domain.StrategySwap},
		{name: "tie_goes_to_mint", swap: big.NewInt(100), mint: big.NewInt(100), want: domain.StrategyMint},
		{name: "mint_pays_more", swap: big.NewInt(99), mint: big.NewInt(100), want: domain.StrategyMint},
		{name: "no_mint", swap: big.NewInt(1), mint: new(big.Int), want: domain.StrategySwap},
		{name: "nil_swap", swap: nil, mint: big.NewInt(1), want: domain.StrategyMint},
		{name: "nil_mint", swap: big.NewInt(1), mint: nil, want: domain.StrategySwap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Choose(tt.swap, tt.mint))
		})
	}
}

func TestQuote_MinimumOut(t *testing.T) {
	q := &domain.Quote{AmountOut: big.NewInt(1000)}

	assert.Equal(t, big.NewInt(1000), q.MinimumOut(0))
	assert.Equal(t, big.NewInt(995), q.MinimumOut(50))
	assert.Equal(t, 0, q.MinimumOut(20_000).Sign())
}

func TestQuote_Choices(t *testing.T) {
	q := &domain.Quote{Hops: []domain.HopQuote{
		{SwapAmountOut: big.NewInt(5), MintAmountOut: big.NewInt(3), Choice: domain.StrategySwap},
		{SwapAmountOut: big.NewInt(0), MintAmountOut: big.NewInt(5), Choice: domain.StrategyMint},
	}}

	assert.Equal(t, []domain.Strategy{domain.StrategySwap, domain.StrategyMint}, q.Choices())
	assert.Equal(t, big.NewInt(5), q.Hops[0].AmountOut())
	assert.Equal(t, big.NewInt(5), q.Hops[1].AmountOut())
}

func TestExecution_Lifecycle(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	e := domain.NewExecution(nil, nil, big.NewInt(10), start)
	assert.Equal(t, domain.ExecutionPending, e.State)
	assert.Equal(t, -1, e.FailedHop)
	assert.Zero(t, e.Duration())

	other := domain.NewExecution(nil, nil, big.NewInt(10), start)
	assert.NotEqual(t, e.ID, other.ID)

	e.Settle(big.NewInt(9), start.Add(time.Second))
	assert.Equal(t, domain.ExecutionSettled, e.State)
	assert.Equal(t, time.Second, e.Duration())

	boom := errors.New("boom")
	other.HopOutputs = append(other.HopOutputs, big.NewInt(10))
	other.Revert(boom, start.Add(time.Second))
	assert.Equal(t, domain.ExecutionReverted, other.State)
	assert.Nil(t, other.AmountOut)
	assert.Len(t, other.HopOutputs, 1)
	assert.ErrorIs(t, other.Err, boom)
}
