package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	markets "github.com/fd1az/condrouter/business/markets/domain"
)

// ExactInputParams bound an execution. A zero Deadline means the router's default.
type ExactInputParams struct {
	Payer            common.Address
	Recipient        common.Address
	Deadline         time.Time
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// ExecutionState is the lifecycle state of an execution.
type ExecutionState string

const (
	ExecutionPending  ExecutionState = "PENDING"
	ExecutionSettled  ExecutionState = "SETTLED"
	ExecutionReverted ExecutionState = "REVERTED"
)

// Execution records one exactInput call. On REVERTED no balance changed;
// FailedHop is the index of the failing hop or -1 when the failure was not
// inside a hop.
type Execution struct {
	ID         uuid.UUID
	Path       markets.Path
	Choices    []Strategy
	State      ExecutionState
	AmountIn   *big.Int
	AmountOut  *big.Int
	HopOutputs []*big.Int
	FailedHop  int
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewExecution starts a pending execution.
func NewExecution(path markets.Path, choices []Strategy, amountIn *big.Int, now time.Time) *Execution {
	return &Execution{
		ID:        uuid.New(),
		Path:      path,
		Choices:   choices,
		State:     ExecutionPending,
		AmountIn:  amountIn,
		FailedHop: -1,
		StartedAt: now,
	}
}

// Settle marks the execution as settled with its final output.
func (e *Execution) Settle(amountOut *big.Int, at time.Time) {
	e.State = ExecutionSettled
	e.AmountOut = amountOut
	e.FinishedAt = at
}

// Revert marks the execution as reverted. HopOutputs keeps what each hop
// produced before the failure; none of it persisted.
func (e *Execution) Revert(err error, at time.Time) {
	e.State = ExecutionReverted
	e.Err = err
	e.AmountOut = nil
	e.FinishedAt = at
}

// Duration is the wall time the execution took.
func (e *Execution) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
