package app_test

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	positionsapp "github.com/fd1az/condrouter/business/positions/app"
	positionsmemory "github.com/fd1az/condrouter/business/positions/infra/memory"
	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/business/resolution/infra/memory"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

var proxy = common.HexToAddress("0xc260ADfAC11f97c001dC143d2a4F45b98e0f2D6C")

type countingOracle struct {
	*memory.Oracle
	reads atomic.Int32
}

func (c *countingOracle) FinalAnswer(ctx context.Context, q common.Hash) (common.Hash, error) {
	c.reads.Add(1)
	return c.Oracle.FinalAnswer(ctx, q)
}

type fixture struct {
	oracle    *countingOracle
	positions *positionsapp.PositionService
	svc       *app.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	positions, err := positionsapp.NewPositionService(ledger.New(), positionsmemory.NewConditionRepository(),
		common.HexToAddress("0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce"), logger.NewDiscard())
	require.NoError(t, err)

	oracle := &countingOracle{Oracle: memory.NewOracle()}
	answers := memory.NewAnswerCache(time.Hour)
	t.Cleanup(answers.Close)

	svc, err := app.NewService(oracle, answers, positions, proxy, logger.NewDiscard())
	require.NoError(t, err)

	return fixture{oracle: oracle, positions: positions, svc: svc}
}

func (f fixture) prepare(t *testing.T, shape domain.Shape, questionIDs ...common.Hash) common.Hash {
	t.Helper()
	id, err := f.positions.PrepareCondition(context.Background(), proxy, domain.ConditionQuestionID(questionIDs), shape.Slots())
	require.NoError(t, err)
	return id
}

func TestService_ResolveCategorical(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q := common.HexToHash("0x01")
	shape := domain.Categorical{Outcomes: 2}
	conditionID := f.prepare(t, shape, q)

	f.oracle.Finalize(q, common.BigToHash(big.NewInt(1)))

	payouts, err := f.svc.Resolve(ctx, app.Request{Shape: shape, QuestionIDs: []common.Hash{q}})
	require.NoError(t, err)
	require.Len(t, payouts, 3)
	assert.Equal(t, int64(1), payouts[1].Int64())

	cond, err := f.positions.Condition(ctx, conditionID)
	require.NoError(t, err)
	assert.True(t, cond.IsResolved())
	assert.Equal(t, int64(1), cond.PayoutDenominator.Int64())

	_, err = f.svc.Resolve(ctx, app.Request{Shape: shape, QuestionIDs: []common.Hash{q}})
	assert.Equal(t, apperror.CodeAlreadyResolved, apperror.GetCode(err))
}

func TestService_RejectsBeforeReporting(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(o *memory.Oracle, q common.Hash)
		want  apperror.Code
	}{
		{
			name:  "not_finalized",
			setup: func(o *memory.Oracle, q common.Hash) { o.Propose(q, common.Hash{}) },
			want:  apperror.CodeAnswerNotFinalized,
		},
		{
			name:  "answered_too_soon",
			setup: func(o *memory.Oracle, q common.Hash) { o.Finalize(q, domain.AnsweredTooSoon) },
			want:  apperror.CodeAnsweredTooSoon,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			q := common.HexToHash("0x02")
			shape := domain.Scalar{Lower: big.NewInt(0), Upper: big.NewInt(10)}
			conditionID := f.prepare(t, shape, q)

			tt.setup(f.oracle.Oracle, q)

			_, err := f.svc.Resolve(ctx, app.Request{Shape: shape, QuestionIDs: []common.Hash{q}})
			assert.Equal(t, tt.want, apperror.GetCode(err))

			cond, err := f.positions.Condition(ctx, conditionID)
			require.NoError(t, err)
			assert.False(t, cond.IsResolved())
		})
	}
}

func TestService_MultiScalarUsesCombinedQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	qs := []common.Hash{common.HexToHash("0xa1"), common.HexToHash("0xa2"), common.HexToHash("0xa3")}
	shape := domain.MultiScalar{Outcomes: 3}
	conditionID := f.prepare(t, shape, qs...)

	f.oracle.Finalize(qs[0], common.BigToHash(big.NewInt(50)))
	f.oracle.Finalize(qs[1], domain.InvalidResult)
	f.oracle.Finalize(qs[2], common.BigToHash(big.NewInt(150)))

	payouts, err := f.svc.Resolve(ctx, app.Request{Shape: shape, QuestionIDs: qs})
	require.NoError(t, err)

	want := []int64{50, 0, 150, 0}
	for i, w := range want {
		assert.Equal(t, w, payouts[i].Int64(), "slot %d", i)
	}

	cond, err := f.positions.Condition(ctx, conditionID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), cond.PayoutDenominator.Int64())
}

func TestService_PayoutsUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q := common.HexToHash("0x03")
	shape := domain.Categorical{Outcomes: 3}
	f.oracle.Finalize(q, common.BigToHash(big.NewInt(2)))

	req := app.Request{Shape: shape, QuestionIDs: []common.Hash{q}}
	for range 3 {
		payouts, err := f.svc.Payouts(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, int64(1), payouts[2].Int64())
	}
	assert.Equal(t, int32(1), f.oracle.reads.Load())
}

func TestService_QuestionCountMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Payouts(context.Background(), app.Request{
		Shape:       domain.MultiScalar{Outcomes: 2},
		QuestionIDs: []common.Hash{common.HexToHash("0x01")},
	})
	assert.Equal(t, apperror.CodeInvalidMarket, apperror.GetCode(err))
}
