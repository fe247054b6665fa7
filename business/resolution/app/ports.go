package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/resolution/domain"
)

// OracleReader returns the final answer of a question. Unfinalized questions
// fail with CodeAnswerNotFinalized.
type OracleReader interface {
	FinalAnswer(ctx context.Context, questionID common.Hash) (common.Hash, error)
}

// AnswerCache stores finalized answers. Final answers never change, so
// entries only expire to bound memory.
type AnswerCache interface {
	Get(ctx context.Context, questionID common.Hash) (common.Hash, bool, error)
	Set(ctx context.Context, questionID common.Hash, answer common.Hash) error
}

// PayoutReporter records payouts for the condition identified by
// (oracle, questionID, len(payouts)).
type PayoutReporter interface {
	ReportPayouts(ctx context.Context, oracle common.Address, questionID common.Hash, payouts []*big.Int) error
}

// Request identifies a market's condition and how to resolve it.
type Request struct {
	Shape       domain.Shape
	QuestionIDs []common.Hash
}
