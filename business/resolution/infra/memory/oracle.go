// Package memory provides in-process oracle and answer cache adapters.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/internal/apperror"
)

var _ app.OracleReader = (*Oracle)(nil)

type entry struct {
	answer    common.Hash
	finalized bool
}

// Oracle is a Reality.eth stand-in: answers are proposed, then finalized.
type Oracle struct {
	mu      sync.RWMutex
	answers map[common.Hash]entry
}

func NewOracle() *Oracle {
	return &Oracle{answers: make(map[common.Hash]entry)}
}

// Propose records a pending answer.
func (o *Oracle) Propose(questionID, answer common.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers[questionID] = entry{answer: answer}
}

// Finalize records answer as final.
func (o *Oracle) Finalize(questionID, answer common.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.answers[questionID] = entry{answer: answer, finalized: true}
}

func (o *Oracle) FinalAnswer(_ context.Context, questionID common.Hash) (common.Hash, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	e, ok := o.answers[questionID]
	if !ok || !e.finalized {
		return common.Hash{}, apperror.New(apperror.CodeAnswerNotFinalized, apperror.WithContext(questionID.Hex()))
	}
	return e.answer, nil
}
