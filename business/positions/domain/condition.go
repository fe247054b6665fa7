package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/internal/apperror"
)

// Condition is a prepared question with a fixed number of outcome slots.
// It is resolved at most once.
type Condition struct {
	ID               common.Hash
	Oracle           common.Address
	QuestionID       common.Hash
	OutcomeSlotCount uint64

	PayoutNumerators  []*big.Int
	PayoutDenominator *big.Int
}

// NewCondition validates the slot count and derives the condition id.
func NewCondition(oracle common.Address, questionID common.Hash, slots uint64) (*Condition, error) {
	if slots < 2 || slots > MaxOutcomeSlots {
		return nil, apperror.New(apperror.CodeInvalidOutcomeSlotCount,
			apperror.WithContextf("%d slots", slots))
	}

	return &Condition{
		ID:               ConditionID(oracle, questionID, slots),
		Oracle:           oracle,
		QuestionID:       questionID,
		OutcomeSlotCount: slots,
	}, nil
}

// IsResolved reports whether payouts have been reported.
func (c *Condition) IsResolved() bool {
	return c.PayoutDenominator != nil && c.PayoutDenominator.Sign() > 0
}

// FullIndexSet returns the index set covering every slot of c.
func (c *Condition) FullIndexSet() *big.Int {
	return FullIndexSet(c.OutcomeSlotCount)
}

// Resolve records the payout vector.
func (c *Condition) Resolve(payouts []*big.Int) error {
	if c.IsResolved() {
		return apperror.New(apperror.CodeAlreadyResolved, apperror.WithContext(c.ID.Hex()))
	}
	if uint64(len(payouts)) != c.OutcomeSlotCount {
		return apperror.New(apperror.CodeInvalidPayouts,
			apperror.WithContextf("condition %s: %d payouts for %d slots", c.ID.Hex(), len(payouts), c.OutcomeSlotCount))
	}

	den := new(big.Int)
	numerators := make([]*big.Int, len(payouts))
	for i, p := range payouts {
		if p == nil || p.Sign() < 0 {
			return apperror.New(apperror.CodeInvalidPayouts,
				apperror.WithContextf("condition %s: payout %d is %v", c.ID.Hex(), i, p))
		}
		numerators[i] = new(big.Int).Set(p)
		den.Add(den, p)
	}
	if den.Sign() == 0 {
		return apperror.New(apperror.CodeInvalidPayouts,
			apperror.WithContextf("condition %s: payout is all zeroes", c.ID.Hex()))
	}

	c.PayoutNumerators = numerators
	c.PayoutDenominator = den
	return nil
}

// PayoutNumerator sums the numerators of every slot in indexSet.
func (c *Condition) PayoutNumerator(indexSet *big.Int) *big.Int {
	sum := new(big.Int)
	for slot := uint64(0); slot < c.OutcomeSlotCount; slot++ {
		if indexSet.Bit(int(slot)) == 1 {
			sum.Add(sum, c.PayoutNumerators[slot])
		}
	}
	return sum
}

// Clone returns a deep copy.
func (c *Condition) Clone() *Condition {
	out := *c
	if c.PayoutNumerators != nil {
		out.PayoutNumerators = make([]*big.Int, len(c.PayoutNumerators))
		for i, p := range c.PayoutNumerators {
			out.PayoutNumerators[i] = new(big.Int).Set(p)
		}
	}
	if c.PayoutDenominator != nil {
		out.PayoutDenominator = new(big.Int).Set(c.PayoutDenominator)
	}
	return &out
}
