// Package domain holds the payout resolvers: pure, total functions from raw
// oracle answers to payout numerator vectors, one per market shape.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/condrouter/internal/apperror"
)

// Reserved raw answers.
var (
	InvalidResult   = common.HexToHash("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	AnsweredTooSoon = common.HexToHash("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe")
)

// maxPayout (2^128 - 1) caps each multi-scalar answer so the denominator sum
// cannot overflow 256 bits.
var maxPayout = new(uint256.Int).Sub(
	new(uint256.Int).Lsh(uint256.NewInt(1), 128),
	uint256.NewInt(1),
)

// MaxPayout returns the multi-scalar clamp, 2^128 - 1.
func MaxPayout() *big.Int {
	return maxPayout.ToBig()
}

// Validate checks a shape's parameters.
func Validate(s Shape) error {
	switch s := s.(type) {
	case Categorical:
		return checkOutcomes(s.Outcomes)
	case MultiCategorical:
		return checkOutcomes(s.Outcomes)
	case MultiScalar:
		return checkOutcomes(s.Outcomes)
	case Scalar:
		if s.Lower == nil || s.Upper == nil || s.Lower.Sign() < 0 || s.Lower.Cmp(s.Upper) >= 0 {
			return apperror.New(apperror.CodeInvalidMarket,
				apperror.WithContextf("scalar bounds [%v, %v]", s.Lower, s.Upper))
		}
		if s.Upper.BitLen() > 256 {
			return apperror.New(apperror.CodeInvalidMarket,
				apperror.WithContextf("scalar upper bound %s exceeds 256 bits", s.Upper))
		}
		return nil
	case nil:
		return unknownShape(nil)
	default:
		return unknownShape(s)
	}
}

// Resolve maps raw answers to payout numerators. Every valid shape and every
// answer, sentinels included, yields slots numerators with a positive sum.
// ANSWERED_TOO_SOON is treated as an ordinary value here; callers that must
// reject it do so before resolving.
func Resolve(s Shape, answers []common.Hash) ([]*big.Int, error) {
	if err := Validate(s); err != nil {
		return nil, err
	}
	if len(answers) != s.Questions() {
		return nil, apperror.New(apperror.CodeInvalidAnswer,
			apperror.WithContextf("%s expects %d answers, got %d", s, s.Questions(), len(answers)))
	}

	switch s := s.(type) {
	case Categorical:
		return resolveCategorical(s, answers[0]), nil
	case MultiCategorical:
		return resolveMultiCategorical(s, answers[0]), nil
	case Scalar:
		return resolveScalar(s, answers[0]), nil
	case MultiScalar:
		return resolveMultiScalar(s, answers), nil
	default:
		return nil, unknownShape(s)
	}
}

func resolveCategorical(s Categorical, answer common.Hash) []*big.Int {
	payouts := zeros(s.Slots())
	invalid := len(payouts) - 1

	a := parse(answer)
	if answer == InvalidResult || !a.IsUint64() || a.Uint64() >= uint64(s.Outcomes) {
		payouts[invalid].SetInt64(1)
		return payouts
	}

	payouts[a.Uint64()].SetInt64(1)
	return payouts
}

func resolveMultiCategorical(s MultiCategorical, answer common.Hash) []*big.Int {
	payouts := zeros(s.Slots())
	invalid := len(payouts) - 1

	if answer == InvalidResult {
		payouts[invalid].SetInt64(1)
		return payouts
	}

	// bits above the outcome range are ignored
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(s.Outcomes))
	mask.Sub(mask, uint256.NewInt(1))
	selected := new(uint256.Int).And(parse(answer), mask)

	if selected.IsZero() {
		payouts[invalid].SetInt64(1)
		return payouts
	}

	for i := 0; i < s.Outcomes; i++ {
		if new(uint256.Int).Rsh(selected, uint(i)).Uint64()&1 == 1 {
			payouts[i].SetInt64(1)
		}
	}
	return payouts
}

func resolveScalar(s Scalar, answer common.Hash) []*big.Int {
	payouts := zeros(s.Slots())

	if answer == InvalidResult {
		payouts[2].SetInt64(1)
		return payouts
	}

	lower, _ := uint256.FromBig(s.Lower)
	upper, _ := uint256.FromBig(s.Upper)
	a := parse(answer)

	switch {
	case !a.Gt(lower):
		payouts[0].SetInt64(1)
	case !a.Lt(upper):
		payouts[1].SetInt64(1)
	default:
		payouts[0] = new(uint256.Int).Sub(upper, a).ToBig()
		payouts[1] = new(uint256.Int).Sub(a, lower).ToBig()
	}
	return payouts
}

func resolveMultiScalar(s MultiScalar, answers []common.Hash) []*big.Int {
	payouts := zeros(s.Slots())
	invalid := len(payouts) - 1

	allZero := true
	for i, answer := range answers {
		if answer == InvalidResult {
			continue
		}
		a := parse(answer)
		if a.Gt(maxPayout) {
			a.Set(maxPayout)
		}
		if !a.IsZero() {
			allZero = false
		}
		payouts[i] = a.ToBig()
	}

	if allZero {
		payouts[invalid].SetInt64(1)
	}
	return payouts
}

func parse(answer common.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes32(answer[:])
}

func zeros(n uint64) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = new(big.Int)
	}
	return out
}

func checkOutcomes(outcomes int) error {
	if outcomes < 1 || outcomes+1 > 256 {
		return apperror.New(apperror.CodeInvalidOutcomeSlotCount,
			apperror.WithContextf("%d outcomes", outcomes))
	}
	return nil
}

func unknownShape(s any) error {
	return apperror.New(apperror.CodeUnknownShape, apperror.WithContextf("%v", s))
}
