package domain

import (
	"math/big"

	"github.com/fd1az/condrouter/internal/apperror"
)

// MaxOutcomeSlots is the largest outcome slot count a condition may have.
const MaxOutcomeSlots = 256

// FullIndexSet returns 2^slots - 1, the index set containing every outcome slot.
func FullIndexSet(slots uint64) *big.Int {
	full := new(big.Int).Lsh(big.NewInt(1), uint(slots))
	return full.Sub(full, big.NewInt(1))
}

// SingletonPartition returns [1<<0, 1<<1, ..., 1<<(slots-1)].
func SingletonPartition(slots uint64) []*big.Int {
	partition := make([]*big.Int, slots)
	for i := range partition {
		partition[i] = new(big.Int).Lsh(big.NewInt(1), uint(i))
	}
	return partition
}

// IndexSetFor returns the index set selecting the given slots.
func IndexSetFor(slots ...uint64) *big.Int {
	set := new(big.Int)
	for _, s := range slots {
		set.SetBit(set, int(s), 1)
	}
	return set
}

// ValidateIndexSet checks 0 < indexSet < full.
func ValidateIndexSet(indexSet, full *big.Int) error {
	if indexSet == nil || indexSet.Sign() <= 0 || indexSet.Cmp(full) >= 0 {
		return apperror.New(apperror.CodeInvalidIndexSet,
			apperror.WithContextf("index set %v, full set %s", indexSet, full))
	}
	return nil
}

// ValidatePartition checks the partition against a condition with the given slot
// count and returns the union of its index sets.
func ValidatePartition(partition []*big.Int, slots uint64) (*big.Int, error) {
	if len(partition) < 2 {
		return nil, apperror.New(apperror.CodeInvalidPartition,
			apperror.WithContextf("got %d index sets", len(partition)))
	}

	full := FullIndexSet(slots)
	union := new(big.Int)

	for i, indexSet := range partition {
		if err := ValidateIndexSet(indexSet, full); err != nil {
			return nil, err
		}
		if new(big.Int).And(union, indexSet).Sign() != 0 {
			return nil, apperror.New(apperror.CodeNotDisjoint,
				apperror.WithContextf("index set %d (%s) overlaps earlier sets", i, indexSet))
		}
		union.Or(union, indexSet)
	}

	return union, nil
}
