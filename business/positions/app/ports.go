// Package app contains application services and port definitions for the positions context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/positions/domain"
)

// ConditionRepository stores prepared conditions and their payout state.
type ConditionRepository interface {
	// Get returns a copy of the condition or CodeConditionNotPrepared.
	Get(ctx context.Context, id common.Hash) (*domain.Condition, error)

	// Create stores a new condition or fails with CodeConditionAlreadyPrepared.
	Create(ctx context.Context, c *domain.Condition) error

	// Update replaces a stored condition.
	Update(ctx context.Context, c *domain.Condition) error
}

// SplitParams describes a split or merge of amount across partition.
type SplitParams struct {
	Account            common.Address
	Collateral         common.Address
	ParentCollectionID common.Hash
	ConditionID        common.Hash
	Partition          []*big.Int
	Amount             *big.Int
}

// RedeemParams describes a redemption of the given index sets.
type RedeemParams struct {
	Account            common.Address
	Collateral         common.Address
	ParentCollectionID common.Hash
	ConditionID        common.Hash
	IndexSets          []*big.Int
}
