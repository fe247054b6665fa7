// Package app contains the market factory, the market graph and their ports.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/markets/domain"
)

// Repository stores market records. Implementations return copies.
type Repository interface {
	// Save stores a new market or fails with CodeMarketAlreadyExists.
	Save(ctx context.Context, m *domain.Market) error

	// Get returns the market or CodeMarketNotFound.
	Get(ctx context.Context, id common.Address) (*domain.Market, error)

	// FindByOutcomeToken returns the market wrapping token and the outcome
	// index, or CodeMarketNotFound.
	FindByOutcomeToken(ctx context.Context, token common.Address) (*domain.Market, int, error)

	// Children returns the markets whose parent is parent, in creation order.
	Children(ctx context.Context, parent common.Address) ([]*domain.Market, error)

	// List returns every market in creation order.
	List(ctx context.Context) ([]*domain.Market, error)
}

// ConditionPreparer prepares the condition behind a new market.
type ConditionPreparer interface {
	PrepareCondition(ctx context.Context, oracle common.Address, questionID common.Hash, slots uint64) (common.Hash, error)
	ConditionalTokens() common.Address
}

// TokenBinder binds a wrapped outcome token to the position it wraps.
type TokenBinder interface {
	Register(token common.Address, positionID common.Hash)
}
