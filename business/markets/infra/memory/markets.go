// Package memory provides an in-process market repository.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/markets/app"
	"github.com/fd1az/condrouter/business/markets/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

var _ app.Repository = (*MarketRepository)(nil)

type tokenRef struct {
	market  common.Address
	outcome int
}

// MarketRepository keeps markets in creation order with a token index.
type MarketRepository struct {
	mu      sync.RWMutex
	order   []common.Address
	markets map[common.Address]*domain.Market
	tokens  map[common.Address]tokenRef
}

func NewMarketRepository() *MarketRepository {
	return &MarketRepository{
		markets: make(map[common.Address]*domain.Market),
		tokens:  make(map[common.Address]tokenRef),
	}
}

func (r *MarketRepository) Save(_ context.Context, m *domain.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.markets[m.ID]; ok {
		return apperror.New(apperror.CodeMarketAlreadyExists, apperror.WithContext(m.ID.Hex()))
	}
	r.markets[m.ID] = m.Clone()
	r.order = append(r.order, m.ID)
	for i, t := range m.WrappedTokens {
		r.tokens[t] = tokenRef{market: m.ID, outcome: i}
	}
	return nil
}

func (r *MarketRepository) Get(_ context.Context, id common.Address) (*domain.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.markets[id]
	if !ok {
		return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(id.Hex()))
	}
	return m.Clone(), nil
}

func (r *MarketRepository) FindByOutcomeToken(_ context.Context, token common.Address) (*domain.Market, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ref, ok := r.tokens[token]
	if !ok {
		return nil, 0, apperror.New(apperror.CodeMarketNotFound,
			apperror.WithContextf("no market wraps %s", token.Hex()))
	}
	return r.markets[ref.market].Clone(), ref.outcome, nil
}

func (r *MarketRepository) Children(_ context.Context, parent common.Address) ([]*domain.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Market
	for _, id := range r.order {
		if m := r.markets[id]; m.ParentMarket == parent && !m.IsRoot() {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *MarketRepository) List(_ context.Context) ([]*domain.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Market, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.markets[id].Clone())
	}
	return out, nil
}
