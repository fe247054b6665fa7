package asset

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/internal/apperror"
)

// Registry is a thread-safe registry of known tokens, keyed by address.
type Registry struct {
	mu        sync.RWMutex
	byAddress map[common.Address]*Asset
	bySymbol  map[string][]*Asset // outcome symbols repeat across markets
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]*Asset),
		bySymbol:  make(map[string][]*Asset),
	}
}

// Register adds a token. Registering the same address twice fails.
func (r *Registry) Register(a *Asset) error {
	if a == nil {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("nil asset"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[a.Address()]; exists {
		return apperror.New(apperror.CodeInvalidState,
			apperror.WithContextf("asset %s already registered", a.Address().Hex()))
	}

	r.byAddress[a.Address()] = a
	r.bySymbol[a.Symbol()] = append(r.bySymbol[a.Symbol()], a)
	return nil
}

// MustRegister is Register for static token lists.
func (r *Registry) MustRegister(a *Asset) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Get retrieves a token by address.
func (r *Registry) Get(address common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byAddress[address]
	return a, ok
}

// Symbol returns the token symbol, or the short hex address for unknown tokens.
func (r *Registry) Symbol(address common.Address) string {
	if a, ok := r.Get(address); ok {
		return a.Symbol()
	}
	return address.Hex()[:10]
}

// GetBySymbol retrieves all tokens with the given symbol.
func (r *Registry) GetBySymbol(symbol string) []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assets := r.bySymbol[symbol]
	if len(assets) == 0 {
		return nil
	}

	result := make([]*Asset, len(assets))
	copy(result, assets)
	return result
}

// All returns every registered token ordered by address.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.byAddress))
	for _, a := range r.byAddress {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address().Cmp(result[j].Address()) < 0
	})
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
