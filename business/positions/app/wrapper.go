package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
)

// Wrapper converts ERC-1155 positions to ERC-20 outcome tokens and back. Each
// token contract holds the positions it wraps.
type Wrapper struct {
	positions *PositionService

	mu      sync.RWMutex
	byToken map[common.Address]common.Hash
}

// NewWrapper creates a Wrapper over the positions service's ledger.
func NewWrapper(positions *PositionService) *Wrapper {
	return &Wrapper{
		positions: positions,
		byToken:   make(map[common.Address]common.Hash),
	}
}

// Register binds token to the position it wraps.
func (w *Wrapper) Register(token common.Address, positionID common.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.byToken[token] = positionID
}

// PositionOf returns the position wrapped by token.
func (w *Wrapper) PositionOf(token common.Address) (common.Hash, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pid, ok := w.byToken[token]
	return pid, ok
}

// Wrap moves amount of the position into token and mints amount of token to account.
func (w *Wrapper) Wrap(ctx context.Context, account, token common.Address, amount *big.Int) error {
	pid, err := w.lookup(token)
	if err != nil {
		return err
	}

	return w.positions.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		if err := tx.Transfer(account, token, w.positions.PositionAsset(pid), amount); err != nil {
			return err
		}
		return tx.Mint(account, ledger.ERC20(token), amount)
	})
}

// Unwrap burns amount of token and releases the position to account.
func (w *Wrapper) Unwrap(ctx context.Context, account, token common.Address, amount *big.Int) error {
	pid, err := w.lookup(token)
	if err != nil {
		return err
	}

	return w.positions.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		if err := tx.Burn(account, ledger.ERC20(token), amount); err != nil {
			return err
		}
		return tx.Transfer(token, account, w.positions.PositionAsset(pid), amount)
	})
}

func (w *Wrapper) lookup(token common.Address) (common.Hash, error) {
	pid, ok := w.PositionOf(token)
	if !ok {
		return common.Hash{}, apperror.New(apperror.CodeNotFound,
			apperror.WithContextf("no position wrapped by %s", token.Hex()))
	}
	return pid, nil
}
