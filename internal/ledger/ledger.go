// Package ledger is the ordered, journaled balance store that every value-moving
// operation runs against. It plays the role the chain state plays on-chain:
// an operation either commits all of its balance changes or none of them.
package ledger

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/internal/apperror"
)

// Asset identifies a balance. ID is zero for ERC-20 balances of Token; otherwise
// it is the ERC-1155 id held in contract Token.
type Asset struct {
	Token common.Address
	ID    common.Hash
}

// ERC20 returns the asset for a fungible token balance.
func ERC20(token common.Address) Asset {
	return Asset{Token: token}
}

// ERC1155 returns the asset for a multi-token id held in contract.
func ERC1155(contract common.Address, id common.Hash) Asset {
	return Asset{Token: contract, ID: id}
}

func (a Asset) String() string {
	if a.ID == (common.Hash{}) {
		return a.Token.Hex()
	}
	return fmt.Sprintf("%s#%s", a.Token.Hex(), a.ID.Hex())
}

type key struct {
	account common.Address
	asset   Asset
}

type change struct {
	key  key
	prev *big.Int // nil: the key did not exist
}

// Ledger holds balances and total supplies.
type Ledger struct {
	mu       sync.Mutex
	balances map[key]*big.Int
	supply   map[Asset]*big.Int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[key]*big.Int),
		supply:   make(map[Asset]*big.Int),
	}
}

type txKey struct{}

// Tx is the view of the ledger inside Update. It is only valid for the duration
// of the callback that received it.
type Tx struct {
	l       *Ledger
	journal []change
	supply  []supplyChange
}

type supplyChange struct {
	asset Asset
	prev  *big.Int
}

// Update runs fn as one atomic operation. If fn returns an error every balance
// change made inside it is reverted. Calls made with a context derived from an
// outer Update join that transaction; a failing inner call reverts only its own
// changes and leaves the decision to the outer caller.
func (l *Ledger) Update(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok && tx.l == l {
		mark, smark := len(tx.journal), len(tx.supply)
		if err := fn(ctx, tx); err != nil {
			tx.revert(mark, smark)
			return err
		}
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &Tx{l: l}
	if err := fn(context.WithValue(ctx, txKey{}, tx), tx); err != nil {
		tx.revert(0, 0)
		return err
	}
	return nil
}

// BalanceOf returns a copy of account's balance of asset. Inside an Update it
// reads the transaction view.
func (l *Ledger) BalanceOf(ctx context.Context, account common.Address, asset Asset) *big.Int {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok && tx.l == l {
		return tx.BalanceOf(account, asset)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceOf(account, asset)
}

// TotalSupply returns the sum of all balances of asset.
func (l *Ledger) TotalSupply(ctx context.Context, asset Asset) *big.Int {
	if tx, ok := ctx.Value(txKey{}).(*Tx); ok && tx.l == l {
		return tx.TotalSupply(asset)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalSupply(asset)
}

// Mint is a single-operation convenience around Tx.Mint.
func (l *Ledger) Mint(ctx context.Context, account common.Address, asset Asset, amount *big.Int) error {
	return l.Update(ctx, func(_ context.Context, tx *Tx) error {
		return tx.Mint(account, asset, amount)
	})
}

// Transfer is a single-operation convenience around Tx.Transfer.
func (l *Ledger) Transfer(ctx context.Context, from, to common.Address, asset Asset, amount *big.Int) error {
	return l.Update(ctx, func(_ context.Context, tx *Tx) error {
		return tx.Transfer(from, to, asset, amount)
	})
}

func (l *Ledger) balanceOf(account common.Address, asset Asset) *big.Int {
	if b, ok := l.balances[key{account, asset}]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *Ledger) totalSupply(asset Asset) *big.Int {
	if s, ok := l.supply[asset]; ok {
		return new(big.Int).Set(s)
	}
	return new(big.Int)
}

// BalanceOf returns a copy of account's balance of asset.
func (tx *Tx) BalanceOf(account common.Address, asset Asset) *big.Int {
	return tx.l.balanceOf(account, asset)
}

// TotalSupply returns the sum of all balances of asset.
func (tx *Tx) TotalSupply(asset Asset) *big.Int {
	return tx.l.totalSupply(asset)
}

// Mint credits amount of asset to account and grows the supply.
func (tx *Tx) Mint(account common.Address, asset Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}

	tx.set(account, asset, new(big.Int).Add(tx.l.balanceOf(account, asset), amount))
	tx.setSupply(asset, new(big.Int).Add(tx.l.totalSupply(asset), amount))
	return nil
}

// Burn debits amount of asset from account and shrinks the supply.
func (tx *Tx) Burn(account common.Address, asset Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}

	bal := tx.l.balanceOf(account, asset)
	if bal.Cmp(amount) < 0 {
		return insufficient(account, asset, bal, amount)
	}

	tx.set(account, asset, bal.Sub(bal, amount))
	tx.setSupply(asset, new(big.Int).Sub(tx.l.totalSupply(asset), amount))
	return nil
}

// Transfer moves amount of asset between accounts. Supply is unchanged.
func (tx *Tx) Transfer(from, to common.Address, asset Asset, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal := tx.l.balanceOf(from, asset)
	if bal.Cmp(amount) < 0 {
		return insufficient(from, asset, bal, amount)
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}

	tx.set(from, asset, bal.Sub(bal, amount))
	tx.set(to, asset, new(big.Int).Add(tx.l.balanceOf(to, asset), amount))
	return nil
}

func (tx *Tx) set(account common.Address, asset Asset, v *big.Int) {
	k := key{account, asset}
	prev, ok := tx.l.balances[k]
	if !ok {
		prev = nil
	}
	tx.journal = append(tx.journal, change{key: k, prev: prev})

	if v.Sign() == 0 {
		delete(tx.l.balances, k)
		return
	}
	tx.l.balances[k] = v
}

func (tx *Tx) setSupply(asset Asset, v *big.Int) {
	prev, ok := tx.l.supply[asset]
	if !ok {
		prev = nil
	}
	tx.supply = append(tx.supply, supplyChange{asset: asset, prev: prev})

	if v.Sign() == 0 {
		delete(tx.l.supply, asset)
		return
	}
	tx.l.supply[asset] = v
}

func (tx *Tx) revert(mark, smark int) {
	for i := len(tx.journal) - 1; i >= mark; i-- {
		c := tx.journal[i]
		if c.prev == nil {
			delete(tx.l.balances, c.key)
		} else {
			tx.l.balances[c.key] = c.prev
		}
	}
	tx.journal = tx.journal[:mark]

	for i := len(tx.supply) - 1; i >= smark; i-- {
		c := tx.supply[i]
		if c.prev == nil {
			delete(tx.l.supply, c.asset)
		} else {
			tx.l.supply[c.asset] = c.prev
		}
	}
	tx.supply = tx.supply[:smark]
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return apperror.New(apperror.CodeInvalidAmount, apperror.WithContextf("amount %v", amount))
	}
	return nil
}

func insufficient(account common.Address, asset Asset, have, want *big.Int) error {
	return apperror.New(apperror.CodeInsufficientBalance,
		apperror.WithContextf("account %s asset %s: have %s, want %s", account.Hex(), asset, have, want))
}
