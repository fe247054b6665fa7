// Package asset describes the ERC-20 tokens the router moves: collateral and
// wrapped outcome tokens. Balances stay big.Int; decimal.Decimal is only used
// at the display and parsing boundary.
package asset

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Kind classifies a token.
type Kind uint8

const (
	KindCollateral Kind = iota
	KindOutcome
)

func (k Kind) String() string {
	switch k {
	case KindCollateral:
		return "collateral"
	case KindOutcome:
		return "outcome"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Asset is token metadata. The address is the identity; the symbol is only
// for display and is not unique across markets.
type Asset struct {
	address  common.Address
	chainID  uint64
	symbol   string
	name     string
	decimals uint8
	kind     Kind
}

// NewToken creates token metadata.
func NewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8, kind Kind) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}
	return &Asset{
		address:  address,
		chainID:  chainID,
		symbol:   symbol,
		name:     name,
		decimals: decimals,
		kind:     kind,
	}
}

// NewOutcomeToken creates metadata for a wrapped outcome token. Wrapped
// outcomes always carry 18 decimals.
func NewOutcomeToken(chainID uint64, address common.Address, symbol, name string) *Asset {
	return NewToken(chainID, address, symbol, name, 18, KindOutcome)
}

func (a *Asset) Address() common.Address { return a.address }
func (a *Asset) ChainID() uint64         { return a.chainID }
func (a *Asset) Symbol() string          { return a.symbol }
func (a *Asset) Decimals() uint8         { return a.decimals }
func (a *Asset) Kind() Kind              { return a.kind }

// Name returns the human-readable name, falling back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

func (a *Asset) String() string {
	return a.symbol
}
