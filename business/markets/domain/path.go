package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Direction of a hop relative to the market tree.
type Direction uint8

const (
	// Buy moves from a parent token into an outcome token.
	Buy Direction = iota
	// Sell moves from an outcome token back to its parent token.
	Sell
)

func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// Hop is one step of a path. Market and Outcome identify the outcome token
// on the child side of the hop.
type Hop struct {
	TokenIn   common.Address
	TokenOut  common.Address
	Market    common.Address
	Outcome   int
	Direction Direction
}

// OutcomeToken is the child-side token of the hop.
func (h Hop) OutcomeToken() common.Address {
	if h.Direction == Buy {
		return h.TokenOut
	}
	return h.TokenIn
}

// ParentToken is the collateral or parent outcome token of the hop.
func (h Hop) ParentToken() common.Address {
	if h.Direction == Buy {
		return h.TokenIn
	}
	return h.TokenOut
}

func (h Hop) String() string {
	return fmt.Sprintf("%s %s->%s", h.Direction, h.TokenIn.Hex()[:10], h.TokenOut.Hex()[:10])
}

// Path is an ordered list of hops where each hop's TokenOut is the next
// hop's TokenIn.
type Path []Hop

// TokenIn returns the first input token.
func (p Path) TokenIn() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[0].TokenIn
}

// TokenOut returns the final output token.
func (p Path) TokenOut() common.Address {
	if len(p) == 0 {
		return common.Address{}
	}
	return p[len(p)-1].TokenOut
}

// Connected reports whether consecutive hops chain token to token.
func (p Path) Connected() bool {
	for i := 1; i < len(p); i++ {
		if p[i-1].TokenOut != p[i].TokenIn {
			return false
		}
	}
	return true
}
