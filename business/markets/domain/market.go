// Package domain contains the market records and path types of the market graph.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

// InvalidTokenName is the wrapped token name of every market's invalid slot.
const InvalidTokenName = "SER-INVALID"

// wrappedTokenDecimals is the decimals byte appended to wrapped token data.
const wrappedTokenDecimals = 18

// wrappedTokenCodeHash stands in for the init code hash of the ERC-20 wrapper.
var wrappedTokenCodeHash = crypto.Keccak256Hash([]byte("Wrapped1155"))

// Market is an immutable market record. Parent links are market addresses
// resolved through a repository.
type Market struct {
	ID         common.Address
	Name       string
	Kind       resolution.Kind
	TemplateID uint32
	Collateral common.Address

	ConditionID common.Hash
	// QuestionID is the condition's question id; QuestionIDs are the
	// Reality.eth questions it was derived from.
	QuestionID  common.Hash
	QuestionIDs []common.Hash

	ParentMarket       common.Address
	ParentOutcome      int
	ParentCollectionID common.Hash

	// Outcomes excludes the invalid slot; TokenNames and WrappedTokens include it.
	Outcomes      []string
	TokenNames    []string
	WrappedTokens []common.Address
	LowerBound    *big.Int
	UpperBound    *big.Int
}

// IsRoot reports whether the market has no parent.
func (m *Market) IsRoot() bool {
	return m.ParentMarket == (common.Address{})
}

// Slots is the outcome slot count of the market's condition.
func (m *Market) Slots() int {
	return len(m.Outcomes) + 1
}

// InvalidOutcome is the index of the invalid slot.
func (m *Market) InvalidOutcome() int {
	return len(m.Outcomes)
}

// Shape returns the payout shape used to resolve the market.
func (m *Market) Shape() (resolution.Shape, error) {
	return resolution.NewShape(m.Kind, len(m.Outcomes), m.LowerBound, m.UpperBound)
}

// OutcomeToken returns the wrapped ERC-20 of outcome i.
func (m *Market) OutcomeToken(i int) (common.Address, error) {
	if i < 0 || i >= len(m.WrappedTokens) {
		return common.Address{}, apperror.New(apperror.CodeInvalidOutcome,
			apperror.WithContextf("market %s has no outcome %d", m.ID.Hex(), i))
	}
	return m.WrappedTokens[i], nil
}

// WrappedOutcome returns the token of outcome i together with the wrapper
// payload it was created with.
func (m *Market) WrappedOutcome(i int) (common.Address, []byte, error) {
	token, err := m.OutcomeToken(i)
	if err != nil {
		return common.Address{}, nil, err
	}
	return token, WrappedTokenData(m.TokenNames[i]), nil
}

// OutcomeIndex returns the outcome wrapped by token.
func (m *Market) OutcomeIndex(token common.Address) (int, bool) {
	for i, t := range m.WrappedTokens {
		if t == token {
			return i, true
		}
	}
	return 0, false
}

// WrappedTokenData is name32 ‖ symbol32 ‖ uint8(18), with name and symbol both
// set to the token name in short string form.
func WrappedTokenData(name string) []byte {
	data := make([]byte, 0, 65)
	data = append(data, shortString(name)...)
	data = append(data, shortString(name)...)
	return append(data, wrappedTokenDecimals)
}

// WrappedTokenAddress derives the ERC-20 address wrapping positionID.
func WrappedTokenAddress(deployer, conditionalTokens common.Address, positionID common.Hash, data []byte) common.Address {
	salt := crypto.Keccak256Hash(conditionalTokens.Bytes(), positionID.Bytes(), data)
	return crypto.CreateAddress2(deployer, salt, wrappedTokenCodeHash.Bytes())
}

// shortString packs s left-aligned into 32 bytes with 2*len in the last byte.
// s is cut at 31 bytes.
func shortString(s string) []byte {
	out := make([]byte, 32)
	n := copy(out[:31], s)
	out[31] = byte(2 * n)
	return out
}

// Clone returns a deep copy.
func (m *Market) Clone() *Market {
	out := *m
	out.QuestionIDs = append([]common.Hash(nil), m.QuestionIDs...)
	out.Outcomes = append([]string(nil), m.Outcomes...)
	out.TokenNames = append([]string(nil), m.TokenNames...)
	out.WrappedTokens = append([]common.Address(nil), m.WrappedTokens...)
	if m.LowerBound != nil {
		out.LowerBound = new(big.Int).Set(m.LowerBound)
	}
	if m.UpperBound != nil {
		out.UpperBound = new(big.Int).Set(m.UpperBound)
	}
	return &out
}
