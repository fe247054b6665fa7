package domain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Reality.eth templates used by the market shapes.
const (
	TemplateUint           uint32 = 1
	TemplateSingleSelect   uint32 = 2
	TemplateMultipleSelect uint32 = 3
)

// Separator between Reality.eth question fields (U+241F).
const Separator = "␟"

// Question is a Reality.eth v3 question as asked by the market factory.
type Question struct {
	TemplateID uint32
	OpeningTS  uint32
	Text       string
	Arbitrator common.Address
	Timeout    uint32
	MinBond    *big.Int
	Nonce      *big.Int
}

// ContentHash is keccak256(templateID ‖ openingTS ‖ text), with templateID
// encoded as uint256 and openingTS as uint32.
func (q Question) ContentHash() common.Hash {
	return crypto.Keccak256Hash(
		math.U256Bytes(new(big.Int).SetUint64(uint64(q.TemplateID))),
		uint32Bytes(q.OpeningTS),
		[]byte(q.Text),
	)
}

// ID is the question id Reality.eth v3 assigns when sender asks q on the
// realitio contract.
func (q Question) ID(realitio, sender common.Address) common.Hash {
	return crypto.Keccak256Hash(
		q.ContentHash().Bytes(),
		q.Arbitrator.Bytes(),
		uint32Bytes(q.Timeout),
		math.U256Bytes(orZero(q.MinBond)),
		realitio.Bytes(),
		sender.Bytes(),
		math.U256Bytes(orZero(q.Nonce)),
	)
}

// EncodeQuestion formats question text the way the market factory does:
// title␟"outcome1","outcome2"␟category␟lang. Outcomes are omitted for uint
// questions.
func EncodeQuestion(title string, outcomes []string, category, lang string) string {
	parts := []string{title}
	if len(outcomes) > 0 {
		quoted := make([]string, len(outcomes))
		for i, o := range outcomes {
			quoted[i] = `"` + o + `"`
		}
		parts = append(parts, strings.Join(quoted, ","))
	}
	parts = append(parts, category, lang)
	return strings.Join(parts, Separator)
}

// ConditionQuestionID returns the question id of the condition behind a
// market: the only question id, or keccak256 of all of them in order.
func ConditionQuestionID(questionIDs []common.Hash) common.Hash {
	if len(questionIDs) == 1 {
		return questionIDs[0]
	}
	buf := make([]byte, 0, len(questionIDs)*common.HashLength)
	for _, q := range questionIDs {
		buf = append(buf, q.Bytes()...)
	}
	return crypto.Keccak256Hash(buf)
}

func uint32Bytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
