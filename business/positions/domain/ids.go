// Package domain contains the position algebra of the conditional tokens framework:
// condition, collection and position identifiers, index sets and conditions.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/bn256"

	"github.com/fd1az/condrouter/internal/apperror"
)

// RootCollectionID is the empty collection: positions directly backed by collateral.
var RootCollectionID = common.Hash{}

// alt_bn128 field modulus and curve constant (y^2 = x^3 + 3).
var (
	fieldP  = hexBig("30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47")
	curveB  = big.NewInt(3)
	sqrtExp = new(big.Int).Rsh(new(big.Int).Add(fieldP, big.NewInt(1)), 2)
	bit254  = new(big.Int).Lsh(big.NewInt(1), 254)
	low254  = new(big.Int).Sub(bit254, big.NewInt(1))
)

func hexBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("domain: bad constant " + s)
	}
	return v
}

// ConditionID returns keccak256(oracle ‖ questionID ‖ uint256(outcomeSlotCount)).
func ConditionID(oracle common.Address, questionID common.Hash, outcomeSlotCount uint64) common.Hash {
	slots := new(big.Int).SetUint64(outcomeSlotCount)
	return crypto.Keccak256Hash(oracle.Bytes(), questionID.Bytes(), common.LeftPadBytes(slots.Bytes(), 32))
}

// PositionID returns keccak256(collateral ‖ collectionID).
func PositionID(collateral common.Address, collectionID common.Hash) common.Hash {
	return crypto.Keccak256Hash(collateral.Bytes(), collectionID.Bytes())
}

// CollectionID combines parent with the outcome collection (conditionID, indexSet).
//
// The outcome collection is hashed onto alt_bn128 and added to the parent point,
// so the result does not depend on the order in which conditions are nested.
// Points are compressed to 32 bytes: x with the parity of y in bit 254.
func CollectionID(parent, conditionID common.Hash, indexSet *big.Int) (common.Hash, error) {
	x1 := new(big.Int).SetBytes(crypto.Keccak256(conditionID.Bytes(), common.LeftPadBytes(indexSet.Bytes(), 32)))
	odd := x1.Bit(255) == 1

	var y1, yy *big.Int
	for {
		x1.Add(x1, big.NewInt(1))
		x1.Mod(x1, fieldP)
		yy = curveRHS(x1)
		y1 = new(big.Int).Exp(yy, sqrtExp, fieldP)
		if new(big.Int).Exp(y1, big.NewInt(2), fieldP).Cmp(yy) == 0 {
			break
		}
	}
	if odd != (y1.Bit(0) == 1) {
		y1.Sub(fieldP, y1)
	}

	if parent != RootCollectionID {
		raw := parent.Big()
		parentOdd := raw.Bit(254) == 1
		x2 := new(big.Int).And(raw, low254)

		yy2 := curveRHS(x2)
		y2 := new(big.Int).Exp(yy2, sqrtExp, fieldP)
		if parentOdd != (y2.Bit(0) == 1) {
			y2.Sub(fieldP, y2)
		}
		if new(big.Int).Exp(y2, big.NewInt(2), fieldP).Cmp(yy2) != 0 {
			return common.Hash{}, apperror.New(apperror.CodeInvalidCollectionID,
				apperror.WithContext(parent.Hex()))
		}

		sum, err := addPoints(x1, y1, x2, y2)
		if err != nil {
			return common.Hash{}, apperror.New(apperror.CodeInvalidCollectionID,
				apperror.WithCause(err),
				apperror.WithContext(parent.Hex()))
		}
		x1 = new(big.Int).SetBytes(sum[:32])
		y1 = new(big.Int).SetBytes(sum[32:])
	}

	if y1.Bit(0) == 1 {
		x1.Xor(x1, bit254)
	}
	return common.BigToHash(x1), nil
}

func curveRHS(x *big.Int) *big.Int {
	v := new(big.Int).Exp(x, big.NewInt(3), fieldP)
	v.Add(v, curveB)
	return v.Mod(v, fieldP)
}

func addPoints(x1, y1, x2, y2 *big.Int) ([]byte, error) {
	a, err := unmarshalG1(x1, y1)
	if err != nil {
		return nil, err
	}
	b, err := unmarshalG1(x2, y2)
	if err != nil {
		return nil, err
	}
	sum := new(bn256.G1)
	sum.Add(a, b)
	return sum.Marshal(), nil
}

func unmarshalG1(x, y *big.Int) (*bn256.G1, error) {
	buf := make([]byte, 64)
	x.FillBytes(buf[:32])
	y.FillBytes(buf[32:])

	p := new(bn256.G1)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, err
	}
	return p, nil
}
