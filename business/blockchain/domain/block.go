// Package domain holds chain head and clock types.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is the head a deadline is checked against.
type Block struct {
	Number    uint64
	Hash      common.Hash
	Timestamp time.Time
}

// FromHeader keeps the fields of header the clock reads.
func FromHeader(header *types.Header) *Block {
	return &Block{
		Number:    header.Number.Uint64(),
		Hash:      header.Hash(),
		Timestamp: time.Unix(int64(header.Time), 0).UTC(),
	}
}

// ClockSource names where deadline time comes from.
type ClockSource string

const (
	// ClockSystem reads the local wall clock.
	ClockSystem ClockSource = "system"

	// ClockBlock reads the latest block timestamp, as an on-chain deadline check does.
	ClockBlock ClockSource = "block"
)
