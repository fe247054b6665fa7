// Package app contains application services and port definitions for the blockchain context.
package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
)

// Clock supplies the time deadlines are checked against.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// HeaderReader reads block headers. A nil number means the latest block.
// *ethclient.Client satisfies it.
type HeaderReader interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}
