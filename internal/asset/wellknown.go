package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDGnosis   = 100
)

// Collateral tokens on Gnosis Chain
var (
	AddrSDAIGnosis  = common.HexToAddress("0xaf204776c7245bF4147c2612BF6e5972Ee483701")
	AddrWXDAIGnosis = common.HexToAddress("0xe91D153E0b41518A2Ce8Dd3D7944Fa863463a97d")
	AddrGNOGnosis   = common.HexToAddress("0x9C58BAcC331c9aa871AFD802DB6379a98e80CEdb")
)

var (
	SDAI  = NewToken(ChainIDGnosis, AddrSDAIGnosis, "sDAI", "Savings xDAI", 18, KindCollateral)
	WXDAI = NewToken(ChainIDGnosis, AddrWXDAIGnosis, "WXDAI", "Wrapped XDAI", 18, KindCollateral)
	GNO   = NewToken(ChainIDGnosis, AddrGNOGnosis, "GNO", "Gnosis", 18, KindCollateral)
)

// DefaultRegistry returns a registry pre-populated with the Gnosis Chain
// collateral tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(SDAI)
	r.MustRegister(WXDAI)
	r.MustRegister(GNO)
	return r
}
