// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/fd1az/condrouter/business/trading/app"
	"github.com/fd1az/condrouter/business/trading/infra/amm"
	"github.com/fd1az/condrouter/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Quoter = di.NewToken[*app.Quoter]("trading.Quoter")
	Router = di.NewToken[*app.Router]("trading.Router")
	Pools  = di.NewToken[*amm.Pools]("trading.Pools")
)

// Private dependency tokens - internal to trading module
var (
	SwapQuoter = di.NewToken[app.SwapQuoter]("trading:swapQuoter")
)

func GetQuoter(c di.ServiceRegistry) *app.Quoter {
	return di.GetToken(c, Quoter)
}

func GetRouter(c di.ServiceRegistry) *app.Router {
	return di.GetToken(c, Router)
}

func GetPools(c di.ServiceRegistry) *amm.Pools {
	return di.GetToken(c, Pools)
}

func GetSwapQuoter(c di.ServiceRegistry) app.SwapQuoter {
	return di.GetToken(c, SwapQuoter)
}
