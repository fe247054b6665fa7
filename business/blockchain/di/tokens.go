// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/fd1az/condrouter/business/blockchain/app"
	"github.com/fd1az/condrouter/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Clock = di.NewToken[*app.ClockService]("blockchain.Clock")
)

// Helper functions for type-safe access
func GetClock(c di.ServiceRegistry) *app.ClockService {
	return di.GetToken(c, Clock)
}
