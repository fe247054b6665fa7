// Package di contains dependency injection tokens for the positions context.
package di

import (
	"github.com/fd1az/condrouter/business/positions/app"
	"github.com/fd1az/condrouter/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PositionService = di.NewToken[*app.PositionService]("positions.PositionService")
	Wrapper         = di.NewToken[*app.Wrapper]("positions.Wrapper")
)

// Private dependency tokens - internal to positions module
var (
	ConditionRepository = di.NewToken[app.ConditionRepository]("positions:conditionRepository")
)

func GetPositionService(c di.ServiceRegistry) *app.PositionService {
	return di.GetToken(c, PositionService)
}

func GetWrapper(c di.ServiceRegistry) *app.Wrapper {
	return di.GetToken(c, Wrapper)
}

func GetConditionRepository(c di.ServiceRegistry) app.ConditionRepository {
	return di.GetToken(c, ConditionRepository)
}
