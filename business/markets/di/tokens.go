// Package di contains dependency injection tokens for the markets context.
package di

import (
	"github.com/fd1az/condrouter/business/markets/app"
	"github.com/fd1az/condrouter/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Factory    = di.NewToken[*app.Factory]("markets.Factory")
	Graph      = di.NewToken[*app.Graph]("markets.Graph")
	Repository = di.NewToken[app.Repository]("markets.Repository")
)

func GetFactory(c di.ServiceRegistry) *app.Factory {
	return di.GetToken(c, Factory)
}

func GetGraph(c di.ServiceRegistry) *app.Graph {
	return di.GetToken(c, Graph)
}

func GetRepository(c di.ServiceRegistry) app.Repository {
	return di.GetToken(c, Repository)
}
