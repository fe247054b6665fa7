// Package di contains dependency injection tokens for the resolution context.
package di

import (
	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Service = di.NewToken[*app.Service]("resolution.Service")
)

// Private dependency tokens - internal to resolution module
var (
	OracleReader = di.NewToken[app.OracleReader]("resolution:oracleReader")
	AnswerCache  = di.NewToken[app.AnswerCache]("resolution:answerCache")
)

func GetService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, Service)
}

func GetOracleReader(c di.ServiceRegistry) app.OracleReader {
	return di.GetToken(c, OracleReader)
}

func GetAnswerCache(c di.ServiceRegistry) app.AnswerCache {
	return di.GetToken(c, AnswerCache)
}
