// Package redis shares finalized oracle answers between router instances.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	goredis "github.com/redis/go-redis/v9"

	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/internal/apperror"
)

const keyPrefix = "condrouter:answer:"

var _ app.AnswerCache = (*AnswerCache)(nil)

// AnswerCache stores answers as 32-byte values under condrouter:answer:<questionID>.
type AnswerCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewAnswerCache wraps client. A zero ttl keeps answers forever.
func NewAnswerCache(client goredis.UniversalClient, ttl time.Duration) *AnswerCache {
	return &AnswerCache{client: client, ttl: ttl}
}

// Dial connects to addr and pings it.
func Dial(ctx context.Context, addr string, db int, ttl time.Duration) (*AnswerCache, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperror.New(apperror.CodeExternalServiceError,
			apperror.WithCause(err),
			apperror.WithContextf("redis %s", addr))
	}
	return NewAnswerCache(client, ttl), nil
}

func (a *AnswerCache) Get(ctx context.Context, questionID common.Hash) (common.Hash, bool, error) {
	raw, err := a.client.Get(ctx, key(questionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, apperror.New(apperror.CodeExternalServiceError, apperror.WithCause(err))
	}
	if len(raw) != common.HashLength {
		// corrupt entry: treat as a miss so the oracle is read again
		return common.Hash{}, false, nil
	}
	return common.BytesToHash(raw), true, nil
}

func (a *AnswerCache) Set(ctx context.Context, questionID, answer common.Hash) error {
	if err := a.client.Set(ctx, key(questionID), answer.Bytes(), a.ttl).Err(); err != nil {
		return apperror.New(apperror.CodeExternalServiceError, apperror.WithCause(err))
	}
	return nil
}

// Ping checks the connection, for health checks.
func (a *AnswerCache) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func (a *AnswerCache) Close() error {
	return a.client.Close()
}

func key(questionID common.Hash) string {
	return keyPrefix + questionID.Hex()
}
