package memory

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/internal/cache"
)

var _ app.AnswerCache = (*AnswerCache)(nil)

// AnswerCache keeps final answers in an in-process TTL cache.
type AnswerCache struct {
	c   *cache.Cache[common.Hash, common.Hash]
	ttl time.Duration
}

func NewAnswerCache(ttl time.Duration) *AnswerCache {
	return &AnswerCache{
		c:   cache.New[common.Hash, common.Hash](time.Minute),
		ttl: ttl,
	}
}

func (a *AnswerCache) Get(ctx context.Context, questionID common.Hash) (common.Hash, bool, error) {
	v, ok := a.c.Get(ctx, questionID)
	return v, ok, nil
}

func (a *AnswerCache) Set(ctx context.Context, questionID, answer common.Hash) error {
	a.c.Set(ctx, questionID, answer, a.ttl)
	return nil
}

// Close stops the cache janitor.
func (a *AnswerCache) Close() {
	a.c.Close()
}
