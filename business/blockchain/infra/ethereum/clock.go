// Package ethereum provides Ethereum blockchain infrastructure adapters.
package ethereum

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/blockchain/app"
	"github.com/fd1az/condrouter/business/blockchain/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/cache"
	"github.com/fd1az/condrouter/internal/circuitbreaker"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "blockchain"
	meterName  = "blockchain"
)

var _ app.Clock = (*BlockClock)(nil)

const latestKey = "latest"

// BlockClockConfig holds configuration for the block clock.
type BlockClockConfig struct {
	// CacheTTL is how long one latest block answers Now. Zero disables caching.
	CacheTTL time.Duration
}

// DefaultBlockClockConfig returns the Gnosis Chain defaults.
func DefaultBlockClockConfig() BlockClockConfig {
	return BlockClockConfig{CacheTTL: 5 * time.Second}
}

type blockClockMetrics struct {
	headerFetches metric.Int64Counter
	cacheHits     metric.Int64Counter
	blockNumber   metric.Int64Gauge
}

// BlockClock answers Now with the latest block timestamp.
type BlockClock struct {
	config  BlockClockConfig
	headers app.HeaderReader
	logger  logger.LoggerInterface

	blocks *cache.Cache[string, *domain.Block]
	cb     *circuitbreaker.CircuitBreaker[*types.Header]

	tracer  trace.Tracer
	metrics *blockClockMetrics
}

// NewBlockClock creates a BlockClock over headers.
func NewBlockClock(cfg BlockClockConfig, headers app.HeaderReader, log logger.LoggerInterface) (*BlockClock, error) {
	c := &BlockClock{
		config:  cfg,
		headers: headers,
		logger:  log,
		blocks:  cache.New[string, *domain.Block](time.Minute),
		cb:      circuitbreaker.New[*types.Header](circuitbreaker.DefaultConfig("block-clock")),
		tracer:  otel.Tracer(tracerName),
	}
	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return c, nil
}

func (c *BlockClock) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &blockClockMetrics{}

	c.metrics.headerFetches, err = meter.Int64Counter(
		"block_header_fetches_total",
		metric.WithDescription("Latest header fetches by result code"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	c.metrics.cacheHits, err = meter.Int64Counter(
		"block_cache_hits_total",
		metric.WithDescription("Latest block served from cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	c.metrics.blockNumber, err = meter.Int64Gauge(
		"block_number",
		metric.WithDescription("Latest block number seen"),
	)
	return err
}

// Now returns the latest block timestamp.
func (c *BlockClock) Now(ctx context.Context) (time.Time, error) {
	b, err := c.LatestBlock(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return b.Timestamp, nil
}

// LatestBlock returns the latest block, cached for CacheTTL.
func (c *BlockClock) LatestBlock(ctx context.Context) (*domain.Block, error) {
	if b, ok := c.blocks.Get(ctx, latestKey); ok {
		c.metrics.cacheHits.Add(ctx, 1)
		return b, nil
	}

	ctx, span := c.tracer.Start(ctx, "eth.latest_block")
	defer span.End()

	header, err := c.cb.Execute(func() (*types.Header, error) {
		return c.headers.HeaderByNumber(ctx, nil)
	})
	if err != nil {
		if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
			err = apperror.New(apperror.CodeEthereumRPCError,
				apperror.WithCause(err),
				apperror.WithContext("failed to fetch latest block"))
		}
		c.metrics.headerFetches.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(apperror.GetCode(err))),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	b := domain.FromHeader(header)
	if c.config.CacheTTL > 0 {
		c.blocks.Set(ctx, latestKey, b, c.config.CacheTTL)
	}

	c.metrics.headerFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("code", "OK")))
	c.metrics.blockNumber.Record(ctx, int64(b.Number))
	span.SetAttributes(
		attribute.Int64("block_number", int64(b.Number)),
		attribute.String("block_hash", b.Hash.Hex()),
	)
	span.SetStatus(codes.Ok, "fetched")
	return b, nil
}

// Close stops the cache janitor.
func (c *BlockClock) Close() {
	c.blocks.Close()
}
