// Package uniswap prices outcome token swaps on a Uniswap V3 QuoterV2.
package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/trading/app"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/contract"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "uniswap"
	meterName  = "uniswap"
)

var _ app.SwapQuoter = (*Quoter)(nil)

type quoterMetrics struct {
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
	quoteErrors  metric.Int64Counter
}

// Quoter sweeps the configured fee tiers and keeps the best output.
type Quoter struct {
	caller   *contract.Caller
	feeTiers []int64
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *quoterMetrics
}

// NewQuoter binds the QuoterV2 at address.
func NewQuoter(client ethereum.ContractCaller, address common.Address, feeTiers []int64, log logger.LoggerInterface, opts ...contract.Option) (*Quoter, error) {
	caller, err := contract.New(client, address, QuoterV2ABI, "uniswap-quoter", opts...)
	if err != nil {
		return nil, err
	}
	if len(feeTiers) == 0 {
		feeTiers = DefaultFeeTiers
	}

	q := &Quoter{
		caller:   caller,
		feeTiers: feeTiers,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := q.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return q, nil
}

func (q *Quoter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	q.metrics = &quoterMetrics{}

	q.metrics.quotesTotal, err = meter.Int64Counter(
		"uniswap_quotes_total",
		metric.WithDescription("Total quote requests"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteLatency, err = meter.Float64Histogram(
		"uniswap_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteErrors, err = meter.Int64Counter(
		"uniswap_quote_errors_total",
		metric.WithDescription("Total quote errors"),
	)
	return err
}

// QuoteExactInputSingle returns the best output across fee tiers. A pair with
// no quotable tier fails with CodeQuoteFailed.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	best, err := q.Quote(ctx, tokenIn, tokenOut, amountIn)
	if err != nil {
		return nil, err
	}
	return best.AmountOut, nil
}

// Quote returns the full QuoterV2 result of the best fee tier.
func (q *Quoter) Quote(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*QuoteResult, error) {
	ctx, span := q.tracer.Start(ctx, "uniswap.quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	start := time.Now()
	q.metrics.quotesTotal.Add(ctx, 1)

	var best *QuoteResult
	for _, tier := range q.feeTiers {
		res, err := q.quoteTier(ctx, tokenIn, tokenOut, amountIn, tier)
		if err != nil {
			if apperror.HasCode(err, apperror.CodeCircuitOpen) {
				break
			}
			span.AddEvent("fee_tier_failed",
				trace.WithAttributes(
					attribute.Int64("fee_tier", tier),
					attribute.String("error", err.Error()),
				),
			)
			continue
		}
		if best == nil || res.AmountOut.Cmp(best.AmountOut) > 0 {
			best = res
		}
	}

	q.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if best == nil {
		q.metrics.quoteErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "no valid quote")
		return nil, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithContextf("no pool quotes %s/%s", tokenIn.Hex(), tokenOut.Hex()))
	}

	span.SetAttributes(
		attribute.String("amount_out", best.AmountOut.String()),
		attribute.Int64("fee_tier", best.FeeTier),
	)
	span.SetStatus(codes.Ok, "quote received")

	q.logger.Debug(ctx, "uniswap quote",
		"token_in", tokenIn.Hex(),
		"token_out", tokenOut.Hex(),
		"amount_in", amountIn.String(),
		"amount_out", best.AmountOut.String(),
		"fee_tier", best.FeeTier,
	)
	return best, nil
}

func (q *Quoter) quoteTier(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, tier int64) (*QuoteResult, error) {
	outputs, err := q.caller.Call(ctx, "quoteExactInputSingle", QuoteExactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		AmountIn:          amountIn,
		Fee:               big.NewInt(tier),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, err
	}
	if len(outputs) < 4 {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContextf("unexpected output length: %d", len(outputs)))
	}

	return &QuoteResult{
		AmountOut:               outputs[0].(*big.Int),
		SqrtPriceX96After:       outputs[1].(*big.Int),
		InitializedTicksCrossed: outputs[2].(uint32),
		GasEstimate:             outputs[3].(*big.Int),
		FeeTier:                 tier,
	}, nil
}
