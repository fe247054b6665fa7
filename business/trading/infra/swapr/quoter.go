// Package swapr prices outcome token swaps on the Algebra quoter used by Swapr
// on Gnosis Chain. Algebra pools have a dynamic fee, so there is no tier sweep.
package swapr

import (
	"context"
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
	tracerName = "swapr"
	meterName  = "swapr"
)

var _ app.SwapQuoter = (*Quoter)(nil)

// Quoter calls quoteExactInputSingle with no price limit.
type Quoter struct {
	caller *contract.Caller
	logger logger.LoggerInterface

	tracer       trace.Tracer
	quotesTotal  metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// NewQuoter binds the Algebra quoter at address.
func NewQuoter(client ethereum.ContractCaller, address common.Address, log logger.LoggerInterface, opts ...contract.Option) (*Quoter, error) {
	caller, err := contract.New(client, address, AlgebraQuoterABI, "swapr-quoter", opts...)
	if err != nil {
		return nil, err
	}

	meter := otel.Meter(meterName)
	quotesTotal, err := meter.Int64Counter(
		"swapr_quotes_total",
		metric.WithDescription("Quote requests by result code"),
	)
	if err != nil {
		return nil, err
	}
	quoteLatency, err := meter.Float64Histogram(
		"swapr_quote_latency_ms",
		metric.WithDescription("Quote request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Quoter{
		caller:       caller,
		logger:       log,
		tracer:       otel.Tracer(tracerName),
		quotesTotal:  quotesTotal,
		quoteLatency: quoteLatency,
	}, nil
}

// QuoteExactInputSingle returns the pool output for amountIn. A revert means
// no pool or no liquidity and comes back as CodeQuoteFailed.
func (q *Quoter) QuoteExactInputSingle(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, error) {
	ctx, span := q.tracer.Start(ctx, "swapr.quote",
		trace.WithAttributes(
			attribute.String("token_in", tokenIn.Hex()),
			attribute.String("token_out", tokenOut.Hex()),
			attribute.String("amount_in", amountIn.String()),
		),
	)
	defer span.End()

	start := time.Now()
	out, fee, err := q.call(ctx, tokenIn, tokenOut, amountIn)
	q.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		q.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", string(apperror.GetCode(err)))))
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
		return nil, err
	}

	q.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", "OK")))
	span.SetAttributes(
		attribute.String("amount_out", out.String()),
		attribute.Int("fee", int(fee)),
	)
	span.SetStatus(codes.Ok, "quote received")
	return out, nil
}

func (q *Quoter) call(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*big.Int, uint16, error) {
	outputs, err := q.caller.Call(ctx, "quoteExactInputSingle", tokenIn, tokenOut, amountIn, new(big.Int))
	if err != nil {
		if apperror.HasCode(err, apperror.CodeCircuitOpen) {
			return nil, 0, err
		}
		return nil, 0, apperror.New(apperror.CodeQuoteFailed,
			apperror.WithCause(err),
			apperror.WithContextf("%s/%s", tokenIn.Hex(), tokenOut.Hex()))
	}
	if len(outputs) != 2 {
		return nil, 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContextf("unexpected output length: %d", len(outputs)))
	}
	return outputs[0].(*big.Int), outputs[1].(uint16), nil
}
