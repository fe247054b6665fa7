package app

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	markets "github.com/fd1az/condrouter/business/markets/domain"
	"github.com/fd1az/condrouter/business/trading/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "trading"
	meterName  = "trading"
)

type quoterMetrics struct {
	quotesTotal  metric.Int64Counter
	swapFailures metric.Int64Counter
	quoteLatency metric.Float64Histogram
}

// Quoter prices a path hop by hop, choosing between the pool swap and the
// full-set mint for each hop.
type Quoter struct {
	swaps    SwapQuoter
	markets  MarketReader
	balances BalanceReader
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *quoterMetrics
}

// NewQuoter creates a Quoter.
func NewQuoter(swaps SwapQuoter, markets MarketReader, balances BalanceReader, log logger.LoggerInterface) (*Quoter, error) {
	q := &Quoter{
		swaps:    swaps,
		markets:  markets,
		balances: balances,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := q.initMetrics(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *Quoter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	q.metrics = &quoterMetrics{}

	q.metrics.quotesTotal, err = meter.Int64Counter(
		"quoter_quotes_total",
		metric.WithDescription("Path quotes by result code"),
	)
	if err != nil {
		return err
	}

	q.metrics.swapFailures, err = meter.Int64Counter(
		"quoter_swap_failures_total",
		metric.WithDescription("Pool quotes that failed and were counted as zero"),
	)
	if err != nil {
		return err
	}

	q.metrics.quoteLatency, err = meter.Float64Histogram(
		"quoter_quote_latency_ms",
		metric.WithDescription("Path quote latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// Quote prices path for amountIn. Hops are quoted strictly in order because
// each hop's input is the previous hop's chosen output. trader is the account
// whose sibling balances back sell-side merges.
func (q *Quoter) Quote(ctx context.Context, path markets.Path, amountIn *big.Int, trader common.Address) (*domain.Quote, error) {
	ctx, span := q.tracer.Start(ctx, "trading.quote",
		trace.WithAttributes(
			attribute.String("token_in", path.TokenIn().Hex()),
			attribute.String("token_out", path.TokenOut().Hex()),
			attribute.Int("hops", len(path)),
		),
	)
	defer span.End()

	start := time.Now()
	quote, err := q.quote(ctx, path, amountIn, trader)
	q.metrics.quoteLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	code := "OK"
	if err != nil {
		code = string(apperror.GetCode(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "quote failed")
	} else {
		span.SetAttributes(attribute.String("amount_out", quote.AmountOut.String()))
		span.SetStatus(codes.Ok, "quoted")
	}
	q.metrics.quotesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))

	return quote, err
}

func (q *Quoter) quote(ctx context.Context, path markets.Path, amountIn *big.Int, trader common.Address) (*domain.Quote, error) {
	if len(path) == 0 || !path.Connected() {
		return nil, apperror.New(apperror.CodeInvalidPath, apperror.WithContext("empty or disconnected path"))
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidAmount, apperror.WithContext("amount in must be positive"))
	}

	result := &domain.Quote{
		Path:     path,
		AmountIn: new(big.Int).Set(amountIn),
		Hops:     make([]domain.HopQuote, 0, len(path)),
	}

	amount := new(big.Int).Set(amountIn)
	for i, hop := range path {
		swapOut := q.swapQuote(ctx, hop, amount)
		mintOut, err := q.mintQuote(ctx, hop, amount, trader)
		if err != nil {
			return nil, err
		}

		if swapOut.Sign() == 0 && mintOut.Sign() == 0 {
			return nil, apperror.New(apperror.CodeNoRouteAvailable,
				apperror.WithContextf("hop %d %s: no pool liquidity and no full set to merge", i, hop))
		}

		hq := domain.HopQuote{
			Hop:           hop,
			AmountIn:      new(big.Int).Set(amount),
			SwapAmountOut: swapOut,
			MintAmountOut: mintOut,
			Choice:        domain.Choose(swapOut, mintOut),
		}
		result.Hops = append(result.Hops, hq)
		amount = hq.AmountOut()
	}

	result.AmountOut = amount
	return result, nil
}

// swapQuote asks the pool. Any failure counts as zero liquidity.
func (q *Quoter) swapQuote(ctx context.Context, hop markets.Hop, amountIn *big.Int) *big.Int {
	out, err := q.swaps.QuoteExactInputSingle(ctx, hop.TokenIn, hop.TokenOut, amountIn)
	if err != nil || out == nil {
		q.metrics.swapFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("code", string(apperror.GetCode(err))),
		))
		q.logger.Debug(ctx, "swap quote unavailable",
			"hop", hop.String(),
			"amount_in", amountIn.String(),
			"error", err,
		)
		return new(big.Int)
	}
	return out
}

// mintQuote is amountIn for buys. For sells it is amountIn only when trader
// holds amountIn of every sibling outcome token, since the merge needs a full set.
func (q *Quoter) mintQuote(ctx context.Context, hop markets.Hop, amountIn *big.Int, trader common.Address) (*big.Int, error) {
	if hop.Direction == markets.Buy {
		return new(big.Int).Set(amountIn), nil
	}

	m, err := q.markets.Get(ctx, hop.Market)
	if err != nil {
		return nil, err
	}
	for i, token := range m.WrappedTokens {
		if i == hop.Outcome {
			continue
		}
		if q.balances.BalanceOf(ctx, trader, ledger.ERC20(token)).Cmp(amountIn) < 0 {
			return new(big.Int), nil
		}
	}
	return new(big.Int).Set(amountIn), nil
}
