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
	positions "github.com/fd1az/condrouter/business/positions/app"
	positionsDomain "github.com/fd1az/condrouter/business/positions/domain"
	"github.com/fd1az/condrouter/business/trading/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

// DefaultDeadline applies when ExactInputParams.Deadline is zero.
const DefaultDeadline = 5 * time.Minute

// RouterConfig configures a Router.
type RouterConfig struct {
	// Address holds intermediate tokens between hops.
	Address         common.Address
	DefaultDeadline time.Duration
	// SlippageBps derives the minimum output in QuoteAndExecute when the
	// caller leaves AmountOutMinimum nil.
	SlippageBps int64
}

// RouterDeps are the collaborators a Router executes hops with.
type RouterDeps struct {
	Ledger    *ledger.Ledger
	Positions PositionManager
	Wrapper   TokenWrapper
	Markets   MarketReader
	Swaps     SwapExecutor
	Paths     PathFinder
	Quoter    *Quoter
	Clock     Clock
}

type routerMetrics struct {
	executions  metric.Int64Counter
	hops        metric.Int64Counter
	execLatency metric.Float64Histogram
}

// Router executes quoted paths atomically on the ledger.
type Router struct {
	cfg    RouterConfig
	deps   RouterDeps
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *routerMetrics
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig, deps RouterDeps, log logger.LoggerInterface) (*Router, error) {
	if cfg.DefaultDeadline <= 0 {
		cfg.DefaultDeadline = DefaultDeadline
	}

	r := &Router{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := r.initMetrics(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Router) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &routerMetrics{}

	r.metrics.executions, err = meter.Int64Counter(
		"router_executions_total",
		metric.WithDescription("Executions by terminal state and code"),
	)
	if err != nil {
		return err
	}

	r.metrics.hops, err = meter.Int64Counter(
		"router_hops_total",
		metric.WithDescription("Executed hops by strategy"),
	)
	if err != nil {
		return err
	}

	r.metrics.execLatency, err = meter.Float64Histogram(
		"router_execution_latency_ms",
		metric.WithDescription("Execution latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// Address returns the account that holds tokens between hops.
func (r *Router) Address() common.Address {
	return r.cfg.Address
}

// ExactInput runs every hop of path with the given strategies inside one ledger
// update. The execution is returned even on failure, in REVERTED state, and no
// balance has changed in that case.
func (r *Router) ExactInput(ctx context.Context, path markets.Path, choices []domain.Strategy, p domain.ExactInputParams) (*domain.Execution, error) {
	ctx, span := r.tracer.Start(ctx, "trading.exact_input",
		trace.WithAttributes(
			attribute.String("token_in", path.TokenIn().Hex()),
			attribute.String("token_out", path.TokenOut().Hex()),
			attribute.Int("hops", len(path)),
		),
	)
	defer span.End()

	if err := validateExactInput(path, choices, p); err != nil {
		return nil, r.fail(ctx, span, nil, err)
	}
	if p.Recipient == (common.Address{}) {
		p.Recipient = p.Payer
	}
	minOut := new(big.Int)
	if p.AmountOutMinimum != nil {
		minOut.Set(p.AmountOutMinimum)
	}

	now, err := r.deps.Clock.Now(ctx)
	if err != nil {
		return nil, r.fail(ctx, span, nil, err)
	}
	deadline := p.Deadline
	if deadline.IsZero() {
		deadline = now.Add(r.cfg.DefaultDeadline)
	}
	if now.After(deadline) {
		return nil, r.fail(ctx, span, nil, apperror.New(apperror.CodeDeadlineExpired,
			apperror.WithContextf("deadline %s passed at %s", deadline.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))))
	}

	exec := domain.NewExecution(path, choices, new(big.Int).Set(p.AmountIn), time.Now())
	span.SetAttributes(attribute.String("execution_id", exec.ID.String()))

	var amountOut *big.Int
	err = r.deps.Ledger.Update(ctx, func(ctx context.Context, tx *ledger.Tx) error {
		if err := tx.Transfer(p.Payer, r.cfg.Address, ledger.ERC20(path.TokenIn()), p.AmountIn); err != nil {
			return err
		}

		amount := new(big.Int).Set(p.AmountIn)
		for k, hop := range path {
			out, err := r.runHop(ctx, k, hop, choices[k], amount, p)
			if err != nil {
				exec.FailedHop = k
				return apperror.New(apperror.CodeHopFailed,
					apperror.WithCause(err),
					apperror.WithContextf("hop %d %s via %s: %s", k, hop, choices[k], apperror.GetCode(err)))
			}
			exec.HopOutputs = append(exec.HopOutputs, new(big.Int).Set(out))
			amount = out
		}

		if amount.Cmp(minOut) < 0 {
			return apperror.New(apperror.CodeSlippageExceeded,
				apperror.WithContextf("output %s below minimum %s", amount, minOut))
		}
		if err := tx.Transfer(r.cfg.Address, p.Recipient, ledger.ERC20(path.TokenOut()), amount); err != nil {
			return err
		}
		amountOut = amount
		return nil
	})
	if err != nil {
		exec.Revert(err, time.Now())
		return exec, r.fail(ctx, span, exec, err)
	}

	exec.Settle(amountOut, time.Now())
	r.metrics.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", string(exec.State)),
		attribute.String("code", "OK"),
	))
	r.metrics.execLatency.Record(ctx, float64(exec.Duration().Milliseconds()))
	span.SetAttributes(attribute.String("amount_out", amountOut.String()))
	span.SetStatus(codes.Ok, "settled")

	r.logger.Info(ctx, "execution settled",
		"execution_id", exec.ID.String(),
		"hops", len(path),
		"amount_in", p.AmountIn.String(),
		"amount_out", amountOut.String(),
		"recipient", p.Recipient.Hex(),
	)
	return exec, nil
}

// QuoteAndExecute builds the path between two tokens, quotes it for the payer
// and executes it. A nil AmountOutMinimum is derived from the quote and the
// configured slippage.
func (r *Router) QuoteAndExecute(ctx context.Context, tokenIn, tokenOut common.Address, p domain.ExactInputParams) (*domain.Quote, *domain.Execution, error) {
	path, err := r.deps.Paths.PathBetween(ctx, tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}

	quote, err := r.deps.Quoter.Quote(ctx, path, p.AmountIn, p.Payer)
	if err != nil {
		return nil, nil, err
	}

	if p.AmountOutMinimum == nil {
		p.AmountOutMinimum = quote.MinimumOut(r.cfg.SlippageBps)
	}

	exec, err := r.ExactInput(ctx, path, quote.Choices(), p)
	return quote, exec, err
}

func (r *Router) runHop(ctx context.Context, k int, hop markets.Hop, choice domain.Strategy, amount *big.Int, p domain.ExactInputParams) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "trading.hop",
		trace.WithAttributes(
			attribute.Int("index", k),
			attribute.String("strategy", string(choice)),
			attribute.String("direction", hop.Direction.String()),
			attribute.String("token_in", hop.TokenIn.Hex()),
			attribute.String("token_out", hop.TokenOut.Hex()),
			attribute.String("amount_in", amount.String()),
		),
	)
	defer span.End()

	var (
		out *big.Int
		err error
	)
	switch choice {
	case domain.StrategySwap:
		out, err = r.deps.Swaps.ExactInputSingle(ctx, r.cfg.Address, hop.TokenIn, hop.TokenOut, amount, new(big.Int))
	case domain.StrategyMint:
		if hop.Direction == markets.Buy {
			out, err = r.mint(ctx, hop, amount, p.Recipient)
		} else {
			out, err = r.merge(ctx, hop, amount, p.Payer)
		}
	default:
		err = apperror.New(apperror.CodeValidationError, apperror.WithContextf("unknown strategy %q", choice))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hop failed")
		return nil, err
	}

	r.metrics.hops.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", string(choice))))
	span.SetAttributes(attribute.String("amount_out", out.String()))
	span.SetStatus(codes.Ok, "hop executed")
	return out, nil
}

// mint turns amount of the parent token into a full set of the hop's market,
// keeps the hop's outcome and sends every sibling to recipient.
func (r *Router) mint(ctx context.Context, hop markets.Hop, amount *big.Int, recipient common.Address) (*big.Int, error) {
	m, err := r.deps.Markets.Get(ctx, hop.Market)
	if err != nil {
		return nil, err
	}
	router := r.cfg.Address

	if !m.IsRoot() {
		if err := r.deps.Wrapper.Unwrap(ctx, router, hop.ParentToken(), amount); err != nil {
			return nil, err
		}
	}
	if err := r.deps.Positions.SplitPosition(ctx, fullSet(m, router, amount)); err != nil {
		return nil, err
	}

	for i, token := range m.WrappedTokens {
		if err := r.deps.Wrapper.Wrap(ctx, router, token, amount); err != nil {
			return nil, err
		}
		if i == hop.Outcome {
			continue
		}
		if err := r.deps.Ledger.Transfer(ctx, router, recipient, ledger.ERC20(token), amount); err != nil {
			return nil, err
		}
	}
	return new(big.Int).Set(amount), nil
}

// merge pulls the siblings of the hop's outcome from payer, merges the full
// set and returns amount of the parent token to the router.
func (r *Router) merge(ctx context.Context, hop markets.Hop, amount *big.Int, payer common.Address) (*big.Int, error) {
	m, err := r.deps.Markets.Get(ctx, hop.Market)
	if err != nil {
		return nil, err
	}
	router := r.cfg.Address

	for i, token := range m.WrappedTokens {
		if i != hop.Outcome {
			if err := r.deps.Ledger.Transfer(ctx, payer, router, ledger.ERC20(token), amount); err != nil {
				return nil, err
			}
		}
		if err := r.deps.Wrapper.Unwrap(ctx, router, token, amount); err != nil {
			return nil, err
		}
	}

	if err := r.deps.Positions.MergePositions(ctx, fullSet(m, router, amount)); err != nil {
		return nil, err
	}
	if !m.IsRoot() {
		if err := r.deps.Wrapper.Wrap(ctx, router, hop.ParentToken(), amount); err != nil {
			return nil, err
		}
	}
	return new(big.Int).Set(amount), nil
}

func (r *Router) fail(ctx context.Context, span trace.Span, exec *domain.Execution, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "execution failed")

	state := string(domain.ExecutionReverted)
	attrs := []any{"code", apperror.GetCode(err), "error", err}
	if exec != nil {
		attrs = append(attrs, "execution_id", exec.ID.String(), "failed_hop", exec.FailedHop)
		r.metrics.execLatency.Record(ctx, float64(exec.Duration().Milliseconds()))
	} else {
		state = "REJECTED"
	}
	r.metrics.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", state),
		attribute.String("code", string(apperror.GetCode(err))),
	))

	r.logger.Warn(ctx, "execution failed", attrs...)
	return err
}

func fullSet(m *markets.Market, account common.Address, amount *big.Int) positions.SplitParams {
	return positions.SplitParams{
		Account:            account,
		Collateral:         m.Collateral,
		ParentCollectionID: m.ParentCollectionID,
		ConditionID:        m.ConditionID,
		Partition:          positionsDomain.SingletonPartition(uint64(m.Slots())),
		Amount:             amount,
	}
}

func validateExactInput(path markets.Path, choices []domain.Strategy, p domain.ExactInputParams) error {
	switch {
	case len(path) == 0 || !path.Connected():
		return apperror.New(apperror.CodeInvalidPath, apperror.WithContext("empty or disconnected path"))
	case len(choices) != len(path):
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContextf("%d choices for %d hops", len(choices), len(path)))
	case p.Payer == (common.Address{}):
		return apperror.New(apperror.CodeValidationError, apperror.WithContext("payer is required"))
	case p.AmountIn == nil || p.AmountIn.Sign() <= 0:
		return apperror.New(apperror.CodeInvalidAmount, apperror.WithContext("amount in must be positive"))
	case p.AmountOutMinimum != nil && p.AmountOutMinimum.Sign() < 0:
		return apperror.New(apperror.CodeInvalidAmount, apperror.WithContext("minimum out is negative"))
	}
	return nil
}
