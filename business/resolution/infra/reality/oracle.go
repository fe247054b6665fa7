// Package reality reads final answers from a deployed Reality.eth v3 contract.
package reality

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/resolution/app"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/contract"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "reality"
	meterName  = "reality"
)

var _ app.OracleReader = (*Oracle)(nil)

// Oracle implements app.OracleReader over Reality.eth v3.
type Oracle struct {
	caller *contract.Caller
	logger logger.LoggerInterface

	tracer trace.Tracer
	reads  metric.Int64Counter
}

// NewOracle binds the Reality.eth contract at address.
func NewOracle(client ethereum.ContractCaller, address common.Address, log logger.LoggerInterface, opts ...contract.Option) (*Oracle, error) {
	caller, err := contract.New(client, address, RealityV3ABI, "reality", opts...)
	if err != nil {
		return nil, err
	}

	reads, err := otel.Meter(meterName).Int64Counter(
		"reality_reads_total",
		metric.WithDescription("Reality.eth answer reads by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return &Oracle{
		caller: caller,
		logger: log,
		tracer: otel.Tracer(tracerName),
		reads:  reads,
	}, nil
}

// FinalAnswer returns resultFor(questionID) once isFinalized(questionID) holds.
func (o *Oracle) FinalAnswer(ctx context.Context, questionID common.Hash) (common.Hash, error) {
	ctx, span := o.tracer.Start(ctx, "reality.final_answer",
		trace.WithAttributes(attribute.String("question_id", questionID.Hex())),
	)
	defer span.End()

	out, err := o.caller.Call(ctx, "isFinalized", questionID)
	if err != nil {
		return common.Hash{}, o.fail(ctx, span, questionID, err)
	}
	if finalized, _ := out[0].(bool); !finalized {
		o.reads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "pending")))
		span.SetStatus(codes.Error, "not finalized")
		return common.Hash{}, apperror.New(apperror.CodeAnswerNotFinalized, apperror.WithContext(questionID.Hex()))
	}

	out, err = o.caller.Call(ctx, "resultFor", questionID)
	if err != nil {
		return common.Hash{}, o.fail(ctx, span, questionID, err)
	}
	raw, ok := out[0].([32]byte)
	if !ok {
		return common.Hash{}, o.fail(ctx, span, questionID, fmt.Errorf("unexpected resultFor output %T", out[0]))
	}

	answer := common.Hash(raw)
	o.reads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "final")))
	span.SetAttributes(attribute.String("answer", answer.Hex()))
	span.SetStatus(codes.Ok, "final")

	o.logger.Debug(ctx, "reality answer",
		"question_id", questionID.Hex(),
		"answer", answer.Hex(),
	)
	return answer, nil
}

func (o *Oracle) fail(ctx context.Context, span trace.Span, questionID common.Hash, err error) error {
	o.reads.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "error")))
	span.RecordError(err)
	span.SetStatus(codes.Error, "oracle call failed")

	return apperror.New(apperror.CodeOracleCallFailed,
		apperror.WithCause(err),
		apperror.WithContextf("question %s", questionID.Hex()))
}
