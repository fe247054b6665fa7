package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "resolution"
	meterName  = "resolution"

	// maxConcurrentReads bounds parallel oracle reads for multi-question markets.
	maxConcurrentReads = 8
)

// Service reads oracle answers, turns them into payouts and reports them.
type Service struct {
	oracle   OracleReader
	cache    AnswerCache
	reporter PayoutReporter
	// reportAs is the oracle address conditions are prepared with.
	reportAs common.Address
	logger   logger.LoggerInterface

	tracer      trace.Tracer
	resolutions metric.Int64Counter
	cacheHits   metric.Int64Counter
}

// NewService creates a resolution Service. cache may be nil.
func NewService(oracle OracleReader, cache AnswerCache, reporter PayoutReporter, reportAs common.Address, log logger.LoggerInterface) (*Service, error) {
	meter := otel.Meter(meterName)

	resolutions, err := meter.Int64Counter(
		"resolution_resolutions_total",
		metric.WithDescription("Market resolutions by shape and outcome"),
	)
	if err != nil {
		return nil, err
	}
	cacheHits, err := meter.Int64Counter(
		"resolution_answer_cache_hits_total",
		metric.WithDescription("Final answers served from cache"),
	)
	if err != nil {
		return nil, err
	}

	return &Service{
		oracle:      oracle,
		cache:       cache,
		reporter:    reporter,
		reportAs:    reportAs,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
		resolutions: resolutions,
		cacheHits:   cacheHits,
	}, nil
}

// Oracle returns the address payouts are reported as.
func (s *Service) Oracle() common.Address {
	return s.reportAs
}

// Payouts reads the final answers of req and computes the payout vector
// without reporting it.
func (s *Service) Payouts(ctx context.Context, req Request) ([]*big.Int, error) {
	if err := domain.Validate(req.Shape); err != nil {
		return nil, err
	}
	if len(req.QuestionIDs) != req.Shape.Questions() {
		return nil, apperror.New(apperror.CodeInvalidMarket,
			apperror.WithContextf("%s needs %d questions, market has %d",
				req.Shape, req.Shape.Questions(), len(req.QuestionIDs)))
	}

	answers, err := s.finalAnswers(ctx, req.QuestionIDs)
	if err != nil {
		return nil, err
	}

	for i, a := range answers {
		if a == domain.AnsweredTooSoon {
			return nil, apperror.New(apperror.CodeAnsweredTooSoon,
				apperror.WithContextf("question %s", req.QuestionIDs[i].Hex()))
		}
	}

	return domain.Resolve(req.Shape, answers)
}

// Resolve computes the payouts of req and reports them for the market's
// condition. Nothing is reported unless every answer is final and usable.
func (s *Service) Resolve(ctx context.Context, req Request) ([]*big.Int, error) {
	questionID := domain.ConditionQuestionID(req.QuestionIDs)

	ctx, span := s.tracer.Start(ctx, "resolution.resolve",
		trace.WithAttributes(
			attribute.String("shape", string(domain.KindOf(req.Shape))),
			attribute.String("question_id", questionID.Hex()),
			attribute.Int("questions", len(req.QuestionIDs)),
		),
	)
	defer span.End()

	payouts, err := s.Payouts(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, req.Shape, err)
	}

	if err := s.reporter.ReportPayouts(ctx, s.reportAs, questionID, payouts); err != nil {
		return nil, s.fail(ctx, span, req.Shape, err)
	}

	span.SetStatus(codes.Ok, "resolved")
	s.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shape", string(domain.KindOf(req.Shape))),
		attribute.String("code", "OK"),
	))
	s.logger.Info(ctx, "market resolved",
		"question_id", questionID.Hex(),
		"shape", req.Shape.String(),
		"payouts", formatPayouts(payouts),
	)
	return payouts, nil
}

// finalAnswers reads every answer concurrently, preferring the cache.
func (s *Service) finalAnswers(ctx context.Context, questionIDs []common.Hash) ([]common.Hash, error) {
	answers := make([]common.Hash, len(questionIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, q := range questionIDs {
		g.Go(func() error {
			a, err := s.finalAnswer(gctx, q)
			if err != nil {
				return err
			}
			answers[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *Service) finalAnswer(ctx context.Context, questionID common.Hash) (common.Hash, error) {
	if s.cache != nil {
		a, ok, err := s.cache.Get(ctx, questionID)
		if err != nil {
			s.logger.Warn(ctx, "answer cache read failed", "question_id", questionID.Hex(), "error", err)
		} else if ok {
			s.cacheHits.Add(ctx, 1)
			return a, nil
		}
	}

	a, err := s.oracle.FinalAnswer(ctx, questionID)
	if err != nil {
		return common.Hash{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, questionID, a); err != nil {
			s.logger.Warn(ctx, "answer cache write failed", "question_id", questionID.Hex(), "error", err)
		}
	}
	return a, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, shape domain.Shape, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "resolve failed")
	s.resolutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shape", string(domain.KindOf(shape))),
		attribute.String("code", string(apperror.GetCode(err))),
	))
	return err
}

func formatPayouts(payouts []*big.Int) []string {
	out := make([]string, len(payouts))
	for i, p := range payouts {
		out[i] = p.String()
	}
	return out
}
