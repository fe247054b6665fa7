package app

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/positions/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "positions"
	meterName  = "positions"
)

// PositionService implements split, merge and redeem over the ledger. The
// conditional tokens contract address owns root collateral and is the ERC-1155
// contract for every position.
type PositionService struct {
	ledger            *ledger.Ledger
	conditions        ConditionRepository
	conditionalTokens common.Address
	logger            logger.LoggerInterface

	// serializes payout reports
	reportMu sync.Mutex

	tracer     trace.Tracer
	operations metric.Int64Counter
}

// NewPositionService creates a PositionService.
func NewPositionService(l *ledger.Ledger, conditions ConditionRepository, conditionalTokens common.Address, log logger.LoggerInterface) (*PositionService, error) {
	operations, err := otel.Meter(meterName).Int64Counter(
		"positions_operations_total",
		metric.WithDescription("Position operations by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &PositionService{
		ledger:            l,
		conditions:        conditions,
		conditionalTokens: conditionalTokens,
		logger:            log,
		tracer:            otel.Tracer(tracerName),
		operations:        operations,
	}, nil
}

// ConditionalTokens returns the address holding collateral and positions.
func (s *PositionService) ConditionalTokens() common.Address {
	return s.conditionalTokens
}

// PositionAsset returns the ledger asset for a position id.
func (s *PositionService) PositionAsset(positionID common.Hash) ledger.Asset {
	return ledger.ERC1155(s.conditionalTokens, positionID)
}

// BalanceOf returns account's balance of positionID.
func (s *PositionService) BalanceOf(ctx context.Context, account common.Address, positionID common.Hash) *big.Int {
	return s.ledger.BalanceOf(ctx, account, s.PositionAsset(positionID))
}

// PrepareCondition registers a condition and returns its id.
func (s *PositionService) PrepareCondition(ctx context.Context, oracle common.Address, questionID common.Hash, slots uint64) (common.Hash, error) {
	cond, err := domain.NewCondition(oracle, questionID, slots)
	if err != nil {
		return common.Hash{}, err
	}
	if err := s.conditions.Create(ctx, cond); err != nil {
		return common.Hash{}, err
	}

	s.logger.Info(ctx, "condition prepared",
		"condition_id", cond.ID.Hex(),
		"oracle", oracle.Hex(),
		"question_id", questionID.Hex(),
		"slots", slots,
	)
	return cond.ID, nil
}

// Condition returns the stored condition.
func (s *PositionService) Condition(ctx context.Context, conditionID common.Hash) (*domain.Condition, error) {
	return s.conditions.Get(ctx, conditionID)
}

// ReportPayouts resolves the condition identified by (oracle, questionID). The
// slot count is taken from the payout vector length, so a vector of the wrong
// length addresses a condition that was never prepared.
func (s *PositionService) ReportPayouts(ctx context.Context, oracle common.Address, questionID common.Hash, payouts []*big.Int) error {
	ctx, span := s.tracer.Start(ctx, "positions.report_payouts",
		trace.WithAttributes(
			attribute.String("oracle", oracle.Hex()),
			attribute.String("question_id", questionID.Hex()),
		),
	)
	defer span.End()

	s.reportMu.Lock()
	defer s.reportMu.Unlock()

	conditionID := domain.ConditionID(oracle, questionID, uint64(len(payouts)))
	cond, err := s.conditions.Get(ctx, conditionID)
	if err != nil {
		return s.fail(ctx, span, "report", err)
	}
	if err := cond.Resolve(payouts); err != nil {
		return s.fail(ctx, span, "report", err)
	}
	if err := s.conditions.Update(ctx, cond); err != nil {
		return s.fail(ctx, span, "report", err)
	}

	s.succeed(ctx, span, "report")
	s.logger.Info(ctx, "condition resolved",
		"condition_id", conditionID.Hex(),
		"payout_denominator", cond.PayoutDenominator.String(),
	)
	return nil
}

// SplitPosition mints amount of every partition position to the account. Value
// comes from collateral (root, full partition), the parent position (nested,
// full partition) or the position of the partition's union (partial partition).
func (s *PositionService) SplitPosition(ctx context.Context, p SplitParams) error {
	ctx, span := s.tracer.Start(ctx, "positions.split", trace.WithAttributes(splitAttrs(p)...))
	defer span.End()

	plan, err := s.plan(ctx, p)
	if err != nil {
		return s.fail(ctx, span, "split", err)
	}

	err = s.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		if err := plan.debitSource(tx, p.Account, p.Amount); err != nil {
			return err
		}
		for _, pid := range plan.positions {
			if err := tx.Mint(p.Account, s.PositionAsset(pid), p.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, span, "split", err)
	}

	s.succeed(ctx, span, "split")
	return nil
}

// MergePositions burns amount of every partition position and credits the source.
func (s *PositionService) MergePositions(ctx context.Context, p SplitParams) error {
	ctx, span := s.tracer.Start(ctx, "positions.merge", trace.WithAttributes(splitAttrs(p)...))
	defer span.End()

	plan, err := s.plan(ctx, p)
	if err != nil {
		return s.fail(ctx, span, "merge", err)
	}

	err = s.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		for _, pid := range plan.positions {
			if err := tx.Burn(p.Account, s.PositionAsset(pid), p.Amount); err != nil {
				return err
			}
		}
		return plan.creditSource(tx, p.Account, p.Amount)
	})
	if err != nil {
		return s.fail(ctx, span, "merge", err)
	}

	s.succeed(ctx, span, "merge")
	return nil
}

// RedeemPositions burns the account's full balance of each index set's position
// and pays out balance * numerator / denominator, rounded down, to the parent
// position or as collateral. It returns the total payout.
func (s *PositionService) RedeemPositions(ctx context.Context, p RedeemParams) (*big.Int, error) {
	ctx, span := s.tracer.Start(ctx, "positions.redeem",
		trace.WithAttributes(
			attribute.String("account", p.Account.Hex()),
			attribute.String("condition_id", p.ConditionID.Hex()),
			attribute.Int("index_sets", len(p.IndexSets)),
		),
	)
	defer span.End()

	cond, err := s.conditions.Get(ctx, p.ConditionID)
	if err != nil {
		return nil, s.fail(ctx, span, "redeem", err)
	}
	if !cond.IsResolved() {
		return nil, s.fail(ctx, span, "redeem",
			apperror.New(apperror.CodeNotResolved, apperror.WithContext(p.ConditionID.Hex())))
	}

	full := cond.FullIndexSet()
	positions := make([]common.Hash, len(p.IndexSets))
	numerators := make([]*big.Int, len(p.IndexSets))
	for i, indexSet := range p.IndexSets {
		if err := domain.ValidateIndexSet(indexSet, full); err != nil {
			return nil, s.fail(ctx, span, "redeem", err)
		}
		collection, err := domain.CollectionID(p.ParentCollectionID, p.ConditionID, indexSet)
		if err != nil {
			return nil, s.fail(ctx, span, "redeem", err)
		}
		positions[i] = domain.PositionID(p.Collateral, collection)
		numerators[i] = cond.PayoutNumerator(indexSet)
	}

	total := new(big.Int)
	err = s.ledger.Update(ctx, func(_ context.Context, tx *ledger.Tx) error {
		for i, pid := range positions {
			stake := tx.BalanceOf(p.Account, s.PositionAsset(pid))
			if stake.Sign() == 0 {
				continue
			}
			payout := new(big.Int).Mul(stake, numerators[i])
			total.Add(total, payout.Div(payout, cond.PayoutDenominator))

			if err := tx.Burn(p.Account, s.PositionAsset(pid), stake); err != nil {
				return err
			}
		}

		if total.Sign() == 0 {
			return nil
		}
		if p.ParentCollectionID == domain.RootCollectionID {
			return tx.Transfer(s.conditionalTokens, p.Account, ledger.ERC20(p.Collateral), total)
		}
		parent := domain.PositionID(p.Collateral, p.ParentCollectionID)
		return tx.Mint(p.Account, s.PositionAsset(parent), total)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "redeem", err)
	}

	span.SetAttributes(attribute.String("payout", total.String()))
	s.succeed(ctx, span, "redeem")
	return total, nil
}

// splitPlan is the validated shape of a split or merge.
type splitPlan struct {
	positions []common.Hash
	// source is either collateral (root full partition) or a position
	collateral common.Address
	custody    common.Address
	source     *ledger.Asset
}

func (sp splitPlan) debitSource(tx *ledger.Tx, account common.Address, amount *big.Int) error {
	if sp.source == nil {
		return tx.Transfer(account, sp.custody, ledger.ERC20(sp.collateral), amount)
	}
	return tx.Burn(account, *sp.source, amount)
}

func (sp splitPlan) creditSource(tx *ledger.Tx, account common.Address, amount *big.Int) error {
	if sp.source == nil {
		return tx.Transfer(sp.custody, account, ledger.ERC20(sp.collateral), amount)
	}
	return tx.Mint(account, *sp.source, amount)
}

func (s *PositionService) plan(ctx context.Context, p SplitParams) (splitPlan, error) {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return splitPlan{}, apperror.New(apperror.CodeInvalidAmount, apperror.WithContextf("amount %v", p.Amount))
	}

	cond, err := s.conditions.Get(ctx, p.ConditionID)
	if err != nil {
		return splitPlan{}, err
	}

	union, err := domain.ValidatePartition(p.Partition, cond.OutcomeSlotCount)
	if err != nil {
		return splitPlan{}, apperror.Wrap(err, apperror.CodeInvalidPartition, "condition "+p.ConditionID.Hex())
	}

	plan := splitPlan{
		positions:  make([]common.Hash, len(p.Partition)),
		collateral: p.Collateral,
		custody:    s.conditionalTokens,
	}
	for i, indexSet := range p.Partition {
		collection, err := domain.CollectionID(p.ParentCollectionID, p.ConditionID, indexSet)
		if err != nil {
			return splitPlan{}, err
		}
		plan.positions[i] = domain.PositionID(p.Collateral, collection)
	}

	switch {
	case union.Cmp(cond.FullIndexSet()) != 0:
		collection, err := domain.CollectionID(p.ParentCollectionID, p.ConditionID, union)
		if err != nil {
			return splitPlan{}, err
		}
		src := s.PositionAsset(domain.PositionID(p.Collateral, collection))
		plan.source = &src
	case p.ParentCollectionID != domain.RootCollectionID:
		src := s.PositionAsset(domain.PositionID(p.Collateral, p.ParentCollectionID))
		plan.source = &src
	}

	return plan, nil
}

func (s *PositionService) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("code", string(apperror.GetCode(err))),
	))
	return err
}

func (s *PositionService) succeed(ctx context.Context, span trace.Span, op string) {
	span.SetStatus(codes.Ok, op)
	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("code", "OK"),
	))
}

func splitAttrs(p SplitParams) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("account", p.Account.Hex()),
		attribute.String("collateral", p.Collateral.Hex()),
		attribute.String("parent_collection_id", p.ParentCollectionID.Hex()),
		attribute.String("condition_id", p.ConditionID.Hex()),
		attribute.Int("partition_size", len(p.Partition)),
		attribute.String("amount", p.Amount.String()),
	}
}
