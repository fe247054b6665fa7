package app

import (
	"context"
	"math/big"
	"sync"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/condrouter/business/markets/domain"
	positions "github.com/fd1az/condrouter/business/positions/domain"
	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/apperror"
	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/logger"
)

const (
	tracerName = "markets"
	meterName  = "markets"

	defaultCategory = "misc"
	defaultLang     = "en_US"
)

// FactoryConfig holds the addresses and question parameters used when
// creating markets.
type FactoryConfig struct {
	ChainID uint64
	// Address is the factory address. Markets are deployed at its CREATE
	// addresses and it asks the Reality.eth questions.
	Address    common.Address
	RealityETH common.Address
	// Oracle prepares conditions and later reports their payouts.
	Oracle     common.Address
	Arbitrator common.Address
	Timeout    uint32
	MinBond    *big.Int
}

// CreateMarketParams describes a new market.
type CreateMarketParams struct {
	Name string          `validate:"required,max=256"`
	Kind resolution.Kind `validate:"required,oneof=categorical multi_categorical scalar multi_scalar"`
	// Outcomes excludes the invalid outcome. Scalar markets have exactly two.
	Outcomes []string `validate:"required,min=1,max=255,dive,required"`
	// TokenNames defaults to the outcome names cut to 31 bytes.
	TokenNames []string `validate:"omitempty,dive,required,max=31"`
	Category   string
	Lang       string
	// QuestionStart and QuestionEnd surround each outcome in multi-scalar questions.
	QuestionStart string `validate:"required_if=Kind multi_scalar"`
	QuestionEnd   string
	LowerBound    *big.Int
	UpperBound    *big.Int
	OpeningTS     uint32 `validate:"required"`

	// Collateral is ignored for child markets, which use their parent's.
	Collateral    common.Address
	ParentMarket  common.Address
	ParentOutcome int `validate:"min=0"`
}

// Factory creates markets: it asks questions, prepares the condition, derives
// the wrapped outcome tokens and stores the record.
type Factory struct {
	cfg      FactoryConfig
	repo     Repository
	prep     ConditionPreparer
	binder   TokenBinder
	assets   *asset.Registry
	validate *validator.Validate
	logger   logger.LoggerInterface

	// serializes nonce assignment
	mu sync.Mutex

	tracer  trace.Tracer
	created metric.Int64Counter
}

// NewFactory creates a Factory.
func NewFactory(cfg FactoryConfig, repo Repository, prep ConditionPreparer, binder TokenBinder, assets *asset.Registry, log logger.LoggerInterface) (*Factory, error) {
	created, err := otel.Meter(meterName).Int64Counter(
		"markets_created_total",
		metric.WithDescription("Market creations by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Factory{
		cfg:      cfg,
		repo:     repo,
		prep:     prep,
		binder:   binder,
		assets:   assets,
		validate: validator.New(),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		created:  created,
	}, nil
}

// CreateMarket creates and stores a market.
func (f *Factory) CreateMarket(ctx context.Context, p CreateMarketParams) (*domain.Market, error) {
	ctx, span := f.tracer.Start(ctx, "markets.create",
		trace.WithAttributes(
			attribute.String("kind", string(p.Kind)),
			attribute.String("parent", p.ParentMarket.Hex()),
		),
	)
	defer span.End()

	m, err := f.create(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		f.created.Add(ctx, 1, metric.WithAttributes(
			attribute.String("kind", string(p.Kind)),
			attribute.String("code", string(apperror.GetCode(err))),
		))
		return nil, err
	}

	span.SetStatus(codes.Ok, "created")
	span.SetAttributes(attribute.String("market", m.ID.Hex()))
	f.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(p.Kind)),
		attribute.String("code", "OK"),
	))
	f.logger.Info(ctx, "market created",
		"market", m.ID.Hex(),
		"name", m.Name,
		"kind", string(m.Kind),
		"condition_id", m.ConditionID.Hex(),
		"parent", m.ParentMarket.Hex(),
		"outcomes", len(m.Outcomes),
	)
	return m, nil
}

func (f *Factory) create(ctx context.Context, p CreateMarketParams) (*domain.Market, error) {
	if err := f.validateParams(p); err != nil {
		return nil, err
	}

	m := &domain.Market{
		Name:       p.Name,
		Kind:       p.Kind,
		Collateral: p.Collateral,
		Outcomes:   append([]string(nil), p.Outcomes...),
		LowerBound: p.LowerBound,
		UpperBound: p.UpperBound,
	}

	shape, err := m.Shape()
	if err != nil {
		return nil, err
	}
	m.TemplateID = resolution.TemplateID(shape)

	if p.ParentMarket != (common.Address{}) {
		if err := f.attachParent(ctx, m, p.ParentMarket, p.ParentOutcome); err != nil {
			return nil, err
		}
	}
	if m.Collateral == (common.Address{}) {
		return nil, apperror.New(apperror.CodeValidationError, apperror.WithContext("collateral is required"))
	}

	m.QuestionIDs = f.questionIDs(p, shape)
	m.QuestionID = resolution.ConditionQuestionID(m.QuestionIDs)

	m.ConditionID, err = f.prepareCondition(ctx, m.QuestionID, uint64(m.Slots()))
	if err != nil {
		return nil, err
	}

	m.TokenNames = tokenNames(p)
	if err := f.deriveTokens(ctx, m); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	existing, err := f.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	m.ID = crypto.CreateAddress(f.cfg.Address, uint64(len(existing)))

	if err := f.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	f.bind(ctx, m)
	return m.Clone(), nil
}

func (f *Factory) validateParams(p CreateMarketParams) error {
	if err := f.validate.Struct(p); err != nil {
		return apperror.New(apperror.CodeValidationError, apperror.WithCause(err), apperror.WithContext(err.Error()))
	}
	if p.Kind == resolution.KindScalar && len(p.Outcomes) != 2 {
		return apperror.New(apperror.CodeInvalidMarket,
			apperror.WithContextf("scalar markets have 2 outcomes, got %d", len(p.Outcomes)))
	}
	if len(p.TokenNames) > 0 && len(p.TokenNames) != len(p.Outcomes) {
		return apperror.New(apperror.CodeValidationError,
			apperror.WithContextf("%d token names for %d outcomes", len(p.TokenNames), len(p.Outcomes)))
	}
	for i, name := range p.TokenNames {
		if len(name) > maxTokenNameBytes {
			return apperror.New(apperror.CodeValidationError,
				apperror.WithContextf("token name %d is %d bytes, max %d", i, len(name), maxTokenNameBytes))
		}
	}
	return nil
}

func (f *Factory) attachParent(ctx context.Context, m *domain.Market, parentID common.Address, outcome int) error {
	parent, err := f.repo.Get(ctx, parentID)
	if err != nil {
		return err
	}
	if outcome >= parent.Slots() {
		return apperror.New(apperror.CodeInvalidOutcome,
			apperror.WithContextf("parent %s has no outcome %d", parentID.Hex(), outcome))
	}

	collection, err := positions.CollectionID(parent.ParentCollectionID, parent.ConditionID,
		positions.IndexSetFor(uint64(outcome)))
	if err != nil {
		return err
	}

	m.ParentMarket = parent.ID
	m.ParentOutcome = outcome
	m.ParentCollectionID = collection
	m.Collateral = parent.Collateral
	return nil
}

// questionIDs derives the Reality.eth question ids the market resolves from.
func (f *Factory) questionIDs(p CreateMarketParams, shape resolution.Shape) []common.Hash {
	category := p.Category
	if category == "" {
		category = defaultCategory
	}
	lang := p.Lang
	if lang == "" {
		lang = defaultLang
	}

	ask := func(text string) common.Hash {
		q := resolution.Question{
			TemplateID: resolution.TemplateID(shape),
			OpeningTS:  p.OpeningTS,
			Text:       text,
			Arbitrator: f.cfg.Arbitrator,
			Timeout:    f.cfg.Timeout,
			MinBond:    f.cfg.MinBond,
		}
		return q.ID(f.cfg.RealityETH, f.cfg.Address)
	}

	switch p.Kind {
	case resolution.KindMultiScalar:
		ids := make([]common.Hash, len(p.Outcomes))
		for i, o := range p.Outcomes {
			ids[i] = ask(resolution.EncodeQuestion(p.QuestionStart+o+p.QuestionEnd, nil, category, lang))
		}
		return ids
	case resolution.KindScalar:
		return []common.Hash{ask(resolution.EncodeQuestion(p.Name, nil, category, lang))}
	default:
		return []common.Hash{ask(resolution.EncodeQuestion(p.Name, p.Outcomes, category, lang))}
	}
}

// prepareCondition prepares the condition unless another market already did.
func (f *Factory) prepareCondition(ctx context.Context, questionID common.Hash, slots uint64) (common.Hash, error) {
	id, err := f.prep.PrepareCondition(ctx, f.cfg.Oracle, questionID, slots)
	if apperror.GetCode(err) == apperror.CodeConditionAlreadyPrepared {
		return positions.ConditionID(f.cfg.Oracle, questionID, slots), nil
	}
	return id, err
}

// deriveTokens fills WrappedTokens, one per slot, and rejects tokens that
// already belong to another market.
func (f *Factory) deriveTokens(ctx context.Context, m *domain.Market) error {
	ctf := f.prep.ConditionalTokens()
	m.WrappedTokens = make([]common.Address, m.Slots())

	for i := range m.WrappedTokens {
		pid, err := PositionID(m, i)
		if err != nil {
			return err
		}
		token := domain.WrappedTokenAddress(f.cfg.Address, ctf, pid, domain.WrappedTokenData(m.TokenNames[i]))

		if other, _, err := f.repo.FindByOutcomeToken(ctx, token); err == nil {
			return apperror.New(apperror.CodeMarketAlreadyExists,
				apperror.WithContextf("outcome %d already wrapped by market %s", i, other.ID.Hex()))
		} else if apperror.GetCode(err) != apperror.CodeMarketNotFound {
			return err
		}
		m.WrappedTokens[i] = token
	}
	return nil
}

// Load prepares the condition and binds the tokens of every stored market.
// It is run once at startup, before any position is touched.
func (f *Factory) Load(ctx context.Context) (int, error) {
	markets, err := f.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, m := range markets {
		id, err := f.prepareCondition(ctx, m.QuestionID, uint64(m.Slots()))
		if err != nil {
			return 0, err
		}
		if id != m.ConditionID {
			return 0, apperror.New(apperror.CodeInvalidMarket,
				apperror.WithContextf("market %s stores condition %s, oracle %s derives %s",
					m.ID.Hex(), m.ConditionID.Hex(), f.cfg.Oracle.Hex(), id.Hex()))
		}
		f.bind(ctx, m)
	}
	return len(markets), nil
}

// bind registers the market's wrapped tokens with the wrapper and the asset
// registry.
func (f *Factory) bind(ctx context.Context, m *domain.Market) {
	for i, token := range m.WrappedTokens {
		pid, err := PositionID(m, i)
		if err != nil {
			f.logger.Error(ctx, "cannot derive position", "market", m.ID.Hex(), "outcome", i, "error", err)
			continue
		}
		f.binder.Register(token, pid)

		name := m.TokenNames[i]
		if i < len(m.Outcomes) {
			name = m.Outcomes[i]
		}
		if err := f.assets.Register(asset.NewOutcomeToken(f.cfg.ChainID, token, m.TokenNames[i], name)); err != nil {
			f.logger.Debug(ctx, "outcome token already registered", "token", token.Hex())
		}
	}
}

// PositionID returns the position wrapped by outcome i of m.
func PositionID(m *domain.Market, i int) (common.Hash, error) {
	collection, err := positions.CollectionID(m.ParentCollectionID, m.ConditionID, positions.IndexSetFor(uint64(i)))
	if err != nil {
		return common.Hash{}, err
	}
	return positions.PositionID(m.Collateral, collection), nil
}

// maxTokenNameBytes keeps a default token name inside one bytes32 slot.
const maxTokenNameBytes = 31

// truncateName cuts s to at most n bytes without splitting a rune.
func truncateName(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func tokenNames(p CreateMarketParams) []string {
	names := make([]string, 0, len(p.Outcomes)+1)
	if len(p.TokenNames) > 0 {
		names = append(names, p.TokenNames...)
	} else {
		for _, o := range p.Outcomes {
			names = append(names, truncateName(o, maxTokenNameBytes))
		}
	}
	return append(names, domain.InvalidTokenName)
}
