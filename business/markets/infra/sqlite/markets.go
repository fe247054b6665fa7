// Package sqlite provides a market repository on SQLite (pure Go driver).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	_ "modernc.org/sqlite"

	"github.com/fd1az/condrouter/business/markets/app"
	"github.com/fd1az/condrouter/business/markets/domain"
	resolution "github.com/fd1az/condrouter/business/resolution/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

var _ app.Repository = (*MarketRepository)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS markets (
    seq                  INTEGER PRIMARY KEY AUTOINCREMENT,
    id                   TEXT    NOT NULL UNIQUE,
    name                 TEXT    NOT NULL,
    kind                 TEXT    NOT NULL,
    template_id          INTEGER NOT NULL,
    collateral           TEXT    NOT NULL,
    condition_id         TEXT    NOT NULL,
    question_id          TEXT    NOT NULL,
    question_ids         TEXT    NOT NULL,
    parent_market        TEXT    NOT NULL,
    parent_outcome       INTEGER NOT NULL DEFAULT 0,
    parent_collection_id TEXT    NOT NULL,
    outcomes             TEXT    NOT NULL,
    token_names          TEXT    NOT NULL,
    wrapped_tokens       TEXT    NOT NULL,
    lower_bound          TEXT,
    upper_bound          TEXT
);

CREATE TABLE IF NOT EXISTS outcome_tokens (
    token     TEXT    PRIMARY KEY,
    market_id TEXT    NOT NULL,
    outcome   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_markets_parent ON markets(parent_market);
`

const selectMarket = `
SELECT id, name, kind, template_id, collateral, condition_id, question_id, question_ids,
       parent_market, parent_outcome, parent_collection_id, outcomes, token_names,
       wrapped_tokens, lower_bound, upper_bound
FROM markets`

// MarketRepository stores markets in SQLite.
type MarketRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, dsn string) (*MarketRepository, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeError(err, "open "+dsn)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, storeError(err, "apply schema")
	}
	return &MarketRepository{db: db}, nil
}

// Close closes the database.
func (r *MarketRepository) Close() error {
	return r.db.Close()
}

func (r *MarketRepository) Save(ctx context.Context, m *domain.Market) error {
	questionIDs, err := json.Marshal(m.QuestionIDs)
	if err != nil {
		return storeError(err, "encode question ids")
	}
	outcomes, err := json.Marshal(m.Outcomes)
	if err != nil {
		return storeError(err, "encode outcomes")
	}
	tokenNames, err := json.Marshal(m.TokenNames)
	if err != nil {
		return storeError(err, "encode token names")
	}
	wrapped, err := json.Marshal(m.WrappedTokens)
	if err != nil {
		return storeError(err, "encode wrapped tokens")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError(err, "begin")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM markets WHERE id = ?`, m.ID.Hex()).Scan(&exists)
	if err != nil {
		return storeError(err, "check market")
	}
	if exists > 0 {
		return apperror.New(apperror.CodeMarketAlreadyExists, apperror.WithContext(m.ID.Hex()))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO markets (id, name, kind, template_id, collateral, condition_id, question_id, question_ids,
		                     parent_market, parent_outcome, parent_collection_id, outcomes, token_names,
		                     wrapped_tokens, lower_bound, upper_bound)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.Hex(), m.Name, string(m.Kind), m.TemplateID, m.Collateral.Hex(), m.ConditionID.Hex(),
		m.QuestionID.Hex(), string(questionIDs), m.ParentMarket.Hex(), m.ParentOutcome,
		m.ParentCollectionID.Hex(), string(outcomes), string(tokenNames), string(wrapped),
		bigString(m.LowerBound), bigString(m.UpperBound),
	)
	if err != nil {
		return storeError(err, "insert market "+m.ID.Hex())
	}

	for i, t := range m.WrappedTokens {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcome_tokens (token, market_id, outcome) VALUES (?, ?, ?)`,
			t.Hex(), m.ID.Hex(), i)
		if err != nil {
			return storeError(err, "insert outcome token "+t.Hex())
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError(err, "commit")
	}
	return nil
}

func (r *MarketRepository) Get(ctx context.Context, id common.Address) (*domain.Market, error) {
	row := r.db.QueryRowContext(ctx, selectMarket+` WHERE id = ?`, id.Hex())
	m, err := scanMarket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(id.Hex()))
	}
	if err != nil {
		return nil, storeError(err, "get market "+id.Hex())
	}
	return m, nil
}

func (r *MarketRepository) FindByOutcomeToken(ctx context.Context, token common.Address) (*domain.Market, int, error) {
	var (
		marketID string
		outcome  int
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT market_id, outcome FROM outcome_tokens WHERE token = ?`, token.Hex(),
	).Scan(&marketID, &outcome)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, apperror.New(apperror.CodeMarketNotFound,
			apperror.WithContextf("no market wraps %s", token.Hex()))
	}
	if err != nil {
		return nil, 0, storeError(err, "find token "+token.Hex())
	}

	m, err := r.Get(ctx, common.HexToAddress(marketID))
	if err != nil {
		return nil, 0, err
	}
	return m, outcome, nil
}

func (r *MarketRepository) Children(ctx context.Context, parent common.Address) ([]*domain.Market, error) {
	if parent == (common.Address{}) {
		return nil, nil
	}
	return r.query(ctx, selectMarket+` WHERE parent_market = ? ORDER BY seq`, parent.Hex())
}

func (r *MarketRepository) List(ctx context.Context) ([]*domain.Market, error) {
	return r.query(ctx, selectMarket+` ORDER BY seq`)
}

func (r *MarketRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Market, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeError(err, "query markets")
	}
	defer rows.Close()

	var out []*domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, storeError(err, "scan market")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err, "iterate markets")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMarket(s scanner) (*domain.Market, error) {
	var m domain.Market
	var id, kind, collateral, conditionID, questionID string
	var questionIDs, parent, parentCollection, outcomes, tokenNames, wrapped string
	var lower, upper sql.NullString

	err := s.Scan(&id, &m.Name, &kind, &m.TemplateID, &collateral, &conditionID, &questionID, &questionIDs,
		&parent, &m.ParentOutcome, &parentCollection, &outcomes, &tokenNames, &wrapped, &lower, &upper)
	if err != nil {
		return nil, err
	}

	m.ID = common.HexToAddress(id)
	m.Kind = resolution.Kind(kind)
	m.Collateral = common.HexToAddress(collateral)
	m.ConditionID = common.HexToHash(conditionID)
	m.QuestionID = common.HexToHash(questionID)
	m.ParentMarket = common.HexToAddress(parent)
	m.ParentCollectionID = common.HexToHash(parentCollection)

	if err := json.Unmarshal([]byte(questionIDs), &m.QuestionIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(outcomes), &m.Outcomes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tokenNames), &m.TokenNames); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(wrapped), &m.WrappedTokens); err != nil {
		return nil, err
	}
	m.LowerBound = parseBig(lower)
	m.UpperBound = parseBig(upper)
	return &m, nil
}

func bigString(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

func parseBig(s sql.NullString) *big.Int {
	if !s.Valid {
		return nil
	}
	v, ok := new(big.Int).SetString(s.String, 10)
	if !ok {
		return nil
	}
	return v
}

func storeError(err error, context string) error {
	return apperror.New(apperror.CodeStoreFailed, apperror.WithCause(err), apperror.WithContext(context))
}
