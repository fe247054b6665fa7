package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/condrouter/business/markets/domain"
	"github.com/fd1az/condrouter/internal/apperror"
)

// DefaultMaxDepth bounds path length when no depth is configured.
const DefaultMaxDepth = 8

// Graph builds token paths through the market tree.
type Graph struct {
	repo     Repository
	maxDepth int
}

// NewGraph creates a Graph. maxDepth <= 0 uses DefaultMaxDepth.
func NewGraph(repo Repository, maxDepth int) *Graph {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Graph{repo: repo, maxDepth: maxDepth}
}

// node is one token on the way from an outcome token up to collateral.
// market and outcome are unset for the collateral node.
type node struct {
	token   common.Address
	market  common.Address
	outcome int
}

// PathFromCollateralToOutcome returns the hops between the market's
// collateral and outcome. Buy paths start at collateral, sell paths end there.
func (g *Graph) PathFromCollateralToOutcome(ctx context.Context, market common.Address, outcome int, dir domain.Direction) (domain.Path, error) {
	m, err := g.repo.Get(ctx, market)
	if err != nil {
		return nil, err
	}
	token, err := m.OutcomeToken(outcome)
	if err != nil {
		return nil, err
	}

	chain, err := g.ancestry(ctx, m, outcome, token)
	if err != nil {
		return nil, err
	}

	if dir == domain.Sell {
		return sellHops(chain, len(chain)-1), nil
	}
	return buyHops(chain, len(chain)-1), nil
}

// PathBetween returns the hops from tokenIn to tokenOut: sells up to their
// lowest common ancestor token, then buys down.
func (g *Graph) PathBetween(ctx context.Context, tokenIn, tokenOut common.Address) (domain.Path, error) {
	if tokenIn == tokenOut {
		return nil, apperror.New(apperror.CodeInvalidPath,
			apperror.WithContextf("token in and out are both %s", tokenIn.Hex()))
	}

	from, err := g.chainOf(ctx, tokenIn)
	if err != nil {
		return nil, err
	}
	to, err := g.chainOf(ctx, tokenOut)
	if err != nil {
		return nil, err
	}

	up, down, ok := commonAncestor(from, to)
	if !ok {
		return nil, apperror.New(apperror.CodeInvalidPath,
			apperror.WithContextf("%s and %s share no collateral", tokenIn.Hex(), tokenOut.Hex()))
	}

	return append(sellHops(from, up), buyHops(to, down)...), nil
}

// chainOf returns the ancestry of token, which is either an outcome token or
// the collateral of some market.
func (g *Graph) chainOf(ctx context.Context, token common.Address) ([]node, error) {
	m, outcome, err := g.repo.FindByOutcomeToken(ctx, token)
	if err == nil {
		return g.ancestry(ctx, m, outcome, token)
	}
	if apperror.GetCode(err) != apperror.CodeMarketNotFound {
		return nil, err
	}

	isCollateral, cerr := g.isCollateral(ctx, token)
	if cerr != nil {
		return nil, cerr
	}
	if !isCollateral {
		return nil, err
	}
	return []node{{token: token}}, nil
}

func (g *Graph) isCollateral(ctx context.Context, token common.Address) (bool, error) {
	markets, err := g.repo.List(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range markets {
		if m.Collateral == token {
			return true, nil
		}
	}
	return false, nil
}

// ancestry walks parent links from (m, outcome) to the root. The result starts
// at token and ends at the collateral.
func (g *Graph) ancestry(ctx context.Context, m *domain.Market, outcome int, token common.Address) ([]node, error) {
	chain := []node{{token: token, market: m.ID, outcome: outcome}}
	visited := map[common.Address]bool{m.ID: true}

	for !m.IsRoot() {
		if len(chain) >= g.maxDepth {
			return nil, apperror.New(apperror.CodeMarketDepthExceeded,
				apperror.WithContextf("market %s is nested deeper than %d", chain[0].market.Hex(), g.maxDepth))
		}

		parent, err := g.repo.Get(ctx, m.ParentMarket)
		if err != nil {
			return nil, err
		}
		if visited[parent.ID] {
			return nil, apperror.New(apperror.CodeMarketCycle,
				apperror.WithContextf("market %s is its own ancestor", parent.ID.Hex()))
		}
		visited[parent.ID] = true

		parentToken, err := parent.OutcomeToken(m.ParentOutcome)
		if err != nil {
			return nil, err
		}
		chain = append(chain, node{token: parentToken, market: parent.ID, outcome: m.ParentOutcome})
		m = parent
	}

	return append(chain, node{token: m.Collateral}), nil
}

// commonAncestor returns the index of the first shared token in each chain.
func commonAncestor(a, b []node) (int, int, bool) {
	pos := make(map[common.Address]int, len(b))
	for i, n := range b {
		pos[n.token] = i
	}
	for i, n := range a {
		if j, ok := pos[n.token]; ok {
			return i, j, true
		}
	}
	return 0, 0, false
}

// sellHops moves from chain[0] up to chain[n].
func sellHops(chain []node, n int) domain.Path {
	path := make(domain.Path, 0, n)
	for i := 0; i < n; i++ {
		path = append(path, domain.Hop{
			TokenIn:   chain[i].token,
			TokenOut:  chain[i+1].token,
			Market:    chain[i].market,
			Outcome:   chain[i].outcome,
			Direction: domain.Sell,
		})
	}
	return path
}

// buyHops moves from chain[n] down to chain[0].
func buyHops(chain []node, n int) domain.Path {
	path := make(domain.Path, 0, n)
	for i := n - 1; i >= 0; i-- {
		path = append(path, domain.Hop{
			TokenIn:   chain[i+1].token,
			TokenOut:  chain[i].token,
			Market:    chain[i].market,
			Outcome:   chain[i].outcome,
			Direction: domain.Buy,
		})
	}
	return path
}
