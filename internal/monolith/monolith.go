// Package monolith wires the bounded contexts into one process around a
// shared ledger and service container.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/condrouter/internal/asset"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/di"
	"github.com/fd1az/condrouter/internal/httpclient"
	"github.com/fd1az/condrouter/internal/ledger"
	"github.com/fd1az/condrouter/internal/logger"
)

// Monolith exposes the infrastructure shared by all bounded contexts.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	// EthClient is nil when no RPC URL is configured.
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	Ledger() *ledger.Ledger
	Services() di.ServiceRegistry
}

// Module is a bounded context. RegisterServices runs for every module before
// any Startup.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	ledger        *ledger.Ledger
	container     di.Container
}

// New builds the container shared by every module. The node is only dialed
// when an RPC URL is configured; otherwise "ethClient" resolves to nil and
// modules fall back to their simulated adapters.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	var ethClient *ethclient.Client
	if cfg.Chain.RPCURL != "" {
		c, err := dial(ctx, cfg.Chain)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", cfg.Chain.RPCURL, err)
		}
		ethClient = c
	}

	assetRegistry := asset.DefaultRegistry()
	l := ledger.New()

	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("ethClient", ethClient)
	container.Register("assetRegistry", assetRegistry)
	container.Register("ledger", l)

	return &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: assetRegistry,
		ledger:        l,
		container:     container,
	}, nil
}

// dial connects over the instrumented HTTP client; websocket URLs ignore it.
func dial(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	httpClient, err := httpclient.New(
		httpclient.WithProviderName("rpc"),
		httpclient.WithRequestTimeout(cfg.CallTimeout),
	)
	if err != nil {
		return nil, err
	}
	c, err := rpc.DialOptions(ctx, cfg.RPCURL, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(c), nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) EthClient() *ethclient.Client {
	return a.ethClient
}

func (a *app) AssetRegistry() *asset.Registry {
	return a.assetRegistry
}

func (a *app) Ledger() *ledger.Ledger {
	return a.ledger
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// RegisterModules registers modules in order. Later modules may resolve
// tokens registered by earlier ones.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts modules in order and stops at the first failure.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start %T: %w", m, err)
		}
	}
	return nil
}

// Close releases the node connection, if any.
func (a *app) Close() error {
	if a.ethClient != nil {
		a.ethClient.Close()
	}
	return nil
}
