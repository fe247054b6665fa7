package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  name: test-router\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-router", cfg.App.Name)
	assert.Equal(t, uint64(100), cfg.Chain.ChainID)
	assert.Equal(t, "simulated", cfg.Router.Quoter)
	assert.Equal(t, 8, cfg.Router.MaxDepth)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricsExporter)
	assert.False(t, cfg.NeedsRPC())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("router:\n  max_depth: 3\n"), 0o600))

	t.Setenv("CR_STORE_DRIVER", "sqlite")
	t.Setenv("CR_STORE_DSN", ":memory:")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Router.MaxDepth)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, ":memory:", cfg.Store.DSN)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Chain: ChainConfig{Clock: "system"},
			Contracts: ContractsConfig{
				ConditionalTokens: "0xCeAfDD6bc0bEF976fdCd1112955828E00543c0Ce",
				MarketFactory:     "0x83183DA839Ce8228E31Ae41222EaD9EDBb5cDcf1",
				Router:            "0xeC9048b59b3467415b1a38F63416407eA0c70fB8",
				Collateral:        "0xaf204776c7245bF4147c2612BF6e5972Ee483701",
				RealityETH:        "0xE78996A233895bE74a66F451f1019cA9734205cc",
				RealityProxy:      "0xc260ADfAC11f97c001dC143d2a4F45b98e0f2D6C",
				Arbitrator:        "0x29f39dE98D750eb77b5FAfb31B2837f079FcE222",
			},
			Router: RouterConfig{MaxDepth: 4, SlippageBps: 50, Quoter: "simulated"},
			Oracle: OracleConfig{Source: "memory", Cache: "memory"},
			Store:  StoreConfig{Driver: "memory"},
			Telemetry: TelemetryConfig{
				TraceExporter:   "console",
				MetricsExporter: "prometheus",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad_address", mutate: func(c *Config) { c.Contracts.Router = "nope" }, wantErr: "contracts.router"},
		{name: "zero_depth", mutate: func(c *Config) { c.Router.MaxDepth = 0 }, wantErr: "max_depth"},
		{name: "slippage", mutate: func(c *Config) { c.Router.SlippageBps = 10_000 }, wantErr: "slippage_bps"},
		{name: "unknown_quoter", mutate: func(c *Config) { c.Router.Quoter = "balancer" }, wantErr: "router.quoter"},
		{name: "unknown_store", mutate: func(c *Config) { c.Store.Driver = "postgres" }, wantErr: "store.driver"},
		{name: "unknown_exporter", mutate: func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, wantErr: "trace_exporter"},
		{
			name:    "reality_needs_rpc",
			mutate:  func(c *Config) { c.Oracle.Source = "reality" },
			wantErr: "chain.rpc_url",
		},
		{
			name: "reality_with_rpc",
			mutate: func(c *Config) {
				c.Oracle.Source = "reality"
				c.Chain.RPCURL = "https://rpc.gnosischain.com"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
