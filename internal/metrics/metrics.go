// Package metrics installs the global OpenTelemetry meter provider.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/condrouter/internal/apm"
	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/logger"
)

type Exporter string

const (
	PrometheusExporter Exporter = "prometheus"
	OTLPExporter       Exporter = "otlp"
	NoneExporter       Exporter = "none"
)

// Provider owns the meter provider and, for prometheus, the scrape endpoint.
type Provider struct {
	mp     *sdkmetric.MeterProvider
	server *http.Server
	log    logger.LoggerInterface
}

// NewProvider installs a meter provider for cfg. It returns nil when
// telemetry is disabled; a nil Provider is safe to Serve and Shutdown.
func NewProvider(ctx context.Context, cfg config.TelemetryConfig, log logger.LoggerInterface) (*Provider, error) {
	if !cfg.Enabled || Exporter(cfg.MetricsExporter) == NoneExporter {
		return nil, nil
	}

	reader, err := newReader(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter %q: %w", cfg.MetricsExporter, err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName))),
	)
	otel.SetMeterProvider(mp)

	p := &Provider{mp: mp, log: log}
	if Exporter(cfg.MetricsExporter) == PrometheusExporter {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		p.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.PrometheusPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return p, nil
}

func newReader(ctx context.Context, cfg config.TelemetryConfig) (sdkmetric.Reader, error) {
	switch Exporter(cfg.MetricsExporter) {
	case PrometheusExporter:
		return prometheus.New()
	case OTLPExporter:
		headers, err := apm.ParseHeaders(cfg.OTLPHeaders)
		if err != nil {
			return nil, err
		}
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpointURL(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(headers),
		)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, errors.New("unknown exporter")
	}
}

// Serve exposes /metrics in the background when the prometheus exporter is active.
func (p *Provider) Serve() {
	if p == nil || p.server == nil {
		return
	}
	go func() {
		p.log.Info(context.Background(), "serving metrics", "addr", p.server.Addr+"/metrics")
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error(context.Background(), "metrics server stopped", "error", err)
		}
	}()
}

// Shutdown stops the scrape endpoint and flushes the meter provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.server != nil {
		errs = append(errs, p.server.Shutdown(ctx))
	}
	errs = append(errs, p.mp.Shutdown(ctx))
	return errors.Join(errs...)
}
