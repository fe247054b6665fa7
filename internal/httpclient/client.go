// Package httpclient builds the instrumented HTTP client used for JSON-RPC
// traffic to the node.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	metricRequestCounter = "http_client_requests_total"
)

// Options configures New.
type Options struct {
	providerName   string
	requestTimeout time.Duration
	roundTripper   http.RoundTripper
}

// Option is a function that configures Options.
type Option func(*Options)

// WithProviderName labels metrics and spans with name.
func WithProviderName(name string) Option {
	return func(o *Options) {
		o.providerName = name
	}
}

// WithRequestTimeout sets the request timeout. Zero keeps the default.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.requestTimeout = timeout
		}
	}
}

// WithRoundTripper replaces the pooled transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.roundTripper = rt
	}
}

// New returns an http.Client whose transport is traced with otelhttp and
// counts requests by provider and outcome.
func New(opts ...Option) (*http.Client, error) {
	options := &Options{
		providerName:   "default",
		requestTimeout: defaultRequestTimeout,
	}
	for _, o := range opts {
		o(options)
	}

	base := options.roundTripper
	if base == nil {
		base = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	meter := otel.GetMeterProvider().Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", options.providerName)),
	)
	requests, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	counted := &countingTransport{
		next:     base,
		provider: options.providerName,
		requests: requests,
	}

	return &http.Client{
		Timeout: options.requestTimeout,
		Transport: otelhttp.NewTransport(counted,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}, nil
}

type countingTransport struct {
	next     http.RoundTripper
	provider string
	requests metric.Int64Counter
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	success := err == nil && resp.StatusCode < http.StatusBadRequest
	t.requests.Add(req.Context(), 1, metric.WithAttributes(
		attribute.String("provider", t.provider),
		attribute.Bool("success", success),
	))
	return resp, err
}
