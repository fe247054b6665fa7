package apm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/config"
	"github.com/fd1az/condrouter/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", raw: "", want: map[string]string{}},
		{name: "single", raw: "x-honeycomb-team=abc", want: map[string]string{"x-honeycomb-team": "abc"}},
		{name: "several", raw: "a=1, b=2=3", want: map[string]string{"a": "1", "b": "2=3"}},
		{name: "missing_value", raw: "a", wantErr: true},
		{name: "missing_key", raw: "=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHeaders(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTraceProvider(t *testing.T) {
	log := logger.NewDiscard()

	tp, err := NewTraceProvider(config.TelemetryConfig{Enabled: false, TraceExporter: "zipkin"}, log)
	require.NoError(t, err)
	assert.Equal(t, emptyTraceProvider{}, tp)
	assert.NoError(t, tp.Stop())

	tp, err = NewTraceProvider(config.TelemetryConfig{Enabled: true, TraceExporter: "none"}, log)
	require.NoError(t, err)
	assert.Equal(t, emptyTraceProvider{}, tp)

	_, err = NewTraceProvider(config.TelemetryConfig{Enabled: true, TraceExporter: "jaeger"}, log)
	assert.Error(t, err)
}
