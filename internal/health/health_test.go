package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/condrouter/internal/logger"
)

func TestServer_Endpoints(t *testing.T) {
	ok := func(context.Context) (bool, string) { return true, "" }
	down := func(context.Context) (bool, string) { return false, "rpc unreachable" }

	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "live", path: "/live", wantStatus: http.StatusOK, wantBody: "alive"},
		{name: "ready", checks: map[string]CheckFunc{"ledger": ok}, path: "/ready", wantStatus: http.StatusOK, wantBody: "ready"},
		{name: "not_ready", checks: map[string]CheckFunc{"ledger": ok, "clock": down}, path: "/ready", wantStatus: http.StatusServiceUnavailable, wantBody: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(0, "test", logger.NewDiscard())
			for name, check := range tt.checks {
				s.RegisterCheck(name, check)
			}

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestServer_HealthReportsEveryCheck(t *testing.T) {
	s := NewServer(0, "v1.2.3", logger.NewDiscard())
	s.RegisterCheck("ledger", func(context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("clock", func(context.Context) (bool, string) { return false, "stale" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.Equal(t, map[string]Check{
		"ledger": {Healthy: true},
		"clock":  {Healthy: false, Message: "stale"},
	}, status.Checks)
}
