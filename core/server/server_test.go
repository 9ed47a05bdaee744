package server_test

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"eps-prepro/core/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, server.Config{}.Enabled())
	assert.True(t, server.Config{Addr: ":9090"}.Enabled())
}

func newTestServer(apiKey string) *server.Server {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	status := server.StatusFunc(func() any {
		return map[string]any{"state": "AWAIT_REPORTS", "reports": 2}
	})
	return server.New(server.Config{ApiKey: apiKey}, status, reg, zap.NewNop())
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer("")

	tests := []struct {
		name     string
		path     string
		wantCode int
		contains string
	}{
		{"Health", "/health", 200, `"ok"`},
		{"Status", "/status", 200, `"AWAIT_REPORTS"`},
		{"Metrics", "/metrics", 200, "test_total 1"},
		{"Unknown", "/nope", 404, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := srv.App().Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestServer_StatusRequiresKey(t *testing.T) {
	srv := newTestServer("secret")

	resp, err := srv.App().Test(httptest.NewRequest("GET", "/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("X-API-Key", "secret")
	resp, err = srv.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(2), body["reports"])

	// health stays public
	resp, err = srv.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
