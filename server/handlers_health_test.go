package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ausproperty/ausproperty/connectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error { return s.err }

type stubConnector struct {
	err error
}

func (s *stubConnector) Search(q string, p map[string]string) ([]byte, error) { return nil, nil }
func (s *stubConnector) ListingDetails(id string, p map[string]string) ([]byte, error) {
	return nil, nil
}
func (s *stubConnector) SoldHistory(id string, p map[string]string) ([]byte, error) {
	return nil, nil
}
func (s *stubConnector) Healthcheck(ctx context.Context) error { return s.err }

func healthyRegistry() *connectors.Registry {
	r := connectors.NewRegistry()
	r.Register("domain", &stubConnector{})
	return r
}

func TestCheckDB(t *testing.T) {
	h := newHealthMonitor("test", &stubPinger{}, nil, healthyRegistry())
	res := h.checkDB(context.Background())
	assert.True(t, res.Healthy)
	assert.Equal(t, "ok", res.Message)

	h = newHealthMonitor("test", &stubPinger{err: fmt.Errorf("connection refused")}, nil, healthyRegistry())
	res = h.checkDB(context.Background())
	assert.False(t, res.Healthy)
	assert.Equal(t, "connection refused", res.Message)
}

func TestCheckRedisDisabled(t *testing.T) {
	h := newHealthMonitor("test", &stubPinger{}, nil, healthyRegistry())
	res := h.checkRedis(context.Background())
	assert.False(t, res.Healthy)
	assert.Equal(t, "redis disabled", res.Message)
}

func TestCheckConnectors(t *testing.T) {
	h := newHealthMonitor("test", &stubPinger{}, nil, healthyRegistry())
	res := h.checkConnectors(context.Background())
	assert.True(t, res.Healthy)

	r := connectors.NewRegistry()
	r.Register("domain", &stubConnector{err: fmt.Errorf("503 Service Unavailable")})
	r.Register("realty", &stubConnector{})
	h = newHealthMonitor("test", &stubPinger{}, nil, r)
	res = h.checkConnectors(context.Background())
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "domain")
	assert.NotContains(t, res.Message, "realty:")

	h = newHealthMonitor("test", &stubPinger{}, nil, connectors.NewRegistry())
	res = h.checkConnectors(context.Background())
	assert.False(t, res.Healthy)
}

func TestGetHealthStatuses(t *testing.T) {
	// redis is nil in all of these, so the best reachable status without a
	// redis server is degraded
	h := newHealthMonitor("test", &stubPinger{}, nil, healthyRegistry())
	resp := h.getHealth(context.Background())
	assert.Equal(t, healthStatusDegraded, resp.Status)

	h = newHealthMonitor("test", &stubPinger{err: fmt.Errorf("down")}, nil, healthyRegistry())
	resp = h.getHealth(context.Background())
	assert.Equal(t, healthStatusDown, resp.Status)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Equal(t, "test", resp.Environment)
}

func TestHandleHealth(t *testing.T) {
	h := newHealthMonitor("", &stubPinger{}, nil, healthyRegistry())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handleHealth(testLogger(), h)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, []string{healthStatusOK, healthStatusDegraded, healthStatusDown}, resp.Status)
	assert.Equal(t, "dev", resp.Environment)
}

func TestHandleHealthDB(t *testing.T) {
	h := newHealthMonitor("test", &stubPinger{err: fmt.Errorf("no route to host")}, nil, healthyRegistry())
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	w := httptest.NewRecorder()
	handleHealthDB(testLogger(), h)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res checkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Healthy)
	assert.Equal(t, "no route to host", res.Message)
}

func TestHandleHealthConnectors(t *testing.T) {
	h := newHealthMonitor("test", &stubPinger{}, nil, healthyRegistry())
	req := httptest.NewRequest(http.MethodGet, "/health/connectors", nil)
	w := httptest.NewRecorder()
	handleHealthConnectors(testLogger(), h)(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res checkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Healthy)
}
