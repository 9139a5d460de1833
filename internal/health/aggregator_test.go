package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/jt808-server/internal/config"
	"github.com/taoyao-code/jt808-server/internal/protocol/jt808"
	"github.com/taoyao-code/jt808-server/internal/tcpserver"
)

func fixed(name string, s Status) Checker {
	return CheckerFunc{N: name, Fn: func(context.Context) CheckResult {
		return CheckResult{Status: s, Message: "mock", Latency: time.Millisecond}
	}}
}

func TestAggregator(t *testing.T) {
	cases := []struct {
		name     string
		statuses []Status
		want     Status
		ready    bool
	}{
		{"全部健康", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, true},
		{"部分降级", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, true},
		{"存在不健康", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, false},
		{"无检查器", nil, StatusHealthy, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := NewAggregator()
			for i, s := range tc.statuses {
				agg.AddChecker(fixed(string(rune('a'+i)), s))
			}
			report := agg.Report(context.Background())
			assert.Equal(t, tc.want, report.Status)
			assert.Len(t, report.Checks, len(tc.statuses))
			assert.Equal(t, tc.ready, agg.Ready(context.Background()))
		})
	}
}

func TestCheckTimeoutApplied(t *testing.T) {
	agg := NewAggregator(CheckerFunc{N: "slow", Fn: func(ctx context.Context) CheckResult {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return CheckResult{Status: StatusHealthy}
	}})
	agg.CheckAll(context.Background())
}

func TestRegistryChecker(t *testing.T) {
	reg := jt808.NewRegistry()
	assert.Equal(t, StatusUnhealthy, NewRegistryChecker(reg).Check(context.Background()).Status)

	reg, err := jt808.BuildRegistry(jt808.DefaultDefinitions())
	require.NoError(t, err)
	res := NewRegistryChecker(reg).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Len(t, res.Details["protocols"], 3)
}

func TestTCPChecker(t *testing.T) {
	srv := tcpserver.New(cfgpkg.TCPConfig{MaxConnections: 10}, nil)
	res := NewTCPChecker(srv).Check(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, 10, res.Details["max_connections"])
	assert.Equal(t, "closed", res.Details["circuit_breaker_state"])
}

func TestHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterHTTPRoutes(r, NewAggregator(fixed("db", StatusHealthy), fixed("tcp", StatusUnhealthy)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Checks["db"].Status)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness(t *testing.T) {
	r := NewReadiness()
	assert.False(t, r.Ready())
	r.SetTCPReady(true)
	assert.True(t, r.Ready())
	r.Drain()
	assert.False(t, r.Ready())
}
