package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/observability"
	"github.com/printdesk/printdesk/internal/printfit"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "unset")
	require.NoError(t, os.Unsetenv("KAFKA_BROKERS"))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 120, cfg.RateLimitPerMinute)
	require.Equal(t, "15 1 * * *", cfg.LedgerWarmupCron)
	require.False(t, cfg.IsProduction())
	require.False(t, cfg.KafkaEnabled())
}

func TestLoadConfigKafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.KafkaEnabled())
	require.True(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoggerFormats(t *testing.T) {
	buf := new(bytes.Buffer)
	newLogger(&Config{LogFormat: "json", AppEnv: "production"}, buf).Info("hello", slog.Int("n", 1))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "hello", line["msg"])
	require.Equal(t, "printdesk", line["service"])

	buf.Reset()
	newLogger(&Config{LogFormat: "json", AppEnv: "production"}, buf).Debug("hidden")
	require.Empty(t, buf.String())

	buf.Reset()
	newLogger(nil, buf).Debug("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestNewReporterWithoutKafka(t *testing.T) {
	var closers []func() error
	reporter := NewReporter(&Config{}, slog.Default(), &closers)
	require.NotNil(t, reporter)
	require.Empty(t, closers)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(new(bytes.Buffer), nil))
	return NewRouter(RouterParams{
		Logger:          logger,
		Config:          &Config{RateLimitPerMinute: 100},
		PrintFitHandler: printfit.NewHandler(logger),
		Metrics:         observability.NewMetrics(),
	})
}

func TestRouterHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestRouterMountsPrintFitAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/print-fit", strings.NewReader(`{"width":2.9,"height":5.5,"unit":"ft"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"orientation":"width-aligned"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `printdesk_http_requests_total{code="200",route="/api/v1/print-fit"} 1`)
}

func TestRouterOmitsUnconfiguredHandlers(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestInTestMode(t *testing.T) {
	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv(testModeEnv, "yes please")
	RefreshTestMode()
	require.False(t, InTestMode())
}
