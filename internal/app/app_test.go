package app_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/app"
	"github.com/MrWong99/elocute/internal/config"
	"github.com/MrWong99/elocute/internal/observe"
)

// testConfig returns the default config rooted in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Recordings.Dir = filepath.Join(dir, "recordings")
	cfg.History.Path = filepath.Join(dir, "recordings", "history.jsonl")
	cfg.Visemes.ImageDir = filepath.Join(dir, "visemes")
	return cfg
}

func testOptions(t *testing.T, extra ...app.Option) []app.Option {
	t.Helper()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider())
	if err != nil {
		t.Fatal(err)
	}
	return append([]app.Option{app.WithMetrics(m), app.WithGatherer(prometheus.NewRegistry())}, extra...)
}

func newApp(t *testing.T, cfg *config.Config, opts ...app.Option) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, testOptions(t, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func request(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

var analyzeBody = `{"audio":"` + base64.StdEncoding.EncodeToString([]byte("audio")) + `"}`

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	a := newApp(t, testConfig(t))
	h := a.Handler()

	tests := []struct {
		path string
		want int
	}{
		{path: "/healthz", want: http.StatusOK},
		{path: "/readyz", want: http.StatusOK},
		{path: "/api/sentence", want: http.StatusOK},
		{path: "/metrics", want: http.StatusOK},
		{path: "/api/history", want: http.StatusOK},
	}
	for _, tt := range tests {
		if rec := request(t, h, http.MethodGet, tt.path, ""); rec.Code != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   error
	}{
		{
			name:   "unknown analyzer",
			modify: func(c *config.Config) { c.Analyzer.Name = "oracle" },
			want:   config.ErrNotRegistered,
		},
		{
			name:   "unknown fallback",
			modify: func(c *config.Config) { c.Analyzer.Fallback = "oracle" },
			want:   config.ErrNotRegistered,
		},
		{
			name:   "unknown coach",
			modify: func(c *config.Config) { c.Coach.Name = "oracle" },
			want:   config.ErrNotRegistered,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t)
			tt.modify(cfg)
			_, err := app.New(context.Background(), cfg, testOptions(t)...)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("coach without key", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.Coach.Name = "openai"
		if _, err := app.New(context.Background(), cfg, testOptions(t)...); err == nil {
			t.Error("New() should reject an openai coach without api key")
		}
	})
}

func failingRegistry() *config.Registry {
	reg := config.NewRegistry()
	app.RegisterBuiltins(reg)
	reg.RegisterAnalyzer("down", func(*config.Config) (analysis.Analyzer, error) {
		return analysis.AnalyzerFunc(func(context.Context, analysis.Request) (analysis.Result, error) {
			return analysis.Result{}, errors.New("connection refused")
		}), nil
	})
	return reg
}

func TestApp_FallbackServesAnalysis(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Analyzer.Name = "down"
	cfg.Analyzer.Fallback = "mock"
	a := newApp(t, cfg, app.WithRegistry(failingRegistry()))
	h := a.Handler()

	request(t, h, http.MethodPut, "/api/sentence", `{"sentence":"the quick brown fox jumps"}`)
	rec := request(t, h, http.MethodPost, "/api/analyze", analyzeBody)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "errorCarousel") {
		t.Errorf("analyze = %d, want mock corrections from the fallback: %s", rec.Code, rec.Body.String())
	}
}

func TestApp_ReadyzReportsOpenBreaker(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Analyzer.Name = "down"
	cfg.Analyzer.Breaker.MaxFailures = 1
	cfg.Analyzer.Breaker.ResetTimeout = time.Hour
	a := newApp(t, cfg, app.WithRegistry(failingRegistry()))
	h := a.Handler()

	request(t, h, http.MethodPut, "/api/sentence", `{"sentence":"hello"}`)
	rec := request(t, h, http.MethodPost, "/api/analyze", analyzeBody)
	if !strings.Contains(rec.Body.String(), "analysis-error") {
		t.Errorf("analyze should render a failure: %s", rec.Body.String())
	}

	rec = request(t, h, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "analyzer circuit open") {
		t.Errorf("readyz body = %s", rec.Body.String())
	}
}

func TestApp_Run(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	a := newApp(t, testConfig(t), app.WithListener(ln))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	var resp *http.Response
	for range 50 {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestApp_ApplyConfig(t *testing.T) {
	t.Parallel()
	var level slog.LevelVar
	cfg := testConfig(t)
	a := newApp(t, cfg, app.WithLevelVar(&level))

	next := *cfg
	next.Server.LogLevel = config.LogDebug
	next.Visualizer.BarCount = 12
	a.ApplyConfig(cfg, &next, config.Diff(cfg, &next))

	if level.Level() != slog.LevelDebug {
		t.Errorf("level = %v, want debug", level.Level())
	}
}

func TestApp_Shutdown(t *testing.T) {
	t.Parallel()
	a, err := app.New(context.Background(), testConfig(t), testOptions(t)...)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}
	// Idempotent.
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("second Shutdown() error: %v", err)
	}
}

func TestApp_ShutdownExpiredContext(t *testing.T) {
	t.Parallel()
	a, err := app.New(context.Background(), testConfig(t), testOptions(t)...)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Shutdown(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Shutdown() = %v, want context.Canceled", err)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		in   config.LogLevel
		want slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := app.LevelFor(tt.in); got != tt.want {
			t.Errorf("LevelFor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
