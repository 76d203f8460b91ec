package app

import (
	"fmt"
	"log/slog"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/coach"
	"github.com/MrWong99/elocute/internal/config"
)

// RegisterBuiltins wires the analyzers and coaches shipped with elocute into
// reg.
func RegisterBuiltins(reg *config.Registry) {
	reg.RegisterAnalyzer("mock", func(cfg *config.Config) (analysis.Analyzer, error) {
		return analysis.NewMock(cfg.Visemes.ImageDir), nil
	})

	reg.RegisterAnalyzer("http", func(cfg *config.Config) (analysis.Analyzer, error) {
		return analysis.NewHTTP(cfg.Analyzer.URL, cfg.Analyzer.Timeout)
	})

	// Any OpenAI-compatible endpoint works through base_url.
	reg.RegisterCoach("openai", func(cc config.CoachConfig) (coach.Coach, error) {
		var opts []coach.Option
		if cc.BaseURL != "" {
			opts = append(opts, coach.WithBaseURL(cc.BaseURL))
		}
		if cc.Timeout > 0 {
			opts = append(opts, coach.WithTimeout(cc.Timeout))
		}
		return coach.NewOpenAI(cc.APIKey, cc.Model, opts...)
	})

	for _, name := range reg.AnalyzerNames() {
		slog.Debug("registered analyzer", "name", name)
	}
}

// buildAnalyzer creates the configured analyzer chain: the primary guarded by
// a circuit breaker, an optional fallback, and the coach on top.
func buildAnalyzer(cfg *config.Config, reg *config.Registry) (analysis.Analyzer, readiness, error) {
	primary, err := reg.CreateAnalyzer(cfg.Analyzer.Name, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create analyzer %q: %w", cfg.Analyzer.Name, err)
	}

	guard := newGuard(cfg, primary)
	if fb := cfg.Analyzer.Fallback; fb != "" {
		a, err := reg.CreateAnalyzer(fb, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create fallback analyzer %q: %w", fb, err)
		}
		guard.AddFallback(fb, a)
		slog.Info("analyzer fallback configured", "primary", cfg.Analyzer.Name, "fallback", fb)
	}

	c, err := reg.CreateCoach(cfg.Coach)
	if err != nil {
		return nil, nil, fmt.Errorf("create coach %q: %w", cfg.Coach.Name, err)
	}
	if c == nil {
		return guard, guard, nil
	}
	slog.Info("coach enabled", "name", cfg.Coach.Name, "model", cfg.Coach.Model)
	return coach.Decorate(guard, c), guard, nil
}
