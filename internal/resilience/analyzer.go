package resilience

import (
	"context"

	"github.com/MrWong99/elocute/internal/analysis"
)

// AnalyzerGuard wraps one or more analyzers in breakers and fails over
// between them.
type AnalyzerGuard struct {
	group *FallbackGroup[analysis.Analyzer]
}

// Compile-time interface check.
var _ analysis.Analyzer = (*AnalyzerGuard)(nil)

// NewAnalyzerGuard guards primary. Register fallbacks with AddFallback before
// first use.
func NewAnalyzerGuard(name string, primary analysis.Analyzer, cfg FallbackConfig) *AnalyzerGuard {
	return &AnalyzerGuard{group: NewFallbackGroup(name, primary, cfg)}
}

// AddFallback registers an analyzer used when all earlier ones fail.
func (g *AnalyzerGuard) AddFallback(name string, a analysis.Analyzer) {
	g.group.AddFallback(name, a)
}

// Analyze implements [analysis.Analyzer]. Only transport errors trip the
// breakers; an attempt the analyzer rejected is returned as is.
func (g *AnalyzerGuard) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	return Do(ctx, g.group, func(a analysis.Analyzer) (analysis.Result, error) {
		return a.Analyze(ctx, req)
	})
}

// Ready reports whether any analyzer is currently accepting calls.
func (g *AnalyzerGuard) Ready() bool { return g.group.Healthy() }

// State returns the primary analyzer's breaker state.
func (g *AnalyzerGuard) State() State { return g.group.Breaker(0).State() }
