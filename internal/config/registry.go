package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/elocute/internal/analysis"
	"github.com/MrWong99/elocute/internal/coach"
)

// ErrNotRegistered is returned by Create* methods when no factory has been
// registered under the requested name.
var ErrNotRegistered = errors.New("config: implementation not registered")

// AnalyzerFactory builds an analyzer from the full config.
type AnalyzerFactory func(cfg *Config) (analysis.Analyzer, error)

// CoachFactory builds a coach from its config section.
type CoachFactory func(cfg CoachConfig) (coach.Coach, error)

// Registry maps implementation names to constructors. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]AnalyzerFactory
	coaches   map[string]CoachFactory
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		analyzers: make(map[string]AnalyzerFactory),
		coaches:   make(map[string]CoachFactory),
	}
}

// RegisterAnalyzer registers an analyzer factory under name, replacing any
// earlier registration.
func (r *Registry) RegisterAnalyzer(name string, f AnalyzerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[name] = f
}

// RegisterCoach registers a coach factory under name.
func (r *Registry) RegisterCoach(name string, f CoachFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coaches[name] = f
}

// CreateAnalyzer builds the analyzer registered under name.
func (r *Registry) CreateAnalyzer(name string, cfg *Config) (analysis.Analyzer, error) {
	r.mu.RLock()
	f, ok := r.analyzers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: analyzer/%q", ErrNotRegistered, name)
	}
	return f(cfg)
}

// CreateCoach builds the coach named in cfg. An empty name yields a nil
// coach and no error.
func (r *Registry) CreateCoach(cfg CoachConfig) (coach.Coach, error) {
	if cfg.Name == "" {
		return nil, nil
	}
	r.mu.RLock()
	f, ok := r.coaches[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: coach/%q", ErrNotRegistered, cfg.Name)
	}
	return f(cfg)
}

// AnalyzerNames returns the registered analyzer names, sorted.
func (r *Registry) AnalyzerNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.analyzers))
	for n := range r.analyzers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
