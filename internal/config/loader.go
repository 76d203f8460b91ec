package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidNames lists the known implementation names per pluggable component.
var ValidNames = map[string][]string{
	"analyzer": {"mock", "http"},
	"coach":    {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over [Default], expands environment
// references in secrets and validates the result. An empty document yields
// the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.Coach.APIKey = expandEnv(cfg.Coach.APIKey)
	cfg.History.PostgresDSN = expandEnv(cfg.History.PostgresDSN)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnv resolves a value of the exact form ${VAR}; anything else is
// returned unchanged.
func expandEnv(v string) string {
	name, ok := strings.CutPrefix(v, "${")
	if !ok {
		return v
	}
	name, ok = strings.CutSuffix(name, "}")
	if !ok || name == "" {
		return v
	}
	return os.Getenv(name)
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil && (tls.CertFile == "" || tls.KeyFile == "") {
		errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
	}

	// Visualizer
	v := cfg.Visualizer
	if v.BarCount < 1 {
		errs = append(errs, fmt.Errorf("visualizer.bar_count %d must be at least 1", v.BarCount))
	}
	if v.MinFreq < 0 || v.MinFreq >= v.MaxFreq {
		errs = append(errs, fmt.Errorf("visualizer.min_freq %.0f must be non-negative and below max_freq %.0f", v.MinFreq, v.MaxFreq))
	}
	if v.Floor < 0 || v.Floor > 100 {
		errs = append(errs, fmt.Errorf("visualizer.floor %.1f is out of range [0, 100]", v.Floor))
	}
	if v.Exponent <= 0 {
		errs = append(errs, fmt.Errorf("visualizer.exponent %.2f must be positive", v.Exponent))
	}
	if v.Gain <= 0 {
		errs = append(errs, fmt.Errorf("visualizer.gain %.2f must be positive", v.Gain))
	}
	if v.Interval <= 0 {
		errs = append(errs, fmt.Errorf("visualizer.interval %s must be positive", v.Interval))
	}
	if v.FFTSize < 32 || v.FFTSize > 32768 || v.FFTSize&(v.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("visualizer.fft_size %d must be a power of two in [32, 32768]", v.FFTSize))
	}
	if v.Smoothing < 0 || v.Smoothing >= 1 {
		errs = append(errs, fmt.Errorf("visualizer.smoothing %.2f is out of range [0, 1)", v.Smoothing))
	}
	if v.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("visualizer.sample_rate %d must be positive", v.SampleRate))
	} else if v.MaxFreq > float64(v.SampleRate)/2 {
		errs = append(errs, fmt.Errorf("visualizer.max_freq %.0f exceeds the Nyquist frequency of sample_rate %d", v.MaxFreq, v.SampleRate))
	}

	// Analyzer
	errs = append(errs, validateName("analyzer", "analyzer.name", cfg.Analyzer.Name, false)...)
	errs = append(errs, validateName("analyzer", "analyzer.fallback", cfg.Analyzer.Fallback, true)...)
	if cfg.Analyzer.Name == "http" && cfg.Analyzer.URL == "" {
		errs = append(errs, errors.New("analyzer.url is required when analyzer.name is http"))
	}
	if cfg.Analyzer.Fallback != "" && cfg.Analyzer.Fallback == cfg.Analyzer.Name {
		errs = append(errs, fmt.Errorf("analyzer.fallback %q must differ from analyzer.name", cfg.Analyzer.Fallback))
	}
	if cfg.Analyzer.Fallback == "http" && cfg.Analyzer.URL == "" {
		errs = append(errs, errors.New("analyzer.url is required when analyzer.fallback is http"))
	}

	// Coach
	errs = append(errs, validateName("coach", "coach.name", cfg.Coach.Name, true)...)
	if cfg.Coach.Name != "" && cfg.Coach.Model == "" {
		errs = append(errs, errors.New("coach.model is required when a coach is configured"))
	}
	if cfg.Coach.Name == "openai" && cfg.Coach.APIKey == "" && cfg.Coach.BaseURL == "" {
		errs = append(errs, errors.New("coach.api_key is required for openai unless base_url points at a compatible server"))
	}

	// Storage
	if cfg.Recordings.Dir == "" {
		errs = append(errs, errors.New("recordings.dir is required"))
	}
	switch {
	case !cfg.History.Backend.IsValid():
		errs = append(errs, fmt.Errorf("history.backend %q is invalid; valid values: file, postgres", cfg.History.Backend))
	case cfg.History.Backend == HistoryFile && cfg.History.Path == "":
		errs = append(errs, errors.New("history.path is required for the file backend"))
	case cfg.History.Backend == HistoryPostgres && cfg.History.PostgresDSN == "":
		errs = append(errs, errors.New("history.postgres_dsn is required for the postgres backend"))
	}

	return errors.Join(errs...)
}

// validateName checks name against [ValidNames] for kind.
func validateName(kind, field, name string, optional bool) []error {
	if name == "" {
		if optional {
			return nil
		}
		return []error{fmt.Errorf("%s is required", field)}
	}
	known := ValidNames[kind]
	if slices.Contains(known, name) {
		return nil
	}
	return []error{fmt.Errorf("%s %q is invalid; valid values: %s", field, name, strings.Join(known, ", "))}
}
