package config

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VisualizerChanged is set when any waveform setting changed. New
	// settings apply from the next recording on.
	VisualizerChanged bool

	// PlaceholderChanged is set when the visual aid fallback changed.
	PlaceholderChanged bool

	// RestartRequired lists changed sections that only take effect after a
	// restart.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.VisualizerChanged && !d.PlaceholderChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.VisualizerChanged = old.Visualizer != new.Visualizer
	d.PlaceholderChanged = old.Visemes.Placeholder != new.Visemes.Placeholder

	restart := func(section string, changed bool) {
		if changed {
			d.RestartRequired = append(d.RestartRequired, section)
		}
	}
	restart("server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr)
	restart("server.static_dir", old.Server.StaticDir != new.Server.StaticDir)
	restart("server.tls", !equalTLS(old.Server.TLS, new.Server.TLS))
	restart("analyzer", old.Analyzer != new.Analyzer)
	restart("coach", old.Coach != new.Coach)
	restart("recordings", old.Recordings != new.Recordings)
	restart("history", old.History != new.History)
	restart("visemes.image_dir", old.Visemes.ImageDir != new.Visemes.ImageDir)
	return d
}

func equalTLS(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
