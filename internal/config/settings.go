package config

import "time"

// Settings is the full configuration tree.
type Settings struct {
	Preview  PreviewSettings  `toml:"preview" yaml:"preview"`
	Download DownloadSettings `toml:"download" yaml:"download"`
	Log      LogSettings      `toml:"log" yaml:"log"`
}

// PreviewSettings configures the preview engine.
type PreviewSettings struct {
	// Enabled globally permits image previewing.
	Enabled bool `toml:"enabled" yaml:"enabled"`

	// DebounceMS is the edit-quiet interval before a scan, in
	// milliseconds.
	DebounceMS int `toml:"debounce_ms" yaml:"debounce_ms"`

	// MaxWidth caps preview image width in pixels. Zero means no cap.
	MaxWidth int `toml:"max_width" yaml:"max_width"`

	// MaxHeight caps preview image height in pixels. Zero means no cap.
	MaxHeight int `toml:"max_height" yaml:"max_height"`
}

// Debounce returns the debounce interval as a duration.
func (p PreviewSettings) Debounce() time.Duration {
	return time.Duration(p.DebounceMS) * time.Millisecond
}

// DownloadSettings configures the remote image fetcher.
type DownloadSettings struct {
	// TimeoutMS bounds a single fetch, in milliseconds.
	TimeoutMS int `toml:"timeout_ms" yaml:"timeout_ms"`

	// MaxBodyMB caps the response size read per fetch, in mebibytes.
	MaxBodyMB int `toml:"max_body_mb" yaml:"max_body_mb"`
}

// Timeout returns the fetch timeout as a duration.
func (d DownloadSettings) Timeout() time.Duration {
	return time.Duration(d.TimeoutMS) * time.Millisecond
}

// MaxBodyBytes returns the response size cap in bytes.
func (d DownloadSettings) MaxBodyBytes() int64 {
	return int64(d.MaxBodyMB) << 20
}

// LogSettings configures logging.
type LogSettings struct {
	// Level is the minimum level to output: debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Preview: PreviewSettings{
			Enabled:    true,
			DebounceMS: 300,
		},
		Download: DownloadSettings{
			TimeoutMS: 30000,
			MaxBodyMB: 32,
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}
