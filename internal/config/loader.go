package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "MDPREVIEW_"

// loadFile reads settings from path into s, selecting the parser by
// extension. A missing file is not an error; s keeps its defaults.
func loadFile(path string, s *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, s); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, s); err != nil {
			return &ParseError{Path: path, Err: err}
		}
	default:
		return ErrUnsupportedFormat
	}

	return nil
}

// applyEnv overlays environment variable overrides onto s.
// Recognized variables:
//
//	MDPREVIEW_PREVIEW_ENABLED
//	MDPREVIEW_PREVIEW_DEBOUNCE_MS
//	MDPREVIEW_PREVIEW_MAX_WIDTH
//	MDPREVIEW_PREVIEW_MAX_HEIGHT
//	MDPREVIEW_DOWNLOAD_TIMEOUT_MS
//	MDPREVIEW_DOWNLOAD_MAX_BODY_MB
//	MDPREVIEW_LOG_LEVEL
//
// Unparsable values are ignored; the file/default value stands.
func applyEnv(s *Settings) {
	if v, ok := envBool("PREVIEW_ENABLED"); ok {
		s.Preview.Enabled = v
	}
	if v, ok := envInt("PREVIEW_DEBOUNCE_MS"); ok {
		s.Preview.DebounceMS = v
	}
	if v, ok := envInt("PREVIEW_MAX_WIDTH"); ok {
		s.Preview.MaxWidth = v
	}
	if v, ok := envInt("PREVIEW_MAX_HEIGHT"); ok {
		s.Preview.MaxHeight = v
	}
	if v, ok := envInt("DOWNLOAD_TIMEOUT_MS"); ok {
		s.Download.TimeoutMS = v
	}
	if v, ok := envInt("DOWNLOAD_MAX_BODY_MB"); ok {
		s.Download.MaxBodyMB = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		s.Log.Level = v
	}
}

// envBool reads a boolean environment override.
func envBool(name string) (bool, bool) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// envInt reads an integer environment override.
func envInt(name string) (int, bool) {
	v := os.Getenv(EnvPrefix + name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
