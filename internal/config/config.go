package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the settings cattlelens reads from config.toml.
type Config struct {
	// Endpoints and AnalyzeURL are scheme://host[:port]; a path is ignored.
	Endpoints           []string
	ProbeTimeout        time.Duration
	ClassifyTimeout     time.Duration
	DetectTimeout       time.Duration
	ConnectivityTimeout time.Duration
	AnalyzeURL          string
	LogDir              string
	// HistoryDB is empty when history is disabled.
	HistoryDB string
}

const (
	defaultConfigPath = "~/.config/cattlelens/config.toml"
	defaultLogDir     = "~/.local/share/cattlelens"
	historyFileName   = "history.db"
	logFileName       = "cattlelens.log"

	defaultProbeTimeout        = 5 * time.Second
	defaultClassifyTimeout     = 30 * time.Second
	defaultDetectTimeout       = 10 * time.Second
	defaultConnectivityTimeout = 10 * time.Second

	historyOff = "off"
)

// DefaultEndpoints is the built-in probe order.
var DefaultEndpoints = []string{
	"http://10.248.154.68:8001",
	"http://172.20.139.189:8001",
	"http://localhost:8001",
	"http://192.168.1.100:8001",
	"http://10.0.0.100:8001",
}

// Default returns the configuration used when no file exists.
func Default() Config {
	logDir := mustExpand(defaultLogDir)
	return Config{
		Endpoints:           append([]string(nil), DefaultEndpoints...),
		ProbeTimeout:        defaultProbeTimeout,
		ClassifyTimeout:     defaultClassifyTimeout,
		DetectTimeout:       defaultDetectTimeout,
		ConnectivityTimeout: defaultConnectivityTimeout,
		LogDir:              logDir,
		HistoryDB:           filepath.Join(logDir, historyFileName),
	}
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Endpoints           []string `toml:"endpoints"`
		ProbeTimeout        string   `toml:"probe_timeout"`
		ClassifyTimeout     string   `toml:"classify_timeout"`
		DetectTimeout       string   `toml:"detect_timeout"`
		ConnectivityTimeout string   `toml:"connectivity_timeout"`
		AnalyzeURL          string   `toml:"analyze_url"`
		LogDir              string   `toml:"log_dir"`
		HistoryDB           *string  `toml:"history_db"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()
	if endpoints := normalizeEndpoints(raw.Endpoints); len(endpoints) > 0 {
		cfg.Endpoints = endpoints
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"probe_timeout", raw.ProbeTimeout, &cfg.ProbeTimeout},
		{"classify_timeout", raw.ClassifyTimeout, &cfg.ClassifyTimeout},
		{"detect_timeout", raw.DetectTimeout, &cfg.DetectTimeout},
		{"connectivity_timeout", raw.ConnectivityTimeout, &cfg.ConnectivityTimeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.value, d.dst); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.AnalyzeURL = strings.TrimSpace(raw.AnalyzeURL)

	if logDir := strings.TrimSpace(raw.LogDir); logDir != "" {
		cfg.LogDir = mustExpand(logDir)
		cfg.HistoryDB = filepath.Join(cfg.LogDir, historyFileName)
	}

	if raw.HistoryDB != nil {
		switch value := strings.TrimSpace(*raw.HistoryDB); {
		case strings.EqualFold(value, historyOff):
			cfg.HistoryDB = ""
		case value != "":
			cfg.HistoryDB = mustExpand(value)
		}
	}

	return cfg, nil
}

// LogPath returns the path of the application log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return filepath.Join(mustExpand(defaultLogDir), logFileName)
	}
	return filepath.Join(c.LogDir, logFileName)
}

// HistoryEnabled reports whether classification history should be kept.
func (c Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.HistoryDB) != ""
}

func parseDuration(key, value string, dst *time.Duration) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s: must be positive, got %s", key, value)
	}
	*dst = d
	return nil
}

func normalizeEndpoints(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimRight(strings.TrimSpace(entry), "/")
		if trimmed == "" {
			continue
		}
		if !strings.Contains(trimmed, "://") {
			trimmed = "http://" + trimmed
		}
		out = append(out, trimmed)
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
