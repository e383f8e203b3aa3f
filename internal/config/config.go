package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sbewire/internal/logging"
	"github.com/danmuck/sbewire/internal/observability"
	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/danmuck/sbewire/internal/protocol/schema"
)

// CodecConfig drives how binaries build their codec.
type CodecConfig struct {
	SchemaFile       string
	StrictSchema     bool
	BufferSize       int
	MetricsNamespace string
	LogLevel         string
}

type fileConfig struct {
	SchemaFile       string `toml:"schema_file"`
	StrictSchema     bool   `toml:"strict_schema"`
	BufferSize       int    `toml:"buffer_size"`
	MetricsNamespace string `toml:"metrics_namespace"`
	LogLevel         string `toml:"log_level"`
}

const (
	DefaultBufferSize = 4096
	MaxBufferSize     = 1 << 20
)

func DefaultCodecConfig() CodecConfig {
	return CodecConfig{
		StrictSchema:     true,
		BufferSize:       DefaultBufferSize,
		MetricsNamespace: observability.DefaultNamespace,
		LogLevel:         "info",
	}
}

// LoadCodecConfig overlays the keys defined in path onto the defaults.
// Relative schema paths resolve against the config file's directory.
func LoadCodecConfig(path string) (CodecConfig, error) {
	cfg := DefaultCodecConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return CodecConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return CodecConfig{}, fmt.Errorf("config parse failed (%s): unknown keys %v", path, undecoded)
	}

	if meta.IsDefined("schema_file") {
		cfg.SchemaFile = strings.TrimSpace(raw.SchemaFile)
		if cfg.SchemaFile != "" && !filepath.IsAbs(cfg.SchemaFile) {
			cfg.SchemaFile = filepath.Join(filepath.Dir(path), cfg.SchemaFile)
		}
	}
	if meta.IsDefined("strict_schema") {
		cfg.StrictSchema = raw.StrictSchema
	}
	if meta.IsDefined("buffer_size") {
		cfg.BufferSize = raw.BufferSize
	}
	if meta.IsDefined("metrics_namespace") {
		cfg.MetricsNamespace = strings.TrimSpace(raw.MetricsNamespace)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	if err := ValidateCodecConfig(cfg); err != nil {
		return CodecConfig{}, err
	}
	return cfg, nil
}

func ValidateCodecConfig(cfg CodecConfig) error {
	if cfg.BufferSize < sbe.HeaderLength || cfg.BufferSize > MaxBufferSize {
		return fmt.Errorf("buffer_size must be between %d and %d", sbe.HeaderLength, MaxBufferSize)
	}
	if cfg.MetricsNamespace == "" {
		return fmt.Errorf("metrics_namespace is required")
	}
	if !logging.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf("log_level %q is not a level", cfg.LogLevel)
	}
	if cfg.SchemaFile != "" {
		if _, err := schema.FormatFromPath(cfg.SchemaFile); err != nil {
			return err
		}
	}
	return nil
}

// LoadTable returns the table cfg points at, or the built-in trading schema.
func LoadTable(cfg CodecConfig) (*schema.Table, error) {
	if cfg.SchemaFile == "" {
		return schema.Trading()
	}
	return schema.LoadFile(cfg.SchemaFile)
}
