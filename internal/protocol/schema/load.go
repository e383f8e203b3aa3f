package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat = errors.New("schema: unknown table format")
	ErrUnknownType   = errors.New("schema: unknown type")
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the table format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Parse decodes a table document. It does not validate; call Validate before
// handing the table to a codec.
func Parse(data []byte, format Format) (*Table, error) {
	var t Table
	switch format {
	case FormatTOML:
		meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&t)
		if err != nil {
			return nil, fmt.Errorf("schema: decode toml: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			log.Warn().Msgf("schema.Parse ignoring unknown keys=%v", undecoded)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&t); err != nil {
			return nil, fmt.Errorf("schema: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	log.Debug().Msgf("schema.Parse name=%s schema_id=%d messages=%d", t.Name, t.SchemaID, len(t.Messages))
	return &t, nil
}

// LoadFile reads and parses a table, choosing the format by extension.
func LoadFile(path string) (*Table, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(data, format)
}

// Marshal renders t in the given format, for `sbectl schema` output.
func Marshal(t *Table, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(t); err != nil {
			return nil, fmt.Errorf("schema: encode toml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatYAML:
		out, err := yaml.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("schema: encode yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
