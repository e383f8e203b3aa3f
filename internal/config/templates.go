package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/sbewire/internal/protocol/schema"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "codec":
		return codecTemplate, nil
	case "schema":
		return string(schema.TradingDocument()), nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const codecTemplate = `# empty schema_file uses the built-in trading schema
schema_file = ""
strict_schema = true
buffer_size = 4096
metrics_namespace = "sbewire"
log_level = "info"
`
