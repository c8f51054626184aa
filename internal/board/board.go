package board

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bigbag/esp-merge/embedded"
)

// Defaults used when the board manifest does not set a key.
const (
	DefaultMCU       = "esp32"
	DefaultFlashSize = "4MB"
)

// Config is a read-only view of a PlatformIO board manifest.
// Keys are dotted paths into the manifest, e.g. "build.mcu".
// A nil *Config behaves like an empty one.
type Config struct {
	data      map[string]any
	overrides map[string]string
}

// Empty returns a configuration with no keys set.
func Empty() *Config {
	return &Config{}
}

// Parse decodes a board manifest. JSON manifests are accepted as YAML.
func Parse(data []byte) (*Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse board manifest: %w", err)
	}
	return &Config{data: m}, nil
}

// Load reads a board manifest from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board manifest: %w", err)
	}
	return Parse(data)
}

// Builtin returns one of the manifests bundled with the tool.
func Builtin(name string) (*Config, error) {
	data, err := embedded.Board(name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Get returns the scalar at key, or def when it is absent.
func (c *Config) Get(key, def string) string {
	if c == nil {
		return def
	}
	if v, ok := c.overrides[key]; ok {
		return v
	}

	var node any = c.data
	for _, seg := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return def
		}
		if node, ok = m[seg]; !ok {
			return def
		}
	}

	switch v := node.(type) {
	case string:
		return v
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v)
	default:
		return def
	}
}

// Override returns a copy of c with key set to value.
func (c *Config) Override(key, value string) *Config {
	out := &Config{overrides: map[string]string{key: value}}
	if c != nil {
		out.data = c.data
		for k, v := range c.overrides {
			if k != key {
				out.overrides[k] = v
			}
		}
	}
	return out
}

// Name returns the human readable board name, if the manifest has one.
func (c *Config) Name() string {
	return c.Get("name", "")
}
