package core

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const configDelim = "."

// Config is a read-only view over layered configuration sources.
type Config struct {
	k *koanf.Koanf
}

// NewConfig builds a Config from an in-memory map. Mostly useful in tests.
func NewConfig(values map[string]interface{}) *Config {
	k := koanf.New(configDelim)
	_ = k.Load(confmap.Provider(values, configDelim), nil)
	return &Config{k: k}
}

// LoadConfig layers, from lowest to highest precedence: defaults, an
// optional YAML file, a .env file, NAMESPACE_ prefixed environment variables
// and --key=value arguments.
//
// Environment keys use a double underscore as level separator:
// CAPTAIN_API__BASE_URL maps to api.base_url.
func LoadConfig(namespace string, args []string, defaults map[string]interface{}) (*Config, error) {
	k := koanf.New(configDelim)
	prefix := strings.ToUpper(namespace) + "_"

	if len(defaults) > 0 {
		if err := k.Load(confmap.Provider(defaults, configDelim), nil); err != nil {
			return nil, fmt.Errorf("load defaults: %w", err)
		}
	}

	flags := parseArgs(args)

	path := flags["config"]
	if path == "" {
		path = os.Getenv(prefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// .env is optional; existing environment wins over it.
	_ = godotenv.Load()

	err := k.Load(env.Provider(prefix, configDelim, func(s string) string {
		key := strings.TrimPrefix(s, prefix)
		if key == "CONFIG" {
			return ""
		}
		return strings.ToLower(strings.ReplaceAll(key, "__", configDelim))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	delete(flags, "config")
	if len(flags) > 0 {
		values := make(map[string]interface{}, len(flags))
		for key, value := range flags {
			values[key] = value
		}
		if err := k.Load(confmap.Provider(values, configDelim), nil); err != nil {
			return nil, fmt.Errorf("load arguments: %w", err)
		}
	}

	return &Config{k: k}, nil
}

// parseArgs reads --key=value and --flag arguments. Anything else is ignored.
func parseArgs(args []string) map[string]string {
	out := make(map[string]string)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		arg = strings.TrimPrefix(arg, "--")
		key, value, found := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !found {
			value = "true"
		}
		out[key] = value
	}
	return out
}

func (c *Config) GetString(key string) (string, bool) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return "", false
	}
	return c.k.String(key), true
}

func (c *Config) GetBool(key string) (bool, bool) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return false, false
	}
	return c.k.Bool(key), true
}

func (c *Config) GetInt(key string) (int, bool) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return 0, false
	}
	return c.k.Int(key), true
}

// GetDuration accepts Go duration strings ("15s") or plain seconds.
func (c *Config) GetDuration(key string) (time.Duration, bool) {
	raw, ok := c.GetString(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	if secs := c.k.Int(key); secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}
