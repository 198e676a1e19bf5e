// Package config loads weaver CLI settings from defaults, an optional YAML
// file and WEAVER_ environment variables, in that order of precedence.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	werrors "github.com/toyz/weaver/internal/errors"
)

const envPrefix = "WEAVER_"

type Config struct {
	Log    LogConfig    `koanf:"log"`
	Rules  RulesConfig  `koanf:"rules"`
	Load   LoadConfig   `koanf:"load"`
	Output OutputConfig `koanf:"output"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type RulesConfig struct {
	Files  []string `koanf:"files"`
	Module string   `koanf:"module"` // module path for ./ names, read from go.mod when empty
}

type LoadConfig struct {
	Dir      string   `koanf:"dir"`
	Tests    bool     `koanf:"tests"`
	Patterns []string `koanf:"patterns"`
}

type OutputConfig struct {
	Format string `koanf:"format"` // text, json
}

// listKeys are split on commas when they come from the environment
var listKeys = map[string]bool{
	"rules.files":   true,
	"load.patterns": true,
}

// Load reads configuration. An empty path skips the file layer.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"log.level":     "warn",
		"log.format":    "text",
		"load.dir":      ".",
		"load.tests":    false,
		"load.patterns": []string{"./..."},
		"output.format": "text",
	}
	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, werrors.Wrapf(werrors.ConfigurationErrorCode, err, "cannot set default %s", key)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, werrors.WrapConfigurationError("load", "config file", err).
				WithLocation(werrors.SourceLocation{File: path})
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envValue), nil); err != nil {
		return nil, werrors.WrapConfigurationError("load", "environment", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, werrors.Wrap(werrors.ConfigurationErrorCode, "invalid configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envValue(key, value string) (string, interface{}) {
	key = strings.Replace(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".", -1)
	if listKeys[key] {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	errs := werrors.NewMultipleErrors()
	check := func(key, value string, allowed ...string) {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return
			}
		}
		errs.Add(werrors.Newf(werrors.ConfigurationErrorCode, "%s: unsupported value %q", key, value).
			WithSuggestion("use one of: " + strings.Join(allowed, ", ")))
	}

	check("log.level", c.Log.Level, "debug", "info", "warn", "warning", "error")
	check("log.format", c.Log.Format, "text", "json")
	check("output.format", c.Output.Format, "text", "json")
	return errs.ErrOrNil()
}
