package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/modelcatalog/internal/app"
)

const (
	envPrefix = "MODELCATALOG_"
	// envNestingSeparator separates nesting levels in variable names, since
	// single underscores already appear in keys like api_key.
	envNestingSeparator = "__"
)

// flagKeys maps command line flags to the configuration keys they override.
var flagKeys = map[string]string{
	"address":     "server.address",
	"models-path": "server.models_path",
	"metrics":     "metrics.enabled",
	"strict":      "discovery.strict",
}

// loadConfig builds the configuration from defaults, the optional TOML file at path,
// MODELCATALOG_* environment variables and command line flags, in increasing precedence.
func loadConfig(path string, cmd *cli.Command, environ func() []string) (*app.Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(app.Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found", path)
			}
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnv,
		EnvironFunc:   environ,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if cmd != nil {
		if err := k.Load(confmap.Provider(flagOverrides(cmd), "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg app.Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnv turns MODELCATALOG_PROVIDERS__OPENAI__API_KEY into providers.openai.api_key.
func transformEnv(key, value string) (string, any) {
	key = strings.TrimPrefix(key, envPrefix)
	if key == "CONFIG" {
		// Consumed by the --config flag.
		return "", nil
	}
	key = strings.ToLower(strings.ReplaceAll(key, envNestingSeparator, "."))
	return key, value
}

// flagOverrides collects the flags the user set explicitly.
func flagOverrides(cmd *cli.Command) map[string]any {
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if !cmd.IsSet(flag) {
			continue
		}
		switch flag {
		case "metrics", "strict":
			overrides[key] = cmd.Bool(flag)
		default:
			overrides[key] = cmd.String(flag)
		}
	}
	return overrides
}
