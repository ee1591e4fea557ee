package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const EnvPrefix = "FILEMIGRATE_"

type Source struct {
	Provider func(k *koanf.Koanf) koanf.Provider
	Parser   koanf.Parser
	Options  []koanf.Option
}

// NewFileSource reads a JSON or YAML config file. The format is chosen by the
// file extension, defaulting to JSON.
func NewFileSource(path string) *Source {
	var parser koanf.Parser = kjson.Parser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = YAMLParser()
	}
	return &Source{
		Provider: func(_ *koanf.Koanf) koanf.Provider {
			return file.Provider(path)
		},
		Parser: parser,
	}
}

// NewEnvVarSource maps FILEMIGRATE_ variables onto config keys. A double
// underscore separates nested keys, e.g. FILEMIGRATE_EXECUTOR__TIMEOUT_SECONDS.
// List values may be separated by commas or spaces.
func NewEnvVarSource() *Source {
	return &Source{
		Provider: func(_ *koanf.Koanf) koanf.Provider {
			return env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
				key = strings.TrimPrefix(key, EnvPrefix)
				key = strings.ToLower(key)
				key = strings.ReplaceAll(key, "__", ".")
				if key == "extensions" {
					return key, strings.Fields(strings.ReplaceAll(value, ",", " "))
				}
				return key, value
			})
		},
	}
}

// flagKeys maps command-line flag names to config keys. Flags that aren't
// listed here are command arguments rather than config.
var flagKeys = map[string]string{
	"root":           "project_root",
	"migrations":     "migrations_dir",
	"history-file":   "history_file",
	"lock-wait":      "lock_wait_seconds",
	"timeout":        "executor.timeout_seconds",
	"max-output":     "executor.max_output",
	"no-color":       "no_color",
	"logging.level":  "logging.level",
	"logging.pretty": "logging.pretty",
}

// NewPFlagSource loads flags that were explicitly set on the command line.
// Duration flags are converted to seconds, keeping any fraction.
func NewPFlagSource(flagSet *pflag.FlagSet) *Source {
	return &Source{
		Provider: func(k *koanf.Koanf) koanf.Provider {
			return posflag.ProviderWithFlag(flagSet, ".", k, func(f *pflag.Flag) (string, interface{}) {
				key, ok := flagKeys[f.Name]
				if !ok || !f.Changed {
					return "", nil
				}
				return key, flagValue(f)
			})
		},
	}
}

func flagValue(f *pflag.Flag) interface{} {
	raw := f.Value.String()
	switch f.Value.Type() {
	case "bool":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case "duration":
		if d, err := time.ParseDuration(raw); err == nil {
			return d.Seconds()
		}
	}
	return raw
}

func NewStructSource(config Config) (*Source, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to json: %w", err)
	}

	return &Source{
		Provider: func(k *koanf.Koanf) koanf.Provider {
			return rawbytes.Provider(raw)
		},
		Parser: kjson.Parser(),
	}, nil
}

func LoadStruct(k *koanf.Koanf, config Config) error {
	// Not using the structs provider because it merges unset values over top
	// of set values. Converting to JSON first lets us take advantage of the
	// omitempty behavior.
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to json: %w", err)
	}

	if err := k.Load(rawbytes.Provider(raw), kjson.Parser()); err != nil {
		return fmt.Errorf("failed to load config from json bytes: %w", err)
	}

	return nil
}
