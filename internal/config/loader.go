package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"conformcheck/internal/flags"
)

// EnvPrefix prefixes environment overrides: CONFORMCHECK_FORMAT=json.
const EnvPrefix = "CONFORMCHECK_"

// FileNames are looked up in the project root when --config is not given.
var FileNames = []string{".conformcheck.yaml", ".conformcheck.yml"}

// flagKeys maps CLI flag names to config keys. Environment variables use the
// same table: CONFORMCHECK_RULES_FILE addresses --rules-file.
var flagKeys = map[string]string{
	flags.FlagRoot:    "target.root",
	flags.FlagSubject: "target.subject",

	flags.FlagRules:     "rules.selector",
	flags.FlagSet:       "rules.set",
	flags.FlagRulesFile: "rules.file",

	flags.FlagFormat:       "output.format",
	flags.FlagFilterStatus: "output.filter_status",
	flags.FlagReport:       "output.report",
	flags.FlagOut:          "output.out",
	flags.FlagOutFormat:    "output.out_format",
	flags.FlagEmit:         "output.emit",
	flags.FlagNoConsole:    "output.no_console",

	flags.FlagStrict:         "runtime.strict",
	flags.FlagRuntimeVersion: "runtime.version",
	flags.FlagExtensions:     "runtime.extensions",
	flags.FlagPHP:            "runtime.php",
	flags.FlagProbeTimeout:   "runtime.probe_timeout",
	flags.FlagConcurrency:    "runtime.concurrency",
	flags.FlagTimeout:        "runtime.timeout",
	flags.FlagVerbose:        "runtime.verbose",
}

func defaultValues() map[string]interface{} {
	d := New()
	return map[string]interface{}{
		"target.root":           d.Target.Root,
		"target.subject":        d.Target.Subject,
		"output.format":         d.Output.Format,
		"runtime.php":           d.Runtime.PHP,
		"runtime.probe_timeout": d.Runtime.ProbeTimeout.String(),
		"runtime.concurrency":   d.Runtime.Concurrency,
		"runtime.timeout":       d.Runtime.Timeout.String(),
	}
}

// Load builds a Config from defaults, the config file, CONFORMCHECK_*
// environment variables and explicitly set flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
// The returned Config is not validated.
func Load(configFile string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else looked up in the project root.
	if configFile == "" {
		configFile = findConfigFile(projectRoot(fs))
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	// 3. Environment variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set on the command line.
	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = configFile
	cfg.Runtime.ExtensionsSet = k.Exists("runtime.extensions")
	return &cfg, nil
}

// envKey maps CONFORMCHECK_RULES_FILE to rules.file. Unknown variables are
// ignored.
func envKey(s string) string {
	name := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return flagKeys[strings.ReplaceAll(name, "_", "-")]
}

// projectRoot resolves --root before the config file is read, since the file
// is looked up inside it.
func projectRoot(fs *pflag.FlagSet) string {
	if fs != nil && fs.Changed(flags.FlagRoot) {
		if v, _ := fs.GetString(flags.FlagRoot); v != "" {
			return v
		}
	}
	if v := os.Getenv(EnvPrefix + "ROOT"); v != "" {
		return v
	}
	return New().Target.Root
}

func findConfigFile(root string) string {
	for _, name := range FileNames {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
